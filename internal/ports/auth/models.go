package auth

import "time"

// Claims de la sesión admin. Hay un solo rol, así que no lleva identidad.
type Claims struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
}
