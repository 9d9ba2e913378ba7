package auth

import "time"

// SessionVerifier valida el valor de la cookie de sesión admin y devuelve el instante de emisión.
// Lo implementa capability.Sessions.
type SessionVerifier interface {
	Verify(token string) (time.Time, error)
	TTL() time.Duration
}
