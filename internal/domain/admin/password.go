package admin

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotConfigured   = errors.New("admin auth is not configured")
	ErrInvalidPassword = errors.New("invalid password")
)

// PasswordChecker compara la contraseña del login contra un hash bcrypt
// (preferido) o contra el valor en claro de ADMIN_PASSWORD.
type PasswordChecker struct {
	hash  []byte
	plain []byte
}

func NewPasswordChecker(plain, bcryptHash string) *PasswordChecker {
	return &PasswordChecker{
		hash:  []byte(strings.TrimSpace(bcryptHash)),
		plain: []byte(plain),
	}
}

func (p *PasswordChecker) Configured() bool {
	return p != nil && (len(p.hash) > 0 || len(p.plain) > 0)
}

func (p *PasswordChecker) Check(password string) error {
	if !p.Configured() {
		return ErrNotConfigured
	}
	if password == "" {
		return ErrInvalidPassword
	}

	if len(p.hash) > 0 {
		if err := bcrypt.CompareHashAndPassword(p.hash, []byte(password)); err != nil {
			return ErrInvalidPassword
		}
		return nil
	}

	if subtle.ConstantTimeCompare(p.plain, []byte(password)) != 1 {
		return ErrInvalidPassword
	}
	return nil
}
