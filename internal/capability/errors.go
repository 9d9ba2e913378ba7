package capability

import "errors"

var (
	// ErrNotConfigured: no hay secreto configurado para este tipo de capability.
	// Se distingue de un token inválido para que el operador vea "nadie puede entrar".
	ErrNotConfigured = errors.New("capability: signing secret not configured")

	ErrMalformed     = errors.New("capability: malformed token")
	ErrBadSignature  = errors.New("capability: signature mismatch")
	ErrExpired       = errors.New("capability: token expired")
	ErrNotYetValid   = errors.New("capability: token issued in the future")
	ErrInvalidClaims = errors.New("capability: invalid claims")
)

// Reason devuelve el código que ve el usuario final.
// Malformed y BadSignature comparten código para no exponer un oráculo de falsificación.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrExpired):
		return "expired"
	default:
		return "invalid_token"
	}
}
