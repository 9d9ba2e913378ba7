package capability

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Signer firma y verifica payloads opacos con HMAC-SHA256.
// No sabe qué significa el payload; expiración y claims los valida cada tipo de token.
type Signer struct {
	key []byte
}

// NewSigner crea un Signer. Un secreto vacío deja el signer "no configurado":
// toda llamada falla con ErrNotConfigured.
func NewSigner(secret string) *Signer {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &Signer{}
	}
	return &Signer{key: []byte(secret)}
}

func (s *Signer) Configured() bool {
	return s != nil && len(s.key) > 0
}

// Sign devuelve base64url(payload) + "." + base64url(mac).
func (s *Signer) Sign(payload []byte) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	if len(payload) == 0 {
		return "", ErrInvalidClaims
	}
	mac, err := jwt.SigningMethodHS256.Sign(string(payload), s.key)
	if err != nil {
		return "", err
	}
	return joinSegments(payload, mac), nil
}

// Open verifica un token de dos segmentos y devuelve el payload firmado.
func (s *Signer) Open(token string) ([]byte, error) {
	return s.open(token, false)
}

// open acepta además la variante legacy de tres segmentos "v1.<unix>.<mac>",
// donde el payload va en claro (los dos primeros segmentos unidos por ".").
func (s *Signer) open(token string, allowLegacy bool) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	parts := strings.Split(strings.TrimSpace(token), separator)

	var (
		payload []byte
		macSeg  string
		err     error
	)
	switch {
	case len(parts) == 2:
		payload, err = decodeSegment(parts[0])
		if err != nil {
			return nil, err
		}
		macSeg = parts[1]
	case len(parts) == 3 && allowLegacy:
		if parts[0] == "" || parts[1] == "" {
			return nil, ErrMalformed
		}
		payload = []byte(parts[0] + separator + parts[1])
		macSeg = parts[2]
	default:
		return nil, ErrMalformed
	}

	if err := s.checkMAC(payload, macSeg); err != nil {
		return nil, err
	}
	return payload, nil
}

// checkMAC verifica macSeg contra payload. SigningMethodHMAC.Verify compara con
// hmac.Equal (tiempo constante).
func (s *Signer) checkMAC(payload []byte, macSeg string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	mac, err := decodeSegment(macSeg)
	if err != nil {
		return err
	}
	if err := jwt.SigningMethodHS256.Verify(string(payload), mac, s.key); err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return ErrBadSignature
		}
		return err
	}
	return nil
}
