package capability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour

	// MaxClockSkew: tolerancia para tokens emitidos "en el futuro" por otro proceso.
	MaxClockSkew = 60 * time.Second

	sessionVersion = "v1"
)

// Sessions emite y valida la capability de sesión admin.
// Payload: "v1.<issued_at unix>". No lleva identidad: un solo rol, un solo secreto.
type Sessions struct {
	signer *Signer
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(signer *Signer, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		signer: signer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *Sessions) TTL() time.Duration { return s.ttl }

func (s *Sessions) Configured() bool {
	return s != nil && s.signer.Configured()
}

func (s *Sessions) Mint() (string, error) {
	payload := fmt.Sprintf("%s.%d", sessionVersion, s.now().Unix())
	return s.signer.Sign([]byte(payload))
}

// Verify devuelve el instante de emisión si el token es válido ahora.
func (s *Sessions) Verify(token string) (time.Time, error) {
	payload, err := s.open(token)
	if err != nil {
		return time.Time{}, err
	}

	issuedAt, err := parseSessionPayload(string(payload))
	if err != nil {
		return time.Time{}, err
	}

	now := s.now()
	if issuedAt.After(now.Add(MaxClockSkew)) {
		return time.Time{}, ErrNotYetValid
	}
	if now.Sub(issuedAt) > s.ttl {
		return time.Time{}, ErrExpired
	}
	return issuedAt, nil
}

func (s *Sessions) Valid(token string) bool {
	if strings.TrimSpace(token) == "" {
		return false
	}
	_, err := s.Verify(token)
	return err == nil
}

// open acepta, además del formato actual, la cookie "<unix>.<mac>" emitida por la
// versión anterior del panel: el MAC es sobre "v1.<unix>" pero el segmento va en claro.
func (s *Sessions) open(token string) ([]byte, error) {
	token = strings.TrimSpace(token)
	if ts, macSeg, ok := strings.Cut(token, separator); ok && bareTimestamp(ts) && !strings.Contains(macSeg, separator) {
		payload := []byte(sessionVersion + separator + ts)
		if err := s.signer.checkMAC(payload, macSeg); err != nil {
			return nil, err
		}
		return payload, nil
	}
	return s.signer.open(token, true)
}

func bareTimestamp(s string) bool {
	if len(s) < 8 || len(s) > 12 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func parseSessionPayload(p string) (time.Time, error) {
	version, ts, ok := strings.Cut(p, ".")
	if !ok || version != sessionVersion {
		return time.Time{}, ErrMalformed
	}
	if ts == "" || len(ts) > 12 {
		return time.Time{}, ErrMalformed
	}
	for _, c := range ts {
		if c < '0' || c > '9' {
			return time.Time{}, ErrMalformed
		}
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || unix <= 0 {
		return time.Time{}, ErrMalformed
	}
	return time.Unix(unix, 0), nil
}
