package capability

import (
	"encoding/json"
	"strings"
	"time"
)

const DefaultResponseTTL = 14 * 24 * time.Hour

// ResponseClaims autoriza una única respuesta del reviewee a una review.
type ResponseClaims struct {
	ReviewID    string `json:"review_id"`
	RevieweeTID int64  `json:"reviewee_tid"`
	Exp         int64  `json:"exp"`
}

func (c ResponseClaims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0)
}

func (c ResponseClaims) validate() error {
	if strings.TrimSpace(c.ReviewID) == "" || c.RevieweeTID <= 0 || c.Exp <= 0 {
		return ErrMalformed
	}
	return nil
}

// Responses emite y valida tokens de respuesta.
// El uso único NO lo garantiza el token: lo verifica el servicio de reviews contra el registro.
type Responses struct {
	signer *Signer
	ttl    time.Duration
	now    func() time.Time
}

func NewResponses(signer *Signer, ttl time.Duration) *Responses {
	if ttl <= 0 {
		ttl = DefaultResponseTTL
	}
	return &Responses{
		signer: signer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *Responses) Configured() bool {
	return r != nil && r.signer.Configured()
}

// Mint firma un token para (reviewID, revieweeTID). ttl <= 0 usa el TTL por defecto.
func (r *Responses) Mint(reviewID string, revieweeTID int64, ttl time.Duration) (string, error) {
	tok, _, err := r.Issue(reviewID, revieweeTID, ttl)
	return tok, err
}

// Issue es Mint devolviendo además las claims firmadas.
func (r *Responses) Issue(reviewID string, revieweeTID int64, ttl time.Duration) (string, ResponseClaims, error) {
	if !r.Configured() {
		return "", ResponseClaims{}, ErrNotConfigured
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	reviewID = strings.TrimSpace(reviewID)
	if reviewID == "" || revieweeTID <= 0 {
		return "", ResponseClaims{}, ErrInvalidClaims
	}

	claims := ResponseClaims{
		ReviewID:    reviewID,
		RevieweeTID: revieweeTID,
		Exp:         r.now().Add(ttl).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", ResponseClaims{}, err
	}
	tok, err := r.signer.Sign(payload)
	if err != nil {
		return "", ResponseClaims{}, err
	}
	return tok, claims, nil
}

func (r *Responses) Verify(token string) (ResponseClaims, error) {
	payload, err := r.signer.Open(token)
	if err != nil {
		return ResponseClaims{}, err
	}

	var c ResponseClaims
	if err := json.Unmarshal(payload, &c); err != nil {
		return ResponseClaims{}, ErrMalformed
	}
	if err := c.validate(); err != nil {
		return ResponseClaims{}, err
	}
	c.ReviewID = strings.TrimSpace(c.ReviewID)

	// exp es inclusivo: el token sirve durante el segundo exp.
	if c.Exp < r.now().Unix() {
		return ResponseClaims{}, ErrExpired
	}
	return c, nil
}
