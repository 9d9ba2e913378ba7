// Package records define el contrato común con el record store externo.
// Los adapters (pocketbase, postgres, memory) devuelven estos errores para que
// los servicios distingan "no existe" de "falló el upstream".
package records

import "errors"

var (
	ErrNotFound    = errors.New("record not found")
	ErrUnavailable = errors.New("record store unavailable")
	// ErrConflict: el update condicional no aplicó (otro escritor ganó).
	ErrConflict = errors.New("record changed concurrently")
)

const (
	DefaultPerPage = 30
	MaxPerPage     = 200
)

// Page es la paginación pedida al store (1-based).
type Page struct {
	Page    int
	PerPage int
}

func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}
