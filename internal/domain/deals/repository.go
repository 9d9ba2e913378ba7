package deals

import (
	"context"

	"commontrust-web/internal/ports/records"
)

// Repository es la vista de la colección "deals".
// Errores: records.ErrNotFound / records.ErrUnavailable.
type Repository interface {
	GetByID(ctx context.Context, id string) (Deal, error)
	// List ordena por creación descendente.
	List(ctx context.Context, f Filter, page records.Page) ([]Deal, error)
	Update(ctx context.Context, id string, patch Patch) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
