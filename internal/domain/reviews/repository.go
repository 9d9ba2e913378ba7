package reviews

import (
	"context"
	"time"

	"commontrust-web/internal/ports/records"
)

// Repository es la vista de la colección "reviews".
// Las lecturas expanden reviewer y reviewee cuando el store lo permite.
type Repository interface {
	GetByID(ctx context.Context, id string) (Review, error)

	ListByDeal(ctx context.Context, dealID string) ([]Review, error)
	ListByDeals(ctx context.Context, dealIDs []string) ([]Review, error)

	// Orden: más recientes primero.
	ListAboutMember(ctx context.Context, memberID string, page records.Page) ([]Review, error)
	ListAboutUsername(ctx context.Context, username string, page records.Page) ([]Review, error)
	ListInvolvingMember(ctx context.Context, memberID string, page records.Page) ([]Review, error)
	ListRecent(ctx context.Context, page records.Page) ([]Review, error)

	// SetResponse escribe response y response_at en un único patch.
	// Los adapters que lo soportan lo hacen condicional y devuelven records.ErrConflict
	// si la review ya tenía respuesta.
	SetResponse(ctx context.Context, id, response string, at time.Time) error

	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
