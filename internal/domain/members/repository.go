package members

import (
	"context"
	"time"
)

// Repository es la vista de la colección "members" del record store.
// Errores: records.ErrNotFound / records.ErrUnavailable.
type Repository interface {
	GetByID(ctx context.Context, id string) (Member, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (Member, error)
	// GetByUsername recibe el username ya normalizado (minúsculas, sin "@").
	GetByUsername(ctx context.Context, username string) (Member, error)

	SetVerified(ctx context.Context, id string, verified bool) error
	// SetScammer con at == nil limpia scammer_at.
	SetScammer(ctx context.Context, id string, scammer bool, at *time.Time) error

	Count(ctx context.Context) (int, error)
}
