package memory

import (
	"context"
	"strings"
	"time"

	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/ports/records"
)

type reviewRepo struct {
	s *Store
}

func (r *reviewRepo) GetByID(ctx context.Context, id string) (reviews.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rv, ok := r.s.reviews[id]
	if !ok {
		return reviews.Review{}, records.ErrNotFound
	}
	return r.s.expandReview(rv), nil
}

// filter devuelve las reviews que cumplen match, expandidas y más recientes primero.
func (r *reviewRepo) filter(match func(reviews.Review) bool) []reviews.Review {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]reviews.Review, 0)
	for _, rv := range r.s.reviews {
		if match(rv) {
			out = append(out, r.s.expandReview(rv))
		}
	}
	newestFirst(out)
	return out
}

func (r *reviewRepo) ListByDeal(ctx context.Context, dealID string) ([]reviews.Review, error) {
	return r.filter(func(rv reviews.Review) bool { return rv.DealID == dealID }), nil
}

func (r *reviewRepo) ListByDeals(ctx context.Context, dealIDs []string) ([]reviews.Review, error) {
	want := make(map[string]struct{}, len(dealIDs))
	for _, id := range dealIDs {
		want[id] = struct{}{}
	}
	return r.filter(func(rv reviews.Review) bool {
		_, ok := want[rv.DealID]
		return ok
	}), nil
}

func (r *reviewRepo) ListAboutMember(ctx context.Context, memberID string, page records.Page) ([]reviews.Review, error) {
	return paginate(r.filter(func(rv reviews.Review) bool { return rv.RevieweeID == memberID }), page), nil
}

func (r *reviewRepo) ListAboutUsername(ctx context.Context, username string, page records.Page) ([]reviews.Review, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return paginate(r.filter(func(rv reviews.Review) bool {
		return username != "" && strings.ToLower(rv.RevieweeUsername) == username
	}), page), nil
}

func (r *reviewRepo) ListInvolvingMember(ctx context.Context, memberID string, page records.Page) ([]reviews.Review, error) {
	return paginate(r.filter(func(rv reviews.Review) bool {
		return rv.ReviewerID == memberID || rv.RevieweeID == memberID
	}), page), nil
}

func (r *reviewRepo) ListRecent(ctx context.Context, page records.Page) ([]reviews.Review, error) {
	return paginate(r.filter(func(reviews.Review) bool { return true }), page), nil
}

// SetResponse es condicional: si ya hay respuesta devuelve records.ErrConflict.
func (r *reviewRepo) SetResponse(ctx context.Context, id, response string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rv, ok := r.s.reviews[id]
	if !ok {
		return records.ErrNotFound
	}
	if rv.HasResponse() {
		return records.ErrConflict
	}
	rv.Response = response
	rv.ResponseAt = &at
	r.s.reviews[id] = rv
	return nil
}

func (r *reviewRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[id]; !ok {
		return records.ErrNotFound
	}
	delete(r.s.reviews, id)
	return nil
}

func (r *reviewRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.reviews), nil
}
