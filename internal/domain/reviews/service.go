package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"commontrust-web/internal/capability"
	"commontrust-web/internal/ports/records"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("review not found")
	ErrIdentityMismatch = errors.New("token does not match reviewee")
	ErrAlreadyResponded = errors.New("a response has already been submitted for this review")
	ErrStoreUnavailable = errors.New("record store unavailable")
)

const DefaultMaxResponseLen = 4000

// ResponseVerifier valida tokens de respuesta (capability.Responses).
type ResponseVerifier interface {
	Verify(token string) (capability.ResponseClaims, error)
}

type Service struct {
	repo      Repository
	responses ResponseVerifier
	maxLen    int
	now       func() time.Time
}

func NewService(repo Repository, responses ResponseVerifier, maxResponseLen int) *Service {
	if maxResponseLen <= 0 {
		maxResponseLen = DefaultMaxResponseLen
	}
	return &Service{
		repo:      repo,
		responses: responses,
		maxLen:    maxResponseLen,
		now:       time.Now,
	}
}

func (s *Service) MaxResponseLen() int { return s.maxLen }

// GetByID trae la review sin aplicar el gate (uso admin / flujo de respuesta).
func (s *Service) GetByID(ctx context.Context, id string) (Review, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Review{}, ErrInvalidInput
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Review{}, storeErr(err)
	}
	return r, nil
}

// GetVisible devuelve la review solo si su deal es divulgable; si no, ErrNotFound.
func (s *Service) GetVisible(ctx context.Context, id string) (Review, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return Review{}, err
	}
	dealReviews, err := s.repo.ListByDeal(ctx, r.DealID)
	if err != nil {
		return Review{}, storeErr(err)
	}
	if !IsDisclosable(r.DealID, dealReviews) {
		return Review{}, ErrNotFound
	}
	return r, nil
}

// ForDeal devuelve las reviews del deal y si son públicas. Si no lo son, reviews va vacío.
func (s *Service) ForDeal(ctx context.Context, dealID string) ([]Review, bool, error) {
	dealID = strings.TrimSpace(dealID)
	if dealID == "" {
		return nil, false, ErrInvalidInput
	}
	items, err := s.repo.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, false, storeErr(err)
	}
	if !IsDisclosable(dealID, items) {
		return []Review{}, false, nil
	}
	return items, true, nil
}

func (s *Service) VisibleAboutMember(ctx context.Context, memberID string, page records.Page) ([]Review, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListAboutMember(ctx, memberID, page)
	if err != nil {
		return nil, storeErr(err)
	}
	return s.gate(ctx, items)
}

// VisibleAboutUsername es el camino de fallback para datos sin member asociado.
func (s *Service) VisibleAboutUsername(ctx context.Context, username string, page records.Page) ([]Review, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListAboutUsername(ctx, username, page)
	if err != nil {
		return nil, storeErr(err)
	}
	return s.gate(ctx, items)
}

func (s *Service) VisibleRecent(ctx context.Context, page records.Page) ([]Review, error) {
	items, err := s.repo.ListRecent(ctx, page)
	if err != nil {
		return nil, storeErr(err)
	}
	return s.gate(ctx, items)
}

// VisibleInvolvingMember junta todas las páginas donde el member fue reviewer o
// reviewee y aplica el gate. Se usa para el historial de usernames.
func (s *Service) VisibleInvolvingMember(ctx context.Context, memberID string) ([]Review, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.collect(func(p records.Page) ([]Review, error) {
		return s.repo.ListInvolvingMember(ctx, memberID, p)
	})
	if err != nil {
		return nil, err
	}
	return s.gate(ctx, items)
}

// AggregateAboutMember promedia sobre todas las reviews visibles del member,
// no sobre la página que se está mostrando.
func (s *Service) AggregateAboutMember(ctx context.Context, memberID string) (float64, bool, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return 0, false, ErrInvalidInput
	}
	return s.aggregate(ctx, func(p records.Page) ([]Review, error) {
		return s.repo.ListAboutMember(ctx, memberID, p)
	})
}

func (s *Service) AggregateAboutUsername(ctx context.Context, username string) (float64, bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return 0, false, ErrInvalidInput
	}
	return s.aggregate(ctx, func(p records.Page) ([]Review, error) {
		return s.repo.ListAboutUsername(ctx, username, p)
	})
}

func (s *Service) aggregate(ctx context.Context, list func(records.Page) ([]Review, error)) (float64, bool, error) {
	all, err := s.collect(list)
	if err != nil {
		return 0, false, err
	}
	visible, err := s.gate(ctx, all)
	if err != nil {
		return 0, false, err
	}
	avg, ok := AggregateRating(visible)
	return avg, ok, nil
}

// collect pide páginas de MaxPerPage hasta que una vuelve incompleta.
func (s *Service) collect(list func(records.Page) ([]Review, error)) ([]Review, error) {
	out := make([]Review, 0)
	for n := 1; ; n++ {
		items, err := list(records.Page{Page: n, PerPage: records.MaxPerPage})
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, items...)
		if len(items) < records.MaxPerPage {
			return out, nil
		}
	}
}

// gate recarga el set completo de cada deal involucrado y filtra.
func (s *Service) gate(ctx context.Context, candidates []Review) ([]Review, error) {
	if len(candidates) == 0 {
		return []Review{}, nil
	}

	seen := map[string]struct{}{}
	dealIDs := make([]string, 0, len(candidates))
	for _, r := range candidates {
		id := strings.TrimSpace(r.DealID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		dealIDs = append(dealIDs, id)
	}
	if len(dealIDs) == 0 {
		return []Review{}, nil
	}

	all, err := s.repo.ListByDeals(ctx, dealIDs)
	if err != nil {
		return nil, storeErr(err)
	}
	return VisibleReviews(candidates, IndexByDeal(all)), nil
}

// PrepareResponse valida token + reviewee para mostrar el formulario de respuesta.
func (s *Service) PrepareResponse(ctx context.Context, token string) (Review, capability.ResponseClaims, error) {
	claims, err := s.responses.Verify(token)
	if err != nil {
		return Review{}, capability.ResponseClaims{}, err
	}
	r, err := s.GetByID(ctx, claims.ReviewID)
	if err != nil {
		return Review{}, capability.ResponseClaims{}, err
	}
	if tid := r.RevieweeTelegramID(); tid == 0 || tid != claims.RevieweeTID {
		return Review{}, capability.ResponseClaims{}, ErrIdentityMismatch
	}
	return r, claims, nil
}

// SubmitResponse es la única forma de escribir response/response_at.
// Orden: token -> review -> reviewee actual -> uso único -> texto -> escritura.
func (s *Service) SubmitResponse(ctx context.Context, token, text string) (Review, error) {
	claims, err := s.responses.Verify(token)
	if err != nil {
		return Review{}, err
	}

	r, err := s.GetByID(ctx, claims.ReviewID)
	if err != nil {
		return Review{}, err
	}

	// Se compara contra el reviewee de HOY, no el del momento en que se emitió el token.
	if tid := r.RevieweeTelegramID(); tid == 0 || tid != claims.RevieweeTID {
		return Review{}, ErrIdentityMismatch
	}

	if r.HasResponse() {
		return Review{}, ErrAlreadyResponded
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Review{}, fmt.Errorf("%w: response is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > s.maxLen {
		return Review{}, fmt.Errorf("%w: response is too long", ErrInvalidInput)
	}

	at := s.now().UTC()
	if err := s.repo.SetResponse(ctx, r.ID, text, at); err != nil {
		if errors.Is(err, records.ErrConflict) {
			return Review{}, ErrAlreadyResponded
		}
		return Review{}, storeErr(err)
	}

	r.Response = text
	r.ResponseAt = &at
	return r, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, records.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
