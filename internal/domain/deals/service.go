package deals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/ports/records"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("deal not found")
	ErrStoreUnavailable = errors.New("record store unavailable")
)

const MaxDescriptionLen = 2000

// ReviewsForDeal es lo que el servicio necesita de reviews (aplica el gate).
type ReviewsForDeal interface {
	ForDeal(ctx context.Context, dealID string) ([]reviews.Review, bool, error)
}

type Service struct {
	repo    Repository
	reviews ReviewsForDeal
}

func NewService(repo Repository, rv ReviewsForDeal) *Service {
	return &Service{repo: repo, reviews: rv}
}

// View es la página pública del deal.
type View struct {
	Deal      Deal
	Disclosed bool
	Reviews   []reviews.Review
}

func (s *Service) GetByID(ctx context.Context, id string) (Deal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Deal{}, ErrInvalidInput
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Deal{}, storeErr(err)
	}
	return d, nil
}

// Page arma la vista pública: las reviews solo viajan si el deal es divulgable.
func (s *Service) Page(ctx context.Context, id string) (View, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return View{}, err
	}
	items, disclosed, err := s.reviews.ForDeal(ctx, d.ID)
	if err != nil {
		if errors.Is(err, reviews.ErrStoreUnavailable) {
			return View{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return View{}, err
	}
	return View{Deal: d, Disclosed: disclosed, Reviews: items}, nil
}

func (s *Service) List(ctx context.Context, f Filter, page records.Page) ([]Deal, error) {
	f.Status = Status(strings.TrimSpace(string(f.Status)))
	f.MemberID = strings.TrimSpace(f.MemberID)
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.List(ctx, f, page.Normalize())
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

// Update aplica un patch admin y devuelve el deal actualizado.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Deal, error) {
	id = strings.TrimSpace(id)
	if id == "" || p.Empty() {
		return Deal{}, ErrInvalidInput
	}
	if p.Status != nil {
		st := Status(strings.TrimSpace(string(*p.Status)))
		if !st.Valid() {
			return Deal{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, st)
		}
		p.Status = &st
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if len([]rune(desc)) > MaxDescriptionLen {
			return Deal{}, fmt.Errorf("%w: description too long", ErrInvalidInput)
		}
		p.Description = &desc
	}

	if err := s.repo.Update(ctx, id, p); err != nil {
		return Deal{}, storeErr(err)
	}
	return s.GetByID(ctx, id)
}

// Delete no borra las reviews del deal; quedan con deal_id huérfano.
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
