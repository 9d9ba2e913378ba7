// Package profiles arma la página pública de un member a partir de un handle
// (Telegram ID numérico o username).
package profiles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/ports/records"
)

var (
	ErrNotFound         = errors.New("profile not found")
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// ReviewSource es lo que el servicio necesita de reviews.
// Los Visible* paginan para mostrar; los Aggregate* siempre miran el set completo.
type ReviewSource interface {
	VisibleAboutMember(ctx context.Context, memberID string, page records.Page) ([]reviews.Review, error)
	VisibleAboutUsername(ctx context.Context, username string, page records.Page) ([]reviews.Review, error)
	VisibleInvolvingMember(ctx context.Context, memberID string) ([]reviews.Review, error)
	AggregateAboutMember(ctx context.Context, memberID string) (float64, bool, error)
	AggregateAboutUsername(ctx context.Context, username string) (float64, bool, error)
}

type Service struct {
	resolver *members.Resolver
	reviews  ReviewSource
}

func NewService(lookup members.Lookup, rv ReviewSource) *Service {
	return &Service{resolver: members.NewResolver(lookup), reviews: rv}
}

// Profile es el resultado de Load. Si RedirectTo != "", el resto no se llena.
type Profile struct {
	RedirectTo string

	// Member nil => perfil por username (fallback).
	Member   *members.Member
	Username string

	Reviews   []reviews.Review
	Average   float64
	HasRating bool
	Usernames []string
}

// Load resuelve el handle y arma el perfil. Handle inválido o desconocido => ErrNotFound.
func (s *Service) Load(ctx context.Context, handle string, page records.Page) (Profile, error) {
	res, err := s.resolver.Resolve(ctx, handle)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	switch {
	case res.RedirectTo != "":
		return Profile{RedirectTo: res.RedirectTo}, nil

	case res.Found():
		m := res.Member
		about, err := s.reviews.VisibleAboutMember(ctx, m.ID, page)
		if err != nil {
			return Profile{}, wrap(err)
		}
		involving, err := s.reviews.VisibleInvolvingMember(ctx, m.ID)
		if err != nil {
			return Profile{}, wrap(err)
		}
		p := Profile{
			Member:    m,
			Username:  m.Username,
			Reviews:   about,
			Usernames: UsernameHistory(*m, involving),
		}
		if p.Average, p.HasRating, err = s.reviews.AggregateAboutMember(ctx, m.ID); err != nil {
			return Profile{}, wrap(err)
		}
		return p, nil

	case res.FallbackUsername != "":
		about, err := s.reviews.VisibleAboutUsername(ctx, res.FallbackUsername, page)
		if err != nil {
			return Profile{}, wrap(err)
		}
		p := Profile{
			Username:  res.FallbackUsername,
			Reviews:   about,
			Usernames: []string{res.FallbackUsername},
		}
		if p.Average, p.HasRating, err = s.reviews.AggregateAboutUsername(ctx, res.FallbackUsername); err != nil {
			return Profile{}, wrap(err)
		}
		return p, nil

	default:
		return Profile{}, ErrNotFound
	}
}

// UsernameHistory junta el username actual y los denormalizados en reviews
// visibles donde el member fue reviewer o reviewee. Minúsculas, sin duplicados, ordenado.
func UsernameHistory(m members.Member, involving []reviews.Review) []string {
	set := map[string]struct{}{}
	add := func(u string) {
		u = strings.ToLower(strings.TrimSpace(u))
		if u != "" {
			set[u] = struct{}{}
		}
	}

	add(m.Username)
	for _, r := range involving {
		if r.ReviewerID == m.ID {
			add(r.ReviewerUsername)
		}
		if r.RevieweeID == m.ID {
			add(r.RevieweeUsername)
		}
	}

	out := make([]string, 0, len(set))
	for u := range set {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func wrap(err error) error {
	if errors.Is(err, reviews.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
