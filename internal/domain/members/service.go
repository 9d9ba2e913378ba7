package members

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Member{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) SetVerified(ctx context.Context, id string, verified bool) (Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Member{}, ErrInvalidInput
	}
	if err := s.repo.SetVerified(ctx, id, verified); err != nil {
		return Member{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// FlagScammer marca/desmarca; al marcar guarda el instante, al desmarcar lo limpia.
func (s *Service) FlagScammer(ctx context.Context, id string, scammer bool) (Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Member{}, ErrInvalidInput
	}

	var at *time.Time
	if scammer {
		now := s.now().UTC()
		at = &now
	}
	if err := s.repo.SetScammer(ctx, id, scammer, at); err != nil {
		return Member{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Search busca un member por Telegram ID o username (admin). Handle inválido => ErrInvalidInput.
func (s *Service) Search(ctx context.Context, q string) (Member, error) {
	h := NormalizeHandle(q)
	switch Classify(h) {
	case HandleNumeric:
		tid, err := strconv.ParseInt(h, 10, 64)
		if err != nil {
			return Member{}, ErrInvalidInput
		}
		return s.repo.GetByTelegramID(ctx, tid)
	case HandleUsername:
		return s.repo.GetByUsername(ctx, strings.ToLower(h))
	default:
		return Member{}, ErrInvalidInput
	}
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
