package memory

import (
	"context"
	"strings"
	"time"

	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/ports/records"
)

type memberRepo struct {
	s *Store
}

func (r *memberRepo) GetByID(ctx context.Context, id string) (members.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[id]
	if !ok {
		return members.Member{}, records.ErrNotFound
	}
	return m, nil
}

func (r *memberRepo) GetByTelegramID(ctx context.Context, telegramID int64) (members.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.members {
		if telegramID > 0 && m.TelegramID == telegramID {
			return m, nil
		}
	}
	return members.Member{}, records.ErrNotFound
}

func (r *memberRepo) GetByUsername(ctx context.Context, username string) (members.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return members.Member{}, records.ErrNotFound
	}
	for _, m := range r.s.members {
		if strings.ToLower(m.Username) == username {
			return m, nil
		}
	}
	return members.Member{}, records.ErrNotFound
}

func (r *memberRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.members[id]
	if !ok {
		return records.ErrNotFound
	}
	m.Verified = verified
	r.s.members[id] = m
	return nil
}

func (r *memberRepo) SetScammer(ctx context.Context, id string, scammer bool, at *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.members[id]
	if !ok {
		return records.ErrNotFound
	}
	m.Scammer = scammer
	m.ScammerAt = nil
	if at != nil {
		t := *at
		m.ScammerAt = &t
	}
	r.s.members[id] = m
	return nil
}

func (r *memberRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.members), nil
}
