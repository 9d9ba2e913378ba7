package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"commontrust-web/internal/domain/deals"
	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/ports/records"

	"github.com/google/uuid"
)

// Store es el record store en memoria (modo dev y tests). Las tres colecciones
// comparten un lock para que la expansión de relaciones sea consistente.
type Store struct {
	mu      sync.RWMutex
	members map[string]members.Member
	deals   map[string]deals.Deal
	reviews map[string]reviews.Review
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		members: make(map[string]members.Member),
		deals:   make(map[string]deals.Deal),
		reviews: make(map[string]reviews.Review),
		now:     time.Now,
	}
}

func (s *Store) Members() members.Repository { return &memberRepo{s: s} }
func (s *Store) Deals() deals.Repository     { return &dealRepo{s: s} }
func (s *Store) Reviews() reviews.Repository { return &reviewRepo{s: s} }

// PutMember inserta o reemplaza. Sin ID genera uno.
func (s *Store) PutMember(m members.Member) members.Member {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		m.ID = uuid.NewString()
	}
	m.Username = strings.TrimPrefix(strings.TrimSpace(m.Username), "@")
	if m.JoinedAt.IsZero() {
		m.JoinedAt = s.now().UTC()
	}
	s.members[m.ID] = m
	return m
}

func (s *Store) PutDeal(d deals.Deal) deals.Deal {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = deals.StatusPending
	}
	if d.Created.IsZero() {
		d.Created = s.now().UTC()
	}
	d.Initiator, d.Counterparty = nil, nil
	s.deals[d.ID] = d
	return s.expandDeal(d)
}

// PutReview guarda la review; los usernames denormalizados se completan desde members
// si vienen vacíos (como hace el bot al crearla).
func (s *Store) PutReview(r reviews.Review) reviews.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	if r.Created.IsZero() {
		r.Created = s.now().UTC()
	}
	if m, ok := s.members[r.ReviewerID]; ok && r.ReviewerUsername == "" {
		r.ReviewerUsername = strings.ToLower(m.Username)
	}
	if m, ok := s.members[r.RevieweeID]; ok && r.RevieweeUsername == "" {
		r.RevieweeUsername = strings.ToLower(m.Username)
	}
	r.Reviewer, r.Reviewee = nil, nil
	s.reviews[r.ID] = r
	return s.expandReview(r)
}

// expand* asumen el lock tomado.

func (s *Store) member(id string) *members.Member {
	m, ok := s.members[id]
	if !ok {
		return nil
	}
	return &m
}

func (s *Store) expandDeal(d deals.Deal) deals.Deal {
	d.Initiator = s.member(d.InitiatorID)
	d.Counterparty = s.member(d.CounterpartyID)
	return d
}

func (s *Store) expandReview(r reviews.Review) reviews.Review {
	r.Reviewer = s.member(r.ReviewerID)
	r.Reviewee = s.member(r.RevieweeID)
	return r
}

// paginate aplica records.Page sobre un slice ya ordenado.
func paginate[T any](items []T, page records.Page) []T {
	p := page.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func newestFirst(items []reviews.Review) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Created.Equal(items[j].Created) {
			return items[i].ID > items[j].ID
		}
		return items[i].Created.After(items[j].Created)
	})
}
