package memory

import (
	"context"
	"sort"

	"commontrust-web/internal/domain/deals"
	"commontrust-web/internal/ports/records"
)

type dealRepo struct {
	s *Store
}

func (r *dealRepo) GetByID(ctx context.Context, id string) (deals.Deal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.deals[id]
	if !ok {
		return deals.Deal{}, records.ErrNotFound
	}
	return r.s.expandDeal(d), nil
}

func (r *dealRepo) List(ctx context.Context, f deals.Filter, page records.Page) ([]deals.Deal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]deals.Deal, 0)
	for _, d := range r.s.deals {
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.MemberID != "" && d.InitiatorID != f.MemberID && d.CounterpartyID != f.MemberID {
			continue
		}
		out = append(out, r.s.expandDeal(d))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID > out[j].ID
		}
		return out[i].Created.After(out[j].Created)
	})
	return paginate(out, page), nil
}

func (r *dealRepo) Update(ctx context.Context, id string, p deals.Patch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.deals[id]
	if !ok {
		return records.ErrNotFound
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	r.s.deals[id] = d
	return nil
}

func (r *dealRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.deals[id]; !ok {
		return records.ErrNotFound
	}
	delete(r.s.deals, id)
	return nil
}

func (r *dealRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.deals), nil
}
