package pocketbase

import (
	"context"
	"strings"

	"commontrust-web/internal/domain/deals"
	"commontrust-web/internal/ports/records"
)

const dealExpand = "initiator_id,counterparty_id"

type dealRecord struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	InitiatorID    string `json:"initiator_id"`
	CounterpartyID string `json:"counterparty_id"`
	Created        pbTime `json:"created"`
	Expand         struct {
		Initiator    *memberRecord `json:"initiator_id"`
		Counterparty *memberRecord `json:"counterparty_id"`
	} `json:"expand"`
}

func (r dealRecord) toDomain() deals.Deal {
	return deals.Deal{
		ID:             r.ID,
		Description:    r.Description,
		Status:         deals.Status(r.Status),
		InitiatorID:    r.InitiatorID,
		CounterpartyID: r.CounterpartyID,
		Created:        r.Created.Time,
		Initiator:      memberPtr(r.Expand.Initiator),
		Counterparty:   memberPtr(r.Expand.Counterparty),
	}
}

type DealsRepo struct {
	c *Client
}

func NewDealsRepo(c *Client) *DealsRepo {
	return &DealsRepo{c: c}
}

func (r *DealsRepo) GetByID(ctx context.Context, id string) (deals.Deal, error) {
	var rec dealRecord
	if err := r.c.get(ctx, colDeals, id, dealExpand, &rec); err != nil {
		return deals.Deal{}, err
	}
	return rec.toDomain(), nil
}

// dealFilter: PocketBase no filtra por campos de la relación, así que MemberID
// ya viene resuelto a id de member.
func dealFilter(f deals.Filter) string {
	var parts []string
	if f.Status != "" {
		parts = append(parts, eq("status", string(f.Status)))
	}
	if f.MemberID != "" {
		parts = append(parts, anyOf(eq("initiator_id", f.MemberID), eq("counterparty_id", f.MemberID)))
	}
	return strings.Join(parts, " && ")
}

func (r *DealsRepo) List(ctx context.Context, f deals.Filter, page records.Page) ([]deals.Deal, error) {
	res, err := r.c.list(ctx, colDeals, listQuery{
		Page:   page,
		Sort:   "-created",
		Filter: dealFilter(f),
		Expand: dealExpand,
	})
	if err != nil {
		return nil, err
	}
	recs, err := decodeItems[dealRecord](colDeals, res.Items)
	if err != nil {
		return nil, err
	}
	out := make([]deals.Deal, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

func (r *DealsRepo) Update(ctx context.Context, id string, p deals.Patch) error {
	body := map[string]any{}
	if p.Status != nil {
		body["status"] = string(*p.Status)
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	return r.c.patch(ctx, colDeals, id, body)
}

func (r *DealsRepo) Delete(ctx context.Context, id string) error {
	return r.c.delete(ctx, colDeals, id)
}

func (r *DealsRepo) Count(ctx context.Context) (int, error) {
	return r.c.count(ctx, colDeals)
}
