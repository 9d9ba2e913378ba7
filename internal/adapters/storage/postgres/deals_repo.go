package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"commontrust-web/internal/domain/deals"
	"commontrust-web/internal/ports/records"
)

var dealSelect = `
	SELECT d.id, d.description, d.status, d.initiator_id, d.counterparty_id, d.created,
		` + joinedMemberColumns("i") + `,
		` + joinedMemberColumns("c") + `
	FROM deals d
	LEFT JOIN members i ON i.id = d.initiator_id
	LEFT JOIN members c ON c.id = d.counterparty_id`

type DealsRepo struct {
	db *sql.DB
}

func NewDealsRepo(db *sql.DB) *DealsRepo {
	return &DealsRepo{db: db}
}

func (r *DealsRepo) GetByID(ctx context.Context, id string) (deals.Deal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return deals.Deal{}, records.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, dealSelect+` WHERE d.id = $1`, id)
	d, err := scanDeal(row)
	if err != nil {
		return deals.Deal{}, storeErr(err)
	}
	return d, nil
}

// buildDealList arma el WHERE del listado admin.
func buildDealList(f deals.Filter, page records.Page) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, "d.status = $"+strconv.Itoa(len(args)))
	}
	if f.MemberID != "" {
		args = append(args, f.MemberID)
		n := strconv.Itoa(len(args))
		where = append(where, "(d.initiator_id = $"+n+" OR d.counterparty_id = $"+n+")")
	}

	q := dealSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	p := page.Normalize()
	args = append(args, p.PerPage, p.Offset())
	q += " ORDER BY d.created DESC, d.id DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	return q, args
}

func (r *DealsRepo) List(ctx context.Context, f deals.Filter, page records.Page) ([]deals.Deal, error) {
	q, args := buildDealList(f, page)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	out := make([]deals.Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (r *DealsRepo) Update(ctx context.Context, id string, p deals.Patch) error {
	var status, description sql.NullString
	if p.Status != nil {
		status = sql.NullString{String: string(*p.Status), Valid: true}
	}
	if p.Description != nil {
		description = sql.NullString{String: *p.Description, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE deals
		SET
			status = COALESCE($2, status),
			description = COALESCE($3, description)
		WHERE id = $1
	`, id, status, description)
	if err != nil {
		return storeErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (r *DealsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id)
	if err != nil {
		return storeErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (r *DealsRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM deals`).Scan(&n); err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeal(s scanner) (deals.Deal, error) {
	var (
		d      deals.Deal
		status string
		ini    nullMember
		cp     nullMember
	)
	dest := []any{&d.ID, &d.Description, &status, &d.InitiatorID, &d.CounterpartyID, &d.Created}
	dest = append(dest, ini.dest()...)
	dest = append(dest, cp.dest()...)
	if err := s.Scan(dest...); err != nil {
		return deals.Deal{}, err
	}
	d.Status = deals.Status(status)
	d.Created = d.Created.UTC()
	d.Initiator = ini.member()
	d.Counterparty = cp.member()
	return d, nil
}
