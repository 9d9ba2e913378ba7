package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/ports/records"
)

const memberColumns = `id, telegram_id, username, display_name, verified, scammer, scammer_at, joined_at`

type MembersRepo struct {
	db *sql.DB
}

func NewMembersRepo(db *sql.DB) *MembersRepo {
	return &MembersRepo{db: db}
}

func (r *MembersRepo) GetByID(ctx context.Context, id string) (members.Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return members.Member{}, records.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
}

func (r *MembersRepo) GetByTelegramID(ctx context.Context, telegramID int64) (members.Member, error) {
	if telegramID <= 0 {
		return members.Member{}, records.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+memberColumns+` FROM members WHERE telegram_id = $1`, telegramID)
}

func (r *MembersRepo) GetByUsername(ctx context.Context, username string) (members.Member, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return members.Member{}, records.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+memberColumns+` FROM members WHERE lower(username) = $1 LIMIT 1`, username)
}

func (r *MembersRepo) getOne(ctx context.Context, query string, arg any) (members.Member, error) {
	var (
		m         members.Member
		tid       sql.NullInt64
		scammerAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&m.ID, &tid, &m.Username, &m.DisplayName,
		&m.Verified, &m.Scammer, &scammerAt, &m.JoinedAt,
	)
	if err != nil {
		return members.Member{}, storeErr(err)
	}
	m.TelegramID = tid.Int64
	m.ScammerAt = fromNullTime(scammerAt)
	m.JoinedAt = m.JoinedAt.UTC()
	return m, nil
}

func (r *MembersRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	return r.exec(ctx, `UPDATE members SET verified = $2 WHERE id = $1`, id, verified)
}

func (r *MembersRepo) SetScammer(ctx context.Context, id string, scammer bool, at *time.Time) error {
	return r.exec(ctx, `UPDATE members SET scammer = $2, scammer_at = $3 WHERE id = $1`, id, scammer, toNullTime(at))
}

func (r *MembersRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storeErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (r *MembersRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM members`).Scan(&n); err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}
