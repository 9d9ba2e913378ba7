package postgres

import (
	"database/sql"
	"fmt"

	"commontrust-web/internal/domain/members"
)

// joinedMemberColumns selecciona un member unido por LEFT JOIN con alias.
func joinedMemberColumns(alias string) string {
	return fmt.Sprintf(
		"%[1]s.id, %[1]s.telegram_id, %[1]s.username, %[1]s.display_name, %[1]s.verified, %[1]s.scammer, %[1]s.scammer_at, %[1]s.joined_at",
		alias,
	)
}

// nullMember recibe las columnas de un LEFT JOIN que puede no matchear.
type nullMember struct {
	id          sql.NullString
	telegramID  sql.NullInt64
	username    sql.NullString
	displayName sql.NullString
	verified    sql.NullBool
	scammer     sql.NullBool
	scammerAt   sql.NullTime
	joinedAt    sql.NullTime
}

func (n *nullMember) dest() []any {
	return []any{
		&n.id, &n.telegramID, &n.username, &n.displayName,
		&n.verified, &n.scammer, &n.scammerAt, &n.joinedAt,
	}
}

func (n *nullMember) member() *members.Member {
	if !n.id.Valid {
		return nil
	}
	m := &members.Member{
		ID:          n.id.String,
		TelegramID:  n.telegramID.Int64,
		Username:    n.username.String,
		DisplayName: n.displayName.String,
		Verified:    n.verified.Bool,
		Scammer:     n.scammer.Bool,
		ScammerAt:   fromNullTime(n.scammerAt),
	}
	if n.joinedAt.Valid {
		m.JoinedAt = n.joinedAt.Time.UTC()
	}
	return m
}
