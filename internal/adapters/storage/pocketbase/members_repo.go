package pocketbase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/ports/records"
)

// memberRecord es el record de la colección members.
type memberRecord struct {
	ID          string `json:"id"`
	TelegramID  int64  `json:"telegram_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Verified    bool   `json:"verified"`
	Scammer     bool   `json:"scammer"`
	ScammerAt   pbTime `json:"scammer_at"`
	JoinedAt    pbTime `json:"joined_at"`
	Created     pbTime `json:"created"`
}

func (r memberRecord) toDomain() members.Member {
	joined := r.JoinedAt.Time
	if joined.IsZero() {
		joined = r.Created.Time
	}
	return members.Member{
		ID:          r.ID,
		TelegramID:  r.TelegramID,
		Username:    strings.TrimPrefix(strings.TrimSpace(r.Username), "@"),
		DisplayName: r.DisplayName,
		Verified:    r.Verified,
		Scammer:     r.Scammer,
		ScammerAt:   r.ScammerAt.ptr(),
		JoinedAt:    joined,
	}
}

// memberPtr convierte una expansión opcional.
func memberPtr(r *memberRecord) *members.Member {
	if r == nil || r.ID == "" {
		return nil
	}
	m := r.toDomain()
	return &m
}

type MembersRepo struct {
	c *Client
}

func NewMembersRepo(c *Client) *MembersRepo {
	return &MembersRepo{c: c}
}

func (r *MembersRepo) GetByID(ctx context.Context, id string) (members.Member, error) {
	var rec memberRecord
	if err := r.c.get(ctx, colMembers, id, "", &rec); err != nil {
		return members.Member{}, err
	}
	return rec.toDomain(), nil
}

func (r *MembersRepo) GetByTelegramID(ctx context.Context, telegramID int64) (members.Member, error) {
	if telegramID <= 0 {
		return members.Member{}, records.ErrNotFound
	}
	var rec memberRecord
	if err := r.c.first(ctx, colMembers, "telegram_id="+strconv.FormatInt(telegramID, 10), "", &rec); err != nil {
		return members.Member{}, err
	}
	return rec.toDomain(), nil
}

func (r *MembersRepo) GetByUsername(ctx context.Context, username string) (members.Member, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return members.Member{}, records.ErrNotFound
	}
	var rec memberRecord
	if err := r.c.first(ctx, colMembers, eq("username:lower", username), "", &rec); err != nil {
		return members.Member{}, err
	}
	return rec.toDomain(), nil
}

func (r *MembersRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	return r.c.patch(ctx, colMembers, id, map[string]any{"verified": verified})
}

func (r *MembersRepo) SetScammer(ctx context.Context, id string, scammer bool, at *time.Time) error {
	// PocketBase limpia un datetime con string vacío.
	scammerAt := ""
	if at != nil {
		scammerAt = formatTime(*at)
	}
	return r.c.patch(ctx, colMembers, id, map[string]any{
		"scammer":    scammer,
		"scammer_at": scammerAt,
	})
}

func (r *MembersRepo) Count(ctx context.Context) (int, error) {
	return r.c.count(ctx, colMembers)
}
