package rediscache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/platform/logger"
)

const (
	keyByID       = "member:id:"
	keyByTID      = "member:tid:"
	keyByUsername = "member:username:"
)

// CachedMembers decora un members.Repository. Solo cachea hits; un error de
// Redis nunca corta la lectura, cae al repo.
type CachedMembers struct {
	next  members.Repository
	cache Cache
	ttl   time.Duration
	log   logger.Logger
}

func NewCachedMembers(next members.Repository, cache Cache, ttl time.Duration, log logger.Logger) *CachedMembers {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedMembers{next: next, cache: cache, ttl: ttl, log: log}
}

func (c *CachedMembers) GetByID(ctx context.Context, id string) (members.Member, error) {
	return c.cached(ctx, keyByID+id, func() (members.Member, error) {
		return c.next.GetByID(ctx, id)
	})
}

func (c *CachedMembers) GetByTelegramID(ctx context.Context, telegramID int64) (members.Member, error) {
	return c.cached(ctx, keyByTID+strconv.FormatInt(telegramID, 10), func() (members.Member, error) {
		return c.next.GetByTelegramID(ctx, telegramID)
	})
}

func (c *CachedMembers) GetByUsername(ctx context.Context, username string) (members.Member, error) {
	return c.cached(ctx, keyByUsername+strings.ToLower(username), func() (members.Member, error) {
		return c.next.GetByUsername(ctx, username)
	})
}

func (c *CachedMembers) SetVerified(ctx context.Context, id string, verified bool) error {
	if err := c.next.SetVerified(ctx, id, verified); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedMembers) SetScammer(ctx context.Context, id string, scammer bool, at *time.Time) error {
	if err := c.next.SetScammer(ctx, id, scammer, at); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedMembers) Count(ctx context.Context) (int, error) {
	return c.next.Count(ctx)
}

func (c *CachedMembers) cached(ctx context.Context, key string, load func() (members.Member, error)) (members.Member, error) {
	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn("member cache get failed", map[string]any{"key": key, "err": err})
	} else if ok {
		var m members.Member
		if err := json.Unmarshal(raw, &m); err == nil {
			return m, nil
		}
	}

	m, err := load()
	if err != nil {
		return members.Member{}, err
	}

	raw, err := json.Marshal(m)
	if err == nil {
		for _, k := range keysFor(m) {
			if err := c.cache.Set(ctx, k, raw, c.ttl); err != nil {
				c.log.Warn("member cache set failed", map[string]any{"key": k, "err": err})
				break
			}
		}
	}
	return m, nil
}

// invalidate borra las tres claves del member; relee del repo para conocer tid y username.
func (c *CachedMembers) invalidate(ctx context.Context, id string) {
	keys := []string{keyByID + id}
	if m, err := c.next.GetByID(ctx, id); err == nil {
		keys = keysFor(m)
	}
	if err := c.cache.Del(ctx, keys...); err != nil {
		c.log.Warn("member cache invalidate failed", map[string]any{"member_id": id, "err": err})
	}
}

func keysFor(m members.Member) []string {
	keys := []string{keyByID + m.ID}
	if m.TelegramID > 0 {
		keys = append(keys, keyByTID+strconv.FormatInt(m.TelegramID, 10))
	}
	if u := strings.TrimSpace(m.Username); u != "" {
		keys = append(keys, keyByUsername+strings.ToLower(u))
	}
	return keys
}
