package router

import (
	"context"
	"errors"

	rediscache "commontrust-web/internal/adapters/cache/redis"
	mem "commontrust-web/internal/adapters/storage/memory"
	pb "commontrust-web/internal/adapters/storage/pocketbase"
	pg "commontrust-web/internal/adapters/storage/postgres"
	"commontrust-web/internal/config"
	"commontrust-web/internal/domain/deals"
	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/platform/logger"
)

// Storage agrupa los repos de las tres colecciones y lo que hay que cerrar al salir.
type Storage struct {
	Kind    string
	Members members.Repository
	Deals   deals.Repository
	Reviews reviews.Repository

	closers []func() error
}

func (s *Storage) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// MemoryStorage envuelve un store en memoria (dev y tests).
func MemoryStorage(s *mem.Store) *Storage {
	return &Storage{
		Kind:    "memory",
		Members: s.Members(),
		Deals:   s.Deals(),
		Reviews: s.Reviews(),
	}
}

// OpenStorage elige el backend: DB_DSN > POCKETBASE_URL > memoria.
// Con REDIS_ADDR, las lecturas de members pasan por el cache.
func OpenStorage(ctx context.Context, cfg config.Config, log logger.Logger) (*Storage, error) {
	if log == nil {
		log = logger.Nop()
	}

	var st *Storage
	switch {
	case cfg.DatabaseDSN != "":
		db, err := pg.Open(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		store := pg.NewStore(db)
		st = &Storage{
			Kind:    "postgres",
			Members: store.Members(),
			Deals:   store.Deals(),
			Reviews: store.Reviews(),
			closers: []func() error{db.Close},
		}

	case cfg.PocketBaseURL != "":
		c, err := pb.New(cfg.PocketBaseURL, cfg.PocketBaseAPIToken, cfg.PocketBaseTimeout)
		if err != nil {
			return nil, err
		}
		st = &Storage{
			Kind:    "pocketbase",
			Members: pb.NewMembersRepo(c),
			Deals:   pb.NewDealsRepo(c),
			Reviews: pb.NewReviewsRepo(c),
		}

	default:
		log.Warn("no record store configured, using in-memory storage", nil)
		st = MemoryStorage(mem.NewStore())
	}

	if cfg.RedisAddr != "" {
		rdb, err := rediscache.NewClient(ctx, rediscache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			// sin cache se sigue sirviendo
			log.Warn("redis unavailable, member cache disabled", map[string]any{"err": err})
		} else {
			cache := rediscache.NewRedisCache(rdb, cfg.AppName+":")
			st.Members = rediscache.NewCachedMembers(st.Members, cache, cfg.MemberCacheTTL, log)
			st.closers = append(st.closers, rdb.Close)
		}
	}

	log.Info("record store ready", map[string]any{"kind": st.Kind})
	return st, nil
}
