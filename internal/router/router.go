package router

import (
	"net/http"

	_ "commontrust-web/docs"
	mem "commontrust-web/internal/adapters/storage/memory"
	"commontrust-web/internal/capability"
	"commontrust-web/internal/config"
	"commontrust-web/internal/domain/admin"
	"commontrust-web/internal/domain/deals"
	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/domain/profiles"
	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/middleware"
	"commontrust-web/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Config  config.Config
	Logger  logger.Logger // nil => Nop
	Storage *Storage      // nil => memoria vacía
}

func NewRouter(opts Options) http.Handler {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	st := opts.Storage
	if st == nil {
		st = MemoryStorage(mem.NewStore())
	}

	sessions := capability.NewSessions(capability.NewSigner(cfg.AdminCookieSecret), cfg.AdminSessionTTL)
	responses := capability.NewResponses(capability.NewSigner(cfg.ReviewResponseSecret), cfg.ReviewResponseTTL)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLog(log))
	r.Use(middleware.RequireAdmin(sessions, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Services por módulo
	membersSvc := members.NewService(st.Members)
	reviewsSvc := reviews.NewService(st.Reviews, responses, cfg.ReviewResponseMaxLen)
	dealsSvc := deals.NewService(st.Deals, reviewsSvc)
	profilesSvc := profiles.NewService(st.Members, reviewsSvc)

	// Rutas por módulo
	reviews.RegisterRoutes(r, reviewsSvc, log)
	deals.RegisterRoutes(r, dealsSvc)
	profiles.RegisterRoutes(r, profilesSvc)
	admin.RegisterRoutes(r, admin.Deps{
		Sessions:      sessions,
		Responses:     responses,
		Passwords:     admin.NewPasswordChecker(cfg.AdminPassword, cfg.AdminPasswordBcrypt),
		Members:       membersSvc,
		Deals:         dealsSvc,
		Reviews:       reviewsSvc,
		PublicBaseURL: cfg.PublicBaseURL,
		Log:           log,
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}
