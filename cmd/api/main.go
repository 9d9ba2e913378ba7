package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commontrust-web/internal/config"
	"commontrust-web/internal/platform/logger"
	"commontrust-web/internal/router"
)

// @title CommonTrust Web API
// @version 1.0
// @description Reviews públicas, perfiles, respuestas de reviewee y panel admin.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := router.OpenStorage(ctx, cfg, lg)
	if err != nil {
		lg.Error("record store init failed", map[string]any{"err": err})
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	if cfg.AdminCookieSecret == "" {
		lg.Warn("ADMIN_COOKIE_SECRET not set, admin login disabled", nil)
	}
	if cfg.ReviewResponseSecret == "" {
		lg.Warn("REVIEW_RESPONSE_SECRET not set, review responses disabled", nil)
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.NewRouter(router.Options{
			Config:  cfg,
			Logger:  lg,
			Storage: st,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if sl, ok := lg.(*logger.SlogLogger); ok {
		srv.ErrorLog = slog.NewLogLogger(sl.Slog().Handler(), slog.LevelError)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Info("starting server", map[string]any{"addr": cfg.Addr(), "store": st.Kind})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Error("server error", map[string]any{"err": err})
		os.Exit(1)
	}
}
