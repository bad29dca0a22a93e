package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-service/internal/adapters/storage/memory"
	"pet-service/internal/adapters/storage/sqldb"
	"pet-service/internal/config"
	"pet-service/internal/domain/pets"
	"pet-service/internal/middleware"
	"pet-service/internal/platform/logger"
	"pet-service/internal/platform/startup"
	"pet-service/internal/router"

	"github.com/joho/godotenv"
)

// @title Pet Service API
// @version 1.0
// @description CRUD de mascotas de la tienda.
// @BasePath /
func main() {
	// .env es opcional; en contenedor todo llega por entorno
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("invalid configuration", map[string]any{"error": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, target, closeStore, err := openStore(cfg)
	if err != nil {
		log.Error("cannot open store", map[string]any{"error": err})
		os.Exit(1)
	}
	defer closeStore()

	log.Info("starting pet service", map[string]any{
		"env":      cfg.App.Environment,
		"database": sqldb.Redact(cfg.Database.URL),
	})

	gate := startup.Gate{
		MaxAttempts: cfg.Database.ConnectMaxAttempts,
		Delay:       cfg.Database.ConnectRetryDelay,
		Logger:      log,
	}
	if _, err := gate.Run(ctx, target); err != nil {
		log.Error("database startup failed", map[string]any{"error": err})
		closeStore()
		os.Exit(1)
	}

	handler := router.NewRouter(router.Options{
		PetsRepo:       repo,
		Logger:         log,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimit: middleware.RateLimitOptions{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", map[string]any{"error": err})
			closeStore()
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", map[string]any{"error": err})
	}
	log.Info("server stopped", nil)
}

// openStore elige backend según DATABASE_URL. El cierre es idempotente.
func openStore(cfg *config.Config) (pets.Repository, startup.Target, func(), error) {
	if cfg.UsesMemoryStore() {
		repo := memory.NewPetRepo()
		return repo, repo, func() {}, nil
	}

	db, err := sqldb.Open(cfg.Database.URL, sqldb.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	closed := false
	closeFn := func() {
		if !closed {
			closed = true
			_ = db.Close()
		}
	}
	return sqldb.NewPetsRepo(db), db, closeFn, nil
}
