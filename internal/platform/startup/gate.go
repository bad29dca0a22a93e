package startup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pet-service/internal/platform/logger"
)

const (
	DefaultMaxAttempts = 30
	DefaultDelay       = 10 * time.Second
)

var ErrExhausted = errors.New("database not ready after all startup attempts")

// Target es el backend a verificar: conectividad y tabla creada.
type Target interface {
	Probe(ctx context.Context) error
	EnsureSchema(ctx context.Context) error
}

// Gate bloquea el arranque hasta que la base responde y tiene el esquema.
// Se ejecuta una sola vez; no es un health-checker.
type Gate struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      logger.Logger

	// Sleep por defecto espera Delay respetando ctx. Inyectable en tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run devuelve cuántos intentos hicieron falta. Si se agotan, el error
// envuelve ErrExhausted y el último fallo.
func (g Gate) Run(ctx context.Context, target Target) (int, error) {
	maxAttempts := g.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	delay := g.Delay
	if delay < 0 {
		delay = DefaultDelay
	}
	log := g.Logger
	if log == nil {
		log = logger.Nop()
	}
	sleep := g.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fields := map[string]any{"attempt": attempt, "max_attempts": maxAttempts}
		log.Info("attempting database connection", fields)

		lastErr = try(ctx, target, log)
		if lastErr == nil {
			log.Info("database ready", fields)
			return attempt, nil
		}

		log.Warn("database not ready", map[string]any{
			"attempt":      attempt,
			"max_attempts": maxAttempts,
			"error":        lastErr,
		})

		if attempt == maxAttempts {
			break
		}

		log.Info("retrying database connection", map[string]any{"delay": delay.String()})
		if err := sleep(ctx, delay); err != nil {
			return attempt, fmt.Errorf("startup cancelled: %w", err)
		}
	}

	log.Error("all database startup attempts failed", map[string]any{
		"max_attempts": maxAttempts,
		"error":        lastErr,
	})
	return maxAttempts, fmt.Errorf("%w (%d attempts): %w", ErrExhausted, maxAttempts, lastErr)
}

func try(ctx context.Context, target Target, log logger.Logger) error {
	if err := target.Probe(ctx); err != nil {
		return err
	}
	log.Debug("database connection test successful", nil)

	if err := target.EnsureSchema(ctx); err != nil {
		return err
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
