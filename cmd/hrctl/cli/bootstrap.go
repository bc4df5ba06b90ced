package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-hrms/internal/app"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/db"
	"github.com/odyssey-erp/odyssey-hrms/internal/sessionstore"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
	"github.com/odyssey-erp/odyssey-hrms/internal/users"
	"github.com/odyssey-erp/odyssey-hrms/jobs"
)

// DefaultBootstrap connects to Postgres (and Redis when needed) using the
// same environment as the API server.
func DefaultBootstrap(ctx context.Context, opts GlobalOptions) (*Env, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, err
	}
	closers := []func() error{func() error { pool.Close(); return nil }}

	var store sessionstore.Store
	if opts.ClientID != "" {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			pool.Close()
			return nil, err
		}
		closers = append(closers, client.Close)
		store = sessionstore.NewRedisStore(client, opts.ClientID, cfg.SessionTTL)
	} else {
		path, err := sessionstore.DefaultFilePath()
		if err != nil {
			pool.Close()
			return nil, err
		}
		store = sessionstore.NewFileStore(path)
	}

	enqueuer, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		pool.Close()
		return nil, err
	}
	closers = append(closers, enqueuer.Close)

	authService := app.NewAuthService(cfg, pool, logger)
	audit := shared.NewAuditLogger(pool)
	return &Env{
		Auth:     authService,
		Users:    users.NewService(users.NewRepository(pool), authService, audit, logger),
		Store:    store,
		Enqueuer: enqueuer,
		Logger:   logger,
		Close: func() error {
			var errs []error
			for i := len(closers) - 1; i >= 0; i-- {
				errs = append(errs, closers[i]())
			}
			return errors.Join(errs...)
		},
	}, nil
}
