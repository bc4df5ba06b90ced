package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
)

// NewPasswordHasher selects the hashing backend named by PASSWORD_HASHER.
func NewPasswordHasher(cfg *Config, pool *pgxpool.Pool) auth.PasswordHasher {
	if cfg != nil && cfg.PasswordHasher == "bcrypt" {
		return auth.NewBcryptHasher(cfg.BcryptCost)
	}
	return auth.NewDatabaseHasher(pool)
}

// NewAuthService builds the auth service shared by the server, worker and CLI.
func NewAuthService(cfg *Config, pool *pgxpool.Pool, logger *slog.Logger) *auth.Service {
	return auth.NewService(
		auth.NewRepository(pool),
		NewPasswordHasher(cfg, pool),
		auth.Config{SessionTTL: cfg.SessionTTL, RoleFallback: auth.RoleFallback(cfg.AuthRoleFallback)},
		auth.WithLogger(logger),
	)
}
