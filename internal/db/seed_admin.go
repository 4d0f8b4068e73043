package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surigaorunners/racereg/internal/config"
	"github.com/surigaorunners/racereg/internal/domain/user"
	"github.com/surigaorunners/racereg/internal/observability"
	"github.com/surigaorunners/racereg/internal/repo/postgres"
	"github.com/surigaorunners/racereg/internal/security"
)

// EnsureAdminUser seeds the staff account from the environment so a
// fresh deployment is immediately usable. No-op when unconfigured.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, prom *observability.Prom, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Name:         cfg.AdminName,
		Role:         cfg.AdminRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return postgres.NewUsersRepo(pool, prom).UpsertByEmail(ctx, u)
}
