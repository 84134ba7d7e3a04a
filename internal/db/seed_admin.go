package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zamindar/collegeportal/internal/config"
	"github.com/zamindar/collegeportal/internal/domain/user"
	"github.com/zamindar/collegeportal/internal/security"
)

// EnsureAdminUser seeds the single admin account from config on boot.
// The admin is created pre-verified since there is no mailbox to confirm.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AdminEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, role, status, is_email_verified, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`,
		uuid.NewString(), cfg.AdminEmail, hash, cfg.AdminName, user.RoleAdmin, user.StatusActive, true, now, now,
	)

	return err
}
