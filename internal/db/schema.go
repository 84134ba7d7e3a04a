package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The unique index on email is the real duplicate-registration guard;
// the handler-level existence check is a courtesy only.
const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id                 UUID PRIMARY KEY,
	name               VARCHAR(100) NOT NULL,
	email              VARCHAR(255) NOT NULL UNIQUE,
	phone              VARCHAR(20) NOT NULL DEFAULT '',
	password_hash      VARCHAR(255) NOT NULL,
	role               VARCHAR(20) NOT NULL DEFAULT 'student',
	department         VARCHAR(100) NOT NULL DEFAULT '',
	program            VARCHAR(50) NOT NULL DEFAULT '',
	semester           VARCHAR(20) NOT NULL DEFAULT '',
	batch              VARCHAR(20) NOT NULL DEFAULT '',
	cnic               VARCHAR(20) NOT NULL DEFAULT '',
	address            TEXT NOT NULL DEFAULT '',
	status             VARCHAR(20) NOT NULL DEFAULT 'active',
	avatar             TEXT,
	verification_token VARCHAR(255),
	token_expires      TIMESTAMPTZ,
	is_email_verified  BOOLEAN NOT NULL DEFAULT FALSE,
	last_login         TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_verification_token
	ON users (verification_token)
	WHERE verification_token IS NOT NULL;
`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, usersSchema)

	return err
}
