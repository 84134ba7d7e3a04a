package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zamindar/collegeportal/internal/domain/user"
	"github.com/zamindar/collegeportal/internal/observability"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailAlreadyUsed = errors.New("email already used")
	ErrTokenNotFound    = errors.New("verification token not found")
)

const userColumns = `id, name, email, phone, password_hash, role,
	department, program, semester, batch, cnic, address,
	status, avatar, verification_token, token_expires, is_email_verified,
	last_login, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *UsersRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create inserts the row and relies on the unique index on email as the
// actual duplicate guard; a concurrent insert between any pre-check and
// this statement still comes back as ErrEmailAlreadyUsed.
func (repo *UsersRepo) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: req.PasswordHash,
		Role:         req.Role,
		Department:   req.Department,
		Program:      req.Program,
		Semester:     req.Semester,
		Batch:        req.Batch,
		CNIC:         req.CNIC,
		Address:      req.Address,
		Status:       user.StatusActive,
		Avatar:       req.Avatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	token := req.VerificationToken
	expires := req.TokenExpires.UTC()
	u.VerificationToken = &token
	u.TokenExpires = &expires

	err := repo.observe("users.create", func() error {
		_, err := repo.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, phone, password_hash, role,
				department, program, semester, batch, cnic, address,
				status, avatar, verification_token, token_expires, is_email_verified,
				created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
			u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Role,
			u.Department, u.Program, u.Semester, u.Batch, u.CNIC, u.Address,
			u.Status, u.Avatar, u.VerificationToken, u.TokenExpires, u.IsEmailVerified,
			u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, ErrEmailAlreadyUsed
		}

		return user.User{}, err
	}

	return u, nil
}

func (repo *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getOne(ctx, "users.get_by_email",
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (repo *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return repo.getOne(ctx, "users.get_by_id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (repo *UsersRepo) GetByVerificationToken(ctx context.Context, token string) (user.User, error) {
	u, err := repo.getOne(ctx, "users.get_by_verification_token",
		`SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token)

	if errors.Is(err, ErrUserNotFound) {
		return user.User{}, ErrTokenNotFound
	}

	return u, err
}

// MarkEmailVerified flips the flag and clears the token pair so the
// token cannot be replayed.
func (repo *UsersRepo) MarkEmailVerified(ctx context.Context, id string) error {
	return repo.observe("users.mark_email_verified", func() error {
		tag, err := repo.pool.Exec(ctx, `
			UPDATE users
			SET is_email_verified = TRUE,
				verification_token = NULL,
				token_expires = NULL,
				updated_at = NOW()
			WHERE id = $1
		`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}

// SetVerificationToken rotates the token + expiry for the resend path.
func (repo *UsersRepo) SetVerificationToken(ctx context.Context, id, token string, expires time.Time) error {
	return repo.observe("users.set_verification_token", func() error {
		tag, err := repo.pool.Exec(ctx, `
			UPDATE users
			SET verification_token = $2,
				token_expires = $3,
				updated_at = NOW()
			WHERE id = $1
		`, id, token, expires.UTC())

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}

func (repo *UsersRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return repo.observe("users.update_last_login", func() error {
		_, err := repo.pool.Exec(ctx, `
			UPDATE users
			SET last_login = $2, updated_at = NOW()
			WHERE id = $1
		`, id, at.UTC())

		return err
	})
}

func (repo *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User

	err := repo.observe(op, func() error {
		return repo.pool.QueryRow(ctx, query, arg).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.Phone,
			&u.PasswordHash,
			&u.Role,
			&u.Department,
			&u.Program,
			&u.Semester,
			&u.Batch,
			&u.CNIC,
			&u.Address,
			&u.Status,
			&u.Avatar,
			&u.VerificationToken,
			&u.TokenExpires,
			&u.IsEmailVerified,
			&u.LastLogin,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}

	return u, nil
}
