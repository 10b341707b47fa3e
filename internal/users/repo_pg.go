package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PGRepo is the Postgres-backed Repo over the users table.
type PGRepo struct {
	db *sql.DB
}

// NewPGRepo constructs a PGRepo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db}
}

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const q = `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, lower($3), $4, $5)`

	_, err := r.db.ExecContext(ctx, q, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const q = `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE email = lower($1)`

	return r.scanOne(r.db.QueryRowContext(ctx, q, email))
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (User, error) {
	const q = `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PGRepo) scanOne(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

var _ Repo = (*PGRepo)(nil)
