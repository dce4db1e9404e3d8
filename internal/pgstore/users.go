package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsersSchema creates the users table. Applied by EnsureSchema at startup.
const UsersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// User is an account row. PasswordHash never leaves this package's callers'
// service layer.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Users provides account storage on the shared pool.
type Users struct {
	pool *pgxpool.Pool
}

// NewUsers wraps a pool for account queries.
func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

// EnsureSchema applies the users schema.
func (u *Users) EnsureSchema(ctx context.Context) error {
	if _, err := u.pool.Exec(ctx, UsersSchema); err != nil {
		return fmt.Errorf("failed to apply users schema: %w", err)
	}
	return nil
}

// EmailExists reports whether an account with the given email exists.
func (u *Users) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := u.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// Create inserts an account and returns its id.
func (u *Users) Create(ctx context.Context, email, name, passwordHash string) (uuid.UUID, error) {
	var id uuid.UUID
	err := u.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		email, name, passwordHash,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// Get returns the account with the given id, or nil when none exists.
func (u *Users) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return u.get(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE id = $1`, id)
}

// GetByEmail returns the account with the given email, or nil when none
// exists.
func (u *Users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return u.get(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE email = $1`, email)
}

func (u *Users) get(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := u.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Pool exposes the underlying pool so sibling stores can share it.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
