package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"apibase/internal/user"
	"apibase/pkg/requestcontext"
	"apibase/pkg/sentinel"
)

// schema is applied at startup so a fresh database is usable without a
// separate migration step.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email);
`

// Postgres persists users in PostgreSQL. Email uniqueness is enforced by the
// unique index; concurrent duplicate inserts lose at the database, never
// silently overwrite.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs the store and ensures the schema exists.
func NewPostgres(ctx context.Context, db *sql.DB) (*Postgres, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure users schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (s *Postgres) Create(ctx context.Context, u user.User) (user.User, error) {
	now := requestcontext.Now(ctx)
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return user.User{}, fmt.Errorf("email %q: %w", u.Email, sentinel.ErrConflict)
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at, updated_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, sentinel.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}
