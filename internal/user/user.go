// Package user defines the user entity and the storage capability the rest
// of the application programs against. Two interchangeable persistent
// implementations exist (PostgreSQL, MongoDB), selected once at composition
// time; an in-memory variant backs tests and store-less development runs.
package user

import (
	"context"
	"time"
)

// User is the persisted identity. ID is backend-assigned and opaque;
// PasswordHash never holds the raw password.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store is the persistence capability for users. Implementations surface
// duplicate emails as sentinel.ErrConflict and missing users as
// sentinel.ErrNotFound so callers never match on driver errors.
//
// Email uniqueness is owned by the backing store's constraint or index; any
// pre-check a caller performs is an optimization, not the source of truth.
type Store interface {
	Create(ctx context.Context, u User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}
