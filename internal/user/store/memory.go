package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"apibase/internal/user"
	"apibase/pkg/requestcontext"
	"apibase/pkg/sentinel"
)

// Memory is an in-memory store for tests and store-less development runs.
// It mirrors the persistent stores' contract, including conflict semantics.
type Memory struct {
	mu      sync.RWMutex
	byEmail map[string]user.User
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byEmail: make(map[string]user.User)}
}

func (s *Memory) Create(ctx context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return user.User{}, fmt.Errorf("email %q: %w", u.Email, sentinel.ErrConflict)
	}

	now := requestcontext.Now(ctx)
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.byEmail[u.Email] = u
	return u, nil
}

func (s *Memory) FindByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byEmail[email]
	if !ok {
		return user.User{}, sentinel.ErrNotFound
	}
	return u, nil
}

// Len reports the number of stored users. Test helper.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail)
}
