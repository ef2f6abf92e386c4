package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"apibase/internal/user"
	"apibase/pkg/requestcontext"
	"apibase/pkg/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) TestCreateAndFind() {
	created, err := s.store.Create(s.ctx, user.User{Email: "a@x.com", PasswordHash: "hash"})
	s.Require().NoError(err)
	s.NotEmpty(created.ID)
	s.False(created.CreatedAt.IsZero())

	found, err := s.store.FindByEmail(s.ctx, "a@x.com")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
	s.Equal("hash", found.PasswordHash)
}

func (s *MemoryStoreSuite) TestFindUnknownEmail() {
	_, err := s.store.FindByEmail(s.ctx, "nobody@x.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDuplicateEmailConflicts() {
	_, err := s.store.Create(s.ctx, user.User{Email: "a@x.com", PasswordHash: "h1"})
	s.Require().NoError(err)

	_, err = s.store.Create(s.ctx, user.User{Email: "a@x.com", PasswordHash: "h2"})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
	s.Equal(1, s.store.Len())

	// Loser must not overwrite the winner.
	found, err := s.store.FindByEmail(s.ctx, "a@x.com")
	s.Require().NoError(err)
	s.Equal("h1", found.PasswordHash)
}

func (s *MemoryStoreSuite) TestTimestampsFromRequestContext() {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, fixed)

	created, err := s.store.Create(ctx, user.User{Email: "t@x.com", PasswordHash: "h"})
	s.Require().NoError(err)
	s.Equal(fixed, created.CreatedAt)
	s.Equal(fixed, created.UpdatedAt)
}
