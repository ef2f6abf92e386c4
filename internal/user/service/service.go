// Package service implements the user use-cases: registration and
// credential checks.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"apibase/internal/email"
	"apibase/internal/events"
	"apibase/internal/notify"
	"apibase/internal/user"
	"apibase/pkg/apierror"
	"apibase/pkg/requestcontext"
	"apibase/pkg/sentinel"
)

// bcryptCost matches the original deployment's work factor.
const bcryptCost = 10

// Enqueuer hands email work to the job queue.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, msg email.Message) error
}

// Service carries out user registration and authentication. The mailer,
// queue, events and notifier hooks are optional; a nil hook disables that
// side effect.
type Service struct {
	store  user.Store
	logger *slog.Logger

	mailer   email.Mailer
	queue    Enqueuer
	events   *events.Publisher
	notifier notify.Notifier
}

// Option configures optional registration side effects.
type Option func(*Service)

// WithMailer enables the welcome email.
func WithMailer(m email.Mailer) Option { return func(s *Service) { s.mailer = m } }

// WithQueue sends welcome emails through the job queue instead of inline.
func WithQueue(q Enqueuer) Option { return func(s *Service) { s.queue = q } }

// WithEvents publishes user.registered events.
func WithEvents(p *events.Publisher) Option { return func(s *Service) { s.events = p } }

// WithNotifier emits a notification on registration.
func WithNotifier(n notify.Notifier) Option { return func(s *Service) { s.notifier = n } }

// New constructs the user service.
func New(store user.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a hashed password. The existence pre-check
// gives a friendly conflict early, but the store's unique constraint is the
// source of truth: the loser of a concurrent duplicate registration gets a
// conflict from Create and is reported identically.
func (s *Service) Register(ctx context.Context, emailAddr, password string) (user.User, error) {
	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	if err := validateCredentials(emailAddr, password); err != nil {
		return user.User{}, err
	}

	_, err := s.store.FindByEmail(ctx, emailAddr)
	switch {
	case err == nil:
		return user.User{}, apierror.New(apierror.CodeConflict, "Email already in use")
	case !errors.Is(err, sentinel.ErrNotFound):
		return user.User{}, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.store.Create(ctx, user.User{Email: emailAddr, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the race to a concurrent registration.
			return user.User{}, apierror.Wrap(apierror.CodeDuplicateEntry, "Email already in use", err).
				WithDetails(map[string]string{"field": "email", "value": emailAddr})
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	s.afterRegister(ctx, created)
	return created, nil
}

// Authenticate checks a credential pair and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, emailAddr, password string) (user.User, error) {
	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))

	u, err := s.store.FindByEmail(ctx, emailAddr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return user.User{}, apierror.New(apierror.CodeInvalidCredentials, "Invalid email or password")
	}
	if err != nil {
		return user.User{}, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return user.User{}, apierror.New(apierror.CodeInvalidCredentials, "Invalid email or password")
	}
	return u, nil
}

// afterRegister runs the optional side effects. All of them are best-effort;
// a failed email or event never fails the registration.
func (s *Service) afterRegister(ctx context.Context, u user.User) {
	if s.mailer != nil || s.queue != nil {
		msg := email.Message{
			To:      u.Email,
			Subject: "Welcome",
			Text:    "Your account has been created.",
		}
		var err error
		if s.queue != nil {
			err = s.queue.EnqueueEmail(ctx, msg)
		} else {
			err = s.mailer.Send(ctx, msg)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "welcome email failed", "error", err, "user_id", u.ID)
		}
	}

	if s.events != nil {
		s.events.PublishUserRegistered(ctx, events.UserRegistered{
			UserID:       u.ID,
			Email:        u.Email,
			RegisteredAt: requestcontext.Now(ctx),
		})
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, "user.registered", map[string]string{"id": u.ID, "email": u.Email}); err != nil {
			s.logger.WarnContext(ctx, "registration notification failed", "error", err, "user_id", u.ID)
		}
	}
}

func validateCredentials(emailAddr, password string) error {
	var fields []apierror.FieldError
	if emailAddr == "" || !strings.Contains(emailAddr, "@") {
		fields = append(fields, apierror.FieldError{Field: "email", Message: "a valid email is required", Value: emailAddr})
	}
	if len(password) < 8 {
		fields = append(fields, apierror.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if len(fields) > 0 {
		return apierror.Validation(fields...)
	}
	return nil
}
