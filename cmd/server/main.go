// Command server boots the API: configuration, feature flags, backend
// connections, HTTP router, and graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	authhandler "apibase/internal/auth/handler"
	"apibase/internal/email"
	"apibase/internal/health"
	"apibase/internal/jobs"
	"apibase/internal/jwttoken"
	"apibase/internal/notify"
	"apibase/internal/platform/config"
	"apibase/internal/platform/features"
	"apibase/internal/platform/httpserver"
	"apibase/internal/platform/i18n"
	"apibase/internal/platform/loader"
	"apibase/internal/platform/logger"
	"apibase/internal/platform/metrics"
	httptransport "apibase/internal/transport/http"
	"apibase/internal/uploads"
	"apibase/internal/user"
	"apibase/internal/user/service"
	"apibase/internal/user/store"
	"apibase/pkg/httputil"
)

const (
	tokenIssuer     = "apibase"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.FromEnv()
	flags := features.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.Production())

	if err := run(cfg, flags, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, flags features.Features, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := loader.Load(ctx, cfg, flags, log, loader.Resources{})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		res.Close(closeCtx, log)
	}()

	ew := httputil.NewErrorWriter(log, cfg.Production())
	m := metrics.New()
	tokens := jwttoken.New(cfg.JWTSecret, tokenIssuer, cfg.JWTExpiresIn)

	var mailer email.Mailer
	if flags.Email {
		if cfg.SMTP.Host != "" {
			mailer = email.NewSMTP(cfg.SMTP)
		} else {
			mailer = email.NewLog(log)
		}
	}

	var authHandler *authhandler.Handler
	if flags.Auth {
		users, err := buildUserService(ctx, cfg, flags, res, log, mailer)
		if err != nil {
			return err
		}
		authHandler = authhandler.New(users, tokens, log, m, ew)
	}

	var uploadsHandler *uploads.Handler
	if flags.ObjectStorage && res.ObjectStore != nil {
		uploadsHandler = uploads.New(res.ObjectStore, log, ew)
	}

	// The email worker drains the redis job queue registration pushes to.
	if flags.Cache && flags.Email && res.Redis != nil {
		go jobs.NewWorker(res.Redis, mailer, log).Run(ctx)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Flags:   flags,
		Logger:  log,
		Metrics: m,
		Errors:  ew,
		I18n:    i18n.NewCatalog(),
		Tokens:  tokens,
		Health:  health.New(log, healthChecks(res)),
		Auth:    authHandler,
		Uploads: uploadsHandler,
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildUserService picks the persistence backend (relational wins over
// document when both are on) and attaches the enabled side effects. With no
// backend active it returns nil and the auth handler answers 501.
func buildUserService(ctx context.Context, cfg config.Config, flags features.Features,
	res *loader.Resources, log *slog.Logger, mailer email.Mailer) (authhandler.UserService, error) {

	var userStore user.Store
	switch {
	case res.DB != nil:
		s, err := store.NewPostgres(ctx, res.DB)
		if err != nil {
			return nil, fmt.Errorf("init postgres user store: %w", err)
		}
		userStore = s
	case res.Mongo != nil:
		s, err := store.NewMongo(ctx, res.Mongo.Database(cfg.MongoDatabase))
		if err != nil {
			return nil, fmt.Errorf("init mongo user store: %w", err)
		}
		userStore = s
	default:
		log.Warn("auth enabled without a persistence backend; credential endpoints will answer 501")
		return nil, nil
	}

	opts := []service.Option{}
	if flags.Cache && flags.Email && res.Redis != nil {
		opts = append(opts, service.WithQueue(jobs.NewQueue(res.Redis)))
	} else if mailer != nil {
		opts = append(opts, service.WithMailer(mailer))
	}
	if res.Events != nil {
		opts = append(opts, service.WithEvents(res.Events))
	}
	if flags.Notifications {
		opts = append(opts, service.WithNotifier(notify.NewLog(log)))
	}
	return service.New(userStore, log, opts...), nil
}

func healthChecks(res *loader.Resources) map[string]health.Pinger {
	checks := map[string]health.Pinger{}
	if res.DB != nil {
		checks["postgres"] = res.DB.PingContext
	}
	if res.Mongo != nil {
		checks["mongodb"] = func(ctx context.Context) error {
			return res.Mongo.Ping(ctx, readpref.Primary())
		}
	}
	if res.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return res.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
