// Package loader establishes connections to every enabled backend at
// startup. Connections are made sequentially so startup logs are
// deterministic and the process fails fast on the first broken dependency;
// it never serves traffic with a partially-initialized dependency set.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"apibase/internal/cms"
	"apibase/internal/events"
	"apibase/internal/objectstore"
	"apibase/internal/platform/config"
	"apibase/internal/platform/features"
	"apibase/internal/platform/mongodb"
	"apibase/internal/platform/postgres"
	platformredis "apibase/internal/platform/redis"
)

// Resources is the bag of live backend handles. Fields stay nil when the
// corresponding feature is disabled.
type Resources struct {
	DB          *sql.DB
	Mongo       *mongo.Client
	Redis       *redis.Client
	Events      *events.Publisher
	ObjectStore *objectstore.Client
	CMS         *cms.Client
}

// Load connects the enabled backends in a fixed order: relational, document,
// cache, event broker, object storage, CMS. Non-nil fields in override win
// over fresh connections (tests inject fakes this way). Any connection
// failure aborts startup.
func Load(ctx context.Context, cfg config.Config, flags features.Features,
	logger *slog.Logger, override Resources) (*Resources, error) {

	res := &Resources{}

	if flags.Postgres {
		if override.DB != nil {
			res.DB = override.DB
			logger.Info("postgres handle injected")
		} else {
			db, err := postgres.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("load postgres: %w", err)
			}
			res.DB = db
			logger.Info("postgres connected")
		}
	}

	if flags.Mongo {
		if override.Mongo != nil {
			res.Mongo = override.Mongo
			logger.Info("mongodb handle injected")
		} else {
			client, err := mongodb.Connect(ctx, cfg.MongoURI)
			if err != nil {
				return nil, fmt.Errorf("load mongodb: %w", err)
			}
			res.Mongo = client
			logger.Info("mongodb connected")
		}
	}

	if flags.Cache {
		if override.Redis != nil {
			res.Redis = override.Redis
			logger.Info("redis handle injected")
		} else {
			client, err := platformredis.Connect(ctx, cfg.RedisURL)
			if err != nil {
				return nil, fmt.Errorf("load redis: %w", err)
			}
			res.Redis = client
			logger.Info("redis connected")
		}
	}

	if flags.Queue {
		if override.Events != nil {
			res.Events = override.Events
			logger.Info("event publisher injected")
		} else {
			publisher, err := events.NewPublisher(ctx, cfg.KafkaBrokers, logger)
			if err != nil {
				return nil, fmt.Errorf("load event publisher: %w", err)
			}
			res.Events = publisher
			logger.Info("event publisher connected")
		}
	}

	if flags.ObjectStorage {
		if override.ObjectStore != nil {
			res.ObjectStore = override.ObjectStore
			logger.Info("object store injected")
		} else {
			store, err := objectstore.New(ctx, cfg.S3)
			if err != nil {
				return nil, fmt.Errorf("load object store: %w", err)
			}
			res.ObjectStore = store
			logger.Info("object store ready")
		}
	}

	if flags.CMS {
		if override.CMS != nil {
			res.CMS = override.CMS
		} else {
			res.CMS = cms.New(cfg.CMS)
		}
		logger.Info("cms client ready")
	}

	return res, nil
}

// Close releases backends in reverse acquisition order. Each close is
// best-effort: failures are logged and the next backend is still closed.
func (r *Resources) Close(ctx context.Context, logger *slog.Logger) {
	if r.Events != nil {
		if err := r.Events.Close(ctx); err != nil {
			logger.Error("close event publisher", "error", err)
		}
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			logger.Error("close redis", "error", err)
		}
	}
	if r.Mongo != nil {
		if err := r.Mongo.Disconnect(ctx); err != nil {
			logger.Error("close mongodb", "error", err)
		}
	}
	if r.DB != nil {
		if err := r.DB.Close(); err != nil {
			logger.Error("close postgres", "error", err)
		}
	}
}
