// Package jobs is a minimal Redis-list job queue for work that should not
// block request handling, currently just outbound email.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"apibase/internal/email"
)

const emailQueueKey = "jobs:email"

// Queue enqueues email jobs onto a Redis list.
type Queue struct {
	rdb *redis.Client
}

// NewQueue constructs a queue over an existing Redis client.
func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// EnqueueEmail pushes a message for asynchronous delivery.
func (q *Queue) EnqueueEmail(ctx context.Context, msg email.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	if err := q.rdb.LPush(ctx, emailQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue email job: %w", err)
	}
	return nil
}

// Worker drains the email queue and hands jobs to a mailer.
type Worker struct {
	rdb    *redis.Client
	mailer email.Mailer
	logger *slog.Logger
}

// NewWorker constructs a queue worker.
func NewWorker(rdb *redis.Client, mailer email.Mailer, logger *slog.Logger) *Worker {
	return &Worker{rdb: rdb, mailer: mailer, logger: logger}
}

// Run blocks on the queue until ctx is cancelled. Failed jobs are logged and
// dropped; there is no retry policy anywhere in this service.
func (w *Worker) Run(ctx context.Context) error {
	for {
		res, err := w.rdb.BLPop(ctx, time.Second, emailQueueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("pop email job", "error", err)
			continue
		}
		// BLPop returns [key, value].
		if len(res) != 2 {
			continue
		}

		var msg email.Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			w.logger.Error("decode email job", "error", err)
			continue
		}
		if err := w.mailer.Send(ctx, msg); err != nil {
			w.logger.Error("send queued email", "error", err, "to", msg.To)
		}
	}
}
