package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// epochKeyTTL bounds how long an epoch counter outlives its last bump. Any
// live session past that age has long expired, so a rebuilt snapshot cannot
// be stale even after the counter resets to zero.
const epochKeyTTL = 30 * 24 * time.Hour

// EpochSweepJob attaches a TTL to principal-epoch keys. Epoch counters are
// INCRed without expiry on role and permission mutations; without the sweep
// they would accumulate forever.
type EpochSweepJob struct {
	client *redis.Client
	logger *slog.Logger
}

// NewEpochSweepJob constructs the handler.
func NewEpochSweepJob(client *redis.Client, logger *slog.Logger) *EpochSweepJob {
	return &EpochSweepJob{client: client, logger: logger}
}

// Handle scans epoch keys and sets a TTL on those missing one.
func (j *EpochSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	var cursor uint64
	swept := 0
	for {
		keys, next, err := j.client.Scan(ctx, cursor, "cabildo:epoch:*", 100).Result()
		if err != nil {
			return err
		}
		for _, key := range keys {
			ok, err := j.client.ExpireNX(ctx, key, epochKeyTTL).Result()
			if err != nil {
				return err
			}
			if ok {
				swept++
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	j.logger.Info("epoch sweep complete", slog.Int("expired_keys_set", swept))
	return nil
}
