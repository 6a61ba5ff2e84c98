// Package janitor removes expired tokens from the store.
// Expired tokens never authenticate anyway, janitor only keeps the table small.
package janitor

import (
	"context"
	"time"

	"github.com/nkiryanov/tokenauth/internal/logger"
)

const (
	defaultInterval  = time.Hour
	defaultBatchSize = 1000
)

type tokenPurger interface {
	PurgeExpired(ctx context.Context, limit int) (int64, error)
}

type Config struct {
	// How often to purge. Default is used if not set
	Interval time.Duration

	// Max tokens deleted with one query. Default is used if not set
	BatchSize int
}

type Janitor struct {
	interval  time.Duration
	batchSize int
	purger    tokenPurger
	logger    logger.Logger
}

func New(cfg Config, purger tokenPurger, l logger.Logger) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	return &Janitor{
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		purger:    purger,
		logger:    l,
	}
}

// Run purges expired tokens every interval until ctx is done
// Returned channel is closed when janitor stopped
func (j *Janitor) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	j.logger.Debug("Starting janitor", "interval", j.interval, "batch_size", j.batchSize)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				j.logger.Debug("Janitor stopped by context")
				return

			case <-ticker.C:
				j.Purge(ctx)
			}
		}
	}()

	return idleStopped
}

// Purge deletes expired tokens batch by batch until less than a full batch deleted
func (j *Janitor) Purge(ctx context.Context) int64 {
	var total int64

	for ctx.Err() == nil {
		count, err := j.purger.PurgeExpired(ctx, j.batchSize)
		if err != nil {
			j.logger.Error("Failed to purge expired tokens", "error", err)
			break
		}

		total += count
		if count < int64(j.batchSize) {
			break
		}
	}

	if total > 0 {
		j.logger.Info("Expired tokens purged", "count", total)
	}
	return total
}
