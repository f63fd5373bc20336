package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hongminglow/jobportal-be/internal/logging"
	"github.com/hongminglow/jobportal-be/internal/storage"
)

// ResetCleaner periodically deletes expired reset grants. Expiry is enforced
// at consume time regardless, so a missed sweep only costs disk.
type ResetCleaner struct {
	store    storage.ResetStore
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewResetCleaner creates a cleaner that sweeps every interval.
func NewResetCleaner(store storage.ResetStore, interval time.Duration, logger zerolog.Logger) *ResetCleaner {
	return &ResetCleaner{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("component", "reset_cleaner").Logger(),
		now:      time.Now,
	}
}

// Run sweeps until ctx is cancelled.
func (c *ResetCleaner) Run(ctx context.Context) {
	if c.interval <= 0 {
		return
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep performs a single cleanup pass.
func (c *ResetCleaner) Sweep(ctx context.Context) {
	n, err := c.store.DeleteExpiredResets(ctx, c.now().UTC())
	if err != nil {
		logging.Err(c.logger.Warn(), err).Msg("delete expired reset tokens")
		return
	}
	if n > 0 {
		c.logger.Debug().Int64("deleted", n).Msg("expired reset tokens removed")
	}
}
