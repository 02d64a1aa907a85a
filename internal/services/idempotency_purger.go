package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-chat/internal/repo"
)

// IdempotencyPurger periodically deletes expired idempotency records. An
// expired record still occupies its (caller, key) slot until removed.
type IdempotencyPurger struct {
	DB       *gorm.DB
	Interval time.Duration

	// Now is the purge clock; time.Now when nil.
	Now func() time.Time
}

// PurgeOnce deletes every record expired at the current time.
func (p *IdempotencyPurger) PurgeOnce(ctx context.Context) (int64, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return repo.DeleteExpiredIdempotency(ctx, p.DB, now().UTC())
}

// Run purges once immediately and then every Interval until ctx is done.
// Failures are logged and retried on the next tick.
func (p *IdempotencyPurger) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	lg := zerolog.Ctx(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if n, err := p.PurgeOnce(ctx); err != nil {
			lg.Warn().Err(err).Msg("purge expired idempotency keys")
		} else if n > 0 {
			lg.Debug().Int64("deleted", n).Msg("purged expired idempotency keys")
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
