package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/binify/binify/models"
)

// reaperBatchSize caps how many expired bins one sweep processes. Anything
// beyond the cap is picked up by the next sweep.
const reaperBatchSize = 100

// Reaper periodically removes expired bins through the same teardown path as
// a user delete, so blobs and cache entries never outlive their rows.
type Reaper struct {
	db       *gorm.DB
	bins     *BinService
	interval time.Duration
	log      *zap.SugaredLogger
}

// NewReaper creates an expiry reaper over the lifecycle service.
func NewReaper(db *gorm.DB, bins *BinService, interval time.Duration, log *zap.SugaredLogger) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{db: db, bins: bins, interval: interval, log: log}
}

// Run sweeps on the configured interval until the context is cancelled. The
// first sweep happens after one interval, not at startup, so boot stays fast.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep removes one batch of expired bins. A failing bin is logged and
// skipped; it stays in place and is retried on the next sweep.
func (r *Reaper) Sweep(ctx context.Context) {
	var expired []models.Bin
	err := r.db.WithContext(ctx).
		Where("expiry_at IS NOT NULL AND expiry_at < ?", time.Now()).
		Limit(reaperBatchSize).
		Find(&expired).Error
	if err != nil {
		r.log.Warnf("expiry sweep query failed: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	removed := 0
	for i := range expired {
		bin := &expired[i]
		if err := r.bins.remove(ctx, bin); err != nil {
			r.log.Warnf("expiry sweep could not remove bin %d: %v", bin.ID, err)
			continue
		}
		removed++
	}
	r.log.Infof("expiry sweep removed %d of %d expired bins", removed, len(expired))
}
