package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/registration-gate/internal/core/port"
)

// PendingReaper removes pending registrations whose operator decision never
// arrived. A TTL of zero disables the sweep entirely.
type PendingReaper struct {
	pending  port.PendingRepository
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewPendingReaper constructs the background sweeper.
func NewPendingReaper(pending port.PendingRepository, ttl, interval time.Duration, logger *zap.Logger) *PendingReaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &PendingReaper{
		pending:  pending,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (r *PendingReaper) WithClock(now func() time.Time) *PendingReaper {
	if now != nil {
		r.now = now
	}
	return r
}

// Run sweeps on the configured interval until the context is cancelled.
func (r *PendingReaper) Run(ctx context.Context) {
	if r.ttl <= 0 {
		r.logger.Info("pending reaper disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Warn("pending sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep deletes pending registrations older than the TTL once.
func (r *PendingReaper) Sweep(ctx context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}

	cutoff := r.now().UTC().Add(-r.ttl)
	reaped, err := r.pending.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if reaped > 0 {
		r.logger.Info("reaped stale pending registrations",
			zap.Int64("count", reaped),
			zap.Time("cutoff", cutoff),
		)
	}

	return reaped, nil
}
