package reaper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shopd/internal/domain/cart"
)

// Reaper periodically deletes cart lines older than the retention window.
// Lines already removed by a checkout or an explicit clear simply don't
// count; the sweep treats an empty result as success.
type Reaper struct {
	repo     cart.Repository
	ttl      time.Duration
	interval time.Duration
	log      *zap.Logger
}

func New(repo cart.Repository, ttl, interval time.Duration, logger *zap.Logger) *Reaper {
	return &Reaper{
		repo:     repo,
		ttl:      ttl,
		interval: interval,
		log:      logger.With(zap.String("component", "cart-reaper")),
	}
}

// Run sweeps until the context is cancelled. It blocks; run it on its own
// goroutine.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("cart_reaper_started",
		zap.Duration("ttl", r.ttl),
		zap.Duration("interval", r.interval),
	)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("cart_reaper_stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.ttl)

	sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := r.repo.DeleteExpired(sctx, cutoff)
	if err != nil {
		r.log.Warn("cart_reaper_sweep_failed", zap.Error(err))
		return
	}
	if n > 0 {
		r.log.Info("cart_lines_reaped", zap.Int("count", n))
	}
}
