package workers

import (
	"context"
	"time"

	"billing-service/services"

	"go.uber.org/zap"
)

// ExpirySweeper periodically cancels orders that have been pending longer
// than the TTL. It is optional; deployments that prefer an external scheduler
// leave the interval at zero and call the HTTP trigger instead.
type ExpirySweeper struct {
	orders   services.OrderService
	interval time.Duration
	logger   *zap.Logger
}

func NewExpirySweeper(orders services.OrderService, interval time.Duration, logger *zap.Logger) *ExpirySweeper {
	return &ExpirySweeper{orders: orders, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, sweeping once per interval. Each sweep
// re-checks order status inside the update, so overlapping sweeps (or a
// concurrent HTTP trigger) cannot double-cancel.
func (w *ExpirySweeper) Run(ctx context.Context) {
	w.logger.Info("expiry sweeper started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpirySweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cancelled, err := w.orders.ExpireStale(sweepCtx)
	if err != nil {
		w.logger.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if cancelled > 0 {
		w.logger.Info("expiry sweep cancelled stale orders", zap.Int("count", cancelled))
	}
}
