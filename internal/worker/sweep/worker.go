package sweep

import (
	"context"
	"time"

	"github.com/voxguard/voxguard/internal/voice/lifecycle"
	"github.com/voxguard/voxguard/pkg/utils"
	"go.uber.org/zap"
)

// Worker periodically applies default configurations to channels whose
// owners never ran rename/retag. This is the one place channel state
// self-heals without waiting for a platform event.
type Worker struct {
	manager  *lifecycle.Manager
	interval time.Duration
	logger   *zap.Logger
}

// New creates a new deadline sweep worker.
func New(manager *lifecycle.Manager, interval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{
		manager:  manager,
		interval: interval,
		logger:   logger.Named("sweep_worker"),
	}
}

// Start begins the sweep worker's main loop. It returns when the
// context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Deadline sweep worker started", zap.Duration("interval", w.interval))

	for {
		if utils.ContextGuard(ctx) {
			w.logger.Info("Context cancelled, stopping deadline sweep worker")
			return
		}

		if err := w.manager.SweepExpiredDeadlines(ctx, time.Now()); err != nil {
			// Per-item failures are already logged; this is the sweep
			// itself failing (e.g. the deadline scan).
			w.logger.Error("Deadline sweep failed", zap.Error(err))

			if !utils.ErrorSleep(ctx, w.interval, w.logger, "deadline sweep worker") {
				return
			}

			continue
		}

		if !utils.IntervalSleep(ctx, w.interval, w.logger, "deadline sweep worker") {
			return
		}
	}
}
