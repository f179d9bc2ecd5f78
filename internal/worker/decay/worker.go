package decay

import (
	"context"
	"time"

	"github.com/voxguard/voxguard/internal/voice/spam"
	"github.com/voxguard/voxguard/pkg/utils"
	"go.uber.org/zap"
)

// Worker periodically resets the spam escalation level of users who
// have stayed quiet for the full decay window. Lifetime infraction
// counts are never touched.
type Worker struct {
	tracker  *spam.Tracker
	interval time.Duration
	logger   *zap.Logger
}

// New creates a new spam decay worker.
func New(tracker *spam.Tracker, interval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{
		tracker:  tracker,
		interval: interval,
		logger:   logger.Named("decay_worker"),
	}
}

// Start begins the decay worker's main loop. It returns when the
// context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Spam decay worker started", zap.Duration("interval", w.interval))

	for {
		if utils.ContextGuard(ctx) {
			w.logger.Info("Context cancelled, stopping spam decay worker")
			return
		}

		if _, err := w.tracker.DecayStale(ctx, time.Now()); err != nil {
			w.logger.Error("Spam decay failed", zap.Error(err))

			if !utils.ErrorSleep(ctx, w.interval, w.logger, "spam decay worker") {
				return
			}

			continue
		}

		if !utils.IntervalSleep(ctx, w.interval, w.logger, "spam decay worker") {
			return
		}
	}
}
