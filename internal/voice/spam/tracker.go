package spam

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/voxguard/voxguard/internal/database/types"
	"go.uber.org/zap"
)

// timeoutDurations maps escalation levels (starting at 1) to the timeout
// applied at that level. The last entry is the ceiling for repeat
// offenders.
var timeoutDurations = []time.Duration{ //nolint:gochecknoglobals // -
	15 * time.Minute,
	1 * time.Hour,
	6 * time.Hour,
	24 * time.Hour,
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
	14 * 24 * time.Hour,
}

// MaxTimeoutLevel is the highest escalation level a user can reach.
var MaxTimeoutLevel = len(timeoutDurations) //nolint:gochecknoglobals // -

// DurationForLevel returns the timeout duration for an escalation level.
// Levels outside the table clamp to its bounds.
func DurationForLevel(level int) time.Duration {
	if level < 1 {
		level = 1
	}

	if level > MaxTimeoutLevel {
		level = MaxTimeoutLevel
	}

	return timeoutDurations[level-1]
}

// Store is the persistence surface the tracker needs.
type Store interface {
	RecordInfraction(
		ctx context.Context, guildID, userID snowflake.ID,
		escalationStart time.Time, maxLevel int, now time.Time,
	) (*types.SpamUserStatus, error)
	DecayStale(ctx context.Context, cutoff, now time.Time) (int64, error)
}

// Tracker escalates punishment for repeated spam infractions and decays
// the level after a quiet period. The cumulative infraction count is a
// lifetime counter and never decays.
type Tracker struct {
	store            Store
	escalationWindow time.Duration
	logger           *zap.Logger
}

// NewTracker creates a new Tracker instance.
func NewTracker(store Store, escalationWindow time.Duration, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:            store,
		escalationWindow: escalationWindow,
		logger:           logger.Named("spam_tracker"),
	}
}

// RecordInfraction registers a new infraction and returns the timeout
// duration the caller should apply, along with the resulting level.
// An infraction following a quiet period longer than the escalation
// window restarts at level 1.
func (t *Tracker) RecordInfraction(
	ctx context.Context, guildID, userID snowflake.ID, now time.Time,
) (time.Duration, int, error) {
	status, err := t.store.RecordInfraction(
		ctx, guildID, userID, now.Add(-t.escalationWindow), MaxTimeoutLevel, now,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to record infraction: %w", err)
	}

	t.logger.Info("Recorded spam infraction",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.Int("level", status.TimeoutLevel),
		zap.Int("totalInfractions", status.TotalInfractions))

	return DurationForLevel(status.TimeoutLevel), status.TimeoutLevel, nil
}

// DecayStale resets the escalation level of every user whose last
// infraction is older than the escalation window. Returns how many
// users were reset.
func (t *Tracker) DecayStale(ctx context.Context, now time.Time) (int64, error) {
	reset, err := t.store.DecayStale(ctx, now.Add(-t.escalationWindow), now)
	if err != nil {
		return 0, fmt.Errorf("failed to decay spam levels: %w", err)
	}

	if reset > 0 {
		t.logger.Info("Decayed spam escalation levels", zap.Int64("users", reset))
	}

	return reset, nil
}
