package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/voxguard/voxguard/internal/database/types/enum"
	"github.com/voxguard/voxguard/internal/voice"
	"go.uber.org/zap"
)

// Store is the persistence surface the limiter needs. Implementations
// must make the claim atomic so two concurrent commands cannot both pass.
type Store interface {
	TryAcquire(
		ctx context.Context, userID, guildID snowflake.ID,
		command enum.CommandKind, now time.Time, cooldown time.Duration,
	) (bool, time.Time, error)
	Release(
		ctx context.Context, userID, guildID snowflake.ID,
		command enum.CommandKind, claimedAt time.Time,
	) error
}

// Limiter enforces per-user cooldowns on channel commands.
type Limiter struct {
	store    Store
	cooldown time.Duration
	logger   *zap.Logger
}

// NewLimiter creates a new Limiter instance.
func NewLimiter(store Store, cooldown time.Duration, logger *zap.Logger) *Limiter {
	return &Limiter{
		store:    store,
		cooldown: cooldown,
		logger:   logger.Named("ratelimit"),
	}
}

// CheckAndRecord claims a cooldown slot for the command. A rejected
// attempt leaves the stored timestamp untouched and returns a
// RateLimitedError carrying the remaining wait.
func (l *Limiter) CheckAndRecord(
	ctx context.Context, userID, guildID snowflake.ID, command enum.CommandKind, now time.Time,
) error {
	acquired, lastUsedAt, err := l.store.TryAcquire(ctx, userID, guildID, command, now, l.cooldown)
	if err != nil {
		return fmt.Errorf("failed to check rate limit: %w", err)
	}

	if !acquired {
		retryAfter := lastUsedAt.Add(l.cooldown).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}

		l.logger.Debug("Command rate limited",
			zap.Uint64("userID", uint64(userID)),
			zap.String("command", command.String()),
			zap.Duration("retryAfter", retryAfter))

		return &voice.RateLimitedError{RetryAfter: retryAfter}
	}

	return nil
}

// Release refunds a cooldown slot claimed at claimedAt. Used when the
// command's platform call fails after the claim, so the user does not
// wait out a cooldown for work that never happened. The refund is
// conditional on the stored timestamp still being claimedAt.
func (l *Limiter) Release(
	ctx context.Context, userID, guildID snowflake.ID, command enum.CommandKind, claimedAt time.Time,
) error {
	if err := l.store.Release(ctx, userID, guildID, command, claimedAt); err != nil {
		return fmt.Errorf("failed to release rate limit: %w", err)
	}

	l.logger.Debug("Command cooldown refunded",
		zap.Uint64("userID", uint64(userID)),
		zap.String("command", command.String()))

	return nil
}
