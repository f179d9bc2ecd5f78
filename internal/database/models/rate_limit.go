package models

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
	"github.com/voxguard/voxguard/internal/database/dbretry"
	"github.com/voxguard/voxguard/internal/database/types"
	"github.com/voxguard/voxguard/internal/database/types/enum"
	"go.uber.org/zap"
)

// RateLimitModel handles database operations for per-user command
// cooldowns.
type RateLimitModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewRateLimit creates a new RateLimitModel instance.
func NewRateLimit(db *bun.DB, logger *zap.Logger) *RateLimitModel {
	return &RateLimitModel{
		db:     db,
		logger: logger.Named("db_rate_limit"),
	}
}

// TryAcquire atomically claims a cooldown slot for a (user, guild,
// command). The conditional upsert only rewrites last_used_at when the
// previous use is outside the cooldown window; zero rows affected means
// the cooldown is still running. Returns the stored last_used_at so
// callers can compute the remaining wait.
func (m *RateLimitModel) TryAcquire(
	ctx context.Context, userID, guildID snowflake.ID, command enum.CommandKind, now time.Time, cooldown time.Duration,
) (bool, time.Time, error) {
	type attempt struct {
		acquired   bool
		lastUsedAt time.Time
	}

	result, err := dbretry.Operation(ctx, func(ctx context.Context) (attempt, error) {
		limit := &types.CommandRateLimit{
			UserID:     userID,
			GuildID:    guildID,
			Command:    command,
			LastUsedAt: now,
		}

		res, err := m.db.NewInsert().
			Model(limit).
			On("CONFLICT (user_id, guild_id, command) DO UPDATE").
			Set("last_used_at = EXCLUDED.last_used_at").
			Where("channel_command_rate_limits.last_used_at <= ?", now.Add(-cooldown)).
			Exec(ctx)
		if err != nil {
			return attempt{}, fmt.Errorf("failed to acquire rate limit: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return attempt{}, err
		}

		if affected > 0 {
			return attempt{acquired: true, lastUsedAt: now}, nil
		}

		// Lost the race or still cooling down; read back the winning
		// timestamp for the retry-after calculation.
		var existing types.CommandRateLimit

		err = m.db.NewSelect().
			Model(&existing).
			Where("user_id = ? AND guild_id = ? AND command = ?", userID, guildID, command).
			Scan(ctx)
		if err != nil {
			return attempt{}, fmt.Errorf("failed to read rate limit state: %w", err)
		}

		return attempt{acquired: false, lastUsedAt: existing.LastUsedAt}, nil
	})
	if err != nil {
		return false, time.Time{}, err
	}

	return result.acquired, result.lastUsedAt, nil
}

// Release deletes a cooldown claim stamped at claimedAt. The delete is
// conditional on last_used_at still matching, so a claim the user has
// since re-acquired is left alone.
func (m *RateLimitModel) Release(
	ctx context.Context, userID, guildID snowflake.ID, command enum.CommandKind, claimedAt time.Time,
) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewDelete().
			Model((*types.CommandRateLimit)(nil)).
			Where("user_id = ? AND guild_id = ? AND command = ?", userID, guildID, command).
			Where("last_used_at = ?", claimedAt).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to release rate limit: %w", err)
		}

		return nil
	})
}
