package models

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
	"github.com/voxguard/voxguard/internal/database/dbretry"
	"github.com/voxguard/voxguard/internal/database/types"
	"go.uber.org/zap"
)

// SpamModel handles database operations for per-user spam escalation
// state.
type SpamModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSpam creates a new SpamModel instance.
func NewSpam(db *bun.DB, logger *zap.Logger) *SpamModel {
	return &SpamModel{
		db:     db,
		logger: logger.Named("db_spam"),
	}
}

// RecordInfraction bumps a user's escalation state in a single statement
// and returns the resulting row. A first infraction, or one whose
// predecessor is older than escalationStart, lands at level 1; otherwise
// the level climbs by one up to maxLevel. Doing the window check and
// bump inside one upsert keeps concurrent infractions consistent.
func (m *SpamModel) RecordInfraction(
	ctx context.Context, guildID, userID snowflake.ID, escalationStart time.Time, maxLevel int, now time.Time,
) (*types.SpamUserStatus, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.SpamUserStatus, error) {
		status := &types.SpamUserStatus{
			GuildID:          guildID,
			UserID:           userID,
			TimeoutLevel:     1,
			TotalInfractions: 1,
			LastInfractionAt: &now,
			UpdatedAt:        now,
		}

		err := m.db.NewInsert().
			Model(status).
			On("CONFLICT (guild_id, user_id) DO UPDATE").
			Set(`timeout_level = CASE
				WHEN spam_user_status.last_infraction_at IS NULL OR spam_user_status.last_infraction_at < ? THEN 1
				WHEN spam_user_status.timeout_level >= ? THEN ?
				ELSE spam_user_status.timeout_level + 1
			END`, escalationStart, maxLevel, maxLevel).
			Set("total_infractions = spam_user_status.total_infractions + 1").
			Set("last_infraction_at = EXCLUDED.last_infraction_at").
			Set("updated_at = EXCLUDED.updated_at").
			Returning("*").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to record infraction: %w", err)
		}

		return status, nil
	})
}

// Get retrieves a user's spam status.
func (m *SpamModel) Get(ctx context.Context, guildID, userID snowflake.ID) (*types.SpamUserStatus, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.SpamUserStatus, error) {
		var status types.SpamUserStatus

		err := m.db.NewSelect().
			Model(&status).
			Where("guild_id = ? AND user_id = ?", guildID, userID).
			Scan(ctx)
		if err != nil {
			return nil, translateNotFound(err)
		}

		return &status, nil
	})
}

// DecayStale resets the timeout level of every user whose last infraction
// is older than the cutoff. Total infraction counts are preserved.
func (m *SpamModel) DecayStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		result, err := m.db.NewUpdate().
			Model((*types.SpamUserStatus)(nil)).
			Set("timeout_level = 0").
			Set("updated_at = ?", now).
			Where("timeout_level > 0").
			Where("last_infraction_at IS NOT NULL AND last_infraction_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to decay spam levels: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}

		return affected, nil
	})
}
