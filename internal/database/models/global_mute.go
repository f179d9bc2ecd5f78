package models

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/voxguard/voxguard/internal/database/dbretry"
	"github.com/voxguard/voxguard/internal/database/types"
	"go.uber.org/zap"
)

// GlobalMuteModel handles database operations for guild-wide
// administrative mutes.
type GlobalMuteModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewGlobalMute creates a new GlobalMuteModel instance.
func NewGlobalMute(db *bun.DB, logger *zap.Logger) *GlobalMuteModel {
	return &GlobalMuteModel{
		db:     db,
		logger: logger.Named("db_global_mute"),
	}
}

// Insert records a new active global mute. The partial unique index on
// (guild_id, user_id) where unmuted_at is null rejects a second active
// row; the violation is surfaced as a domain conflict.
func (m *GlobalMuteModel) Insert(ctx context.Context, record *types.GlobalMute) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}

		if record.DetectedAt.IsZero() {
			record.DetectedAt = time.Now()
		}

		_, err := m.db.NewInsert().
			Model(record).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert global mute: %w", translateConflict(err))
		}

		return nil
	})
}

// Clear lifts the active global mute for a (guild, user).
// Returns false if no active global mute existed.
func (m *GlobalMuteModel) Clear(
	ctx context.Context, guildID, userID snowflake.ID, now time.Time,
) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.GlobalMute)(nil)).
			Set("unmuted_at = ?", now).
			Where("guild_id = ? AND user_id = ? AND unmuted_at IS NULL", guildID, userID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to clear global mute: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, err
		}

		return affected > 0, nil
	})
}

// IsActive checks whether a user currently has an active global mute.
func (m *GlobalMuteModel) IsActive(ctx context.Context, guildID, userID snowflake.ID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := m.db.NewSelect().
			Model((*types.GlobalMute)(nil)).
			Where("guild_id = ? AND user_id = ? AND unmuted_at IS NULL", guildID, userID).
			Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check global mute: %w", err)
		}

		return exists, nil
	})
}
