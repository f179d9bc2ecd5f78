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

// MuteModel handles database operations for channel-scoped mute history.
type MuteModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewMute creates a new MuteModel instance.
func NewMute(db *bun.DB, logger *zap.Logger) *MuteModel {
	return &MuteModel{
		db:     db,
		logger: logger.Named("db_mute"),
	}
}

// Insert records a new active mute. The partial unique index on
// (channel_id, muted_user_id) where unmuted_at is null rejects a second
// active mute; the violation is surfaced as a domain conflict.
func (m *MuteModel) Insert(ctx context.Context, record *types.MuteRecord) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}

		if record.MutedAt.IsZero() {
			record.MutedAt = time.Now()
		}

		_, err := m.db.NewInsert().
			Model(record).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert mute record: %w", translateConflict(err))
		}

		return nil
	})
}

// GetActive retrieves the active mute for a (channel, user), if any.
func (m *MuteModel) GetActive(
	ctx context.Context, channelID, userID snowflake.ID,
) (*types.MuteRecord, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.MuteRecord, error) {
		var record types.MuteRecord

		err := m.db.NewSelect().
			Model(&record).
			Where("channel_id = ? AND muted_user_id = ? AND unmuted_at IS NULL", channelID, userID).
			Scan(ctx)
		if err != nil {
			return nil, translateNotFound(err)
		}

		return &record, nil
	})
}

// CloseActive lifts the active mute for a (channel, user).
// Returns false if no active mute existed.
func (m *MuteModel) CloseActive(
	ctx context.Context, channelID, userID snowflake.ID, now time.Time,
) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.MuteRecord)(nil)).
			Set("unmuted_at = ?", now).
			Where("channel_id = ? AND muted_user_id = ? AND unmuted_at IS NULL", channelID, userID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to close active mute: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, err
		}

		return affected > 0, nil
	})
}

// DeleteByID removes a mute row outright. Used to roll back a mute whose
// platform call never took effect, so the audit trail records only mutes
// that actually happened.
func (m *MuteModel) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewDelete().
			Model((*types.MuteRecord)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete mute record: %w", err)
		}

		return nil
	})
}

// Reopen clears the unmuted_at of a specific row, restoring it as the
// active mute. Used to roll back an unmute whose platform call failed.
func (m *MuteModel) Reopen(ctx context.Context, id uuid.UUID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewUpdate().
			Model((*types.MuteRecord)(nil)).
			Set("unmuted_at = NULL").
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to reopen mute record: %w", translateConflict(err))
		}

		return nil
	})
}

// ListActiveForChannel returns all active mutes in a channel.
func (m *MuteModel) ListActiveForChannel(
	ctx context.Context, channelID snowflake.ID,
) ([]*types.MuteRecord, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.MuteRecord, error) {
		var records []*types.MuteRecord

		err := m.db.NewSelect().
			Model(&records).
			Where("channel_id = ? AND unmuted_at IS NULL", channelID).
			Order("muted_at DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active mutes: %w", err)
		}

		return records, nil
	})
}
