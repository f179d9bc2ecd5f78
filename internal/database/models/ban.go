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

// BanModel handles database operations for the append-only channel ban
// history.
type BanModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewBan creates a new BanModel instance.
func NewBan(db *bun.DB, logger *zap.Logger) *BanModel {
	return &BanModel{
		db:     db,
		logger: logger.Named("db_ban"),
	}
}

// Insert appends a new ban record. Bans have no uniqueness constraint;
// a user can be banned again in a later channel of the same owner.
func (m *BanModel) Insert(ctx context.Context, record *types.BanRecord) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}

		if record.BannedAt.IsZero() {
			record.BannedAt = time.Now()
		}

		_, err := m.db.NewInsert().
			Model(record).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert ban record: %w", err)
		}

		return nil
	})
}

// ListForChannel returns the ban history of a channel, newest first.
func (m *BanModel) ListForChannel(ctx context.Context, channelID snowflake.ID) ([]*types.BanRecord, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.BanRecord, error) {
		var records []*types.BanRecord

		err := m.db.NewSelect().
			Model(&records).
			Where("channel_id = ?", channelID).
			Order("banned_at DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list ban history: %w", err)
		}

		return records, nil
	})
}

// IsBanned checks whether a user has been banned from a specific channel.
// Bans are scoped to the channel's lifetime, so this only ever consults
// rows for the given channel ID.
func (m *BanModel) IsBanned(ctx context.Context, channelID, userID snowflake.ID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := m.db.NewSelect().
			Model((*types.BanRecord)(nil)).
			Where("channel_id = ? AND banned_user_id = ?", channelID, userID).
			Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check ban: %w", err)
		}

		return exists, nil
	})
}
