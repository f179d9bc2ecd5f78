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

// PreferenceModel handles database operations for remembered channel
// naming and tagging defaults.
type PreferenceModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPreference creates a new PreferenceModel instance.
func NewPreference(db *bun.DB, logger *zap.Logger) *PreferenceModel {
	return &PreferenceModel{
		db:     db,
		logger: logger.Named("db_preference"),
	}
}

// Get retrieves a user's preference for a channel kind.
func (m *PreferenceModel) Get(
	ctx context.Context, guildID, userID snowflake.ID, kind enum.ChannelKind,
) (*types.UserVcPreference, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.UserVcPreference, error) {
		var pref types.UserVcPreference

		err := m.db.NewSelect().
			Model(&pref).
			Where("guild_id = ? AND user_id = ? AND kind = ?", guildID, userID, kind).
			Scan(ctx)
		if err != nil {
			return nil, translateNotFound(err)
		}

		return &pref, nil
	})
}

// Upsert saves a user's preference, overwriting any prior values entirely.
func (m *PreferenceModel) Upsert(ctx context.Context, pref *types.UserVcPreference) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		pref.UpdatedAt = time.Now()

		_, err := m.db.NewInsert().
			Model(pref).
			On("CONFLICT (guild_id, user_id, kind) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("tags = EXCLUDED.tags").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert preference: %w", err)
		}

		return nil
	})
}
