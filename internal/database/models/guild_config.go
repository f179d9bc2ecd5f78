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

// GuildConfigModel handles database operations for guild join-to-create
// configuration.
type GuildConfigModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewGuildConfig creates a new GuildConfigModel instance.
func NewGuildConfig(db *bun.DB, logger *zap.Logger) *GuildConfigModel {
	return &GuildConfigModel{
		db:     db,
		logger: logger.Named("db_guild_config"),
	}
}

// Upsert creates or replaces a guild's configuration.
func (m *GuildConfigModel) Upsert(ctx context.Context, config *types.GuildConfig) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		now := time.Now()
		config.UpdatedAt = now

		if config.CreatedAt.IsZero() {
			config.CreatedAt = now
		}

		_, err := m.db.NewInsert().
			Model(config).
			On("CONFLICT (guild_id) DO UPDATE").
			Set("casual_lobby_id = EXCLUDED.casual_lobby_id").
			Set("debate_lobby_id = EXCLUDED.debate_lobby_id").
			Set("casual_category_id = EXCLUDED.casual_category_id").
			Set("debate_category_id = EXCLUDED.debate_category_id").
			Set("casual_rules_id = EXCLUDED.casual_rules_id").
			Set("debate_rules_id = EXCLUDED.debate_rules_id").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert guild config: %w", err)
		}

		return nil
	})
}

// Get retrieves a guild's configuration.
func (m *GuildConfigModel) Get(ctx context.Context, guildID snowflake.ID) (*types.GuildConfig, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.GuildConfig, error) {
		var config types.GuildConfig

		err := m.db.NewSelect().
			Model(&config).
			Where("guild_id = ?", guildID).
			Scan(ctx)
		if err != nil {
			return nil, translateNotFound(err)
		}

		return &config, nil
	})
}

// ListAll retrieves every guild's configuration. Used by startup
// reconciliation to walk the configured lobbies.
func (m *GuildConfigModel) ListAll(ctx context.Context) ([]*types.GuildConfig, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.GuildConfig, error) {
		var configs []*types.GuildConfig

		err := m.db.NewSelect().
			Model(&configs).
			Order("guild_id").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list guild configs: %w", err)
		}

		return configs, nil
	})
}
