package models

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/voxguard/voxguard/internal/database/dbretry"
	"github.com/voxguard/voxguard/internal/database/types"
	"go.uber.org/zap"
)

// VoiceChannelModel handles database operations for active ephemeral voice
// channels.
type VoiceChannelModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewVoiceChannel creates a new VoiceChannelModel instance.
func NewVoiceChannel(db *bun.DB, logger *zap.Logger) *VoiceChannelModel {
	return &VoiceChannelModel{
		db:     db,
		logger: logger.Named("db_voice_channel"),
	}
}

// Create inserts the record for a freshly provisioned channel.
func (m *VoiceChannelModel) Create(ctx context.Context, channel *types.ActiveVoiceChannel) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(channel).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create voice channel record: %w", translateConflict(err))
		}

		return nil
	})
}

// Get retrieves an active voice channel by its channel ID.
func (m *VoiceChannelModel) Get(ctx context.Context, channelID snowflake.ID) (*types.ActiveVoiceChannel, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.ActiveVoiceChannel, error) {
		var channel types.ActiveVoiceChannel

		err := m.db.NewSelect().
			Model(&channel).
			Where("channel_id = ?", channelID).
			Scan(ctx)
		if err != nil {
			return nil, translateNotFound(err)
		}

		return &channel, nil
	})
}

// UpdateOwner transfers ownership of a channel.
func (m *VoiceChannelModel) UpdateOwner(ctx context.Context, channelID, ownerID snowflake.ID) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewUpdate().
			Model((*types.ActiveVoiceChannel)(nil)).
			Set("owner_id = ?", ownerID).
			Where("channel_id = ?", channelID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update channel owner: %w", err)
		}

		return nil
	})
}

// UpdateTopic sets a channel's display name.
func (m *VoiceChannelModel) UpdateTopic(ctx context.Context, channelID snowflake.ID, topic string) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewUpdate().
			Model((*types.ActiveVoiceChannel)(nil)).
			Set("topic = ?", topic).
			Where("channel_id = ?", channelID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update channel topic: %w", err)
		}

		return nil
	})
}

// UpdateTags replaces a channel's tag set.
func (m *VoiceChannelModel) UpdateTags(ctx context.Context, channelID snowflake.ID, tags []string) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewUpdate().
			Model((*types.ActiveVoiceChannel)(nil)).
			Set("tags = ?", pgdialect.Array(tags)).
			Where("channel_id = ?", channelID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update channel tags: %w", err)
		}

		return nil
	})
}

// Delete removes a channel record.
// Returns true if a record was removed, false if none existed.
func (m *VoiceChannelModel) Delete(ctx context.Context, channelID snowflake.ID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewDelete().
			Model((*types.ActiveVoiceChannel)(nil)).
			Where("channel_id = ?", channelID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to delete voice channel record: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, err
		}

		return affected > 0, nil
	})
}

// ListAll returns every active channel record, newest first.
// Used by the startup reconciliation pass.
func (m *VoiceChannelModel) ListAll(ctx context.Context) ([]*types.ActiveVoiceChannel, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.ActiveVoiceChannel, error) {
		var channels []*types.ActiveVoiceChannel

		err := m.db.NewSelect().
			Model(&channels).
			Order("created_at DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list voice channels: %w", err)
		}

		return channels, nil
	})
}
