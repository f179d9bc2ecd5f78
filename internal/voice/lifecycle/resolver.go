package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/voxguard/voxguard/internal/database/types"
	"github.com/voxguard/voxguard/internal/database/types/enum"
	"github.com/voxguard/voxguard/internal/voice"
)

// ConfigStore is the persistence surface for guild configurations.
type ConfigStore interface {
	Get(ctx context.Context, guildID snowflake.ID) (*types.GuildConfig, error)
	Upsert(ctx context.Context, config *types.GuildConfig) error
	ListAll(ctx context.Context) ([]*types.GuildConfig, error)
}

// Resolver maps lobby channels onto channel kinds using the guild's
// configuration.
type Resolver struct {
	configs ConfigStore
}

// NewResolver creates a new Resolver instance.
func NewResolver(configs ConfigStore) *Resolver {
	return &Resolver{configs: configs}
}

// ResolveKindForLobby returns the channel kind configured for a lobby
// channel, along with the guild config it came from. A guild without a
// config row, or a channel that is not one of its lobbies, resolves to
// not-configured.
func (r *Resolver) ResolveKindForLobby(
	ctx context.Context, guildID, lobbyID snowflake.ID,
) (enum.ChannelKind, *types.GuildConfig, error) {
	config, err := r.configs.Get(ctx, guildID)
	if err != nil {
		if errors.Is(err, voice.ErrNotFound) {
			return 0, nil, fmt.Errorf("guild %d has no config: %w", guildID, voice.ErrNotConfigured)
		}

		return 0, nil, err
	}

	kind, ok := config.KindForLobby(lobbyID)
	if !ok {
		return 0, nil, fmt.Errorf("channel %d is not a lobby: %w", lobbyID, voice.ErrNotConfigured)
	}

	if !config.IsConfigured(kind) {
		return 0, nil, fmt.Errorf("guild %d kind %s incomplete: %w", guildID, kind, voice.ErrNotConfigured)
	}

	return kind, config, nil
}

// IsLobby reports whether the channel is one of the guild's lobbies.
// Guilds without a config simply have no lobbies.
func (r *Resolver) IsLobby(ctx context.Context, guildID, channelID snowflake.ID) (bool, error) {
	config, err := r.configs.Get(ctx, guildID)
	if err != nil {
		if errors.Is(err, voice.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	_, ok := config.KindForLobby(channelID)

	return ok, nil
}

// SetGuildConfig stores administrative lobby/category configuration.
func (r *Resolver) SetGuildConfig(ctx context.Context, config *types.GuildConfig) error {
	return r.configs.Upsert(ctx, config)
}

// GetGuildConfig returns the guild's configuration.
func (r *Resolver) GetGuildConfig(ctx context.Context, guildID snowflake.ID) (*types.GuildConfig, error) {
	return r.configs.Get(ctx, guildID)
}

// ListGuildConfigs returns every configured guild. Used by startup
// reconciliation to find lobbies worth scanning.
func (r *Resolver) ListGuildConfigs(ctx context.Context) ([]*types.GuildConfig, error) {
	return r.configs.ListAll(ctx)
}
