package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
	"github.com/voxguard/voxguard/internal/database/types/enum"
)

// GuildConfig stores the join-to-create setup for a guild.
// At most one row exists per guild.
type GuildConfig struct {
	bun.BaseModel `bun:"table:guild_configs"`

	GuildID          snowflake.ID `bun:",pk"`       // Guild this config belongs to
	CasualLobbyID    snowflake.ID `bun:",nullzero"` // Lobby channel that spawns casual channels
	DebateLobbyID    snowflake.ID `bun:",nullzero"` // Lobby channel that spawns debate channels
	CasualCategoryID snowflake.ID `bun:",nullzero"` // Category new casual channels are created under
	DebateCategoryID snowflake.ID `bun:",nullzero"` // Category new debate channels are created under
	CasualRulesID    snowflake.ID `bun:",nullzero"` // Optional rules-display channel for casual
	DebateRulesID    snowflake.ID `bun:",nullzero"` // Optional rules-display channel for debate
	CreatedAt        time.Time    `bun:",notnull"`
	UpdatedAt        time.Time    `bun:",notnull"`
}

// LobbyID returns the configured lobby channel for a kind (0 if unset).
func (c *GuildConfig) LobbyID(kind enum.ChannelKind) snowflake.ID {
	if kind == enum.ChannelKindCasual {
		return c.CasualLobbyID
	}

	return c.DebateLobbyID
}

// CategoryID returns the configured parent category for a kind (0 if unset).
func (c *GuildConfig) CategoryID(kind enum.ChannelKind) snowflake.ID {
	if kind == enum.ChannelKindCasual {
		return c.CasualCategoryID
	}

	return c.DebateCategoryID
}

// IsConfigured checks whether a kind has both its lobby and category set.
func (c *GuildConfig) IsConfigured(kind enum.ChannelKind) bool {
	return c.LobbyID(kind) != 0 && c.CategoryID(kind) != 0
}

// KindForLobby resolves which kind a lobby channel belongs to.
func (c *GuildConfig) KindForLobby(lobbyID snowflake.ID) (enum.ChannelKind, bool) {
	switch {
	case lobbyID != 0 && lobbyID == c.CasualLobbyID:
		return enum.ChannelKindCasual, true
	case lobbyID != 0 && lobbyID == c.DebateLobbyID:
		return enum.ChannelKindDebate, true
	default:
		return 0, false
	}
}
