package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MuteRecord is an append-only record of a channel-scoped mute.
// A row with a null UnmutedAt is an active mute; a partial unique index
// guarantees at most one active row per (channel, muted user).
type MuteRecord struct {
	bun.BaseModel `bun:"table:mute_history"`

	ID          uuid.UUID    `bun:",pk,type:uuid,default:gen_random_uuid()"`
	GuildID     snowflake.ID `bun:",notnull"`
	ChannelID   snowflake.ID `bun:",notnull"`
	MutedUserID snowflake.ID `bun:",notnull"`
	MutedByID   snowflake.ID `bun:",notnull"`
	IsAdminMute bool         `bun:",notnull"` // Admin mute rather than owner mute
	MutedAt     time.Time    `bun:",notnull"`
	UnmutedAt   *time.Time   `bun:",nullzero"`
}

// IsActive reports whether the mute has not been lifted.
func (m *MuteRecord) IsActive() bool {
	return m.UnmutedAt == nil
}

// GlobalMute is an administrative, guild-wide mute independent of any
// channel. These are never cleared by the lifecycle manager; only an
// explicit administrative action may set UnmutedAt.
type GlobalMute struct {
	bun.BaseModel `bun:"table:global_mutes"`

	ID         uuid.UUID    `bun:",pk,type:uuid,default:gen_random_uuid()"`
	GuildID    snowflake.ID `bun:",notnull"`
	UserID     snowflake.ID `bun:",notnull"`
	DetectedAt time.Time    `bun:",notnull"`
	UnmutedAt  *time.Time   `bun:",nullzero"`
}

// IsActive reports whether the global mute has not been cleared.
func (m *GlobalMute) IsActive() bool {
	return m.UnmutedAt == nil
}
