package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
	"github.com/voxguard/voxguard/internal/database/types/enum"
)

// ActiveVoiceChannel is the local record of a live ephemeral voice channel.
// The row is the source of truth; platform state is best-effort mirrored.
type ActiveVoiceChannel struct {
	bun.BaseModel `bun:"table:active_voice_channels"`

	ChannelID snowflake.ID     `bun:",pk"`                 // Platform-assigned channel ID
	GuildID   snowflake.ID     `bun:",notnull"`            // Guild the channel lives in
	OwnerID   snowflake.ID     `bun:",notnull"`            // Current owner, exactly one at all times
	Kind      enum.ChannelKind `bun:"kind,notnull"`        // Closed enumeration, casual or debate
	Topic     string           `bun:",nullzero,type:text"` // Owner-chosen display name, empty until configured
	Tags      []string         `bun:",array"`              // Deduplicated tag set shown as topic metadata
	CreatedAt time.Time        `bun:",notnull"`
}

// Configured reports whether the owner has named the channel.
func (c *ActiveVoiceChannel) Configured() bool {
	return c.Topic != ""
}

// PendingVcDeadline marks a channel whose owner has not configured it yet.
// A channel has at most one pending deadline at a time.
type PendingVcDeadline struct {
	bun.BaseModel `bun:"table:pending_vc_deadlines"`

	ChannelID  snowflake.ID `bun:",pk"`
	GuildID    snowflake.ID `bun:",notnull"`
	OwnerID    snowflake.ID `bun:",notnull"`
	DeadlineAt time.Time    `bun:",notnull"` // When the default configuration is applied
	CreatedAt  time.Time    `bun:",notnull"`
}

// Expired checks whether the deadline has passed.
func (d *PendingVcDeadline) Expired(now time.Time) bool {
	return !d.DeadlineAt.After(now)
}
