package platform

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Member describes a user currently connected to a voice channel.
type Member struct {
	// UserID is the platform user ID.
	UserID snowflake.ID
	// JoinedAt is when the user joined the guild. Used as a deterministic
	// tie-break when picking a new channel owner.
	JoinedAt time.Time
}

// Client abstracts the chat platform operations the voice engine needs.
// Implementations translate platform failures into the domain error kinds:
// missing entities map to not-found, permission failures to
// permission-denied, and transport failures to platform-unavailable.
type Client interface {
	// CreateVoiceChannel creates a voice channel under the given category
	// and returns its ID.
	CreateVoiceChannel(ctx context.Context, guildID, categoryID snowflake.ID, name string) (snowflake.ID, error)

	// DeleteChannel removes a channel.
	DeleteChannel(ctx context.Context, channelID snowflake.ID) error

	// RenameChannel changes a channel's displayed name.
	RenameChannel(ctx context.Context, channelID snowflake.ID, name string) error

	// SetUserLimit caps how many members can connect to a voice channel.
	// A limit of zero removes the cap.
	SetUserLimit(ctx context.Context, channelID snowflake.ID, limit int) error

	// MoveMember moves a connected member into the given voice channel.
	MoveMember(ctx context.Context, guildID, userID, channelID snowflake.ID) error

	// DisconnectMember drops a member from whatever voice channel they
	// are in.
	DisconnectMember(ctx context.Context, guildID, userID snowflake.ID) error

	// SetMute applies or lifts the server mute flag on a member.
	SetMute(ctx context.Context, guildID, userID snowflake.ID, muted bool) error

	// TimeoutMember prevents a member from interacting until the given time.
	TimeoutMember(ctx context.Context, guildID, userID snowflake.ID, until time.Time) error

	// DenyConnect adds a permission overwrite that blocks a user from
	// connecting to a channel.
	DenyConnect(ctx context.Context, channelID, userID snowflake.ID) error

	// ChannelMembers lists the users currently connected to a voice channel.
	ChannelMembers(guildID, channelID snowflake.ID) []Member
}
