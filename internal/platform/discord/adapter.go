package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"github.com/voxguard/voxguard/internal/platform"
	"github.com/voxguard/voxguard/internal/voice"
	"go.uber.org/zap"
)

// Adapter implements platform.Client on top of a disgo bot client.
// Every REST call runs with a bounded timeout so a slow Discord API
// cannot stall the voice engine.
type Adapter struct {
	client         bot.Client
	logger         *zap.Logger
	requestTimeout time.Duration
}

// NewAdapter creates a new Discord platform adapter.
func NewAdapter(client bot.Client, logger *zap.Logger, requestTimeout time.Duration) *Adapter {
	return &Adapter{
		client:         client,
		logger:         logger.Named("platform_discord"),
		requestTimeout: requestTimeout,
	}
}

// CreateVoiceChannel creates a voice channel under the given category
// and returns its ID.
func (a *Adapter) CreateVoiceChannel(
	ctx context.Context, guildID, categoryID snowflake.ID, name string,
) (snowflake.ID, error) {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	channel, err := a.client.Rest().CreateGuildChannel(guildID, discord.GuildVoiceChannelCreate{
		Name:     name,
		ParentID: categoryID,
	}, rest.WithCtx(ctx))
	if err != nil {
		return 0, translateRestError("create voice channel", err)
	}

	return channel.ID(), nil
}

// DeleteChannel removes a channel.
func (a *Adapter) DeleteChannel(ctx context.Context, channelID snowflake.ID) error {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	if err := a.client.Rest().DeleteChannel(channelID, rest.WithCtx(ctx)); err != nil {
		return translateRestError("delete channel", err)
	}

	return nil
}

// RenameChannel changes a channel's displayed name.
func (a *Adapter) RenameChannel(ctx context.Context, channelID snowflake.ID, name string) error {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	_, err := a.client.Rest().UpdateChannel(channelID, discord.GuildVoiceChannelUpdate{
		Name: json.Ptr(name),
	}, rest.WithCtx(ctx))
	if err != nil {
		return translateRestError("rename channel", err)
	}

	return nil
}

// SetUserLimit caps how many members can connect to a voice channel.
// A limit of zero removes the cap.
func (a *Adapter) SetUserLimit(ctx context.Context, channelID snowflake.ID, limit int) error {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	_, err := a.client.Rest().UpdateChannel(channelID, discord.GuildVoiceChannelUpdate{
		UserLimit: json.Ptr(limit),
	}, rest.WithCtx(ctx))
	if err != nil {
		return translateRestError("set user limit", err)
	}

	return nil
}

// MoveMember moves a connected member into the given voice channel.
func (a *Adapter) MoveMember(ctx context.Context, guildID, userID, channelID snowflake.ID) error {
	return a.updateVoiceChannel(ctx, "move member", guildID, userID, channelID)
}

// DisconnectMember drops a member from whatever voice channel they are in.
// A zero channel ID serializes to null, which Discord treats as a
// disconnect.
func (a *Adapter) DisconnectMember(ctx context.Context, guildID, userID snowflake.ID) error {
	return a.updateVoiceChannel(ctx, "disconnect member", guildID, userID, 0)
}

func (a *Adapter) updateVoiceChannel(
	ctx context.Context, op string, guildID, userID, channelID snowflake.ID,
) error {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	_, err := a.client.Rest().UpdateMember(guildID, userID, discord.MemberUpdate{
		ChannelID: json.Ptr(channelID),
	}, rest.WithCtx(ctx))
	if err != nil {
		return translateRestError(op, err)
	}

	return nil
}

// SetMute applies or lifts the server mute flag on a member.
func (a *Adapter) SetMute(ctx context.Context, guildID, userID snowflake.ID, muted bool) error {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	_, err := a.client.Rest().UpdateMember(guildID, userID, discord.MemberUpdate{
		Mute: json.Ptr(muted),
	}, rest.WithCtx(ctx))
	if err != nil {
		return translateRestError("set mute", err)
	}

	return nil
}

// TimeoutMember prevents a member from interacting until the given time.
func (a *Adapter) TimeoutMember(ctx context.Context, guildID, userID snowflake.ID, until time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	_, err := a.client.Rest().UpdateMember(guildID, userID, discord.MemberUpdate{
		CommunicationDisabledUntil: json.NewNullablePtr(until),
	}, rest.WithCtx(ctx))
	if err != nil {
		return translateRestError("timeout member", err)
	}

	return nil
}

// DenyConnect adds a permission overwrite that blocks a user from
// connecting to a channel.
func (a *Adapter) DenyConnect(ctx context.Context, channelID, userID snowflake.ID) error {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	err := a.client.Rest().UpdatePermissionOverwrite(channelID, userID, discord.MemberPermissionOverwriteUpdate{
		Deny: json.Ptr(discord.PermissionConnect),
	}, rest.WithCtx(ctx))
	if err != nil {
		return translateRestError("deny connect", err)
	}

	return nil
}

// ChannelMembers lists the users currently connected to a voice channel,
// read from the gateway voice state cache. Bots are excluded so they
// never count toward ownership or provisioning.
func (a *Adapter) ChannelMembers(guildID, channelID snowflake.ID) []platform.Member {
	var members []platform.Member

	a.client.Caches().VoiceStatesForEach(guildID, func(state discord.VoiceState) {
		if state.ChannelID == nil || *state.ChannelID != channelID {
			return
		}

		joinedAt := time.Time{}
		if member, ok := a.client.Caches().Member(guildID, state.UserID); ok {
			if member.User.Bot {
				return
			}

			joinedAt = member.JoinedAt
		}

		members = append(members, platform.Member{
			UserID:   state.UserID,
			JoinedAt: joinedAt,
		})
	})

	return members
}

// translateRestError maps Discord REST failures onto the domain error
// kinds so callers never see transport details.
func translateRestError(op string, err error) error {
	var restErr *rest.Error
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("failed to %s: %w", op, voice.ErrNotFound)
		case http.StatusForbidden:
			return fmt.Errorf("failed to %s: %w", op, voice.ErrPermissionDenied)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w", op, voice.ErrPlatformUnavailable)
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
