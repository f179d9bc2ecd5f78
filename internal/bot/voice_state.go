package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/voxguard/voxguard/internal/voice"
	"github.com/voxguard/voxguard/internal/voice/spam"
	"go.uber.org/zap"
)

// eventTimeout bounds the handling of a single gateway event, including
// the REST calls it triggers.
const eventTimeout = 30 * time.Second

// handleVoiceJoin processes a member connecting to a voice channel.
func (b *Bot) handleVoiceJoin(event *events.GuildVoiceJoin) {
	if event.Member.User.Bot || event.VoiceState.ChannelID == nil {
		return
	}

	channelID := *event.VoiceState.ChannelID
	state := event.VoiceState

	go b.withEventContext(func(ctx context.Context) {
		b.memberJoined(ctx, state.GuildID, channelID, state.UserID, state.GuildMute)
	})
}

// handleVoiceMove processes a member switching voice channels. It is a
// leave from the old channel followed by a join to the new one.
func (b *Bot) handleVoiceMove(event *events.GuildVoiceMove) {
	if event.Member.User.Bot {
		return
	}

	oldChannelID := event.OldVoiceState.ChannelID
	newChannelID := event.VoiceState.ChannelID
	state := event.VoiceState

	go b.withEventContext(func(ctx context.Context) {
		if oldChannelID != nil {
			b.memberLeft(ctx, state.GuildID, *oldChannelID, state.UserID)
		}

		if newChannelID != nil {
			b.memberJoined(ctx, state.GuildID, *newChannelID, state.UserID, state.GuildMute)
		}
	})
}

// handleVoiceLeave processes a member disconnecting from voice.
func (b *Bot) handleVoiceLeave(event *events.GuildVoiceLeave) {
	if event.Member.User.Bot || event.OldVoiceState.ChannelID == nil {
		return
	}

	channelID := *event.OldVoiceState.ChannelID
	state := event.OldVoiceState

	go b.withEventContext(func(ctx context.Context) {
		b.memberLeft(ctx, state.GuildID, channelID, state.UserID)
	})
}

// handleVoiceStateUpdate watches for server mute flips while a member
// stays in the same channel, which is how manual admin mutes surface.
// Joins and moves can carry a stale flag and are reconciled by
// EnforceMuteOnJoin instead.
func (b *Bot) handleVoiceStateUpdate(event *events.GuildVoiceStateUpdate) {
	if event.Member.User.Bot {
		return
	}

	oldState := event.OldVoiceState
	state := event.VoiceState

	if oldState.ChannelID == nil || state.ChannelID == nil || *oldState.ChannelID != *state.ChannelID {
		return
	}

	if oldState.GuildMute == state.GuildMute {
		return
	}

	channelID := *state.ChannelID

	go b.withEventContext(func(ctx context.Context) {
		if err := b.ledger.ObserveMuteChange(ctx, state.GuildID, channelID, state.UserID, state.GuildMute); err != nil {
			b.logger.Error("Failed to record observed mute change",
				zap.Uint64("userID", uint64(state.UserID)),
				zap.Bool("muted", state.GuildMute),
				zap.Error(err))
		}
	})
}

// withEventContext runs an event handler with a bounded context and
// panic isolation so one bad event cannot take down the gateway reader.
func (b *Bot) withEventContext(fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic in voice state handler", zap.Any("panic", r))
		}
	}()

	fn(ctx)
}

// memberJoined routes a join to either lobby provisioning or, for a
// managed channel, ban and mute enforcement.
func (b *Bot) memberJoined(ctx context.Context, guildID, channelID, userID snowflake.ID, guildMute bool) {
	isLobby, err := b.manager.Resolver().IsLobby(ctx, guildID, channelID)
	if err != nil {
		b.logger.Error("Failed to resolve lobby",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Error(err))

		return
	}

	if isLobby {
		if err := b.manager.OnMemberJoinedLobby(ctx, guildID, userID, channelID); err != nil &&
			!errors.Is(err, voice.ErrNotConfigured) {
			b.logger.Error("Failed to provision channel",
				zap.Uint64("guildID", uint64(guildID)),
				zap.Uint64("userID", uint64(userID)),
				zap.Error(err))
		}

		return
	}

	if _, err := b.manager.GetActiveChannel(ctx, channelID); err != nil {
		if !errors.Is(err, voice.ErrNotFound) {
			b.logger.Error("Failed to look up active channel",
				zap.Uint64("channelID", uint64(channelID)),
				zap.Error(err))
		}

		return
	}

	// A channel ban outlives the permission overwrite; disconnect anyone
	// who slipped past it.
	banned, err := b.ledger.IsBannedFromChannel(ctx, channelID, userID)
	if err != nil {
		b.logger.Error("Failed to check ban state",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Uint64("userID", uint64(userID)),
			zap.Error(err))
	} else if banned {
		if err := b.adapter.DisconnectMember(ctx, guildID, userID); err != nil {
			b.logger.Warn("Failed to disconnect banned member",
				zap.Uint64("channelID", uint64(channelID)),
				zap.Uint64("userID", uint64(userID)),
				zap.Error(err))
		}

		return
	}

	if err := b.ledger.EnforceMuteOnJoin(ctx, guildID, channelID, userID, guildMute); err != nil {
		b.logger.Error("Failed to enforce mute state",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Uint64("userID", uint64(userID)),
			zap.Error(err))
	}
}

// memberLeft records the completed join/leave cycle for spam detection,
// destroys the channel if it emptied, and transfers ownership if the
// owner left a still-occupied channel.
func (b *Bot) memberLeft(ctx context.Context, guildID, channelID, userID snowflake.ID) {
	channel, err := b.manager.GetActiveChannel(ctx, channelID)
	if err != nil {
		if !errors.Is(err, voice.ErrNotFound) {
			b.logger.Error("Failed to look up active channel",
				zap.Uint64("channelID", uint64(channelID)),
				zap.Error(err))
		}

		return
	}

	verdict, err := b.detector.OnJoinCycle(ctx, guildID, channelID, userID, time.Now())
	if err != nil {
		b.logger.Error("Failed to evaluate join cycle",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Uint64("userID", uint64(userID)),
			zap.Error(err))
	} else {
		b.applyVerdict(ctx, guildID, userID, verdict)
	}

	if len(b.adapter.ChannelMembers(guildID, channelID)) == 0 {
		if err := b.manager.OnChannelMembershipChanged(ctx, channelID, 0); err != nil {
			b.logger.Error("Failed to destroy emptied channel",
				zap.Uint64("channelID", uint64(channelID)),
				zap.Error(err))
		}

		return
	}

	if channel.OwnerID == userID {
		if err := b.manager.OnOwnerLeft(ctx, guildID, channelID); err != nil {
			b.logger.Error("Failed to transfer ownership",
				zap.Uint64("channelID", uint64(channelID)),
				zap.Error(err))
		}
	}
}

// applyVerdict acts on a spam detection outcome: a warning DM for
// prompts, a platform timeout for infractions.
func (b *Bot) applyVerdict(ctx context.Context, guildID, userID snowflake.ID, verdict spam.Verdict) {
	switch verdict.Action {
	case spam.ActionPrompt:
		b.sendDirectMessage(ctx, userID,
			"You're hopping between voice channels very quickly. Slow down or you will be timed out.")

	case spam.ActionTimeout:
		until := time.Now().Add(verdict.Timeout)

		if err := b.adapter.TimeoutMember(ctx, guildID, userID, until); err != nil {
			b.logger.Error("Failed to apply spam timeout",
				zap.Uint64("guildID", uint64(guildID)),
				zap.Uint64("userID", uint64(userID)),
				zap.Int("level", verdict.Level),
				zap.Error(err))

			return
		}

		b.logger.Info("Applied spam timeout",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Uint64("userID", uint64(userID)),
			zap.Int("level", verdict.Level),
			zap.Duration("duration", verdict.Timeout))

		b.sendDirectMessage(ctx, userID, fmt.Sprintf(
			"You have been timed out for %s for rapidly joining and leaving voice channels.",
			verdict.Timeout))

	case spam.ActionNone:
	}
}

// sendDirectMessage delivers a DM best effort; closed DMs are common and
// only logged at debug level.
func (b *Bot) sendDirectMessage(ctx context.Context, userID snowflake.ID, content string) {
	dm, err := b.client.Rest().CreateDMChannel(userID, rest.WithCtx(ctx))
	if err != nil {
		b.logger.Debug("Failed to open DM channel",
			zap.Uint64("userID", uint64(userID)),
			zap.Error(err))

		return
	}

	message := discord.NewMessageCreateBuilder().SetContent(content).Build()
	if _, err := b.client.Rest().CreateMessage(dm.ID(), message, rest.WithCtx(ctx)); err != nil {
		b.logger.Debug("Failed to send DM",
			zap.Uint64("userID", uint64(userID)),
			zap.Error(err))
	}
}
