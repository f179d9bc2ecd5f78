package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"github.com/voxguard/voxguard/internal/database/types"
	"github.com/voxguard/voxguard/internal/voice"
	"go.uber.org/zap"
)

// Slash command names.
const (
	CommandRename       = "rename"
	CommandRetag        = "retag"
	CommandLimit        = "limit"
	CommandMute         = "mute"
	CommandUnmute       = "unmute"
	CommandBan          = "ban"
	CommandBans         = "bans"
	CommandGlobalMute   = "globalmute"
	CommandGlobalUnmute = "globalunmute"
	CommandSetup        = "vcsetup"
)

// errNotInManagedChannel is rendered for commands that only make sense
// inside an ephemeral voice channel.
var errNotInManagedChannel = errors.New("requester is not in a managed voice channel")

// commands returns the slash command set registered on startup.
func commands() []discord.ApplicationCommandCreate {
	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:        CommandRename,
			Description: "Rename your voice channel",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "name",
					Description: "The new channel name",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        CommandRetag,
			Description: "Set your voice channel's topic tags",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "tags",
					Description: "Comma-separated tags, leave empty to clear",
					Required:    false,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        CommandLimit,
			Description: "Set your voice channel's user limit",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "limit",
					Description: "Maximum members, 0 removes the limit",
					Required:    true,
					MinValue:    json.Ptr(0),
					MaxValue:    json.Ptr(voice.MaxUserLimit),
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        CommandMute,
			Description: "Mute a user in your voice channel",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The user to mute",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        CommandUnmute,
			Description: "Unmute a user in your voice channel",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The user to unmute",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        CommandBan,
			Description: "Ban a user from your voice channel",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The user to ban",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "reason",
					Description: "Why the user is banned",
					Required:    false,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        CommandBans,
			Description: "Show the ban history of your voice channel",
		},
		discord.SlashCommandCreate{
			Name:        CommandGlobalMute,
			Description: "Mute a user across all managed voice channels (admin)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The user to mute",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        CommandGlobalUnmute,
			Description: "Lift a server-wide voice mute (admin)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The user to unmute",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        CommandSetup,
			Description: "Configure the join-to-create lobbies and categories (admin)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionChannel{
					Name:        "casual_lobby",
					Description: "Voice channel that spawns casual channels",
					Required:    true,
					ChannelTypes: []discord.ChannelType{
						discord.ChannelTypeGuildVoice,
					},
				},
				discord.ApplicationCommandOptionChannel{
					Name:        "casual_category",
					Description: "Category new casual channels are created under",
					Required:    true,
					ChannelTypes: []discord.ChannelType{
						discord.ChannelTypeGuildCategory,
					},
				},
				discord.ApplicationCommandOptionChannel{
					Name:        "debate_lobby",
					Description: "Voice channel that spawns debate channels",
					Required:    true,
					ChannelTypes: []discord.ChannelType{
						discord.ChannelTypeGuildVoice,
					},
				},
				discord.ApplicationCommandOptionChannel{
					Name:        "debate_category",
					Description: "Category new debate channels are created under",
					Required:    true,
					ChannelTypes: []discord.ChannelType{
						discord.ChannelTypeGuildCategory,
					},
				},
				discord.ApplicationCommandOptionChannel{
					Name:        "casual_rules",
					Description: "Optional rules channel shown for casual channels",
					Required:    false,
					ChannelTypes: []discord.ChannelType{
						discord.ChannelTypeGuildText,
					},
				},
				discord.ApplicationCommandOptionChannel{
					Name:        "debate_rules",
					Description: "Optional rules channel shown for debate channels",
					Required:    false,
					ChannelTypes: []discord.ChannelType{
						discord.ChannelTypeGuildText,
					},
				},
			},
		},
	}
}

// handleApplicationCommandInteraction dispatches slash commands. The
// response is deferred first so slow database or REST work cannot trip
// Discord's interaction timeout.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in command handler", zap.Any("panic", r))
			}
		}()

		if event.GuildID() == nil {
			if err := event.CreateMessage(discord.NewMessageCreateBuilder().
				SetContent("This command only works inside a server.").
				SetEphemeral(true).
				Build()); err != nil {
				b.logger.Error("Failed to respond to DM command", zap.Error(err))
			}

			return
		}

		if err := event.DeferCreateMessage(true); err != nil {
			b.logger.Error("Failed to defer command response", zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		start := time.Now()
		data := event.SlashCommandInteractionData()
		guildID := *event.GuildID()
		invokerID := event.User().ID
		isAdmin := event.Member().Permissions.Has(discord.PermissionAdministrator)

		var (
			content string
			err     error
		)

		switch data.CommandName() {
		case CommandRename:
			content, err = b.cmdRename(ctx, guildID, invokerID, data.String("name"))
		case CommandRetag:
			tags, _ := data.OptString("tags")
			content, err = b.cmdRetag(ctx, guildID, invokerID, tags)
		case CommandLimit:
			content, err = b.cmdLimit(ctx, guildID, invokerID, data.Int("limit"))
		case CommandMute:
			content, err = b.cmdMute(ctx, guildID, invokerID, data.Snowflake("user"), isAdmin)
		case CommandUnmute:
			content, err = b.cmdUnmute(ctx, guildID, invokerID, data.Snowflake("user"), isAdmin)
		case CommandBan:
			reason, _ := data.OptString("reason")
			content, err = b.cmdBan(ctx, guildID, invokerID, data.Snowflake("user"), reason, isAdmin)
		case CommandBans:
			content, err = b.cmdBans(ctx, guildID, invokerID)
		case CommandGlobalMute:
			content, err = b.cmdGlobalMute(ctx, guildID, data.Snowflake("user"), isAdmin)
		case CommandGlobalUnmute:
			content, err = b.cmdGlobalUnmute(ctx, guildID, data.Snowflake("user"), isAdmin)
		case CommandSetup:
			content, err = b.cmdSetup(ctx, guildID, data, isAdmin)
		default:
			content = "This command is not available."
		}

		if err != nil {
			content = b.renderError(data.CommandName(), err)
		}

		b.respond(event, content)

		b.logger.Debug("Command handled",
			zap.String("command", data.CommandName()),
			zap.Duration("duration", time.Since(start)))
	}()
}

func (b *Bot) cmdRename(ctx context.Context, guildID, invokerID snowflake.ID, name string) (string, error) {
	name = strings.TrimSpace(name)

	channel, err := b.invokerChannel(ctx, guildID, invokerID)
	if err != nil {
		return "", err
	}

	if err := b.manager.Rename(ctx, guildID, channel.ChannelID, invokerID, name); err != nil {
		return "", err
	}

	return fmt.Sprintf("Channel renamed to **%s**.", name), nil
}

func (b *Bot) cmdRetag(ctx context.Context, guildID, invokerID snowflake.ID, rawTags string) (string, error) {
	channel, err := b.invokerChannel(ctx, guildID, invokerID)
	if err != nil {
		return "", err
	}

	tags := splitTags(rawTags)

	if err := b.manager.Retag(ctx, guildID, channel.ChannelID, invokerID, tags); err != nil {
		return "", err
	}

	if len(tags) == 0 {
		return "Channel tags cleared.", nil
	}

	return "Channel tags set to " + voice.FormatTagStatus(tags) + ".", nil
}

func (b *Bot) cmdLimit(ctx context.Context, guildID, invokerID snowflake.ID, limit int) (string, error) {
	channel, err := b.invokerChannel(ctx, guildID, invokerID)
	if err != nil {
		return "", err
	}

	if err := b.manager.SetUserLimit(ctx, guildID, channel.ChannelID, invokerID, limit); err != nil {
		return "", err
	}

	if limit == 0 {
		return "User limit removed, anyone can join.", nil
	}

	return fmt.Sprintf("User limit set to **%d**.", limit), nil
}

func (b *Bot) cmdMute(
	ctx context.Context, guildID, invokerID, targetID snowflake.ID, isAdmin bool,
) (string, error) {
	channel, err := b.moderatedChannel(ctx, guildID, invokerID, isAdmin)
	if err != nil {
		return "", err
	}

	if err := b.ledger.MuteInChannel(ctx, guildID, channel.ChannelID, targetID, invokerID, isAdmin); err != nil {
		return "", err
	}

	return fmt.Sprintf("Muted <@%d> in this channel.", targetID), nil
}

func (b *Bot) cmdUnmute(
	ctx context.Context, guildID, invokerID, targetID snowflake.ID, isAdmin bool,
) (string, error) {
	channel, err := b.moderatedChannel(ctx, guildID, invokerID, isAdmin)
	if err != nil {
		return "", err
	}

	if err := b.ledger.UnmuteInChannel(ctx, guildID, channel.ChannelID, targetID); err != nil {
		return "", err
	}

	return fmt.Sprintf("Unmuted <@%d> in this channel.", targetID), nil
}

func (b *Bot) cmdBan(
	ctx context.Context, guildID, invokerID, targetID snowflake.ID, reason string, isAdmin bool,
) (string, error) {
	channel, err := b.moderatedChannel(ctx, guildID, invokerID, isAdmin)
	if err != nil {
		return "", err
	}

	if targetID == channel.OwnerID {
		return "The channel owner cannot be banned from their own channel.", nil
	}

	if err := b.ledger.BanFromChannel(ctx, guildID, channel.ChannelID, targetID, invokerID, reason); err != nil {
		return "", err
	}

	return fmt.Sprintf("Banned <@%d> from this channel.", targetID), nil
}

func (b *Bot) cmdBans(ctx context.Context, guildID, invokerID snowflake.ID) (string, error) {
	channel, err := b.invokerChannel(ctx, guildID, invokerID)
	if err != nil {
		return "", err
	}

	records, err := b.ledger.ListBanHistory(ctx, channel.ChannelID)
	if err != nil {
		return "", err
	}

	if len(records) == 0 {
		return "No bans recorded for this channel.", nil
	}

	var sb strings.Builder

	sb.WriteString("Ban history for this channel:\n")

	for _, record := range records {
		sb.WriteString(fmt.Sprintf("- <@%d> by <@%d> (<t:%d:R>)",
			record.BannedUserID, record.BannedByID, record.BannedAt.Unix()))

		if record.Reason != "" {
			sb.WriteString(": " + record.Reason)
		}

		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func (b *Bot) cmdGlobalMute(
	ctx context.Context, guildID, targetID snowflake.ID, isAdmin bool,
) (string, error) {
	if !isAdmin {
		return "Only administrators can manage global mutes.", nil
	}

	if err := b.ledger.ApplyGlobalMute(ctx, guildID, targetID); err != nil {
		return "", err
	}

	return fmt.Sprintf("Globally muted <@%d>.", targetID), nil
}

func (b *Bot) cmdGlobalUnmute(
	ctx context.Context, guildID, targetID snowflake.ID, isAdmin bool,
) (string, error) {
	if !isAdmin {
		return "Only administrators can manage global mutes.", nil
	}

	if err := b.ledger.ClearGlobalMute(ctx, guildID, targetID); err != nil {
		return "", err
	}

	return fmt.Sprintf("Lifted the global mute on <@%d>.", targetID), nil
}

func (b *Bot) cmdSetup(
	ctx context.Context, guildID snowflake.ID, data discord.SlashCommandInteractionData, isAdmin bool,
) (string, error) {
	if !isAdmin {
		return "Only administrators can configure join-to-create.", nil
	}

	config := &types.GuildConfig{
		GuildID:          guildID,
		CasualLobbyID:    data.Snowflake("casual_lobby"),
		CasualCategoryID: data.Snowflake("casual_category"),
		DebateLobbyID:    data.Snowflake("debate_lobby"),
		DebateCategoryID: data.Snowflake("debate_category"),
	}

	if rulesID, ok := data.OptSnowflake("casual_rules"); ok {
		config.CasualRulesID = rulesID
	}

	if rulesID, ok := data.OptSnowflake("debate_rules"); ok {
		config.DebateRulesID = rulesID
	}

	if config.CasualLobbyID == config.DebateLobbyID {
		return "The casual and debate lobbies must be different channels.", nil
	}

	if err := b.manager.Resolver().SetGuildConfig(ctx, config); err != nil {
		return "", err
	}

	return "Join-to-create configuration saved.", nil
}

// invokerChannel resolves the managed voice channel the invoker is
// currently connected to.
func (b *Bot) invokerChannel(
	ctx context.Context, guildID, userID snowflake.ID,
) (*types.ActiveVoiceChannel, error) {
	state, ok := b.client.Caches().VoiceState(guildID, userID)
	if !ok || state.ChannelID == nil {
		return nil, errNotInManagedChannel
	}

	channel, err := b.manager.GetActiveChannel(ctx, *state.ChannelID)
	if err != nil {
		if errors.Is(err, voice.ErrNotFound) {
			return nil, errNotInManagedChannel
		}

		return nil, err
	}

	return channel, nil
}

// moderatedChannel is invokerChannel plus the owner-or-admin gate used
// by the moderation commands.
func (b *Bot) moderatedChannel(
	ctx context.Context, guildID, invokerID snowflake.ID, isAdmin bool,
) (*types.ActiveVoiceChannel, error) {
	channel, err := b.invokerChannel(ctx, guildID, invokerID)
	if err != nil {
		return nil, err
	}

	if channel.OwnerID != invokerID && !isAdmin {
		return nil, voice.ErrPermissionDenied
	}

	return channel, nil
}

// respond replaces the deferred response with the final content.
func (b *Bot) respond(event *events.ApplicationCommandInteractionCreate, content string) {
	_, err := b.client.Rest().UpdateInteractionResponse(event.ApplicationID(), event.Token(),
		discord.NewMessageUpdateBuilder().SetContent(content).Build())
	if err != nil {
		b.logger.Error("Failed to respond to command", zap.Error(err))
	}
}

// renderError maps domain errors onto user-facing messages. Unexpected
// errors are logged and masked.
func (b *Bot) renderError(command string, err error) string {
	if rle, ok := voice.AsRateLimited(err); ok {
		return fmt.Sprintf("You can use this command again in %s.", rle.RetryAfter.Round(time.Second))
	}

	switch {
	case errors.Is(err, errNotInManagedChannel):
		return "You need to be connected to one of the managed voice channels."
	case errors.Is(err, voice.ErrNotConfigured):
		return "Join-to-create is not set up on this server."
	case errors.Is(err, voice.ErrInvalidName):
		return fmt.Sprintf("Channel names must be between %d and %d characters.",
			voice.MinChannelNameLength, voice.MaxChannelNameLength)
	case errors.Is(err, voice.ErrInappropriateName):
		return "That name contains language that isn't allowed in channel names."
	case errors.Is(err, voice.ErrInvalidUserLimit):
		return fmt.Sprintf("The user limit must be between 0 and %d.", voice.MaxUserLimit)
	case errors.Is(err, voice.ErrPermissionDenied):
		return "Only the channel owner can do that."
	case errors.Is(err, voice.ErrConflict):
		return "That moderation action is already active."
	case errors.Is(err, voice.ErrNotFound):
		return "There is no active record matching that."
	case errors.Is(err, voice.ErrPlatformUnavailable):
		return "Discord is not responding right now, please try again shortly."
	default:
		b.logger.Error("Command failed",
			zap.String("command", command),
			zap.Error(err))

		return "Something went wrong while handling that command."
	}
}

// splitTags parses a comma-separated tag list, dropping empty entries.
// Validation against the kind's catalog happens in the lifecycle layer.
func splitTags(raw string) []string {
	var tags []string

	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}
