// Package bot wires the voice lifecycle engine, the moderation ledger
// and the spam detector to the Discord gateway.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	platformdiscord "github.com/voxguard/voxguard/internal/platform/discord"
	"github.com/voxguard/voxguard/internal/redis"
	"github.com/voxguard/voxguard/internal/setup"
	"github.com/voxguard/voxguard/internal/voice/lifecycle"
	"github.com/voxguard/voxguard/internal/voice/moderation"
	"github.com/voxguard/voxguard/internal/voice/ratelimit"
	"github.com/voxguard/voxguard/internal/voice/spam"
	"github.com/voxguard/voxguard/pkg/utils"
	"go.uber.org/zap"
)

// startupReconcileDelay gives the gateway time to replay guild and voice
// state data into the cache before the registry is reconciled against it.
const startupReconcileDelay = 10 * time.Second

// Bot owns the Discord client and the domain services behind it. Events
// from the gateway are translated into lifecycle and moderation calls;
// slash commands form the owner and admin surface.
type Bot struct {
	client   bot.Client
	adapter  *platformdiscord.Adapter
	manager  *lifecycle.Manager
	ledger   *moderation.Ledger
	detector *spam.Detector
	tracker  *spam.Tracker
	logger   *zap.Logger
}

// New initializes a Bot instance by constructing the domain services and
// configuring the Discord client with the gateway intents and event
// listeners the voice engine needs.
func New(app *setup.App) (*Bot, error) {
	activityClient, err := app.RedisManager.GetClient(redis.SpamActivityDBIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to get spam activity redis client: %w", err)
	}

	b := &Bot{logger: app.Logger}

	// Voice state tracking requires the members and voice states caches;
	// membership counts and owner transfer both read from them.
	client, err := disgo.New(app.Config.Discord.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMembers,
				gateway.IntentGuildVoiceStates,
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(
				cache.FlagGuilds,
				cache.FlagChannels,
				cache.FlagMembers,
				cache.FlagVoiceStates,
			),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
			OnGuildVoiceJoin:                b.handleVoiceJoin,
			OnGuildVoiceMove:                b.handleVoiceMove,
			OnGuildVoiceLeave:               b.handleVoiceLeave,
			OnGuildVoiceStateUpdate:         b.handleVoiceStateUpdate,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client
	b.adapter = platformdiscord.NewAdapter(client, app.Logger, time.Duration(app.Config.Discord.RequestTimeout)*time.Millisecond)

	repo := app.DB.Model()
	voiceCfg := app.Config.Voice

	resolver := lifecycle.NewResolver(repo.GuildConfig())
	limiter := ratelimit.NewLimiter(
		repo.RateLimit(),
		time.Duration(voiceCfg.CommandCooldownMinutes)*time.Minute,
		app.Logger,
	)

	// The sweep fires after the configuration window plus its grace
	// period, so the deadline row carries the sum.
	deadline := time.Duration(voiceCfg.ConfigDeadlineMinutes+voiceCfg.DeadlineGraceMinutes) * time.Minute

	b.manager = lifecycle.NewManager(
		repo.VoiceChannel(), repo.Deadline(), repo.Preference(),
		resolver, limiter, b.adapter,
		deadline, app.Config.Worker.SweepConcurrency, app.Logger,
	)
	b.ledger = moderation.NewLedger(repo.Mute(), repo.GlobalMute(), repo.Ban(), b.adapter, app.Logger)

	window := spam.NewActivityWindow(
		activityClient,
		time.Duration(voiceCfg.SpamWindowSeconds)*time.Second,
		app.Logger,
	)
	b.tracker = spam.NewTracker(
		repo.Spam(),
		time.Duration(voiceCfg.SpamDecayDays)*24*time.Hour,
		app.Logger,
	)
	b.detector = spam.NewDetector(
		window, b.tracker,
		int64(voiceCfg.SpamPromptThreshold), int64(voiceCfg.SpamInfractionThreshold),
	)

	return b, nil
}

// Lifecycle returns the channel lifecycle manager for background workers.
func (b *Bot) Lifecycle() *lifecycle.Manager {
	return b.manager
}

// SpamTracker returns the escalation tracker for background workers.
func (b *Bot) SpamTracker() *spam.Tracker {
	return b.tracker
}

// Start registers the slash commands and opens the gateway connection.
// Once the cache has warmed up, the registry is reconciled against it so
// channels that emptied while the process was down get destroyed.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Registering commands")

	// Registration is idempotent, so transient startup failures just retry.
	_, err := utils.WithRetry(ctx, func() ([]discord.ApplicationCommand, error) {
		return b.client.Rest().SetGlobalCommands(b.client.ApplicationID(), commands())
	}, utils.GetPlatformRetryOptions())
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("Starting bot")

	if err := b.client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(startupReconcileDelay):
		}

		if err := b.manager.ReconcileStartup(ctx); err != nil {
			b.logger.Error("Startup reconciliation failed", zap.Error(err))
		}
	}()

	return nil
}

// Close gracefully shuts down the Discord gateway connection.
func (b *Bot) Close() {
	b.logger.Info("Closing bot")
	b.client.Close(context.Background())
}
