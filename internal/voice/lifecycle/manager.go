package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sourcegraph/conc/pool"
	"github.com/voxguard/voxguard/internal/database/types"
	"github.com/voxguard/voxguard/internal/database/types/enum"
	"github.com/voxguard/voxguard/internal/platform"
	"github.com/voxguard/voxguard/internal/voice"
	"github.com/voxguard/voxguard/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// joinDedupWindow is how long a (guild, user, kind) join is remembered
// to absorb duplicate gateway events.
const joinDedupWindow = 10 * time.Second

// ChannelStore is the persistence surface for the active-channel registry.
type ChannelStore interface {
	Create(ctx context.Context, channel *types.ActiveVoiceChannel) error
	Get(ctx context.Context, channelID snowflake.ID) (*types.ActiveVoiceChannel, error)
	UpdateOwner(ctx context.Context, channelID, ownerID snowflake.ID) error
	UpdateTopic(ctx context.Context, channelID snowflake.ID, topic string) error
	UpdateTags(ctx context.Context, channelID snowflake.ID, tags []string) error
	Delete(ctx context.Context, channelID snowflake.ID) (bool, error)
	ListAll(ctx context.Context) ([]*types.ActiveVoiceChannel, error)
}

// DeadlineStore is the persistence surface for pending configuration
// deadlines.
type DeadlineStore interface {
	Upsert(ctx context.Context, deadline *types.PendingVcDeadline) error
	Delete(ctx context.Context, channelID snowflake.ID) (bool, error)
	ListExpired(ctx context.Context, now time.Time) ([]*types.PendingVcDeadline, error)
}

// PreferenceStore is the persistence surface for remembered channel
// defaults.
type PreferenceStore interface {
	Get(ctx context.Context, guildID, userID snowflake.ID, kind enum.ChannelKind) (*types.UserVcPreference, error)
	Upsert(ctx context.Context, pref *types.UserVcPreference) error
}

// RateLimiter gates owner commands behind a cooldown. Release refunds a
// claim whose guarded action never happened.
type RateLimiter interface {
	CheckAndRecord(
		ctx context.Context, userID, guildID snowflake.ID, command enum.CommandKind, now time.Time,
	) error
	Release(
		ctx context.Context, userID, guildID snowflake.ID, command enum.CommandKind, claimedAt time.Time,
	) error
}

// Platform is the subset of platform operations the lifecycle needs.
type Platform interface {
	CreateVoiceChannel(ctx context.Context, guildID, categoryID snowflake.ID, name string) (snowflake.ID, error)
	DeleteChannel(ctx context.Context, channelID snowflake.ID) error
	RenameChannel(ctx context.Context, channelID snowflake.ID, name string) error
	MoveMember(ctx context.Context, guildID, userID, channelID snowflake.ID) error
	SetUserLimit(ctx context.Context, channelID snowflake.ID, limit int) error
	ChannelMembers(guildID, channelID snowflake.ID) []platform.Member
}

// Manager owns the active-channel registry: it provisions ephemeral
// channels when members join a lobby, destroys them when they empty,
// transfers ownership, and manages configuration deadlines.
//
// All per-channel mutations are serialized through a per-key mutex so
// concurrent events for the same channel cannot lose updates; events
// for different channels proceed fully in parallel. The database row is
// the source of truth for channel existence; platform state is mirrored
// best effort and platform not-found errors trigger local cleanup.
type Manager struct {
	channels    ChannelStore
	deadlines   DeadlineStore
	preferences PreferenceStore
	resolver    *Resolver
	limiter     RateLimiter
	platform    Platform
	logger      *zap.Logger

	deadlineGrace    time.Duration
	sweepConcurrency int

	chanLocks *utils.KeyMutex[snowflake.ID]
	joinDedup *utils.TTLMap[string, struct{}]
	joinGroup singleflight.Group
}

// NewManager creates a new Manager instance.
func NewManager(
	channels ChannelStore, deadlines DeadlineStore, preferences PreferenceStore,
	resolver *Resolver, limiter RateLimiter, platform Platform,
	deadlineGrace time.Duration, sweepConcurrency int, logger *zap.Logger,
) *Manager {
	return &Manager{
		channels:         channels,
		deadlines:        deadlines,
		preferences:      preferences,
		resolver:         resolver,
		limiter:          limiter,
		platform:         platform,
		logger:           logger.Named("lifecycle"),
		deadlineGrace:    deadlineGrace,
		sweepConcurrency: sweepConcurrency,
		chanLocks:        utils.NewKeyMutex[snowflake.ID](),
		joinDedup:        utils.NewTTLMap[string, struct{}](joinDedupWindow),
	}
}

// Resolver returns the guild configuration resolver.
func (m *Manager) Resolver() *Resolver {
	return m.resolver
}

// OnMemberJoinedLobby provisions a fresh ephemeral channel for the user
// and moves them into it. Remembered preferences configure the channel
// immediately; without one the channel starts unconfigured with a
// deadline to run rename/retag before defaults are applied.
//
// Duplicate gateway events inside the dedup window are ignored, and
// concurrent duplicates collapse onto a single provisioning flight.
func (m *Manager) OnMemberJoinedLobby(ctx context.Context, guildID, userID, lobbyID snowflake.ID) error {
	kind, config, err := m.resolver.ResolveKindForLobby(ctx, guildID, lobbyID)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("%d:%d:%s", guildID, userID, kind)

	_, err, _ = m.joinGroup.Do(key, func() (any, error) {
		if !m.joinDedup.SetIfAbsent(key, struct{}{}) {
			m.logger.Debug("Ignoring duplicate lobby join", zap.String("key", key))
			return nil, nil
		}

		if err := m.provisionChannel(ctx, guildID, userID, kind, config); err != nil {
			// Nothing was provisioned, so a genuine retry must not be
			// absorbed by the dedup window.
			m.joinDedup.Delete(key)
			return nil, err
		}

		return nil, nil
	})

	return err
}

func (m *Manager) provisionChannel(
	ctx context.Context, guildID, userID snowflake.ID, kind enum.ChannelKind, config *types.GuildConfig,
) error {
	pref, err := m.preferences.Get(ctx, guildID, userID, kind)
	if err != nil && !errors.Is(err, voice.ErrNotFound) {
		return err
	}

	name := voice.DefaultChannelName(kind)

	var tags []string

	if pref != nil {
		if pref.Name != "" {
			// A stored name can predate additions to the word list; a
			// disallowed one falls back to the kind default instead of
			// being replayed.
			if err := voice.ValidateChannelName(pref.Name); err != nil {
				m.logger.Warn("Discarding disallowed name preference",
					zap.Uint64("userID", uint64(userID)),
					zap.Error(err))
			} else {
				name = pref.Name
			}
		}

		tags = pref.Tags
	}

	channelID, err := m.platform.CreateVoiceChannel(ctx, guildID, config.CategoryID(kind), name)
	if err != nil {
		return fmt.Errorf("failed to provision channel: %w", err)
	}

	channel := &types.ActiveVoiceChannel{
		ChannelID: channelID,
		GuildID:   guildID,
		OwnerID:   userID,
		Kind:      kind,
		Tags:      tags,
		CreatedAt: time.Now(),
	}
	if pref != nil {
		channel.Topic = name
	}

	if err := m.channels.Create(ctx, channel); err != nil {
		m.compensateCreate(ctx, channelID)
		return err
	}

	if err := m.platform.MoveMember(ctx, guildID, userID, channelID); err != nil {
		if _, delErr := m.channels.Delete(ctx, channelID); delErr != nil {
			m.logger.Error("Failed to roll back channel row",
				zap.Uint64("channelID", uint64(channelID)),
				zap.Error(delErr))
		}

		m.compensateCreate(ctx, channelID)

		return fmt.Errorf("failed to move member into channel: %w", err)
	}

	if pref == nil {
		deadline := &types.PendingVcDeadline{
			ChannelID:  channelID,
			GuildID:    guildID,
			OwnerID:    userID,
			DeadlineAt: time.Now().Add(m.deadlineGrace),
			CreatedAt:  time.Now(),
		}
		if err := m.deadlines.Upsert(ctx, deadline); err != nil {
			return err
		}
	}

	m.logger.Info("Provisioned ephemeral channel",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("ownerID", uint64(userID)),
		zap.Uint64("channelID", uint64(channelID)),
		zap.String("kind", kind.String()),
		zap.Bool("fromPreference", pref != nil))

	return nil
}

// compensateCreate removes a channel whose provisioning flow failed
// after the platform create. Failure here is logged, not surfaced: the
// original error matters more to the caller.
func (m *Manager) compensateCreate(ctx context.Context, channelID snowflake.ID) {
	if err := m.platform.DeleteChannel(ctx, channelID); err != nil && !errors.Is(err, voice.ErrNotFound) {
		m.logger.Error("Failed to compensate channel create",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Error(err))
	}
}

// OnChannelMembershipChanged destroys an ephemeral channel once it
// empties. Repeated zero-member events are harmless: the first row
// delete wins and later events find nothing to do.
func (m *Manager) OnChannelMembershipChanged(ctx context.Context, channelID snowflake.ID, memberCount int) error {
	if memberCount > 0 {
		return nil
	}

	m.chanLocks.Lock(channelID)
	defer m.chanLocks.Unlock(channelID)

	deleted, err := m.channels.Delete(ctx, channelID)
	if err != nil {
		return err
	}

	if !deleted {
		return nil
	}

	if _, err := m.deadlines.Delete(ctx, channelID); err != nil {
		m.logger.Warn("Failed to clear deadline for destroyed channel",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Error(err))
	}

	// The row is gone either way; a platform failure here just means the
	// platform already cleaned up or will diverge until reconciliation.
	if err := m.platform.DeleteChannel(ctx, channelID); err != nil && !errors.Is(err, voice.ErrNotFound) {
		m.logger.Warn("Failed to delete platform channel",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Error(err))
	}

	m.logger.Info("Destroyed empty channel", zap.Uint64("channelID", uint64(channelID)))

	return nil
}

// OnOwnerLeft transfers ownership when the owner disconnects but other
// members remain. The longest-present member wins; ties break to the
// lowest user ID. Membership is re-read from the platform at transfer
// time rather than trusted from the triggering event.
func (m *Manager) OnOwnerLeft(ctx context.Context, guildID, channelID snowflake.ID) error {
	m.chanLocks.Lock(channelID)
	defer m.chanLocks.Unlock(channelID)

	channel, err := m.channels.Get(ctx, channelID)
	if err != nil {
		if errors.Is(err, voice.ErrNotFound) {
			return nil
		}

		return err
	}

	var candidates []platform.Member

	for _, member := range m.platform.ChannelMembers(guildID, channelID) {
		if member.UserID != channel.OwnerID {
			candidates = append(candidates, member)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].JoinedAt.Equal(candidates[j].JoinedAt) {
			return candidates[i].JoinedAt.Before(candidates[j].JoinedAt)
		}

		return candidates[i].UserID < candidates[j].UserID
	})

	newOwner := candidates[0].UserID

	if err := m.channels.UpdateOwner(ctx, channelID, newOwner); err != nil {
		return err
	}

	m.logger.Info("Transferred channel ownership",
		zap.Uint64("channelID", uint64(channelID)),
		zap.Uint64("previousOwner", uint64(channel.OwnerID)),
		zap.Uint64("newOwner", uint64(newOwner)))

	return nil
}

// Rename changes the channel's name. Owner-only, name-checked, rate
// limited, and on success remembered as the user's preference for
// future channels of the same kind. Clears any pending configuration
// deadline.
func (m *Manager) Rename(ctx context.Context, guildID, channelID, requesterID snowflake.ID, newName string) error {
	m.chanLocks.Lock(channelID)
	defer m.chanLocks.Unlock(channelID)

	channel, err := m.ownedChannel(ctx, channelID, requesterID)
	if err != nil {
		return err
	}

	if err := voice.ValidateChannelName(newName); err != nil {
		return err
	}

	now := time.Now()
	if err := m.limiter.CheckAndRecord(ctx, requesterID, guildID, enum.CommandKindRename, now); err != nil {
		return err
	}

	if err := m.platform.RenameChannel(ctx, channelID, newName); err != nil {
		// The rename never happened; give the cooldown slot back.
		m.releaseCooldown(ctx, requesterID, guildID, enum.CommandKindRename, now)
		return m.reconcilePlatformError(ctx, channelID, err)
	}

	if err := m.channels.UpdateTopic(ctx, channelID, newName); err != nil {
		return err
	}

	return m.markConfigured(ctx, channel, newName, channel.Tags)
}

// SetUserLimit caps how many members can join the channel. Owner-only
// and rate limited; a zero limit removes the cap. The limit lives on
// the platform channel only and dies with it.
func (m *Manager) SetUserLimit(ctx context.Context, guildID, channelID, requesterID snowflake.ID, limit int) error {
	m.chanLocks.Lock(channelID)
	defer m.chanLocks.Unlock(channelID)

	if _, err := m.ownedChannel(ctx, channelID, requesterID); err != nil {
		return err
	}

	if limit < 0 || limit > voice.MaxUserLimit {
		return fmt.Errorf("limit %d not in [0, %d]: %w", limit, voice.MaxUserLimit, voice.ErrInvalidUserLimit)
	}

	now := time.Now()
	if err := m.limiter.CheckAndRecord(ctx, requesterID, guildID, enum.CommandKindLimit, now); err != nil {
		return err
	}

	if err := m.platform.SetUserLimit(ctx, channelID, limit); err != nil {
		m.releaseCooldown(ctx, requesterID, guildID, enum.CommandKindLimit, now)
		return m.reconcilePlatformError(ctx, channelID, err)
	}

	m.logger.Info("Set channel user limit",
		zap.Uint64("channelID", uint64(channelID)),
		zap.Int("limit", limit))

	return nil
}

// releaseCooldown refunds a claimed cooldown slot after the guarded
// platform call failed. Failure to refund is logged, not surfaced: the
// platform error matters more to the caller.
func (m *Manager) releaseCooldown(
	ctx context.Context, userID, guildID snowflake.ID, command enum.CommandKind, claimedAt time.Time,
) {
	if err := m.limiter.Release(ctx, userID, guildID, command, claimedAt); err != nil {
		m.logger.Warn("Failed to release command cooldown",
			zap.Uint64("userID", uint64(userID)),
			zap.String("command", command.String()),
			zap.Error(err))
	}
}

// Retag replaces the channel's tag set. Owner-only, rate limited, and
// remembered as the user's preference. Clears any pending deadline.
func (m *Manager) Retag(ctx context.Context, guildID, channelID, requesterID snowflake.ID, newTags []string) error {
	m.chanLocks.Lock(channelID)
	defer m.chanLocks.Unlock(channelID)

	channel, err := m.ownedChannel(ctx, channelID, requesterID)
	if err != nil {
		return err
	}

	tags, err := voice.NormalizeTags(channel.Kind, newTags)
	if err != nil {
		return err
	}

	if err := m.limiter.CheckAndRecord(ctx, requesterID, guildID, enum.CommandKindRetag, time.Now()); err != nil {
		return err
	}

	if err := m.channels.UpdateTags(ctx, channelID, tags); err != nil {
		return err
	}

	name := channel.Topic
	if name == "" {
		name = voice.DefaultChannelName(channel.Kind)
	}

	return m.markConfigured(ctx, channel, name, tags)
}

// ownedChannel loads the channel and verifies the requester owns it.
func (m *Manager) ownedChannel(
	ctx context.Context, channelID, requesterID snowflake.ID,
) (*types.ActiveVoiceChannel, error) {
	channel, err := m.channels.Get(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if channel.OwnerID != requesterID {
		return nil, fmt.Errorf("user %d does not own channel %d: %w",
			requesterID, channelID, voice.ErrPermissionDenied)
	}

	return channel, nil
}

// markConfigured persists the owner's choice as their preference and
// removes the pending deadline.
func (m *Manager) markConfigured(
	ctx context.Context, channel *types.ActiveVoiceChannel, name string, tags []string,
) error {
	pref := &types.UserVcPreference{
		GuildID: channel.GuildID,
		UserID:  channel.OwnerID,
		Kind:    channel.Kind,
		Name:    name,
		Tags:    tags,
	}
	if err := m.preferences.Upsert(ctx, pref); err != nil {
		return err
	}

	if _, err := m.deadlines.Delete(ctx, channel.ChannelID); err != nil {
		return err
	}

	return nil
}

// reconcilePlatformError handles a platform failure during a channel
// mutation. A platform not-found means the channel is gone externally:
// the local row and deadline are removed and not-found is surfaced.
// Other failures surface untouched.
func (m *Manager) reconcilePlatformError(ctx context.Context, channelID snowflake.ID, platformErr error) error {
	if !errors.Is(platformErr, voice.ErrNotFound) {
		return platformErr
	}

	if _, err := m.channels.Delete(ctx, channelID); err != nil {
		m.logger.Error("Failed to reconcile externally deleted channel",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Error(err))
	}

	if _, err := m.deadlines.Delete(ctx, channelID); err != nil {
		m.logger.Warn("Failed to clear deadline during reconciliation",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Error(err))
	}

	m.logger.Info("Reconciled externally deleted channel", zap.Uint64("channelID", uint64(channelID)))

	return platformErr
}

// GetActiveChannel returns the registry row for a channel.
func (m *Manager) GetActiveChannel(ctx context.Context, channelID snowflake.ID) (*types.ActiveVoiceChannel, error) {
	return m.channels.Get(ctx, channelID)
}

// SweepExpiredDeadlines applies the default configuration to every
// channel whose deadline has passed: kind default name, no tags, and
// the deadline row removed. Items are processed concurrently and
// isolated from each other; one failing channel never aborts the rest.
func (m *Manager) SweepExpiredDeadlines(ctx context.Context, now time.Time) error {
	expired, err := m.deadlines.ListExpired(ctx, now)
	if err != nil {
		return err
	}

	if len(expired) == 0 {
		return nil
	}

	p := pool.New().WithErrors().WithMaxGoroutines(m.sweepConcurrency)

	for _, deadline := range expired {
		p.Go(func() error {
			if err := m.applyDefaultConfig(ctx, deadline.ChannelID); err != nil {
				m.logger.Error("Failed to sweep deadline",
					zap.Uint64("channelID", uint64(deadline.ChannelID)),
					zap.Error(err))

				return err
			}

			return nil
		})
	}

	return p.Wait()
}

func (m *Manager) applyDefaultConfig(ctx context.Context, channelID snowflake.ID) error {
	m.chanLocks.Lock(channelID)
	defer m.chanLocks.Unlock(channelID)

	// Delete-if-still-present: an owner configuring concurrently removes
	// the deadline first and wins.
	deleted, err := m.deadlines.Delete(ctx, channelID)
	if err != nil {
		return err
	}

	if !deleted {
		return nil
	}

	channel, err := m.channels.Get(ctx, channelID)
	if err != nil {
		if errors.Is(err, voice.ErrNotFound) {
			return nil
		}

		return err
	}

	name := voice.DefaultChannelName(channel.Kind)

	if err := m.platform.RenameChannel(ctx, channelID, name); err != nil {
		reconciled := m.reconcilePlatformError(ctx, channelID, err)
		if errors.Is(reconciled, voice.ErrNotFound) {
			return nil
		}

		return reconciled
	}

	if err := m.channels.UpdateTopic(ctx, channelID, name); err != nil {
		return err
	}

	if err := m.channels.UpdateTags(ctx, channelID, nil); err != nil {
		return err
	}

	m.logger.Info("Applied default configuration",
		zap.Uint64("channelID", uint64(channelID)),
		zap.String("name", name))

	return nil
}

// ReconcileStartup walks the registry after a restart and destroys
// channels that emptied, or were deleted externally, while the process
// was down. It then checks the configured lobbies so members who sat in
// one across the restart still get their channel instead of being
// stranded until they rejoin.
func (m *Manager) ReconcileStartup(ctx context.Context) error {
	channels, err := m.channels.ListAll(ctx)
	if err != nil {
		return err
	}

	for _, channel := range channels {
		if len(m.platform.ChannelMembers(channel.GuildID, channel.ChannelID)) > 0 {
			continue
		}

		if err := m.OnChannelMembershipChanged(ctx, channel.ChannelID, 0); err != nil {
			m.logger.Error("Failed to reconcile channel at startup",
				zap.Uint64("channelID", uint64(channel.ChannelID)),
				zap.Error(err))
		}
	}

	return m.provisionLobbyOccupants(ctx)
}

// provisionLobbyOccupants feeds members currently sitting in a lobby
// through the normal join flow. Failures are isolated per member.
func (m *Manager) provisionLobbyOccupants(ctx context.Context) error {
	configs, err := m.resolver.ListGuildConfigs(ctx)
	if err != nil {
		return err
	}

	for _, config := range configs {
		for _, kind := range enum.ChannelKindValues() {
			lobbyID := config.LobbyID(kind)
			if lobbyID == 0 {
				continue
			}

			for _, member := range m.platform.ChannelMembers(config.GuildID, lobbyID) {
				err := m.OnMemberJoinedLobby(ctx, config.GuildID, member.UserID, lobbyID)
				if err != nil && !errors.Is(err, voice.ErrNotConfigured) {
					m.logger.Error("Failed to provision lobby occupant at startup",
						zap.Uint64("guildID", uint64(config.GuildID)),
						zap.Uint64("userID", uint64(member.UserID)),
						zap.Error(err))
				}
			}
		}
	}

	return nil
}
