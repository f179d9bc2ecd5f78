package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/voxguard/voxguard/internal/database/types"
	"github.com/voxguard/voxguard/internal/voice"
	"go.uber.org/zap"
)

// MuteStore is the persistence surface for channel-scoped mutes.
type MuteStore interface {
	Insert(ctx context.Context, record *types.MuteRecord) error
	GetActive(ctx context.Context, channelID, userID snowflake.ID) (*types.MuteRecord, error)
	CloseActive(ctx context.Context, channelID, userID snowflake.ID, now time.Time) (bool, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	Reopen(ctx context.Context, id uuid.UUID) error
}

// GlobalMuteStore is the persistence surface for guild-wide mutes.
type GlobalMuteStore interface {
	Insert(ctx context.Context, record *types.GlobalMute) error
	Clear(ctx context.Context, guildID, userID snowflake.ID, now time.Time) (bool, error)
	IsActive(ctx context.Context, guildID, userID snowflake.ID) (bool, error)
}

// BanStore is the persistence surface for the append-only ban history.
type BanStore interface {
	Insert(ctx context.Context, record *types.BanRecord) error
	ListForChannel(ctx context.Context, channelID snowflake.ID) ([]*types.BanRecord, error)
	IsBanned(ctx context.Context, channelID, userID snowflake.ID) (bool, error)
}

// Platform is the subset of platform operations the ledger needs.
type Platform interface {
	SetMute(ctx context.Context, guildID, userID snowflake.ID, muted bool) error
	DisconnectMember(ctx context.Context, guildID, userID snowflake.ID) error
	DenyConnect(ctx context.Context, channelID, userID snowflake.ID) error
}

// GlobalMuteChecker is the read-only view of global mutes handed to the
// lifecycle side. It deliberately exposes no way to clear a global mute:
// only the administrative surface on the Ledger can do that.
type GlobalMuteChecker interface {
	IsGloballyMuted(ctx context.Context, guildID, userID snowflake.ID) (bool, error)
}

// Ledger keeps the mute and ban records consistent with the platform.
// The database row is written first and rolled back if the platform call
// fails, so the audit trail only records moderation that actually
// happened.
type Ledger struct {
	mutes       MuteStore
	globalMutes GlobalMuteStore
	bans        BanStore
	platform    Platform
	logger      *zap.Logger
}

// NewLedger creates a new Ledger instance.
func NewLedger(
	mutes MuteStore, globalMutes GlobalMuteStore, bans BanStore, platform Platform, logger *zap.Logger,
) *Ledger {
	return &Ledger{
		mutes:       mutes,
		globalMutes: globalMutes,
		bans:        bans,
		platform:    platform,
		logger:      logger.Named("moderation"),
	}
}

// MuteInChannel records and applies a channel-scoped mute. A second mute
// for the same (channel, target) fails with a conflict before touching
// the platform.
func (l *Ledger) MuteInChannel(
	ctx context.Context, guildID, channelID, targetID, actorID snowflake.ID, isAdmin bool,
) error {
	record := &types.MuteRecord{
		ID:          uuid.New(),
		GuildID:     guildID,
		ChannelID:   channelID,
		MutedUserID: targetID,
		MutedByID:   actorID,
		IsAdminMute: isAdmin,
		MutedAt:     time.Now(),
	}

	if err := l.mutes.Insert(ctx, record); err != nil {
		return err
	}

	if err := l.platform.SetMute(ctx, guildID, targetID, true); err != nil {
		// The mute never took effect; remove the record so the history
		// stays truthful.
		if delErr := l.mutes.DeleteByID(ctx, record.ID); delErr != nil {
			l.logger.Error("Failed to roll back mute record",
				zap.String("muteID", record.ID.String()),
				zap.Error(delErr))
		}

		return fmt.Errorf("failed to apply platform mute: %w", err)
	}

	l.logger.Info("Muted user in channel",
		zap.Uint64("channelID", uint64(channelID)),
		zap.Uint64("targetID", uint64(targetID)),
		zap.Bool("isAdmin", isAdmin))

	return nil
}

// UnmuteInChannel lifts the active channel mute for the target. The
// platform mute stays in place when the user is also globally muted:
// global mutes are only ever lifted through ClearGlobalMute.
func (l *Ledger) UnmuteInChannel(ctx context.Context, guildID, channelID, targetID snowflake.ID) error {
	record, err := l.mutes.GetActive(ctx, channelID, targetID)
	if err != nil {
		return err
	}

	if _, err := l.mutes.CloseActive(ctx, channelID, targetID, time.Now()); err != nil {
		return err
	}

	globallyMuted, err := l.globalMutes.IsActive(ctx, guildID, targetID)
	if err != nil {
		return err
	}

	if globallyMuted {
		l.logger.Info("Channel mute lifted but global mute remains",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Uint64("targetID", uint64(targetID)))

		return nil
	}

	if err := l.platform.SetMute(ctx, guildID, targetID, false); err != nil {
		if reopenErr := l.mutes.Reopen(ctx, record.ID); reopenErr != nil {
			l.logger.Error("Failed to restore mute record after platform failure",
				zap.String("muteID", record.ID.String()),
				zap.Error(reopenErr))
		}

		return fmt.Errorf("failed to lift platform mute: %w", err)
	}

	return nil
}

// BanFromChannel records a ban and enforces it for the channel's
// lifetime. The history row always lands; the platform kick and rejoin
// block are best effort and only logged on failure.
func (l *Ledger) BanFromChannel(
	ctx context.Context, guildID, channelID, targetID, actorID snowflake.ID, reason string,
) error {
	record := &types.BanRecord{
		ID:           uuid.New(),
		GuildID:      guildID,
		ChannelID:    channelID,
		BannedUserID: targetID,
		BannedByID:   actorID,
		Reason:       reason,
		BannedAt:     time.Now(),
	}

	if err := l.bans.Insert(ctx, record); err != nil {
		return err
	}

	if err := l.platform.DenyConnect(ctx, channelID, targetID); err != nil {
		l.logger.Warn("Failed to deny rejoin for banned user",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Uint64("targetID", uint64(targetID)),
			zap.Error(err))
	}

	if err := l.platform.DisconnectMember(ctx, guildID, targetID); err != nil {
		l.logger.Warn("Failed to disconnect banned user",
			zap.Uint64("channelID", uint64(channelID)),
			zap.Uint64("targetID", uint64(targetID)),
			zap.Error(err))
	}

	l.logger.Info("Banned user from channel",
		zap.Uint64("channelID", uint64(channelID)),
		zap.Uint64("targetID", uint64(targetID)))

	return nil
}

// ListBanHistory returns the ban history of a channel, newest first.
func (l *Ledger) ListBanHistory(ctx context.Context, channelID snowflake.ID) ([]*types.BanRecord, error) {
	return l.bans.ListForChannel(ctx, channelID)
}

// IsBannedFromChannel checks whether a user was banned from a channel.
// Bans die with the channel, so only the given channel's history counts.
func (l *Ledger) IsBannedFromChannel(ctx context.Context, channelID, userID snowflake.ID) (bool, error) {
	return l.bans.IsBanned(ctx, channelID, userID)
}

// IsGloballyMuted reports whether the user has an active global mute.
func (l *Ledger) IsGloballyMuted(ctx context.Context, guildID, userID snowflake.ID) (bool, error) {
	return l.globalMutes.IsActive(ctx, guildID, userID)
}

// ApplyGlobalMute records and applies a guild-wide administrative mute.
// A second active global mute for the same user fails with a conflict.
func (l *Ledger) ApplyGlobalMute(ctx context.Context, guildID, userID snowflake.ID) error {
	record := &types.GlobalMute{
		ID:         uuid.New(),
		GuildID:    guildID,
		UserID:     userID,
		DetectedAt: time.Now(),
	}

	if err := l.globalMutes.Insert(ctx, record); err != nil {
		return err
	}

	if err := l.platform.SetMute(ctx, guildID, userID, true); err != nil {
		if _, clearErr := l.globalMutes.Clear(ctx, guildID, userID, time.Now()); clearErr != nil {
			l.logger.Error("Failed to roll back global mute",
				zap.Uint64("userID", uint64(userID)),
				zap.Error(clearErr))
		}

		return fmt.Errorf("failed to apply platform mute: %w", err)
	}

	l.logger.Info("Applied global mute",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)))

	return nil
}

// ClearGlobalMute lifts an active global mute. This is the only code
// path that can clear one; nothing in the channel lifecycle calls it.
func (l *Ledger) ClearGlobalMute(ctx context.Context, guildID, userID snowflake.ID) error {
	cleared, err := l.globalMutes.Clear(ctx, guildID, userID, time.Now())
	if err != nil {
		return err
	}

	if !cleared {
		return fmt.Errorf("no active global mute for user %d: %w", userID, voice.ErrNotFound)
	}

	if err := l.platform.SetMute(ctx, guildID, userID, false); err != nil {
		return fmt.Errorf("failed to lift platform mute: %w", err)
	}

	l.logger.Info("Cleared global mute",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)))

	return nil
}

// ObserveMuteChange reconciles the global-mute registry with a server
// mute flip seen on the gateway. A mute with no matching active record
// was applied manually by an admin and is recorded as a global mute; a
// manual unmute closes the record. Flips caused by the ledger's own
// platform calls already have a matching record and fall through.
func (l *Ledger) ObserveMuteChange(
	ctx context.Context, guildID, channelID, userID snowflake.ID, muted bool,
) error {
	if muted {
		_, err := l.mutes.GetActive(ctx, channelID, userID)
		if err == nil {
			return nil
		}

		if !errors.Is(err, voice.ErrNotFound) {
			return err
		}

		record := &types.GlobalMute{
			ID:         uuid.New(),
			GuildID:    guildID,
			UserID:     userID,
			DetectedAt: time.Now(),
		}

		if err := l.globalMutes.Insert(ctx, record); err != nil {
			// An active record means the flip was our own apply.
			if errors.Is(err, voice.ErrConflict) {
				return nil
			}

			return err
		}

		l.logger.Info("Detected manual global mute",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Uint64("userID", uint64(userID)))

		return nil
	}

	cleared, err := l.globalMutes.Clear(ctx, guildID, userID, time.Now())
	if err != nil {
		return err
	}

	if cleared {
		l.logger.Info("Detected manual global unmute",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Uint64("userID", uint64(userID)))
	}

	return nil
}

// EnforceMuteOnJoin reconciles the platform mute flag with the ledger
// when a user connects to a channel. Users with an active channel or
// global mute get re-muted; users with neither get unmuted if the flag
// was left over from a previous channel.
func (l *Ledger) EnforceMuteOnJoin(
	ctx context.Context, guildID, channelID, userID snowflake.ID, currentlyMuted bool,
) error {
	_, err := l.mutes.GetActive(ctx, channelID, userID)

	channelMuted := err == nil
	if err != nil && !errors.Is(err, voice.ErrNotFound) {
		return err
	}

	globallyMuted, err := l.globalMutes.IsActive(ctx, guildID, userID)
	if err != nil {
		return err
	}

	desired := channelMuted || globallyMuted
	if desired == currentlyMuted {
		return nil
	}

	return l.platform.SetMute(ctx, guildID, userID, desired)
}
