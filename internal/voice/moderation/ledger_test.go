package moderation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxguard/voxguard/internal/database/types"
	"github.com/voxguard/voxguard/internal/voice"
	"github.com/voxguard/voxguard/internal/voice/moderation"
	"go.uber.org/zap"
)

var errPlatformDown = errors.New("platform down")

type fakeMuteStore struct {
	records map[uuid.UUID]*types.MuteRecord
}

func newFakeMuteStore() *fakeMuteStore {
	return &fakeMuteStore{records: make(map[uuid.UUID]*types.MuteRecord)}
}

func (s *fakeMuteStore) active(channelID, userID snowflake.ID) *types.MuteRecord {
	for _, record := range s.records {
		if record.ChannelID == channelID && record.MutedUserID == userID && record.IsActive() {
			return record
		}
	}

	return nil
}

func (s *fakeMuteStore) Insert(_ context.Context, record *types.MuteRecord) error {
	if s.active(record.ChannelID, record.MutedUserID) != nil {
		return voice.ErrConflict
	}

	clone := *record
	s.records[record.ID] = &clone

	return nil
}

func (s *fakeMuteStore) GetActive(_ context.Context, channelID, userID snowflake.ID) (*types.MuteRecord, error) {
	if record := s.active(channelID, userID); record != nil {
		return record, nil
	}

	return nil, voice.ErrNotFound
}

func (s *fakeMuteStore) CloseActive(_ context.Context, channelID, userID snowflake.ID, now time.Time) (bool, error) {
	record := s.active(channelID, userID)
	if record == nil {
		return false, nil
	}

	record.UnmutedAt = &now

	return true, nil
}

func (s *fakeMuteStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	delete(s.records, id)
	return nil
}

func (s *fakeMuteStore) Reopen(_ context.Context, id uuid.UUID) error {
	record, ok := s.records[id]
	if !ok {
		return voice.ErrNotFound
	}

	record.UnmutedAt = nil

	return nil
}

type fakeGlobalMuteStore struct {
	records map[uuid.UUID]*types.GlobalMute
}

func newFakeGlobalMuteStore() *fakeGlobalMuteStore {
	return &fakeGlobalMuteStore{records: make(map[uuid.UUID]*types.GlobalMute)}
}

func (s *fakeGlobalMuteStore) active(guildID, userID snowflake.ID) *types.GlobalMute {
	for _, record := range s.records {
		if record.GuildID == guildID && record.UserID == userID && record.IsActive() {
			return record
		}
	}

	return nil
}

func (s *fakeGlobalMuteStore) Insert(_ context.Context, record *types.GlobalMute) error {
	if s.active(record.GuildID, record.UserID) != nil {
		return voice.ErrConflict
	}

	clone := *record
	s.records[record.ID] = &clone

	return nil
}

func (s *fakeGlobalMuteStore) Clear(_ context.Context, guildID, userID snowflake.ID, now time.Time) (bool, error) {
	record := s.active(guildID, userID)
	if record == nil {
		return false, nil
	}

	record.UnmutedAt = &now

	return true, nil
}

func (s *fakeGlobalMuteStore) IsActive(_ context.Context, guildID, userID snowflake.ID) (bool, error) {
	return s.active(guildID, userID) != nil, nil
}

type fakeBanStore struct {
	records []*types.BanRecord
}

func (s *fakeBanStore) Insert(_ context.Context, record *types.BanRecord) error {
	clone := *record
	s.records = append(s.records, &clone)

	return nil
}

func (s *fakeBanStore) ListForChannel(_ context.Context, channelID snowflake.ID) ([]*types.BanRecord, error) {
	var out []*types.BanRecord

	for _, record := range s.records {
		if record.ChannelID == channelID {
			out = append(out, record)
		}
	}

	return out, nil
}

func (s *fakeBanStore) IsBanned(_ context.Context, channelID, userID snowflake.ID) (bool, error) {
	for _, record := range s.records {
		if record.ChannelID == channelID && record.BannedUserID == userID {
			return true, nil
		}
	}

	return false, nil
}

// fakeModPlatform records moderation calls and can be told to fail them.
type fakeModPlatform struct {
	muted       map[snowflake.ID]bool
	denied      []snowflake.ID
	disconnects []snowflake.ID
	failSetMute bool
}

func newFakeModPlatform() *fakeModPlatform {
	return &fakeModPlatform{muted: make(map[snowflake.ID]bool)}
}

func (p *fakeModPlatform) SetMute(_ context.Context, _, userID snowflake.ID, muted bool) error {
	if p.failSetMute {
		return errPlatformDown
	}

	p.muted[userID] = muted

	return nil
}

func (p *fakeModPlatform) DisconnectMember(_ context.Context, _, userID snowflake.ID) error {
	p.disconnects = append(p.disconnects, userID)
	return nil
}

func (p *fakeModPlatform) DenyConnect(_ context.Context, _, userID snowflake.ID) error {
	p.denied = append(p.denied, userID)
	return nil
}

func setupLedgerTest(t *testing.T) (*moderation.Ledger, *fakeMuteStore, *fakeGlobalMuteStore, *fakeBanStore, *fakeModPlatform) {
	t.Helper()

	mutes := newFakeMuteStore()
	globalMutes := newFakeGlobalMuteStore()
	bans := &fakeBanStore{}
	platform := newFakeModPlatform()
	ledger := moderation.NewLedger(mutes, globalMutes, bans, platform, zap.NewNop())

	return ledger, mutes, globalMutes, bans, platform
}

func TestMuteInChannel(t *testing.T) {
	t.Parallel()

	t.Run("records and applies the mute", func(t *testing.T) {
		t.Parallel()

		ledger, mutes, _, _, platform := setupLedgerTest(t)

		require.NoError(t, ledger.MuteInChannel(t.Context(), 1, 10, 100, 200, false))
		assert.True(t, platform.muted[100])

		record := mutes.active(10, 100)
		require.NotNil(t, record)
		assert.Equal(t, snowflake.ID(200), record.MutedByID)
		assert.False(t, record.IsAdminMute)
	})

	t.Run("duplicate active mute conflicts", func(t *testing.T) {
		t.Parallel()

		ledger, _, _, _, _ := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.MuteInChannel(ctx, 1, 10, 100, 200, false))

		err := ledger.MuteInChannel(ctx, 1, 10, 100, 201, true)
		require.ErrorIs(t, err, voice.ErrConflict)
	})

	t.Run("platform failure rolls the record back", func(t *testing.T) {
		t.Parallel()

		ledger, mutes, _, _, platform := setupLedgerTest(t)
		platform.failSetMute = true

		err := ledger.MuteInChannel(t.Context(), 1, 10, 100, 200, false)
		require.Error(t, err)
		assert.Nil(t, mutes.active(10, 100), "failed mute must not leave a record")
	})
}

func TestUnmuteInChannel(t *testing.T) {
	t.Parallel()

	t.Run("closes the record and unmutes", func(t *testing.T) {
		t.Parallel()

		ledger, mutes, _, _, platform := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.MuteInChannel(ctx, 1, 10, 100, 200, false))
		require.NoError(t, ledger.UnmuteInChannel(ctx, 1, 10, 100))

		assert.False(t, platform.muted[100])
		assert.Nil(t, mutes.active(10, 100))
	})

	t.Run("no active mute is not found", func(t *testing.T) {
		t.Parallel()

		ledger, _, _, _, _ := setupLedgerTest(t)

		err := ledger.UnmuteInChannel(t.Context(), 1, 10, 100)
		require.ErrorIs(t, err, voice.ErrNotFound)
	})

	t.Run("global mute keeps the platform mute", func(t *testing.T) {
		t.Parallel()

		ledger, mutes, _, _, platform := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.ApplyGlobalMute(ctx, 1, 100))
		require.NoError(t, ledger.MuteInChannel(ctx, 1, 10, 100, 200, false))
		require.NoError(t, ledger.UnmuteInChannel(ctx, 1, 10, 100))

		// The channel record closed, but the user stays muted because the
		// global mute is still active.
		assert.Nil(t, mutes.active(10, 100))
		assert.True(t, platform.muted[100])
	})

	t.Run("platform failure restores the record", func(t *testing.T) {
		t.Parallel()

		ledger, mutes, _, _, platform := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.MuteInChannel(ctx, 1, 10, 100, 200, false))

		platform.failSetMute = true
		err := ledger.UnmuteInChannel(ctx, 1, 10, 100)
		require.Error(t, err)

		assert.NotNil(t, mutes.active(10, 100), "mute must stay active when the platform unmute failed")
	})
}

func TestBanFromChannel(t *testing.T) {
	t.Parallel()

	ledger, _, _, bans, platform := setupLedgerTest(t)
	ctx := t.Context()

	require.NoError(t, ledger.BanFromChannel(ctx, 1, 10, 100, 200, "spamming"))

	banned, err := ledger.IsBannedFromChannel(ctx, 10, 100)
	require.NoError(t, err)
	assert.True(t, banned)
	assert.Contains(t, platform.denied, snowflake.ID(100))
	assert.Contains(t, platform.disconnects, snowflake.ID(100))

	// Bans are append-only history: a second ban adds another row.
	require.NoError(t, ledger.BanFromChannel(ctx, 1, 10, 100, 200, "again"))
	assert.Len(t, bans.records, 2)

	// Bans are scoped to the channel.
	banned, err = ledger.IsBannedFromChannel(ctx, 11, 100)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestGlobalMute(t *testing.T) {
	t.Parallel()

	t.Run("applies and clears", func(t *testing.T) {
		t.Parallel()

		ledger, _, _, _, platform := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.ApplyGlobalMute(ctx, 1, 100))
		assert.True(t, platform.muted[100])

		muted, err := ledger.IsGloballyMuted(ctx, 1, 100)
		require.NoError(t, err)
		assert.True(t, muted)

		require.NoError(t, ledger.ClearGlobalMute(ctx, 1, 100))
		assert.False(t, platform.muted[100])
	})

	t.Run("duplicate active global mute conflicts", func(t *testing.T) {
		t.Parallel()

		ledger, _, _, _, _ := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.ApplyGlobalMute(ctx, 1, 100))
		require.ErrorIs(t, ledger.ApplyGlobalMute(ctx, 1, 100), voice.ErrConflict)
	})

	t.Run("clearing without an active mute is not found", func(t *testing.T) {
		t.Parallel()

		ledger, _, _, _, _ := setupLedgerTest(t)

		require.ErrorIs(t, ledger.ClearGlobalMute(t.Context(), 1, 100), voice.ErrNotFound)
	})

	t.Run("platform failure rolls the record back", func(t *testing.T) {
		t.Parallel()

		ledger, _, globalMutes, _, platform := setupLedgerTest(t)
		platform.failSetMute = true

		require.Error(t, ledger.ApplyGlobalMute(t.Context(), 1, 100))
		assert.Nil(t, globalMutes.active(1, 100))
	})
}

func TestObserveMuteChange(t *testing.T) {
	t.Parallel()

	t.Run("manual mute is recorded as global", func(t *testing.T) {
		t.Parallel()

		ledger, _, globalMutes, _, _ := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.ObserveMuteChange(ctx, 1, 10, 100, true))
		assert.NotNil(t, globalMutes.active(1, 100))
	})

	t.Run("own channel mute is not recorded", func(t *testing.T) {
		t.Parallel()

		ledger, _, globalMutes, _, _ := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.MuteInChannel(ctx, 1, 10, 100, 200, false))

		// The gateway echoes the mute flag flip back to us.
		require.NoError(t, ledger.ObserveMuteChange(ctx, 1, 10, 100, true))
		assert.Nil(t, globalMutes.active(1, 100))
	})

	t.Run("own global mute is not duplicated", func(t *testing.T) {
		t.Parallel()

		ledger, _, globalMutes, _, _ := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.ApplyGlobalMute(ctx, 1, 100))
		require.NoError(t, ledger.ObserveMuteChange(ctx, 1, 10, 100, true))
		assert.Len(t, globalMutes.records, 1)
	})

	t.Run("manual unmute closes the record", func(t *testing.T) {
		t.Parallel()

		ledger, _, globalMutes, _, _ := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.ObserveMuteChange(ctx, 1, 10, 100, true))
		require.NoError(t, ledger.ObserveMuteChange(ctx, 1, 10, 100, false))
		assert.Nil(t, globalMutes.active(1, 100))
	})

	t.Run("unmute without a record is a no-op", func(t *testing.T) {
		t.Parallel()

		ledger, _, _, _, _ := setupLedgerTest(t)

		require.NoError(t, ledger.ObserveMuteChange(t.Context(), 1, 10, 100, false))
	})
}

func TestEnforceMuteOnJoin(t *testing.T) {
	t.Parallel()

	t.Run("remutes a channel-muted user", func(t *testing.T) {
		t.Parallel()

		ledger, _, _, _, platform := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.MuteInChannel(ctx, 1, 10, 100, 200, false))

		// Simulate the user reconnecting unmuted.
		platform.muted[100] = false

		require.NoError(t, ledger.EnforceMuteOnJoin(ctx, 1, 10, 100, false))
		assert.True(t, platform.muted[100])
	})

	t.Run("unmutes a stale platform flag", func(t *testing.T) {
		t.Parallel()

		ledger, _, _, _, platform := setupLedgerTest(t)

		require.NoError(t, ledger.EnforceMuteOnJoin(t.Context(), 1, 10, 100, true))
		assert.False(t, platform.muted[100])
	})

	t.Run("matching state makes no platform call", func(t *testing.T) {
		t.Parallel()

		ledger, _, _, _, platform := setupLedgerTest(t)
		platform.failSetMute = true

		// Would error if the ledger touched the platform.
		require.NoError(t, ledger.EnforceMuteOnJoin(t.Context(), 1, 10, 100, false))
	})

	t.Run("global mute wins in any channel", func(t *testing.T) {
		t.Parallel()

		ledger, _, _, _, platform := setupLedgerTest(t)
		ctx := t.Context()

		require.NoError(t, ledger.ApplyGlobalMute(ctx, 1, 100))
		platform.muted[100] = false

		require.NoError(t, ledger.EnforceMuteOnJoin(ctx, 1, 99, 100, false))
		assert.True(t, platform.muted[100])
	})
}
