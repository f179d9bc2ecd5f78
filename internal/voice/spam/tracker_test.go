package spam_test

import (
	"context"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxguard/voxguard/internal/database/types"
	"github.com/voxguard/voxguard/internal/voice/spam"
	"go.uber.org/zap"
)

// fakeSpamStore reproduces the escalation rules of the database layer in
// memory: a fresh or stale infraction restarts at level 1, otherwise the
// level climbs to the cap.
type fakeSpamStore struct {
	status map[snowflake.ID]*types.SpamUserStatus
}

func newFakeSpamStore() *fakeSpamStore {
	return &fakeSpamStore{status: make(map[snowflake.ID]*types.SpamUserStatus)}
}

func (s *fakeSpamStore) RecordInfraction(
	_ context.Context, guildID, userID snowflake.ID,
	escalationStart time.Time, maxLevel int, now time.Time,
) (*types.SpamUserStatus, error) {
	status, ok := s.status[userID]
	if !ok {
		status = &types.SpamUserStatus{GuildID: guildID, UserID: userID}
		s.status[userID] = status
	}

	switch {
	case status.LastInfractionAt == nil || status.LastInfractionAt.Before(escalationStart):
		status.TimeoutLevel = 1
	case status.TimeoutLevel >= maxLevel:
		status.TimeoutLevel = maxLevel
	default:
		status.TimeoutLevel++
	}

	status.TotalInfractions++
	last := now
	status.LastInfractionAt = &last
	status.UpdatedAt = now

	return status, nil
}

func (s *fakeSpamStore) DecayStale(_ context.Context, cutoff, _ time.Time) (int64, error) {
	var reset int64

	for _, status := range s.status {
		if status.TimeoutLevel > 0 && status.LastInfractionAt != nil && status.LastInfractionAt.Before(cutoff) {
			status.TimeoutLevel = 0
			reset++
		}
	}

	return reset, nil
}

func TestDurationForLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 15*time.Minute, spam.DurationForLevel(1))
	assert.Equal(t, time.Hour, spam.DurationForLevel(2))
	assert.Equal(t, 14*24*time.Hour, spam.DurationForLevel(spam.MaxTimeoutLevel))

	// Out-of-range levels clamp to the table bounds.
	assert.Equal(t, 15*time.Minute, spam.DurationForLevel(0))
	assert.Equal(t, 14*24*time.Hour, spam.DurationForLevel(spam.MaxTimeoutLevel+5))
}

func TestTrackerEscalation(t *testing.T) {
	t.Parallel()

	store := newFakeSpamStore()
	tracker := spam.NewTracker(store, 30*24*time.Hour, zap.NewNop())
	ctx := t.Context()
	now := time.Now()

	timeout, level, err := tracker.RecordInfraction(ctx, 1, 100, now)
	require.NoError(t, err)
	assert.Equal(t, 1, level)
	assert.Equal(t, 15*time.Minute, timeout)

	timeout, level, err = tracker.RecordInfraction(ctx, 1, 100, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, level)
	assert.Equal(t, time.Hour, timeout)

	assert.Equal(t, 2, store.status[100].TotalInfractions)
}

func TestTrackerLevelCapped(t *testing.T) {
	t.Parallel()

	store := newFakeSpamStore()
	tracker := spam.NewTracker(store, 30*24*time.Hour, zap.NewNop())
	ctx := t.Context()
	now := time.Now()

	for i := range spam.MaxTimeoutLevel + 3 {
		_, level, err := tracker.RecordInfraction(ctx, 1, 100, now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.LessOrEqual(t, level, spam.MaxTimeoutLevel)
	}

	assert.Equal(t, spam.MaxTimeoutLevel, store.status[100].TimeoutLevel)
	assert.Equal(t, spam.MaxTimeoutLevel+3, store.status[100].TotalInfractions)
}

func TestTrackerRestartsAfterQuietPeriod(t *testing.T) {
	t.Parallel()

	window := 30 * 24 * time.Hour
	store := newFakeSpamStore()
	tracker := spam.NewTracker(store, window, zap.NewNop())
	ctx := t.Context()
	now := time.Now()

	_, _, err := tracker.RecordInfraction(ctx, 1, 100, now)
	require.NoError(t, err)
	_, level, err := tracker.RecordInfraction(ctx, 1, 100, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, level)

	// An infraction after the full window restarts at level 1, but the
	// lifetime counter keeps counting.
	_, level, err = tracker.RecordInfraction(ctx, 1, 100, now.Add(window+2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, level)
	assert.Equal(t, 3, store.status[100].TotalInfractions)
}

func TestTrackerDecayStale(t *testing.T) {
	t.Parallel()

	window := 30 * 24 * time.Hour
	store := newFakeSpamStore()
	tracker := spam.NewTracker(store, window, zap.NewNop())
	ctx := t.Context()
	now := time.Now()

	_, _, err := tracker.RecordInfraction(ctx, 1, 100, now)
	require.NoError(t, err)
	_, _, err = tracker.RecordInfraction(ctx, 1, 200, now)
	require.NoError(t, err)

	reset, err := tracker.DecayStale(ctx, now.Add(window+time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), reset)
	assert.Zero(t, store.status[100].TimeoutLevel)

	// Counts survive the decay.
	assert.Equal(t, 1, store.status[100].TotalInfractions)
}
