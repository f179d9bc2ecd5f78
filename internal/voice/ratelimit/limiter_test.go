package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxguard/voxguard/internal/database/types/enum"
	"github.com/voxguard/voxguard/internal/voice"
	"github.com/voxguard/voxguard/internal/voice/ratelimit"
	"go.uber.org/zap"
)

// fakeLimitStore grants the claim when no timestamp is held or the held
// one is older than the cooldown, mirroring the conditional upsert in
// the database layer.
type fakeLimitStore struct {
	lastUsed map[string]time.Time
}

func newFakeLimitStore() *fakeLimitStore {
	return &fakeLimitStore{lastUsed: make(map[string]time.Time)}
}

func (s *fakeLimitStore) TryAcquire(
	_ context.Context, userID, guildID snowflake.ID,
	command enum.CommandKind, now time.Time, cooldown time.Duration,
) (bool, time.Time, error) {
	key := userID.String() + ":" + guildID.String() + ":" + command.String()

	last, ok := s.lastUsed[key]
	if ok && last.After(now.Add(-cooldown)) {
		return false, last, nil
	}

	s.lastUsed[key] = now

	return true, now, nil
}

func (s *fakeLimitStore) Release(
	_ context.Context, userID, guildID snowflake.ID, command enum.CommandKind, claimedAt time.Time,
) error {
	key := userID.String() + ":" + guildID.String() + ":" + command.String()

	if last, ok := s.lastUsed[key]; ok && last.Equal(claimedAt) {
		delete(s.lastUsed, key)
	}

	return nil
}

func TestLimiterAllowsFirstUse(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewLimiter(newFakeLimitStore(), 30*time.Minute, zap.NewNop())

	err := limiter.CheckAndRecord(t.Context(), 100, 1, enum.CommandKindRename, time.Now())
	require.NoError(t, err)
}

func TestLimiterRejectsWithinCooldown(t *testing.T) {
	t.Parallel()

	store := newFakeLimitStore()
	limiter := ratelimit.NewLimiter(store, 30*time.Minute, zap.NewNop())
	ctx := t.Context()
	now := time.Now()

	require.NoError(t, limiter.CheckAndRecord(ctx, 100, 1, enum.CommandKindRename, now))

	err := limiter.CheckAndRecord(ctx, 100, 1, enum.CommandKindRename, now.Add(10*time.Minute))
	require.Error(t, err)

	rle, ok := voice.AsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, 20*time.Minute, rle.RetryAfter)
}

func TestLimiterRejectionDoesNotExtendCooldown(t *testing.T) {
	t.Parallel()

	store := newFakeLimitStore()
	limiter := ratelimit.NewLimiter(store, 30*time.Minute, zap.NewNop())
	ctx := t.Context()
	now := time.Now()

	require.NoError(t, limiter.CheckAndRecord(ctx, 100, 1, enum.CommandKindRename, now))
	require.Error(t, limiter.CheckAndRecord(ctx, 100, 1, enum.CommandKindRename, now.Add(10*time.Minute)))

	// The rejected attempt must not have reset the clock.
	err := limiter.CheckAndRecord(ctx, 100, 1, enum.CommandKindRename, now.Add(31*time.Minute))
	require.NoError(t, err)
}

func TestLimiterReleaseRefundsClaim(t *testing.T) {
	t.Parallel()

	store := newFakeLimitStore()
	limiter := ratelimit.NewLimiter(store, 30*time.Minute, zap.NewNop())
	ctx := t.Context()
	now := time.Now()

	require.NoError(t, limiter.CheckAndRecord(ctx, 100, 1, enum.CommandKindRename, now))
	require.NoError(t, limiter.Release(ctx, 100, 1, enum.CommandKindRename, now))

	// The refunded slot can be claimed again right away.
	err := limiter.CheckAndRecord(ctx, 100, 1, enum.CommandKindRename, now.Add(time.Minute))
	require.NoError(t, err)
}

func TestLimiterReleaseIgnoresStaleClaim(t *testing.T) {
	t.Parallel()

	store := newFakeLimitStore()
	limiter := ratelimit.NewLimiter(store, 30*time.Minute, zap.NewNop())
	ctx := t.Context()
	now := time.Now()

	require.NoError(t, limiter.CheckAndRecord(ctx, 100, 1, enum.CommandKindRename, now))

	// A refund carrying an old timestamp must not touch the live claim.
	require.NoError(t, limiter.Release(ctx, 100, 1, enum.CommandKindRename, now.Add(-time.Hour)))

	err := limiter.CheckAndRecord(ctx, 100, 1, enum.CommandKindRename, now.Add(10*time.Minute))
	require.Error(t, err)
}

func TestLimiterTracksCommandsSeparately(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewLimiter(newFakeLimitStore(), 30*time.Minute, zap.NewNop())
	ctx := t.Context()
	now := time.Now()

	require.NoError(t, limiter.CheckAndRecord(ctx, 100, 1, enum.CommandKindRename, now))

	// A rename on cooldown does not block a retag.
	require.NoError(t, limiter.CheckAndRecord(ctx, 100, 1, enum.CommandKindRetag, now))

	// Other users are unaffected.
	require.NoError(t, limiter.CheckAndRecord(ctx, 200, 1, enum.CommandKindRename, now))
}
