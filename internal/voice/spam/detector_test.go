package spam_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxguard/voxguard/internal/voice/spam"
	"go.uber.org/zap"
)

func setupDetectorTest(t *testing.T, prompt, infraction int64) (*spam.Detector, *fakeSpamStore, func()) {
	t.Helper()

	activity, cleanup := setupActivityTest(t, time.Minute)
	store := newFakeSpamStore()
	tracker := spam.NewTracker(store, 30*24*time.Hour, zap.NewNop())

	return spam.NewDetector(activity, tracker, prompt, infraction), store, cleanup
}

func TestDetectorBelowThresholds(t *testing.T) {
	t.Parallel()

	detector, store, cleanup := setupDetectorTest(t, 3, 5)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	for i := range 2 {
		verdict, err := detector.OnJoinCycle(ctx, 1, 10, 100, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.Equal(t, spam.ActionNone, verdict.Action)
	}

	assert.Empty(t, store.status)
}

func TestDetectorPromptsBeforePunishing(t *testing.T) {
	t.Parallel()

	detector, store, cleanup := setupDetectorTest(t, 3, 5)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	var verdict spam.Verdict

	var err error

	for i := range 4 {
		verdict, err = detector.OnJoinCycle(ctx, 1, 10, 100, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	assert.Equal(t, spam.ActionPrompt, verdict.Action)
	assert.Empty(t, store.status, "prompts must not record infractions")
}

func TestDetectorIssuesTimeoutAndResetsWindow(t *testing.T) {
	t.Parallel()

	detector, store, cleanup := setupDetectorTest(t, 3, 5)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	var verdict spam.Verdict

	var err error

	for i := range 5 {
		verdict, err = detector.OnJoinCycle(ctx, 1, 10, 100, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	require.Equal(t, spam.ActionTimeout, verdict.Action)
	assert.Equal(t, 1, verdict.Level)
	assert.Equal(t, 15*time.Minute, verdict.Timeout)
	assert.Equal(t, 1, store.status[100].TotalInfractions)

	// The window was reset, so the next cycle starts a fresh count.
	verdict, err = detector.OnJoinCycle(ctx, 1, 10, 100, now.Add(6*time.Second))
	require.NoError(t, err)
	assert.Equal(t, spam.ActionNone, verdict.Action)
}

func TestDetectorEscalatesRepeatOffender(t *testing.T) {
	t.Parallel()

	detector, _, cleanup := setupDetectorTest(t, 3, 5)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	var verdict spam.Verdict

	var err error

	for i := range 5 {
		verdict, err = detector.OnJoinCycle(ctx, 1, 10, 100, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	require.Equal(t, spam.ActionTimeout, verdict.Action)

	for i := range 5 {
		verdict, err = detector.OnJoinCycle(ctx, 1, 10, 100, now.Add(time.Duration(10+i)*time.Second))
		require.NoError(t, err)
	}

	require.Equal(t, spam.ActionTimeout, verdict.Action)
	assert.Equal(t, 2, verdict.Level)
	assert.Equal(t, time.Hour, verdict.Timeout)
}
