package spam_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxguard/voxguard/internal/voice/spam"
	"go.uber.org/zap"
)

func setupActivityTest(t *testing.T, window time.Duration) (*spam.ActivityWindow, func()) {
	t.Helper()
	// Start miniredis server
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Create Redis client
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	// Create test logger
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	activity := spam.NewActivityWindow(client, window, logger)

	cleanup := func() {
		mr.Close()
		client.Close()
		logger.Sync()
	}

	return activity, cleanup
}

func TestRecordCycleCounts(t *testing.T) {
	t.Parallel()

	activity, cleanup := setupActivityTest(t, time.Minute)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	for i := range 3 {
		count, err := activity.RecordCycle(ctx, 10, 20, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), count)
	}
}

func TestRecordCycleTrimsOldEntries(t *testing.T) {
	t.Parallel()

	activity, cleanup := setupActivityTest(t, time.Minute)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	count, err := activity.RecordCycle(ctx, 10, 20, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	// A cycle past the window leaves only itself behind.
	count, err = activity.RecordCycle(ctx, 10, 20, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRecordCycleIsolatesKeys(t *testing.T) {
	t.Parallel()

	activity, cleanup := setupActivityTest(t, time.Minute)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	_, err := activity.RecordCycle(ctx, 10, 20, now)
	require.NoError(t, err)

	// Different channel and different user each count from zero.
	count, err := activity.RecordCycle(ctx, 11, 20, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = activity.RecordCycle(ctx, 10, 21, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestResetClearsWindow(t *testing.T) {
	t.Parallel()

	activity, cleanup := setupActivityTest(t, time.Minute)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	_, err := activity.RecordCycle(ctx, 10, 20, now)
	require.NoError(t, err)
	_, err = activity.RecordCycle(ctx, 10, 20, now.Add(time.Second))
	require.NoError(t, err)

	require.NoError(t, activity.Reset(ctx, 10, 20))

	count, err := activity.RecordCycle(ctx, 10, 20, now.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
