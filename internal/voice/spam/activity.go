package spam

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// ActivityWindow counts join/leave cycles per (channel, user) over a
// sliding window, backed by Redis sorted sets. Every event is a member
// scored by its timestamp; trimming by score keeps only the live window.
type ActivityWindow struct {
	client rueidis.Client
	window time.Duration
	logger *zap.Logger
}

// NewActivityWindow creates a new ActivityWindow instance.
func NewActivityWindow(client rueidis.Client, window time.Duration, logger *zap.Logger) *ActivityWindow {
	return &ActivityWindow{
		client: client,
		window: window,
		logger: logger.Named("spam_activity"),
	}
}

// RecordCycle adds a join/leave cycle for the user and returns how many
// cycles remain inside the window.
func (w *ActivityWindow) RecordCycle(
	ctx context.Context, channelID, userID snowflake.ID, now time.Time,
) (int64, error) {
	key := activityKey(channelID, userID)
	score := float64(now.UnixMilli())
	member := strconv.FormatInt(now.UnixNano(), 10)
	cutoff := strconv.FormatInt(now.Add(-w.window).UnixMilli(), 10)

	cmds := []rueidis.Completed{
		w.client.B().Zadd().Key(key).ScoreMember().ScoreMember(score, member).Build(),
		w.client.B().Zremrangebyscore().Key(key).Min("0").Max(cutoff).Build(),
		w.client.B().Zcard().Key(key).Build(),
		w.client.B().Expire().Key(key).Seconds(int64(w.window.Seconds()) * 2).Build(),
	}

	results := w.client.DoMulti(ctx, cmds...)
	for _, result := range results[:2] {
		if err := result.Error(); err != nil {
			return 0, fmt.Errorf("failed to record activity cycle: %w", err)
		}
	}

	count, err := results[2].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("failed to count activity cycles: %w", err)
	}

	return count, nil
}

// Reset clears the recorded cycles for a (channel, user), used once an
// infraction has been issued so the next window starts clean.
func (w *ActivityWindow) Reset(ctx context.Context, channelID, userID snowflake.ID) error {
	key := activityKey(channelID, userID)

	if err := w.client.Do(ctx, w.client.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to reset activity window: %w", err)
	}

	return nil
}

func activityKey(channelID, userID snowflake.ID) string {
	return fmt.Sprintf("spam:activity:%d:%d", channelID, userID)
}
