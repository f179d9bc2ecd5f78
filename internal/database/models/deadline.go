package models

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
	"github.com/voxguard/voxguard/internal/database/dbretry"
	"github.com/voxguard/voxguard/internal/database/types"
	"go.uber.org/zap"
)

// DeadlineModel handles database operations for pending configuration
// deadlines.
type DeadlineModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewDeadline creates a new DeadlineModel instance.
func NewDeadline(db *bun.DB, logger *zap.Logger) *DeadlineModel {
	return &DeadlineModel{
		db:     db,
		logger: logger.Named("db_deadline"),
	}
}

// Upsert creates a pending deadline for a channel, replacing any existing
// one. The channel_id primary key keeps this to one deadline per channel.
func (m *DeadlineModel) Upsert(ctx context.Context, deadline *types.PendingVcDeadline) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		if deadline.CreatedAt.IsZero() {
			deadline.CreatedAt = time.Now()
		}

		_, err := m.db.NewInsert().
			Model(deadline).
			On("CONFLICT (channel_id) DO UPDATE").
			Set("deadline_at = EXCLUDED.deadline_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert pending deadline: %w", err)
		}

		return nil
	})
}

// Delete removes a channel's pending deadline if one is still present.
// Lost-update-safe: a deadline concurrently cleared elsewhere simply
// reports false.
func (m *DeadlineModel) Delete(ctx context.Context, channelID snowflake.ID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewDelete().
			Model((*types.PendingVcDeadline)(nil)).
			Where("channel_id = ?", channelID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to delete pending deadline: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, err
		}

		return affected > 0, nil
	})
}

// ListExpired returns all deadlines at or before the given time.
func (m *DeadlineModel) ListExpired(ctx context.Context, now time.Time) ([]*types.PendingVcDeadline, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.PendingVcDeadline, error) {
		var deadlines []*types.PendingVcDeadline

		err := m.db.NewSelect().
			Model(&deadlines).
			Where("deadline_at <= ?", now).
			Order("deadline_at ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list expired deadlines: %w", err)
		}

		return deadlines, nil
	})
}
