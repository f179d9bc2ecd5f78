package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Single active mute per (channel, muted user)
			CREATE UNIQUE INDEX IF NOT EXISTS idx_mute_history_active
			ON mute_history (channel_id, muted_user_id)
			WHERE unmuted_at IS NULL;

			-- Single active global mute per (guild, user)
			CREATE UNIQUE INDEX IF NOT EXISTS idx_global_mutes_active
			ON global_mutes (guild_id, user_id)
			WHERE unmuted_at IS NULL;

			-- Guild-scoped lookups
			CREATE INDEX IF NOT EXISTS idx_active_voice_channels_guild
			ON active_voice_channels (guild_id);

			CREATE INDEX IF NOT EXISTS idx_active_voice_channels_owner
			ON active_voice_channels (guild_id, owner_id);

			-- Deadline sweep scan
			CREATE INDEX IF NOT EXISTS idx_pending_vc_deadlines_deadline
			ON pending_vc_deadlines (deadline_at);

			-- Audit lookups
			CREATE INDEX IF NOT EXISTS idx_mute_history_channel
			ON mute_history (channel_id, muted_user_id);

			CREATE INDEX IF NOT EXISTS idx_vc_ban_history_channel
			ON vc_ban_history (channel_id);

			CREATE INDEX IF NOT EXISTS idx_vc_ban_history_guild_user
			ON vc_ban_history (guild_id, banned_user_id);

			-- Spam decay sweep scan
			CREATE INDEX IF NOT EXISTS idx_spam_user_status_last_infraction
			ON spam_user_status (last_infraction_at)
			WHERE timeout_level > 0;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_spam_user_status_last_infraction;
			DROP INDEX IF EXISTS idx_vc_ban_history_guild_user;
			DROP INDEX IF EXISTS idx_vc_ban_history_channel;
			DROP INDEX IF EXISTS idx_mute_history_channel;
			DROP INDEX IF EXISTS idx_pending_vc_deadlines_deadline;
			DROP INDEX IF EXISTS idx_active_voice_channels_owner;
			DROP INDEX IF EXISTS idx_active_voice_channels_guild;
			DROP INDEX IF EXISTS idx_global_mutes_active;
			DROP INDEX IF EXISTS idx_mute_history_active;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
