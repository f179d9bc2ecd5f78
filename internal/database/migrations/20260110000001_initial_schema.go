package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/voxguard/voxguard/internal/database/types"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.GuildConfig)(nil),
			(*types.ActiveVoiceChannel)(nil),
			(*types.PendingVcDeadline)(nil),
			(*types.UserVcPreference)(nil),
			(*types.MuteRecord)(nil),
			(*types.GlobalMute)(nil),
			(*types.BanRecord)(nil),
			(*types.SpamUserStatus)(nil),
			(*types.CommandRateLimit)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP TABLE IF EXISTS channel_command_rate_limits;
			DROP TABLE IF EXISTS spam_user_status;
			DROP TABLE IF EXISTS vc_ban_history;
			DROP TABLE IF EXISTS global_mutes;
			DROP TABLE IF EXISTS mute_history;
			DROP TABLE IF EXISTS user_vc_preferences;
			DROP TABLE IF EXISTS pending_vc_deadlines;
			DROP TABLE IF EXISTS active_voice_channels;
			DROP TABLE IF EXISTS guild_configs;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}

		return nil
	})
}
