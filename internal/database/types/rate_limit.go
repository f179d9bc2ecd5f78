package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
	"github.com/voxguard/voxguard/internal/database/types/enum"
)

// CommandRateLimit records the last accepted use of a rate-limited owner
// command. The row is only updated when a command passes the cooldown
// check; rejected attempts never touch the timestamp.
type CommandRateLimit struct {
	bun.BaseModel `bun:"table:channel_command_rate_limits"`

	UserID     snowflake.ID     `bun:",pk"`
	GuildID    snowflake.ID     `bun:",pk"`
	Command    enum.CommandKind `bun:"command,pk"`
	LastUsedAt time.Time        `bun:",notnull"`
}
