package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// SpamUserStatus tracks escalating spam punishment for a (guild, user).
// TimeoutLevel decays back to zero after a quiet period; TotalInfractions
// is a lifetime counter and never resets.
type SpamUserStatus struct {
	bun.BaseModel `bun:"table:spam_user_status"`

	GuildID          snowflake.ID `bun:",pk"`
	UserID           snowflake.ID `bun:",pk"`
	TimeoutLevel     int          `bun:",notnull"` // Index into the escalation duration table
	TotalInfractions int          `bun:",notnull"`
	LastInfractionAt *time.Time   `bun:",nullzero"`
	UpdatedAt        time.Time    `bun:",notnull"`
}
