package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BanRecord is an append-only record of a channel ban. There is no unban
// state; a ban is scoped to the channel's lifetime and becomes inert once
// the channel is destroyed.
type BanRecord struct {
	bun.BaseModel `bun:"table:vc_ban_history"`

	ID           uuid.UUID    `bun:",pk,type:uuid,default:gen_random_uuid()"`
	GuildID      snowflake.ID `bun:",notnull"`
	ChannelID    snowflake.ID `bun:",notnull"`
	BannedUserID snowflake.ID `bun:",notnull"`
	BannedByID   snowflake.ID `bun:",notnull"`
	Reason       string       `bun:",nullzero,type:text"`
	BannedAt     time.Time    `bun:",notnull"`
}
