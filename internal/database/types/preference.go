package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
	"github.com/voxguard/voxguard/internal/database/types/enum"
)

// UserVcPreference remembers a user's naming and tagging defaults for a
// channel kind. Read at provision time so repeat visitors skip the
// configuration grace period.
type UserVcPreference struct {
	bun.BaseModel `bun:"table:user_vc_preferences"`

	GuildID   snowflake.ID     `bun:",pk"`
	UserID    snowflake.ID     `bun:",pk"`
	Kind      enum.ChannelKind `bun:"kind,pk"`
	Name      string           `bun:",nullzero"` // Preferred channel name
	Tags      []string         `bun:",array"`    // Preferred tag set
	UpdatedAt time.Time        `bun:",notnull"`
}
