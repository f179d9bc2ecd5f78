package enum

// CommandKind represents an owner command subject to rate limiting.
//
//go:generate go tool enumer -type=CommandKind -trimprefix=CommandKind -transform=lower -sql
type CommandKind int

const (
	// CommandKindRename changes a channel's display name.
	CommandKindRename CommandKind = iota
	// CommandKindRetag changes a channel's tag set.
	CommandKindRetag
	// CommandKindLimit changes a channel's user limit.
	CommandKindLimit
)
