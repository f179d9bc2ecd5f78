package enum

// ChannelKind represents the flavor of an ephemeral voice channel.
//
//go:generate go tool enumer -type=ChannelKind -trimprefix=ChannelKind -transform=lower -sql
type ChannelKind int

const (
	// ChannelKindCasual is a general hangout voice channel.
	ChannelKindCasual ChannelKind = iota
	// ChannelKindDebate is a structured discussion voice channel.
	ChannelKindDebate
)
