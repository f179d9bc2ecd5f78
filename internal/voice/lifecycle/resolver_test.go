package lifecycle_test

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxguard/voxguard/internal/database/types"
	"github.com/voxguard/voxguard/internal/database/types/enum"
	"github.com/voxguard/voxguard/internal/voice"
	"github.com/voxguard/voxguard/internal/voice/lifecycle"
)

func TestResolveKindForLobby(t *testing.T) {
	t.Parallel()

	configs := &fakeConfigStore{configs: map[snowflake.ID]*types.GuildConfig{
		testGuildID: {
			GuildID:          testGuildID,
			CasualLobbyID:    casualLobbyID,
			CasualCategoryID: casualCategoryID,
			// Debate lobby set but no category: the kind is incomplete.
			DebateLobbyID: debateLobbyID,
		},
	}}
	resolver := lifecycle.NewResolver(configs)
	ctx := t.Context()

	t.Run("configured lobby resolves", func(t *testing.T) {
		t.Parallel()

		kind, config, err := resolver.ResolveKindForLobby(ctx, testGuildID, casualLobbyID)
		require.NoError(t, err)
		assert.Equal(t, enum.ChannelKindCasual, kind)
		assert.Equal(t, casualCategoryID, config.CategoryID(kind))
	})

	t.Run("incomplete kind is not configured", func(t *testing.T) {
		t.Parallel()

		_, _, err := resolver.ResolveKindForLobby(ctx, testGuildID, debateLobbyID)
		require.ErrorIs(t, err, voice.ErrNotConfigured)
	})

	t.Run("unknown guild is not configured", func(t *testing.T) {
		t.Parallel()

		_, _, err := resolver.ResolveKindForLobby(ctx, 999, casualLobbyID)
		require.ErrorIs(t, err, voice.ErrNotConfigured)
	})

	t.Run("non-lobby channel is not configured", func(t *testing.T) {
		t.Parallel()

		_, _, err := resolver.ResolveKindForLobby(ctx, testGuildID, 4242)
		require.ErrorIs(t, err, voice.ErrNotConfigured)
	})
}

func TestIsLobby(t *testing.T) {
	t.Parallel()

	configs := &fakeConfigStore{configs: map[snowflake.ID]*types.GuildConfig{
		testGuildID: {
			GuildID:       testGuildID,
			CasualLobbyID: casualLobbyID,
		},
	}}
	resolver := lifecycle.NewResolver(configs)
	ctx := t.Context()

	isLobby, err := resolver.IsLobby(ctx, testGuildID, casualLobbyID)
	require.NoError(t, err)
	assert.True(t, isLobby)

	// An unset debate lobby (zero) must not match arbitrary channels.
	isLobby, err = resolver.IsLobby(ctx, testGuildID, 0)
	require.NoError(t, err)
	assert.False(t, isLobby)

	// Guilds without a config have no lobbies at all.
	isLobby, err = resolver.IsLobby(ctx, 999, casualLobbyID)
	require.NoError(t, err)
	assert.False(t, isLobby)
}
