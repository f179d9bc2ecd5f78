package voice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxguard/voxguard/internal/database/types/enum"
	"github.com/voxguard/voxguard/internal/voice"
)

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	t.Run("valid tags pass through", func(t *testing.T) {
		t.Parallel()

		tags, err := voice.NormalizeTags(enum.ChannelKindCasual, []string{"Gaming", "Music"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Gaming", "Music"}, tags)
	})

	t.Run("duplicates removed preserving order", func(t *testing.T) {
		t.Parallel()

		tags, err := voice.NormalizeTags(enum.ChannelKindCasual, []string{"Music", "Gaming", "Music"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Music", "Gaming"}, tags)
	})

	t.Run("case folds to the catalog spelling", func(t *testing.T) {
		t.Parallel()

		tags, err := voice.NormalizeTags(enum.ChannelKindCasual, []string{"gaming", "CHILL"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Gaming", "Chill"}, tags)
	})

	t.Run("duplicates collapse across casings", func(t *testing.T) {
		t.Parallel()

		tags, err := voice.NormalizeTags(enum.ChannelKindCasual, []string{"Gaming", "gaming", "GAMING"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Gaming"}, tags)
	})

	t.Run("unknown tag rejected", func(t *testing.T) {
		t.Parallel()

		_, err := voice.NormalizeTags(enum.ChannelKindCasual, []string{"NotATag"})
		require.Error(t, err)
	})

	t.Run("tags validate against the owning kind", func(t *testing.T) {
		t.Parallel()

		// Politics is a debate tag, not a casual one.
		_, err := voice.NormalizeTags(enum.ChannelKindCasual, []string{"Politics"})
		require.Error(t, err)

		tags, err := voice.NormalizeTags(enum.ChannelKindDebate, []string{"Politics"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Politics"}, tags)
	})

	t.Run("too many tags rejected", func(t *testing.T) {
		t.Parallel()

		_, err := voice.NormalizeTags(enum.ChannelKindCasual,
			[]string{"Gaming", "Music", "Movies", "Tech", "Sports"})
		require.Error(t, err)
	})

	t.Run("duplicates do not count against the limit", func(t *testing.T) {
		t.Parallel()

		tags, err := voice.NormalizeTags(enum.ChannelKindCasual,
			[]string{"Gaming", "Gaming", "Music", "Movies", "Tech"})
		require.NoError(t, err)
		assert.Len(t, tags, 4)
	})

	t.Run("empty set allowed", func(t *testing.T) {
		t.Parallel()

		tags, err := voice.NormalizeTags(enum.ChannelKindDebate, nil)
		require.NoError(t, err)
		assert.Empty(t, tags)
	})
}

func TestDefaultChannelName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Casual VC", voice.DefaultChannelName(enum.ChannelKindCasual))
	assert.Equal(t, "Debate VC", voice.DefaultChannelName(enum.ChannelKindDebate))
}

func TestFormatTagStatus(t *testing.T) {
	t.Parallel()

	assert.Empty(t, voice.FormatTagStatus(nil))
	assert.Equal(t, "`Gaming`", voice.FormatTagStatus([]string{"Gaming"}))
	assert.Equal(t, "`Gaming` `Music`", voice.FormatTagStatus([]string{"Gaming", "Music"}))
}
