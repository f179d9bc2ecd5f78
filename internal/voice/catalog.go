package voice

import (
	"fmt"
	"slices"
	"strings"

	"github.com/voxguard/voxguard/internal/database/types/enum"
)

// MaxTags is the maximum number of tags a channel can carry.
const MaxTags = 4

// MaxUserLimit is the largest member cap an owner can put on a channel.
const MaxUserLimit = 69

// Tag catalogs per channel kind. Closed lists; retagging validates
// against the owning kind's catalog.
var (
	casualTags = []string{
		"Gaming", "Music", "Movies", "Tech", "Sports",
		"Art", "Chill", "Study", "Work", "Languages",
		"Anime", "Books", "Cooking", "Fitness", "Travel",
	}

	debateTags = []string{
		"Politics", "Philosophy", "Science", "Religion", "Ethics",
		"Economics", "History", "Law", "Technology", "Environment",
		"Education", "Healthcare", "Society", "Psychology", "Culture",
	}
)

// TagsForKind returns the tag catalog for a channel kind.
func TagsForKind(kind enum.ChannelKind) []string {
	if kind == enum.ChannelKindCasual {
		return slices.Clone(casualTags)
	}

	return slices.Clone(debateTags)
}

// DefaultChannelName returns the name given to unconfigured channels.
func DefaultChannelName(kind enum.ChannelKind) string {
	if kind == enum.ChannelKindCasual {
		return "Casual VC"
	}

	return "Debate VC"
}

// NormalizeTags deduplicates tags, preserving first-seen order, and
// validates them against the kind's catalog and the MaxTags limit.
// Matching is case-insensitive and the result carries the catalog's
// canonical casing, since the input is free text typed by the owner.
func NormalizeTags(kind enum.ChannelKind, tags []string) ([]string, error) {
	catalog := TagsForKind(kind)
	normalized := make([]string, 0, len(tags))

	for _, tag := range tags {
		idx := slices.IndexFunc(catalog, func(entry string) bool {
			return strings.EqualFold(entry, tag)
		})
		if idx < 0 {
			return nil, fmt.Errorf("tag %q is not in the %s catalog", tag, kind)
		}

		if slices.Contains(normalized, catalog[idx]) {
			continue
		}

		normalized = append(normalized, catalog[idx])
	}

	if len(normalized) > MaxTags {
		return nil, fmt.Errorf("at most %d tags allowed, got %d", MaxTags, len(normalized))
	}

	return normalized, nil
}

// FormatTagStatus renders a tag set as channel topic metadata.
func FormatTagStatus(tags []string) string {
	if len(tags) == 0 {
		return ""
	}

	quoted := make([]string, len(tags))
	for i, tag := range tags {
		quoted[i] = "`" + tag + "`"
	}

	return strings.Join(quoted, " ")
}
