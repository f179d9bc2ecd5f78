// Package voice defines the shared domain vocabulary of the channel
// lifecycle engine: error kinds, tag catalogs and naming policy.
package voice

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotConfigured indicates the guild has no join-to-create setup, or
	// the channel in question matches neither configured lobby.
	ErrNotConfigured = errors.New("guild is not configured for join-to-create")
	// ErrNotFound indicates the channel, mute or record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a duplicate active mute, global mute or deadline.
	ErrConflict = errors.New("conflicting active record exists")
	// ErrPermissionDenied indicates a non-owner attempted an owner-only action.
	ErrPermissionDenied = errors.New("requester does not own this channel")
	// ErrPlatformUnavailable indicates an external platform call failed or
	// timed out.
	ErrPlatformUnavailable = errors.New("platform call failed or timed out")
	// ErrInvalidName indicates a channel name outside the allowed length.
	ErrInvalidName = errors.New("channel name has an invalid length")
	// ErrInappropriateName indicates a channel name that would violate the
	// platform's terms of service.
	ErrInappropriateName = errors.New("channel name contains inappropriate language")
	// ErrInvalidUserLimit indicates a user limit outside the allowed range.
	ErrInvalidUserLimit = errors.New("user limit out of range")
)

// RateLimitedError is returned when a command is attempted before its
// cooldown has elapsed. Deterministic and non-retriable until RetryAfter.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter.Round(time.Second))
}

// AsRateLimited extracts a RateLimitedError from an error chain.
func AsRateLimited(err error) (*RateLimitedError, bool) {
	var rle *RateLimitedError
	if errors.As(err, &rle) {
		return rle, true
	}

	return nil, false
}
