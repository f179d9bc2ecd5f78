package spam

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Action is what the caller should do after a join/leave cycle.
type Action int

const (
	// ActionNone means the activity is within normal bounds.
	ActionNone Action = iota
	// ActionPrompt means the user should receive a warning.
	ActionPrompt
	// ActionTimeout means the user earned an infraction and should be
	// timed out for the verdict's duration.
	ActionTimeout
)

// Verdict is the outcome of evaluating a join/leave cycle.
type Verdict struct {
	Action  Action
	Timeout time.Duration
	Level   int
}

// Detector combines the sliding activity window with the escalation
// tracker: enough cycles inside the window first earn a warning, then a
// timeout infraction.
type Detector struct {
	window              *ActivityWindow
	tracker             *Tracker
	promptThreshold     int64
	infractionThreshold int64
}

// NewDetector creates a new Detector instance.
func NewDetector(window *ActivityWindow, tracker *Tracker, promptThreshold, infractionThreshold int64) *Detector {
	return &Detector{
		window:              window,
		tracker:             tracker,
		promptThreshold:     promptThreshold,
		infractionThreshold: infractionThreshold,
	}
}

// OnJoinCycle records a join/leave cycle and returns the action to take.
// When an infraction is issued the activity window is reset so the next
// window starts clean.
func (d *Detector) OnJoinCycle(
	ctx context.Context, guildID, channelID, userID snowflake.ID, now time.Time,
) (Verdict, error) {
	count, err := d.window.RecordCycle(ctx, channelID, userID, now)
	if err != nil {
		return Verdict{}, err
	}

	switch {
	case count >= d.infractionThreshold:
		timeout, level, err := d.tracker.RecordInfraction(ctx, guildID, userID, now)
		if err != nil {
			return Verdict{}, err
		}

		if err := d.window.Reset(ctx, channelID, userID); err != nil {
			return Verdict{}, fmt.Errorf("failed to reset window after infraction: %w", err)
		}

		return Verdict{Action: ActionTimeout, Timeout: timeout, Level: level}, nil

	case count >= d.promptThreshold:
		return Verdict{Action: ActionPrompt}, nil

	default:
		return Verdict{}, nil
	}
}
