// Package clock keeps the two per-side game timers.
package clock

import (
	"errors"
	"time"

	"github.com/kasupel/server/internal/domain/chess"
)

// ErrBadControl is returned for negative or empty time controls.
var ErrBadControl = errors.New("invalid time control")

// Control is a time-control configuration.
type Control struct {
	// Main is each side's starting time.
	Main time.Duration
	// FixedExtra is granted at the start of every turn and is spent before
	// the main time; any unused part is lost.
	FixedExtra time.Duration
	// Increment is credited to the mover at the end of each turn.
	Increment time.Duration
}

// Validate rejects controls a game cannot be played with.
func (c Control) Validate() error {
	if c.Main <= 0 && c.FixedExtra <= 0 {
		return ErrBadControl
	}
	if c.Main < 0 || c.FixedExtra < 0 || c.Increment < 0 {
		return ErrBadControl
	}
	return nil
}

// Clock is the timer state of one game. It changes only at turn boundaries.
type Clock struct {
	Control       Control
	Remaining     [2]time.Duration
	TurnStartedAt time.Time
}

// New starts a clock with both sides at the main time.
func New(c Control, start time.Time) Clock {
	return Clock{
		Control:       c,
		Remaining:     [2]time.Duration{c.Main, c.Main},
		TurnStartedAt: start,
	}
}

// TurnEnd settles the turn side has just finished at now. The fixed extra
// time is consumed first; whatever exceeds it is charged to the main time,
// then the increment is credited.
func (c *Clock) TurnEnd(side chess.Side, now time.Time) {
	elapsed := now.Sub(c.TurnStartedAt)
	mainUsed := elapsed - c.Control.FixedExtra
	if mainUsed < 0 {
		mainUsed = 0
	}
	c.Remaining[side] += c.Control.Increment - mainUsed
	c.TurnStartedAt = now
}

// Boundary is the instant side runs out of time if it is on move and does
// nothing.
func (c Clock) Boundary(side chess.Side) time.Time {
	return c.TurnStartedAt.Add(c.Remaining[side] + c.Control.FixedExtra)
}

// Expired reports whether side, on move, has reached its boundary at now.
func (c Clock) Expired(side chess.Side, now time.Time) bool {
	return !now.Before(c.Boundary(side))
}

// RemainingAt is side's main time as it would read at now if side is on
// move. It never goes below zero.
func (c Clock) RemainingAt(side chess.Side, now time.Time) time.Duration {
	left := c.Boundary(side).Sub(now)
	if left > c.Remaining[side] {
		left = c.Remaining[side]
	}
	if left < 0 {
		return 0
	}
	return left
}
