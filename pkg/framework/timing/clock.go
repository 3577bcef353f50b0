// Package timing turns the host's wall clock and tempo into frame steps and beat hits.
package timing

import (
	"math"
	"time"
)

// DefaultFPS is the frame rate a clock starts with.
const DefaultFPS = 25

// Timespec is the host's wall-clock reading.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// FromTime converts a wall-clock time.
func FromTime(t time.Time) Timespec {
	return Timespec{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// FromNanos splits a nanosecond count.
func FromNanos(ns int64) Timespec {
	return Timespec{Sec: ns / int64(time.Second), Nsec: ns % int64(time.Second)}
}

// Nanos returns the reading as integer nanoseconds.
func (t Timespec) Nanos() int64 {
	return t.Sec*int64(time.Second) + t.Nsec
}

// Seconds returns the reading in seconds.
func (t Timespec) Seconds() float64 {
	return float64(t.Nanos()) / 1e9
}

// IsZero reports whether the reading was never set.
func (t Timespec) IsZero() bool { return t.Sec == 0 && t.Nsec == 0 }

// Step is the result of advancing the clock by one host frame.
type Step struct {
	// Frames is the number of whole frames of wall time elapsed.
	Frames int64
	// Traveled is Frames scaled by speed, negative when playing in reverse.
	Traveled float64
	// Carry is the sub-frame remainder kept for the next step.
	Carry time.Duration
}

// Clock measures elapsed time in whole frames. Work is done in integer
// nanoseconds and the sub-frame remainder is carried forward, so the frame
// count never drifts however the host spaces its calls.
type Clock struct {
	nanosPerFrame int64
	prev          int64
	started       bool
	position      float64
}

// NewClock creates a clock at fps. Non-positive rates fall back to DefaultFPS.
func NewClock(fps float64) *Clock {
	c := &Clock{}
	c.SetFPS(fps)
	return c
}

// SetFPS changes the frame length. The carried remainder is kept.
func (c *Clock) SetFPS(fps float64) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		fps = DefaultFPS
	}
	c.nanosPerFrame = int64(math.Floor(1e9 / fps))
	if c.nanosPerFrame < 1 {
		c.nanosPerFrame = 1
	}
}

// FrameDuration returns the length of one frame.
func (c *Clock) FrameDuration() time.Duration {
	return time.Duration(c.nanosPerFrame)
}

// Start anchors the clock at now and zeroes the position.
func (c *Clock) Start(now Timespec) {
	c.prev = now.Nanos()
	c.started = true
	c.position = 0
}

// Advance measures the time since the previous call. A clock that was never
// started starts at now. Time running backwards re-anchors without moving.
func (c *Clock) Advance(now Timespec, speed float64, reverse bool) Step {
	cur := now.Nanos()
	if !c.started || cur < c.prev {
		c.prev = cur
		c.started = true
		return Step{}
	}
	elapsed := cur - c.prev
	whole := elapsed / c.nanosPerFrame
	carry := elapsed - whole*c.nanosPerFrame
	c.prev = cur - carry

	traveled := float64(whole) * speed
	if reverse {
		traveled = -traveled
	}
	c.position += traveled
	return Step{Frames: whole, Traveled: traveled, Carry: time.Duration(carry)}
}

// Position returns the total frames traveled since Start.
func (c *Clock) Position() float64 { return c.position }

// Cycle is a phase in [0, Period) driven by traveled frames.
type Cycle struct {
	Period float64
	Speed  float64
	phase  float64
}

// Advance moves the phase by traveled frames at the cycle's speed, wrapping
// in either direction.
func (c *Cycle) Advance(traveled float64) float64 {
	period := c.Period
	if period <= 0 {
		period = 100
	}
	c.phase = math.Mod(c.phase+traveled*c.Speed, period)
	if c.phase < 0 {
		c.phase += period
	}
	return c.phase
}

// Phase returns the current phase.
func (c *Cycle) Phase() float64 { return c.phase }

// Reset returns the phase to zero.
func (c *Cycle) Reset() { c.phase = 0 }
