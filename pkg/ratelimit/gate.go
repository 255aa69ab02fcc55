package ratelimit

import (
	"time"
)

// Status is the quota signal the platform returns on every response via the
// x-rate-limit-* headers. Reset is a unix timestamp in seconds.
type Status struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// Exhausted reports whether no further request should be attempted before
// the reset time.
func (s Status) Exhausted() bool {
	return s.Remaining <= 0
}

// ResetTime returns the window reset as a time.Time.
func (s Status) ResetTime() time.Time {
	return time.Unix(s.Reset, 0)
}

// DefaultGrace absorbs clock skew between us and the platform when sleeping
// through an exhausted window.
const DefaultGrace = 2 * time.Second

// Gate decides how long to wait before the next request given the quota
// signal from the previous response. It is stateless; the caller performs
// the actual suspension.
type Gate struct {
	// Delay is the fixed inter-request pause applied while quota remains.
	Delay time.Duration
	// Grace is added on top of the reset wait when quota is exhausted.
	// Zero means DefaultGrace.
	Grace time.Duration

	// now is overridable for tests.
	now func() time.Time
}

// NewGate creates a gate with the given fixed inter-request delay.
func NewGate(delay time.Duration) *Gate {
	return &Gate{Delay: delay, Grace: DefaultGrace, now: time.Now}
}

// Wait returns the duration to sleep before the next request.
//
// With quota remaining the gate always pays the fixed delay, even when the
// window is wide open, to stay polite to the server. With quota exhausted it
// waits until the reset time plus grace; a reset already in the past still
// yields the grace period.
func (g *Gate) Wait(s Status) time.Duration {
	if !s.Exhausted() {
		return g.Delay
	}
	grace := g.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	now := time.Now
	if g.now != nil {
		now = g.now
	}
	until := s.ResetTime().Sub(now())
	if until < 0 {
		until = 0
	}
	return until + grace
}
