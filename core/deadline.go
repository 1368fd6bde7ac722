package core

import (
	"context"
	"time"
)

// Deadline is the single time budget shared by every step of one call.
// It is created once at the gateway boundary and never extended.
type Deadline struct {
	start  time.Time
	at     time.Time
	budget time.Duration
	now    func() time.Time
}

// NewDeadline starts a deadline that expires budget from now.
func NewDeadline(budget time.Duration) Deadline {
	return newDeadlineAt(time.Now, budget)
}

func newDeadlineAt(now func() time.Time, budget time.Duration) Deadline {
	start := now()
	return Deadline{start: start, at: start.Add(budget), budget: budget, now: now}
}

// Remaining returns the time left, never negative.
func (d Deadline) Remaining() time.Duration {
	if d.now == nil {
		return 0
	}
	left := d.at.Sub(d.now())
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether no time is left.
func (d Deadline) Expired() bool {
	return d.Remaining() <= 0
}

// Budget returns the total duration the deadline was created with.
func (d Deadline) Budget() time.Duration {
	return d.budget
}

// At returns the absolute expiry time.
func (d Deadline) At() time.Time {
	return d.at
}

// Elapsed returns how long the call has been running.
func (d Deadline) Elapsed() time.Duration {
	if d.now == nil {
		return 0
	}
	return d.now().Sub(d.start)
}

// Bind derives a context that ends when either parent ends or the deadline passes.
func (d Deadline) Bind(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithDeadline(parent, d.at)
}
