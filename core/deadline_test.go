package core

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestDeadlineRemaining(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	dl := newDeadlineAt(clock.now, 10*time.Second)

	if got := dl.Remaining(); got != 10*time.Second {
		t.Errorf("Remaining() = %v, want 10s", got)
	}

	clock.t = clock.t.Add(4 * time.Second)
	if got := dl.Remaining(); got != 6*time.Second {
		t.Errorf("Remaining() = %v, want 6s", got)
	}
	if dl.Elapsed() != 4*time.Second {
		t.Errorf("Elapsed() = %v, want 4s", dl.Elapsed())
	}

	clock.t = clock.t.Add(time.Minute)
	if got := dl.Remaining(); got != 0 {
		t.Errorf("Remaining() = %v, want clamped 0", got)
	}
	if !dl.Expired() {
		t.Error("Expired() = false after budget elapsed")
	}
	if dl.Budget() != 10*time.Second {
		t.Errorf("Budget() = %v, want 10s", dl.Budget())
	}
}

func TestZeroDeadlineIsExpired(t *testing.T) {
	var dl Deadline
	if !dl.Expired() {
		t.Error("zero Deadline should be expired")
	}
}

func TestDeadlineBind(t *testing.T) {
	dl := NewDeadline(20 * time.Millisecond)
	ctx, cancel := dl.Bind(context.Background())
	defer cancel()

	at, ok := ctx.Deadline()
	if !ok || !at.Equal(dl.At()) {
		t.Errorf("ctx deadline = %v, want %v", at, dl.At())
	}

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("bound context did not expire")
	}
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctx.Err())
	}
}

func TestContextErrorClassification(t *testing.T) {
	live := NewDeadline(time.Hour)
	if err := ContextError("fal", context.Canceled, live); Kind(err) != ErrCanceled {
		t.Errorf("canceled with time left = %v, want ErrCanceled", err)
	}
	if err := ContextError("fal", context.DeadlineExceeded, live); Kind(err) != ErrTimeout {
		t.Errorf("deadline exceeded = %v, want ErrTimeout", err)
	}

	expired := newDeadlineAt(func() time.Time { return time.Unix(0, 0) }, 0)
	if err := ContextError("fal", context.Canceled, expired); Kind(err) != ErrTimeout {
		t.Errorf("canceled after expiry = %v, want ErrTimeout", err)
	}
}
