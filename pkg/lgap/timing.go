package lgap

import (
	"fmt"
	"time"
)

// Timing defines the intervals enforced by the engine.
type Timing struct {
	// LoopWait is the minimum time between two request passes.
	LoopWait time.Duration
	// ZoneCheckWait is the minimum time between two status polls.
	ZoneCheckWait time.Duration
	// ReceiveTimeout bounds the wait for a response, counted from the
	// moment the request is flushed.
	ReceiveTimeout time.Duration
	// SendWait is the minimum gap between two transmissions, 0 to disable.
	SendWait time.Duration
}

// DefaultTiming returns the default intervals.
func DefaultTiming() Timing {
	return Timing{
		LoopWait:       100 * time.Millisecond,
		ZoneCheckWait:  time.Second,
		ReceiveTimeout: 500 * time.Millisecond,
	}
}

// Validate checks the intervals.
func (t Timing) Validate() error {
	switch {
	case t.LoopWait < 0:
		return fmt.Errorf("loop wait %v is negative", t.LoopWait)
	case t.ZoneCheckWait < 0:
		return fmt.Errorf("zone check wait %v is negative", t.ZoneCheckWait)
	case t.ReceiveTimeout <= 0:
		return fmt.Errorf("receive timeout %v must be positive", t.ReceiveTimeout)
	case t.SendWait < 0:
		return fmt.Errorf("send wait %v is negative", t.SendWait)
	}
	return nil
}

// elapsed reports whether d has passed since last. The zero time is
// infinitely far in the past.
func elapsed(now, last time.Time, d time.Duration) bool {
	return last.IsZero() || now.Sub(last) >= d
}

// expired reports whether deadline has been passed.
func expired(now, deadline time.Time) bool {
	return now.After(deadline)
}
