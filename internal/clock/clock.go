package clock

import "time"

// Clock abstracts wall time and timer scheduling so the verification
// scheduler stays deterministic in tests.
type Clock interface {
	Now() time.Time
	// AfterFunc schedules f to run after d on its own goroutine and
	// returns a handle that can stop the pending call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the stoppable handle returned by AfterFunc.
type Timer interface {
	// Stop prevents the scheduled call from firing. It reports whether
	// the call was still pending; stopping an already-fired or
	// already-stopped timer is a no-op.
	Stop() bool
}

// SystemClock is the production Clock backed by the time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
