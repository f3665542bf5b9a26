package ratelimit

import "time"

// Clock abstracts the time operations the limiter depends on so tests can
// control waits deterministically.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) *Timer
}

// Timer delivers a single event on C unless stopped first.
type Timer struct {
	C <-chan time.Time

	stopFunc func() bool
}

// Stop prevents the Timer from firing. Returns false if it already fired
// or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) *Timer {
	timer := time.NewTimer(d)
	return &Timer{C: timer.C, stopFunc: timer.Stop}
}
