package sync

import "time"

// Scheduler plans a single delayed task. The debounce contract
// (coalesce within the window, immediate bypasses, flush on teardown)
// lives in the Coordinator; the scheduler only owns the timer
// mechanism, which lets tests drive it by hand.
type Scheduler interface {
	// Schedule runs fn after d. The returned cancel reports whether the
	// task was stopped before running.
	Schedule(d time.Duration, fn func()) (cancel func() bool)
}

// TimerScheduler is the production Scheduler backed by time.AfterFunc.
type TimerScheduler struct{}

// Schedule implements Scheduler.
func (TimerScheduler) Schedule(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
