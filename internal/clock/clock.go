// Package clock provides the job master's notion of time and a periodic
// task scheduler, so components never call time.Now or time.NewTicker
// directly and tests can substitute deterministic time.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock returns the current time. SystemClock is the only production
// implementation; tests may substitute a fake.
type Clock interface {
	Now() time.Time
	NowMs() int64
}

// SystemClock is a Clock backed by the real wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// NowMs returns the current wall-clock time in milliseconds.
func (SystemClock) NowMs() int64 { return time.Now().UnixMilli() }

// CancelFunc stops a scheduled task. Safe to call more than once.
type CancelFunc func()

// Runner schedules periodic closures with at-most-one concurrency per
// schedule: the next tick waits for the previous invocation to return.
type Runner struct {
	clock Clock
}

// NewRunner creates a periodic runner backed by the given clock.
func NewRunner(c Clock) *Runner {
	if c == nil {
		c = SystemClock{}
	}
	return &Runner{clock: c}
}

// Schedule runs task immediately, then every interval, until the returned
// CancelFunc is called. task should be short and non-blocking; a slow tick
// delays the next one rather than overlapping it.
func (r *Runner) Schedule(name string, interval time.Duration, task func(ctx context.Context)) CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(interval)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			ticker.Stop()
		})
	}

	go func() {
		task(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				task(ctx)
			}
		}
	}()

	return stop
}
