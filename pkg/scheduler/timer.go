package scheduler

import (
	"context"
	"sync"
	"time"
)

// TimerScheduler implements Scheduler with in-process timers. Each scheduled
// task gets its own time.AfterFunc; fired tasks run on the timer goroutine
// and are removed from the pending set before they execute.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewTimerScheduler creates an empty TimerScheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{
		timers: make(map[string]*time.Timer),
	}
}

// Make sure we conform to the interface
var _ Scheduler = (*TimerScheduler)(nil)

// Schedule arms a timer for the given key. A pending timer under the same
// key is stopped and replaced. Negative delays are clamped to zero, which
// still goes through a timer so the task never runs on the caller's
// goroutine.
func (s *TimerScheduler) Schedule(ctx context.Context, key string, delay time.Duration, task Task) error {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	if existing, ok := s.timers[key]; ok {
		existing.Stop()
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.remove(key)
		task(ctx)
	})
	return nil
}

// Pending returns the number of tasks that have not fired yet.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Shutdown stops all pending timers and rejects further scheduling. Pending
// work is dropped, matching the simulator's lost-on-restart semantics.
func (s *TimerScheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

func (s *TimerScheduler) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, key)
}
