package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSchedulerClosed is returned when scheduling after Shutdown.
var ErrSchedulerClosed = errors.New("scheduler is shut down")

// Synchronous is a Scheduler for tests: it records every requested delay and
// runs the task inline, without waiting. Retry-backoff tests assert on the
// recorded delays instead of sleeping through them.
type Synchronous struct {
	mu     sync.Mutex
	delays []time.Duration
	keys   []string
}

// Make sure we conform to the interface
var _ Scheduler = (*Synchronous)(nil)

// Schedule records the key and delay, then runs the task immediately on the
// calling goroutine.
func (s *Synchronous) Schedule(ctx context.Context, key string, delay time.Duration, task Task) error {
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	s.keys = append(s.keys, key)
	s.delays = append(s.delays, delay)
	s.mu.Unlock()

	task(ctx)
	return nil
}

// Delays returns the delays requested so far, in order.
func (s *Synchronous) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// Keys returns the keys scheduled so far, in order.
func (s *Synchronous) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}
