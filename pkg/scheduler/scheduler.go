package scheduler

import (
	"context"
	"time"
)

// Task is a unit of deferred work. It runs to completion exactly once when
// its timer fires.
type Task func(ctx context.Context)

// Scheduler defines the interface for a component that runs a task after a
// delay. Tasks are keyed; scheduling a key that already has a pending task
// replaces the pending one. A negative delay is treated as zero.
//
// Scheduled work is not durable: tasks that have not fired when the process
// exits are lost. That is an accepted property of this simulator, not an
// oversight.
type Scheduler interface {
	Schedule(ctx context.Context, key string, delay time.Duration, task Task) error
}
