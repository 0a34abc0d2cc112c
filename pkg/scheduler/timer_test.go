package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerSchedulerFires(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Shutdown()

	fired := make(chan struct{})
	err := s.Schedule(context.Background(), "k1", 5*time.Millisecond, func(ctx context.Context) {
		close(fired)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Pending())

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("task did not fire")
	}

	// The task is removed from the pending set before it runs.
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, time.Millisecond)
}

func TestTimerSchedulerClampsNegativeDelay(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Shutdown()

	fired := make(chan struct{})
	err := s.Schedule(context.Background(), "k1", -3*time.Second, func(ctx context.Context) {
		close(fired)
	})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("negative delay should fire immediately")
	}
}

func TestTimerSchedulerReplacesPendingKey(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Shutdown()

	ran := make(chan string, 2)
	require.NoError(t, s.Schedule(context.Background(), "k1", 50*time.Millisecond, func(ctx context.Context) {
		ran <- "first"
	}))
	require.NoError(t, s.Schedule(context.Background(), "k1", 5*time.Millisecond, func(ctx context.Context) {
		ran <- "second"
	}))
	assert.Equal(t, 1, s.Pending())

	select {
	case got := <-ran:
		assert.Equal(t, "second", got)
	case <-time.After(time.Second):
		t.Fatal("replacement task did not fire")
	}

	// The replaced task must never run.
	select {
	case got := <-ran:
		t.Fatalf("unexpected second firing: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerSchedulerShutdownDropsPendingWork(t *testing.T) {
	s := NewTimerScheduler()

	ran := make(chan struct{}, 1)
	require.NoError(t, s.Schedule(context.Background(), "k1", 50*time.Millisecond, func(ctx context.Context) {
		ran <- struct{}{}
	}))

	s.Shutdown()
	assert.Equal(t, 0, s.Pending())

	select {
	case <-ran:
		t.Fatal("task ran after shutdown")
	case <-time.After(100 * time.Millisecond):
	}

	err := s.Schedule(context.Background(), "k2", 0, func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrSchedulerClosed)
}

func TestSynchronousRecordsDelays(t *testing.T) {
	s := &Synchronous{}

	var order []string
	_ = s.Schedule(context.Background(), "a", 2*time.Second, func(ctx context.Context) { order = append(order, "a") })
	_ = s.Schedule(context.Background(), "b", -time.Second, func(ctx context.Context) { order = append(order, "b") })

	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, []time.Duration{2 * time.Second, 0}, s.Delays())
	assert.Equal(t, []string{"a", "b"}, s.Keys())
}
