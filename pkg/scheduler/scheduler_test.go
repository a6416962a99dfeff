package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEveryRunsUntilStopped(t *testing.T) {
	s := New(context.Background())
	var runs int32
	ok := s.Every("count", 5*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	assert.True(t, ok)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := atomic.LoadInt32(&runs)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&runs))
}

func TestEveryDisabledForZeroInterval(t *testing.T) {
	s := New(context.Background())
	defer s.Stop()
	assert.False(t, s.Every("off", 0, func(ctx context.Context) error { return nil }))
}

func TestJobErrorsAndPanicsDoNotStopLoop(t *testing.T) {
	s := New(context.Background())
	var runs int32
	s.Every("flaky", 5*time.Millisecond, func(ctx context.Context) error {
		n := atomic.AddInt32(&runs, 1)
		if n == 1 {
			panic("boom")
		}
		return errors.New("still failing")
	})

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestParentCancelStopsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx)
	s.Every("noop", time.Millisecond, func(ctx context.Context) error { return nil })
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
