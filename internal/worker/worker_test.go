package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerRunsImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	r := NewRunner("test", time.Hour, func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	r.Start()
	defer r.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
}

func TestRunnerTicks(t *testing.T) {
	var runs atomic.Int64
	r := NewRunner("test", 10*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})
	r.Start()

	require.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
	r.Stop()
}

func TestRunnerStopWaitsForLoop(t *testing.T) {
	r := NewRunner("test", time.Hour, func(ctx context.Context) {})
	r.Start()
	r.Stop()

	// done must be closed once Stop returns.
	select {
	case <-r.done:
	default:
		t.Fatal("loop still running after Stop")
	}
}

func TestRunnerRecoversFromPanic(t *testing.T) {
	var runs atomic.Int64
	r := NewRunner("test", 10*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
		panic("boom")
	})
	r.Start()

	require.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
	r.Stop()
}

func TestRunnerJobContextExpires(t *testing.T) {
	deadlines := make(chan bool, 1)
	r := NewRunner("test", 50*time.Millisecond, func(ctx context.Context) {
		_, ok := ctx.Deadline()
		select {
		case deadlines <- ok:
		default:
		}
	})
	r.Start()
	defer r.Stop()

	select {
	case ok := <-deadlines:
		assert.True(t, ok, "job context should carry a deadline")
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}
