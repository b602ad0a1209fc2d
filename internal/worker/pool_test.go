package worker

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExecutesJobs(t *testing.T) {
	pool := New(2, 8, 0)
	pool.Start()

	var executed int32
	done := make(chan struct{})

	err := pool.Submit(Job{
		ID: "job-1",
		Task: func() error {
			atomic.AddInt32(&executed, 1)
			return nil
		},
		OnDone: func(err error) {
			assert.NoError(t, err)
			close(done)
		},
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&executed))

	require.NoError(t, pool.Shutdown(time.Second))
}

func TestPoolRetries(t *testing.T) {
	pool := New(1, 4, 3)
	pool.Start()

	var attempts int32
	done := make(chan error, 1)

	err := pool.Submit(Job{
		ID: "flaky",
		Task: func() error {
			if atomic.AddInt32(&attempts, 1) < 3 {
				return errors.New("transient")
			}
			return nil
		},
		OnDone: func(err error) { done <- err },
	})
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))

	require.NoError(t, pool.Shutdown(time.Second))
}

func TestPoolRetryOnShortCircuit(t *testing.T) {
	pool := New(1, 4, 5)
	pool.Start()

	var attempts int32
	done := make(chan error, 1)
	permanent := errors.New("permanent")

	err := pool.Submit(Job{
		ID: "no-retry",
		Task: func() error {
			atomic.AddInt32(&attempts, 1)
			return permanent
		},
		RetryOn: func(error) bool { return false },
		OnDone:  func(err error) { done <- err },
	})
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, permanent)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))

	require.NoError(t, pool.Shutdown(time.Second))
}

func TestPoolQueueFull(t *testing.T) {
	// No Start: nothing drains the queue.
	pool := New(1, 1, 0)

	block := Job{ID: "filler", Task: func() error { return nil }}
	require.NoError(t, pool.Submit(block))

	err := pool.Submit(Job{ID: "overflow", Task: func() error { return nil }})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestPoolStats(t *testing.T) {
	pool := New(1, 4, 0)
	pool.Start()

	done := make(chan struct{})
	require.NoError(t, pool.Submit(Job{
		ID:     "counted",
		Task:   func() error { return nil },
		OnDone: func(error) { close(done) },
	}))
	<-done

	stats := pool.GetStats()
	assert.Equal(t, int64(1), stats.TotalJobs)
	assert.Equal(t, int64(1), stats.CompletedJobs)
	assert.Equal(t, int64(0), stats.FailedJobs)

	require.NoError(t, pool.Shutdown(time.Second))
}
