package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "b"}))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-done:
			got[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, got)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))
}

func TestQueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	require.NoError(t, q.Enqueue(Job{ID: "running"}))
	<-started
	require.NoError(t, q.Enqueue(Job{ID: "buffered"}))
	assert.Equal(t, 1, q.Pending())
	assert.Equal(t, 1, q.Active())
	assert.ErrorIs(t, q.Enqueue(Job{ID: "overflow"}), ErrQueueFull)
}

func TestQueueDoesNotRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	q := NewQueue("noretry", func(ctx context.Context, job Job) error {
		calls.Add(1)
		return errors.New("boom")
	}, QueueConfig{RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "once"}))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQueueRecoversHandlerPanic(t *testing.T) {
	var calls atomic.Int32
	q := NewQueue("panic", func(ctx context.Context, job Job) error {
		if calls.Add(1) == 1 {
			panic("bad job")
		}
		return nil
	}, QueueConfig{MaxRetries: 1, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "p"}))
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestQueueStopHandsBufferedJobsToHandler(t *testing.T) {
	var mu sync.Mutex
	cancelled := map[string]bool{}
	started := make(chan struct{}, 1)
	q := NewQueue("drain", func(ctx context.Context, job Job) error {
		if job.ID == "running" {
			started <- struct{}{}
			<-ctx.Done()
		}
		mu.Lock()
		cancelled[job.ID] = ctx.Err() != nil
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 2})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "running"}))
	<-started
	require.NoError(t, q.Enqueue(Job{ID: "buffered"}))

	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]bool{"running": true, "buffered": true}, cancelled)
	assert.Zero(t, q.Pending())
	assert.Error(t, q.Enqueue(Job{ID: "late"}))
}
