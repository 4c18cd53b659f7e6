package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newStartedQueue(t *testing.T, opts Options) *Queue {
	t.Helper()
	q := NewQueue(opts, zaptest.NewLogger(t))
	q.Start(context.Background())
	t.Cleanup(func() { _ = q.Stop(context.Background()) })
	return q
}

func TestQueue_SubmitAndAwait(t *testing.T) {
	q := newStartedQueue(t, Options{Workers: 2})
	release := make(chan struct{})
	var ran atomic.Int32

	require.True(t, q.Submit("thumb/a.jpg", func(ctx context.Context) error {
		<-release
		ran.Add(1)
		return nil
	}))
	assert.True(t, q.Pending("thumb/a.jpg"))
	assert.False(t, q.Submit("thumb/a.jpg", func(ctx context.Context) error { return nil }), "duplicate key is not enqueued")

	close(release)
	found, err := q.Await(context.Background(), "thumb/a.jpg")
	assert.True(t, found)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), ran.Load())
	assert.False(t, q.Pending("thumb/a.jpg"))
}

func TestQueue_AwaitUnknownKey(t *testing.T) {
	q := newStartedQueue(t, Options{})
	found, err := q.Await(context.Background(), "nothing")
	assert.False(t, found)
	assert.NoError(t, err)
}

func TestQueue_AwaitReportsJobError(t *testing.T) {
	q := newStartedQueue(t, Options{})
	boom := errors.New("boom")
	release := make(chan struct{})
	require.True(t, q.Submit("k", func(ctx context.Context) error {
		<-release
		return boom
	}))

	go close(release)
	found, err := q.Await(context.Background(), "k")
	assert.True(t, found)
	assert.ErrorIs(t, err, boom)
}

func TestQueue_AwaitTimeout(t *testing.T) {
	q := newStartedQueue(t, Options{})
	release := make(chan struct{})
	defer close(release)
	require.True(t, q.Submit("slow", func(ctx context.Context) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	found, err := q.Await(ctx, "slow")
	assert.True(t, found)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_RecoversFromPanic(t *testing.T) {
	q := newStartedQueue(t, Options{})
	require.True(t, q.Submit("panic", func(ctx context.Context) error { panic("bad frame") }))

	found, err := q.Await(context.Background(), "panic")
	assert.True(t, found)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	require.True(t, q.Submit("after", func(ctx context.Context) error { return nil }))
	_, err = q.Await(context.Background(), "after")
	assert.NoError(t, err)
}

func TestQueue_FullQueueRejects(t *testing.T) {
	q := newStartedQueue(t, Options{Workers: 1, Size: 1})
	block := make(chan struct{})
	defer close(block)
	started := make(chan struct{})

	require.True(t, q.Submit("running", func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	}))
	<-started
	require.True(t, q.Submit("queued", func(ctx context.Context) error { return nil }))
	assert.False(t, q.Submit("overflow", func(ctx context.Context) error { return nil }))
}

func TestQueue_StopDrainsAndRejects(t *testing.T) {
	q := NewQueue(Options{Workers: 1}, zaptest.NewLogger(t))
	assert.False(t, q.Submit("early", func(ctx context.Context) error { return nil }), "not started")

	q.Start(context.Background())
	var ran atomic.Int32
	for _, k := range []string{"a", "b", "c"} {
		require.True(t, q.Submit(k, func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}))
	}
	require.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, int32(3), ran.Load())
	assert.Zero(t, q.Len())
	assert.False(t, q.Submit("late", func(ctx context.Context) error { return nil }))
}
