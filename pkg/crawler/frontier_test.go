package crawler

import (
	"context"
	"sync/atomic"
	"testing"

	"jshunter/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontierPopsInDiscoveryOrder(t *testing.T) {
	var f Frontier
	f.Push(Task{URL: "seed", Depth: 1})

	seed, ok := f.Pop()
	require.True(t, ok)
	assert.Equal(t, "seed", seed.URL)

	f.PushAll([]Task{
		{URL: "a", Depth: 2, Origin: store.KindJS},
		{URL: "b", Depth: 2, Origin: store.KindURL},
	})
	assert.Equal(t, 2, f.Len())

	first, _ := f.Pop()
	assert.Equal(t, "a", first.URL)

	// children of a come before its sibling b
	f.PushAll([]Task{{URL: "a1", Depth: 3}})
	next, _ := f.Pop()
	assert.Equal(t, "a1", next.URL)
	last, _ := f.Pop()
	assert.Equal(t, "b", last.URL)

	_, ok = f.Pop()
	assert.False(t, ok)
}

func TestSchedulerRunsAllJobs(t *testing.T) {
	s := NewScheduler(context.Background(), 3)
	s.Start()

	var n int64
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Submit(func(context.Context) { atomic.AddInt64(&n, 1) }))
	}
	s.Wait()

	assert.Equal(t, int64(50), atomic.LoadInt64(&n))
}

func TestSchedulerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScheduler(ctx, 0)
	assert.Equal(t, 1, s.Workers)
	s.Start()

	var ran int64
	for i := 0; i < 5; i++ {
		_ = s.Submit(func(context.Context) { atomic.AddInt64(&ran, 1) })
	}
	s.Wait()

	assert.Zero(t, atomic.LoadInt64(&ran))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "2.0 MiB", formatBytes(2*1024*1024))
}
