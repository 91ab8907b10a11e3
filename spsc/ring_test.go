package spsc_test

import (
	"math"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"midimon/spsc"
)

func TestNew_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -1024} {
		p, c, err := spsc.New[int](capacity)
		assert.ErrorIs(t, err, spsc.ErrInvalidCapacity)
		assert.Nil(t, p)
		assert.Nil(t, c)
	}

	assert.Panics(t, func() { spsc.MustNew[int](0) })
}

func TestFIFO(t *testing.T) {
	p, c := spsc.MustNew[int](8)

	for i := 1; i <= 5; i++ {
		require.NoError(t, p.Push(i))
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, c.DrainAll())
	assert.Equal(t, 0, c.Len())
}

func TestFIFO_AcrossWrap(t *testing.T) {
	p, c := spsc.MustNew[int](3)

	next := 0
	var got []int
	// Two in, two out per round with one value left over from the start, so
	// the indices wrap the backing array several times.
	require.NoError(t, p.Push(next))
	next++
	for round := 0; round < 10; round++ {
		for i := 0; i < 2; i++ {
			require.NoError(t, p.Push(next))
			next++
		}
		for i := 0; i < 2; i++ {
			v, err := c.Pop()
			require.NoError(t, err)
			got = append(got, v)
		}
	}
	got = c.DrainInto(got)

	want := make([]int, next)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestCapacityBound(t *testing.T) {
	const n = 16
	p, c := spsc.MustNew[int](n)

	var fulls []int
	for i := 0; i <= n; i++ {
		if err := p.Push(i); err != nil {
			assert.ErrorIs(t, err, spsc.ErrFull)
			fulls = append(fulls, i)
		}
	}

	assert.Equal(t, []int{n}, fulls, "only the (N+1)th push fails")
	assert.Equal(t, n, p.Len())

	got := c.DrainAll()
	require.Len(t, got, n)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestFullDoesNotOverwrite(t *testing.T) {
	p, c := spsc.MustNew[string](2)

	require.NoError(t, p.Push("a"))
	require.NoError(t, p.Push("b"))
	assert.ErrorIs(t, p.Push("c"), spsc.ErrFull)

	assert.Equal(t, []string{"a", "b"}, c.DrainAll())

	// Space is reusable after a drain.
	require.NoError(t, p.Push("d"))
	assert.Equal(t, []string{"d"}, c.DrainAll())
}

func TestEmpty(t *testing.T) {
	p, c := spsc.MustNew[int](4)

	v, err := c.Pop()
	assert.ErrorIs(t, err, spsc.ErrEmpty)
	assert.Zero(t, v)

	assert.Nil(t, c.DrainAll())
	assert.Nil(t, c.DrainAll())
	assert.Equal(t, 0, c.Len())

	// An empty drain leaves the channel fully usable.
	for i := 0; i < 4; i++ {
		require.NoError(t, p.Push(i))
	}
	assert.ErrorIs(t, p.Push(4), spsc.ErrFull)
}

func TestDrainInto_PreservesPrefix(t *testing.T) {
	p, c := spsc.MustNew[int](4)
	require.NoError(t, p.Push(3))
	require.NoError(t, p.Push(4))

	out := c.DrainInto([]int{1, 2})
	assert.Equal(t, []int{1, 2, 3, 4}, out)
}

func TestCap(t *testing.T) {
	p, c := spsc.MustNew[int](spsc.DefaultCapacity)
	assert.Equal(t, spsc.DefaultCapacity, p.Cap())
	assert.Equal(t, spsc.DefaultCapacity, c.Cap())
}

func TestPopNoStaleValue(t *testing.T) {
	p, c := spsc.MustNew[*int](1)
	x := 7
	require.NoError(t, p.Push(&x))
	got, err := c.Pop()
	require.NoError(t, err)
	assert.Same(t, &x, got)

	// The consumer must not hand back a stale pointer once drained.
	got, err = c.Pop()
	assert.ErrorIs(t, err, spsc.ErrEmpty)
	assert.Nil(t, got)
}

func TestPushPop_NoAllocs(t *testing.T) {
	type record struct {
		at  time.Time
		key uint8
		vel float32
	}
	p, c := spsc.MustNew[record](64)
	now := time.Now()

	allocs := testing.AllocsPerRun(1000, func() {
		_ = p.Push(record{at: now, key: 60, vel: 0.5})
		_, _ = c.Pop()
	})
	assert.Zero(t, allocs)

	// Full and empty responses are allocation-free too.
	for p.Push(record{}) == nil {
	}
	allocs = testing.AllocsPerRun(1000, func() {
		_ = p.Push(record{})
	})
	assert.Zero(t, allocs)
	c.DrainAll()
	allocs = testing.AllocsPerRun(1000, func() {
		_, _ = c.Pop()
	})
	assert.Zero(t, allocs)
}

func TestConcurrentProducerConsumer(t *testing.T) {
	const total = 200_000
	p, c := spsc.MustNew[int](32)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if p.Push(i) != nil {
				runtime.Gosched()
				continue
			}
			i++
		}
	}()

	got := make([]int, 0, total)
	for len(got) < total {
		n := len(got)
		if got = c.DrainInto(got); len(got) == n {
			runtime.Gosched()
		}
	}
	wg.Wait()

	for i, v := range got {
		if v != i {
			t.Fatalf("position %d: got %d", i, v)
		}
	}
	assert.Equal(t, 0, c.Len())
}

// pushPopTime returns the fastest of several timed push/pop loops with the
// ring holding depth values throughout
func pushPopTime(depth, capacity, ops int) time.Duration {
	p, c := spsc.MustNew[int](capacity)
	for i := 0; i < depth; i++ {
		_ = p.Push(i)
	}
	best := time.Duration(math.MaxInt64)
	for run := 0; run < 5; run++ {
		start := time.Now()
		for i := 0; i < ops; i++ {
			_ = p.Push(i)
			_, _ = c.Pop()
		}
		best = min(best, time.Since(start))
	}
	return best
}

func TestPushPop_CostIndependentOfDepth(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	const (
		capacity = 1 << 12
		ops      = 200_000
	)

	empty := pushPopTime(0, capacity, ops)
	nearlyFull := pushPopTime(capacity-1, capacity, ops)

	// Both are O(1); allow generous scheduler noise
	ratio := float64(nearlyFull) / float64(max(empty, time.Microsecond))
	assert.Less(t, ratio, 4.0, "empty=%v nearlyFull=%v", empty, nearlyFull)

	p, c := spsc.MustNew[int](capacity)
	for p.Len() < capacity-1 {
		require.NoError(t, p.Push(0))
	}
	allocs := testing.AllocsPerRun(1000, func() {
		_ = p.Push(1)
		_, _ = c.Pop()
	})
	assert.Zero(t, allocs)
}

func benchmarkPushPop(b *testing.B, depth int) {
	p, c := spsc.MustNew[int](depth + 1)
	for i := 0; i < depth; i++ {
		_ = p.Push(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Push(i)
		_, _ = c.Pop()
	}
}

// Cost per operation should not depend on how full the ring is.
func BenchmarkPushPop_Depth0(b *testing.B) { benchmarkPushPop(b, 0) }
func BenchmarkPushPop_Depth1k(b *testing.B) { benchmarkPushPop(b, 1<<10) }
func BenchmarkPushPop_Depth64k(b *testing.B) { benchmarkPushPop(b, 1<<16) }

func BenchmarkPushFull(b *testing.B) {
	p, _ := spsc.MustNew[int](1024)
	for p.Push(0) == nil {
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Push(i)
	}
}
