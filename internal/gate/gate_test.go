package gate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForWaiters blocks until n callers are suspended in Acquire and gives the
// last one a moment to enqueue inside the semaphore.
func waitForWaiters(t *testing.T, g *Gate, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return g.Waiting() == n }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
}

func TestNew_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
	assert.Equal(t, DefaultCapacity, New(-2).Capacity())
	assert.Equal(t, 7, New(7).Capacity())
}

func TestGate_ImmediateAcquire(t *testing.T) {
	g := New(2)
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx))
	require.NoError(t, g.Acquire(ctx))

	assert.Equal(t, 2, g.InUse())
	assert.Equal(t, 0, g.Available())
	assert.False(t, g.TryAcquire())

	g.Release()
	assert.Equal(t, 1, g.Available())
	assert.True(t, g.TryAcquire())
}

func TestGate_CapacityPlusOneSuspendsExactlyOne(t *testing.T) {
	const capacity = 3
	g := New(capacity)
	ctx := context.Background()

	acquired := make(chan int, capacity+1)
	for i := 0; i < capacity+1; i++ {
		go func(i int) {
			if err := g.Acquire(ctx); err == nil {
				acquired <- i
			}
		}(i)
	}

	for i := 0; i < capacity; i++ {
		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("expected immediate acquisitions up to capacity")
		}
	}

	waitForWaiters(t, g, 1)
	select {
	case <-acquired:
		t.Fatal("acquire beyond capacity must stay suspended")
	default:
	}
	assert.Equal(t, capacity, g.InUse())
	assert.Equal(t, 0, g.Available())

	g.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("release must wake the suspended acquire")
	}
	assert.Equal(t, 0, g.Waiting())
	assert.Equal(t, capacity, g.InUse())
}

func TestGate_ReleaseServesOldestWaiterFirst(t *testing.T) {
	g := New(1)
	ctx := context.Background()
	require.NoError(t, g.Acquire(ctx))

	order := make(chan string, 3)
	for i, name := range []string{"first", "second", "third"} {
		go func(name string) {
			if err := g.Acquire(ctx); err != nil {
				return
			}
			order <- name
		}(name)
		waitForWaiters(t, g, i+1)
	}

	for _, want := range []string{"first", "second", "third"} {
		g.Release()
		select {
		case got := <-order:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("waiter %s was not served", want)
		}
	}
	g.Release()
	assert.Equal(t, 1, g.Available())
}

func TestGate_InvariantUnderLoad(t *testing.T) {
	const capacity = 4
	g := New(capacity)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, g.Acquire(ctx)) {
				return
			}
			defer g.Release()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			assert.LessOrEqual(t, g.InUse(), capacity)
			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxSeen, capacity)
	assert.Equal(t, capacity, g.Available())
	assert.Equal(t, 0, g.InUse())
}

func TestGate_AcquireHonoursContext(t *testing.T) {
	g := New(1)
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, g.InUse())
	assert.Equal(t, 0, g.Waiting())
}

func TestGate_ReleaseWithoutAcquirePanics(t *testing.T) {
	g := New(1)
	assert.Panics(t, func() { g.Release() })
}
