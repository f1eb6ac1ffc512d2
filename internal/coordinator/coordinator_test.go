package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestExecuteDeduplicatesConcurrentKeys(t *testing.T) {
	t.Parallel()

	// BurstTTL also covers goroutines scheduled after the shared call ends.
	coord := New(zerolog.Nop(), Options{Limit: 4, MaxQueue: 64, BurstTTL: time.Minute})

	var calls atomic.Int32
	release := make(chan struct{})
	work := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "done", nil
	}

	const n = 16
	var wg sync.WaitGroup
	results := make([]any, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = coord.Execute(context.Background(), "same-key", work)
		}(i)
	}

	// Wait for the single execution to be in flight before releasing it.
	deadline := time.After(2 * time.Second)
	for coord.InFlight() == 0 {
		select {
		case <-deadline:
			t.Fatalf("execution never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 underlying call, got %d", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i] != "done" {
			t.Fatalf("caller %d got %v", i, results[i])
		}
	}
}

func TestExecuteBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const limit = 3
	coord := New(zerolog.Nop(), Options{Limit: limit, MaxQueue: 64})

	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	work := func(context.Context) (any, error) {
		current := inFlight.Add(1)
		for {
			old := peak.Load()
			if current <= old || peak.CompareAndSwap(old, current) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return nil, nil
	}

	const n = 12
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := coord.Execute(context.Background(), "key-"+string(rune('a'+i)), work); err != nil {
				t.Errorf("execute: %v", err)
			}
		}(i)
	}

	deadline := time.After(2 * time.Second)
	for coord.QueueLen() < n-limit {
		select {
		case <-deadline:
			t.Fatalf("queue never filled: %d", coord.QueueLen())
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(release)
	wg.Wait()

	if got := peak.Load(); got > limit {
		t.Fatalf("concurrency bound violated: peak %d > limit %d", got, limit)
	}
}

func TestExecuteAdmitsQueuedKeysInFIFOOrder(t *testing.T) {
	t.Parallel()

	coord := New(zerolog.Nop(), Options{Limit: 1, MaxQueue: 8})

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = coord.Execute(context.Background(), "holder", func(context.Context) (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	var mu sync.Mutex
	var order []string
	var wg sync.WaitGroup
	keys := []string{"k1", "k2", "k3", "k4"}
	for i, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if _, err := coord.Execute(context.Background(), key, func(context.Context) (any, error) {
				mu.Lock()
				order = append(order, key)
				mu.Unlock()
				return nil, nil
			}); err != nil {
				t.Errorf("execute %s: %v", key, err)
			}
		}(key)

		// Each caller must be queued before the next launches so the enqueue
		// order is known.
		deadline := time.After(2 * time.Second)
		for coord.QueueLen() != i+1 {
			select {
			case <-deadline:
				t.Fatalf("caller %d never queued", i)
			default:
				time.Sleep(time.Millisecond)
			}
		}
	}

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != len(keys) {
		t.Fatalf("unexpected completion count: %d", len(order))
	}
	for i, key := range keys {
		if order[i] != key {
			t.Fatalf("admission order diverged from enqueue order: %v", order)
		}
	}
}

func TestExecuteRejectsWhenQueueFull(t *testing.T) {
	t.Parallel()

	coord := New(zerolog.Nop(), Options{Limit: 1, MaxQueue: 1})

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = coord.Execute(context.Background(), "a", func(context.Context) (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	queued := make(chan error, 1)
	go func() {
		_, err := coord.Execute(context.Background(), "b", func(context.Context) (any, error) { return nil, nil })
		queued <- err
	}()

	deadline := time.After(2 * time.Second)
	for coord.QueueLen() != 1 {
		select {
		case <-deadline:
			t.Fatalf("waiter never queued")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := coord.Execute(context.Background(), "c", func(context.Context) (any, error) { return nil, nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	close(release)
	if err := <-queued; err != nil {
		t.Fatalf("queued caller failed: %v", err)
	}
}

func TestExecuteServesBurstFromShortCache(t *testing.T) {
	t.Parallel()

	coord := New(zerolog.Nop(), Options{Limit: 2, MaxQueue: 8, BurstTTL: time.Minute})

	var calls atomic.Int32
	work := func(context.Context) (any, error) {
		calls.Add(1)
		return "v", nil
	}

	for i := 0; i < 5; i++ {
		val, err := coord.Execute(context.Background(), "k", work)
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		if val != "v" {
			t.Fatalf("unexpected value %v", val)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected burst cache to absorb repeats, got %d calls", got)
	}

	coord.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := coord.Execute(context.Background(), "k", work); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected expired burst entry to trigger a new call, got %d", got)
	}
}

func TestExecuteQueuedCallerHonorsCancellation(t *testing.T) {
	t.Parallel()

	coord := New(zerolog.Nop(), Options{Limit: 1, MaxQueue: 4})

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = coord.Execute(context.Background(), "a", func(context.Context) (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := coord.Execute(ctx, "b", func(context.Context) (any, error) { return nil, nil })
		errCh <- err
	}()

	deadline := time.After(2 * time.Second)
	for coord.QueueLen() != 1 {
		select {
		case <-deadline:
			t.Fatalf("waiter never queued")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("queued caller did not observe cancellation")
	}

	close(release)
}

func TestSweepDropsExpiredBurstEntries(t *testing.T) {
	t.Parallel()

	coord := New(zerolog.Nop(), Options{Limit: 1, MaxQueue: 1, BurstTTL: time.Millisecond})
	if _, err := coord.Execute(context.Background(), "k", func(context.Context) (any, error) { return "v", nil }); err != nil {
		t.Fatalf("execute: %v", err)
	}

	coord.now = func() time.Time { return time.Now().Add(time.Second) }
	coord.Sweep()

	coord.mu.Lock()
	remaining := len(coord.burst)
	coord.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected burst cache to be swept, %d entries remain", remaining)
	}
}
