// Package coordinator bounds concurrent provider calls and collapses
// identical in-flight requests into a single execution.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when the overflow queue is at capacity. Callers
// may retry; the coordinator never queues unboundedly.
var ErrQueueFull = errors.New("translation queue is full")

// call is one in-flight execution shared by every caller of the same key.
type call struct {
	done chan struct{}
	val  any
	err  error
}

type burstEntry struct {
	val       any
	expiresAt time.Time
}

// Options tunes the coordinator. Zero values fall back to defaults.
type Options struct {
	// Limit bounds simultaneous live executions across all keys.
	Limit int
	// MaxQueue bounds callers waiting for an execution slot.
	MaxQueue int
	// BurstTTL keeps recent results around to absorb identical requests
	// fired within the same interaction. Distinct from the cache store TTL.
	BurstTTL time.Duration
}

// Coordinator admits work under a concurrency limit with a FIFO overflow
// queue, deduplicates concurrent identical keys, and serves bursts of the
// same key from a short-lived result cache.
type Coordinator struct {
	limit    int
	maxQueue int
	burstTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	running int
	waiters []chan struct{}
	pending map[string]*call
	burst   map[string]burstEntry
}

func New(logger zerolog.Logger, opts Options) *Coordinator {
	limit := opts.Limit
	if limit < 1 {
		limit = 4
	}
	maxQueue := opts.MaxQueue
	if maxQueue < 1 {
		maxQueue = 256
	}
	burstTTL := opts.BurstTTL
	if burstTTL < 0 {
		burstTTL = 0
	}

	return &Coordinator{
		limit:    limit,
		maxQueue: maxQueue,
		burstTTL: burstTTL,
		logger:   logger,
		now:      time.Now,
		pending:  make(map[string]*call),
		burst:    make(map[string]burstEntry),
	}
}

// Execute runs work for key at most once across concurrent callers. The
// result fans out to every waiting caller. Queued-but-not-started work is
// abandoned when ctx is done; a started execution runs to completion even if
// the initiating caller gives up, so late duplicates still get the result.
func (c *Coordinator) Execute(ctx context.Context, key string, work func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()

	if entry, ok := c.burst[key]; ok {
		if c.now().Before(entry.expiresAt) {
			c.mu.Unlock()
			return entry.val, nil
		}
		delete(c.burst, key)
	}

	if inflight, ok := c.pending[key]; ok {
		c.mu.Unlock()
		select {
		case <-inflight.done:
			return inflight.val, inflight.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	cl := &call{done: make(chan struct{})}
	c.pending[key] = cl
	c.mu.Unlock()

	if err := c.acquire(ctx); err != nil {
		c.finish(key, cl, nil, err)
		return nil, err
	}
	defer c.release()

	// The execution is detached from the initiating caller's cancellation;
	// work applies its own timeouts.
	val, err := work(context.WithoutCancel(ctx))
	c.finish(key, cl, val, err)
	return val, err
}

// InFlight reports the number of live executions.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// QueueLen reports the number of callers waiting for a slot.
func (c *Coordinator) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Sweep drops expired burst entries; run periodically off the request path.
func (c *Coordinator) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.burst {
		if !now.Before(entry.expiresAt) {
			delete(c.burst, key)
		}
	}
}

func (c *Coordinator) finish(key string, cl *call, val any, err error) {
	c.mu.Lock()
	cl.val = val
	cl.err = err
	delete(c.pending, key)
	if err == nil && c.burstTTL > 0 {
		c.burst[key] = burstEntry{val: val, expiresAt: c.now().Add(c.burstTTL)}
	}
	c.mu.Unlock()
	close(cl.done)
}

func (c *Coordinator) acquire(ctx context.Context) error {
	c.mu.Lock()
	if c.running < c.limit {
		c.running++
		c.mu.Unlock()
		return nil
	}
	if len(c.waiters) >= c.maxQueue {
		c.mu.Unlock()
		return ErrQueueFull
	}

	ready := make(chan struct{})
	c.waiters = append(c.waiters, ready)
	c.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		for i, w := range c.waiters {
			if w == ready {
				c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
				c.mu.Unlock()
				return ctx.Err()
			}
		}
		c.mu.Unlock()
		// The slot was granted concurrently with cancellation; hand it on.
		c.release()
		return ctx.Err()
	}
}

func (c *Coordinator) release() {
	c.mu.Lock()
	if len(c.waiters) > 0 {
		ready := c.waiters[0]
		c.waiters = c.waiters[1:]
		c.mu.Unlock()
		close(ready)
		return
	}
	c.running--
	c.mu.Unlock()
}
