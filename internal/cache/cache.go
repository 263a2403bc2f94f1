// Package cache holds the in-memory read cache and the mutation coordinator.
// Reads for the same key are coalesced into one gateway call; writes against
// the same entity are serialized in submission order through per-entity FIFO
// queues. There is no global lock.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Number of reads served from the cache",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Number of reads that required a gateway load",
	})
	cacheCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_coalesced_reads_total",
		Help: "Number of concurrent reads that shared another read's gateway load",
	})
	cacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_invalidations_total",
		Help: "Number of keys invalidated after successful mutations",
	})
	cacheRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_rollbacks_total",
		Help: "Number of optimistic cache edits rolled back after failed mutations",
	})
)

type entry struct {
	value    any
	storedAt time.Time
}

// entityQueue is the explicit waiter list of one entity. The head waiter owns
// the entity until it releases; later submissions park behind it in order.
type entityQueue struct {
	running bool
	waiters []chan struct{}
}

// Coordinator is the process-wide read cache and write serializer. One
// instance is constructed per process and cleared on operator logout.
type Coordinator struct {
	mu      sync.RWMutex
	entries map[string]entry
	// gens counts invalidations per key. A load that began before an
	// invalidation must not re-fill the key afterwards, or readers would be
	// served the pre-mutation value until the next write.
	gens map[string]uint64

	group singleflight.Group

	queueMu sync.Mutex
	queues  map[string]*entityQueue

	ttl    time.Duration
	logger *slog.Logger
}

// New creates a coordinator. A zero ttl means cached values never go stale on
// their own and only invalidation refreshes them.
func New(ttl time.Duration, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		entries: make(map[string]entry),
		gens:    make(map[string]uint64),
		queues:  make(map[string]*entityQueue),
		ttl:     ttl,
		logger:  logger,
	}
}

// GetOrLoad returns the cached value for key, or runs loader to fill it.
// Concurrent misses for the same key share a single loader call. Loader
// failures are not cached.
func (c *Coordinator) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if v, ok := c.get(key); ok {
		cacheHits.Inc()
		return v, nil
	}

	cacheMisses.Inc()
	v, err, shared := c.group.Do(key, func() (any, error) {
		// A mutation may have filled the key while this call waited its turn.
		if v, ok := c.get(key); ok {
			return v, nil
		}

		gen := c.generation(key)
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		// The value is still returned to the callers whose reads began
		// before any concurrent invalidation, but it must not stick: the
		// next read has to reload post-mutation state.
		c.setIfCurrent(key, v, gen)
		return v, nil
	})
	if shared {
		cacheCoalesced.Inc()
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Mutate runs op under the entity's FIFO queue. Ops for the same entity run
// one at a time in submission order; ops for different entities run freely in
// parallel. On success the given keys are invalidated; on failure the cache
// is left untouched. Once submitted, an op always runs, even if the caller's
// context has been abandoned in the meantime.
func (c *Coordinator) Mutate(ctx context.Context, entityID string, op func(context.Context) error, invalidate ...string) error {
	c.acquire(entityID)
	defer c.release(entityID)

	if err := op(ctx); err != nil {
		return err
	}

	c.Invalidate(invalidate...)
	return nil
}

// MutateOptimistic applies a provisional cache edit before running op, so
// readers see the outcome immediately (a deleted row disappears from its list
// without waiting for the store round trip). When op fails, the snapshot
// taken before the edit is restored. On success the provisional value stays;
// no reload is needed.
func (c *Coordinator) MutateOptimistic(ctx context.Context, entityID, key string, apply func(any) any, op func(context.Context) error) error {
	c.acquire(entityID)
	defer c.release(entityID)

	snapshot, hadValue := c.get(key)
	if hadValue {
		c.setEdited(key, apply(snapshot))
	}

	if err := op(ctx); err != nil {
		if hadValue {
			c.set(key, snapshot)
			cacheRollbacks.Inc()
			if c.logger != nil {
				c.logger.Warn("optimistic cache edit rolled back",
					slog.String("entity_id", entityID),
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
			}
		}
		return err
	}

	return nil
}

// Invalidate drops the given keys so the next read reloads them. A key
// ending in "*" drops every key with that prefix; filtered list views derive
// unbounded key sets, so their writers invalidate by prefix.
func (c *Coordinator) Invalidate(keys ...string) {
	if len(keys) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if prefix, ok := strings.CutSuffix(key, "*"); ok {
			for k := range c.entries {
				if strings.HasPrefix(k, prefix) {
					delete(c.entries, k)
					cacheInvalidations.Inc()
				}
			}
			// In-flight loads are registered in gens before their entry
			// exists; their fills must be rejected and their flights
			// forgotten so later readers start a fresh load instead of
			// coalescing onto pre-mutation data.
			for k := range c.gens {
				if strings.HasPrefix(k, prefix) {
					c.gens[k]++
					c.group.Forget(k)
				}
			}
			continue
		}
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			cacheInvalidations.Inc()
		}
		c.gens[key]++
		c.group.Forget(key)
	}
}

// Clear drops every cached value. Wired to operator logout.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	for k := range c.gens {
		c.gens[k]++
		c.group.Forget(k)
	}
}

// Len returns the number of cached keys.
func (c *Coordinator) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Coordinator) get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Since(e.storedAt) > c.ttl {
		return nil, false
	}
	return e.value, true
}

func (c *Coordinator) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, storedAt: time.Now()}
}

// generation registers the key and returns its current invalidation count.
// Registration makes the key visible to prefix invalidation while its first
// load is still in flight.
func (c *Coordinator) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.gens[key]; !ok {
		c.gens[key] = 0
	}
	return c.gens[key]
}

// setEdited stores an optimistic edit and bumps the key's generation in one
// step, so a load that began before the edit cannot overwrite it.
func (c *Coordinator) setEdited(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, storedAt: time.Now()}
	c.gens[key]++
}

// setIfCurrent stores the value unless the key was invalidated (or the cache
// cleared) after gen was taken.
func (c *Coordinator) setIfCurrent(key string, value any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		return
	}
	c.entries[key] = entry{value: value, storedAt: time.Now()}
}

// acquire joins the entity's queue and blocks until every earlier submission
// has released. The queue lock is only held while joining, never while
// waiting.
func (c *Coordinator) acquire(entityID string) {
	c.queueMu.Lock()
	q := c.queues[entityID]
	if q == nil {
		q = &entityQueue{}
		c.queues[entityID] = q
	}
	if !q.running {
		q.running = true
		c.queueMu.Unlock()
		return
	}
	wait := make(chan struct{})
	q.waiters = append(q.waiters, wait)
	c.queueMu.Unlock()

	<-wait
}

// release hands the entity to the next waiter in submission order, or removes
// the queue when nobody is waiting.
func (c *Coordinator) release(entityID string) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()

	q := c.queues[entityID]
	if q == nil {
		return
	}
	if len(q.waiters) == 0 {
		delete(c.queues, entityID)
		return
	}
	next := q.waiters[0]
	q.waiters = q.waiters[1:]
	close(next)
}
