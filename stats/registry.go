package stats

import (
	"hash/fnv"
	"sync"

	"listalloc/alloc"
)

// shard is one bucket of a Registry: its own map plus its own lock,
// the same per-bucket RWMutex internal/index/sharded.go uses so
// concurrent callers tracking many children don't serialize on one
// lock.
type shard struct {
	mu       sync.RWMutex
	children map[string]*Child
}

// Registry tracks every Child created through a factory wrapped with
// RegisteredFactory, sharded by a hash of the child's id.
type Registry struct {
	shards []shard
}

// NewRegistry creates a Registry with shardCount buckets (at least 1).
func NewRegistry(shardCount int) *Registry {
	if shardCount <= 0 {
		shardCount = 1
	}
	shards := make([]shard, shardCount)
	for i := range shards {
		shards[i].children = make(map[string]*Child)
	}
	return &Registry{shards: shards}
}

func (r *Registry) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &r.shards[h.Sum32()%uint32(len(r.shards))]
}

func (r *Registry) register(c *Child) {
	sh := r.shardFor(c.ID)
	sh.mu.Lock()
	sh.children[c.ID] = c
	sh.mu.Unlock()
}

// Get looks up a tracked Child by id.
func (r *Registry) Get(id string) (*Child, bool) {
	sh := r.shardFor(id)
	sh.mu.RLock()
	c, ok := sh.children[id]
	sh.mu.RUnlock()
	return c, ok
}

// Each calls fn once per tracked Child. fn must not register further
// children with this Registry.
func (r *Registry) Each(fn func(*Child)) {
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		for _, c := range sh.children {
			fn(c)
		}
		sh.mu.RUnlock()
	}
}

// Len returns the number of children currently tracked.
func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		n += len(sh.children)
		sh.mu.RUnlock()
	}
	return n
}

// RegisteredFactory decorates every child factory produces with a
// Child and records it in reg, so a caller can later enumerate every
// child a List has ever created without the List exposing its
// internal slot array.
func RegisteredFactory(factory alloc.Factory, reg *Registry) alloc.Factory {
	return func(n int) (alloc.Allocator, bool) {
		inner, ok := factory(n)
		if !ok {
			return nil, false
		}
		c := Wrap(inner)
		reg.register(c)
		return c, true
	}
}
