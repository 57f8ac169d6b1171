package session

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Factory creates the orchestrator for a new session key.
type Factory func(key string) *Orchestrator

// Registry keeps one orchestrator per session key, evicting the least
// recently used sessions beyond its capacity.
type Registry struct {
	mu      sync.Mutex
	cache   *lru.Cache[string, *Orchestrator]
	factory Factory
}

// NewRegistry creates a Registry holding at most capacity sessions.
func NewRegistry(capacity int, factory Factory) (*Registry, error) {
	cache, err := lru.New[string, *Orchestrator](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &Registry{cache: cache, factory: factory}, nil
}

// Get returns the orchestrator for key, creating it on first use.
func (r *Registry) Get(key string) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.cache.Get(key); ok {
		return o
	}
	o := r.factory(key)
	r.cache.Add(key, o)
	return o
}

// Lookup returns the orchestrator for key without creating one.
func (r *Registry) Lookup(key string) (*Orchestrator, bool) {
	return r.cache.Peek(key)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.cache.Len()
}
