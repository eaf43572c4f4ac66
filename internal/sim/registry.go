package sim

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrDuplicateRun = errors.New("run already registered")
	ErrUnknownRun   = errors.New("run not registered")
)

// Registry maps identity keys to the handles of their runs. One identity
// may have only one run at a time, since runs of the same identity would
// write the same files.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

func (r *Registry) Add(h *Handle) error {
	key := h.Identity.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.handles[key]; ok {
		return fmt.Errorf("%w: %s (run %s)", ErrDuplicateRun, h.Identity, prev.ID)
	}
	r.handles[key] = h
	return nil
}

func (r *Registry) Remove(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRun, key)
	}
	delete(r.handles, key)
	return nil
}

func (r *Registry) Get(key string) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, key)
	}
	return h, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.handles))
	for k := range r.handles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CancelAll cancels every registered run.
func (r *Registry) CancelAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.handles {
		h.Cancel()
	}
}
