package instrumentation

import (
	"slices"
	"sync"
)

// Sample is a point-in-time reading of one value.
type Sample struct {
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

// Registry is a thread-safe set of values keyed by name.
type Registry struct {
	mu     sync.RWMutex
	values map[string]Value
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{values: make(map[string]Value)}
}

// Add registers v, replacing any value with the same name.
func (r *Registry) Add(v Value) {
	if r == nil || v == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.values[v.Name()]; !ok {
		r.order = append(r.order, v.Name())
	}
	r.values[v.Name()] = v
}

// Remove unregisters v if it is the value registered under its name.
func (r *Registry) Remove(v Value) {
	if r == nil || v == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.values[v.Name()]; !ok || cur != v {
		return
	}
	delete(r.values, v.Name())
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == v.Name() })
}

// Len returns the number of registered values.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}

// Snapshot reads every value in registration order.
func (r *Registry) Snapshot() []Sample {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	values := make([]Value, 0, len(r.order))
	for _, name := range r.order {
		values = append(values, r.values[name])
	}
	r.mu.RUnlock()

	out := make([]Sample, 0, len(values))
	for _, v := range values {
		out = append(out, Sample{Name: v.Name(), Unit: v.Unit(), Value: v.Value()})
	}
	return out
}
