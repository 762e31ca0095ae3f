package instrumentation

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Value is a named reading.
type Value interface {
	Name() string
	Unit() string
	Value() float64
}

// MillisecondsValue holds the last duration set, in milliseconds.
type MillisecondsValue struct {
	name string
	ns   atomic.Int64
}

// NewMillisecondsValue creates a milliseconds value.
func NewMillisecondsValue(name string) *MillisecondsValue {
	return &MillisecondsValue{name: name}
}

// Name implements Value.
func (v *MillisecondsValue) Name() string { return v.name }

// Unit implements Value.
func (v *MillisecondsValue) Unit() string { return "ms" }

// Set records d.
func (v *MillisecondsValue) Set(d time.Duration) {
	v.ns.Store(int64(d))
}

// Value implements Value.
func (v *MillisecondsValue) Value() float64 {
	return float64(v.ns.Load()) / float64(time.Millisecond)
}

// Counter is a monotonically increasing count.
type Counter struct {
	name string
	n    atomic.Int64
}

// NewCounter creates a counter.
func NewCounter(name string) *Counter {
	return &Counter{name: name}
}

// Name implements Value.
func (c *Counter) Name() string { return c.name }

// Unit implements Value.
func (c *Counter) Unit() string { return "count" }

// Increment adds one.
func (c *Counter) Increment() { c.n.Add(1) }

// Count returns the current count.
func (c *Counter) Count() int64 { return c.n.Load() }

// Value implements Value.
func (c *Counter) Value() float64 { return float64(c.n.Load()) }

// minRateWindow is the shortest window a refresh rate is computed over.
const minRateWindow = time.Second

// RefreshRateValue counts updates and reports them per second.
type RefreshRateValue struct {
	name string
	now  func() time.Time
	n    atomic.Int64

	mu       sync.Mutex
	lastAt   time.Time
	lastN    int64
	lastRate float64
}

// NewRefreshRateValue creates a refresh rate value.
func NewRefreshRateValue(name string) *RefreshRateValue {
	return &RefreshRateValue{name: name, now: time.Now, lastAt: time.Now()}
}

// Name implements Value.
func (r *RefreshRateValue) Name() string { return r.name }

// Unit implements Value.
func (r *RefreshRateValue) Unit() string { return "Hz" }

// Increment records one update.
func (r *RefreshRateValue) Increment() { r.n.Add(1) }

// Value returns the update rate measured over the last window of at least
// one second. Between windows the previous rate is returned.
func (r *RefreshRateValue) Value() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	elapsed := now.Sub(r.lastAt)
	if elapsed < minRateWindow {
		return r.lastRate
	}
	n := r.n.Load()
	r.lastRate = math.Round(float64(n-r.lastN)/elapsed.Seconds()*100) / 100
	r.lastAt, r.lastN = now, n
	return r.lastRate
}
