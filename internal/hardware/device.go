package hardware

import (
	"sync"
	"time"
)

// Device is an output device driven by an update Thread.
type Device interface {
	// Name identifies the device in logs, instrumentation and the API.
	Name() string

	// Start opens the device before the first update.
	Start() error

	// Stop closes the device. The thread calls it once per run.
	Stop() error

	// Pause and Resume are propagated from the thread.
	Pause()
	Resume()

	// Update performs one full tick: combine, generate, write.
	Update() error

	// UpdateInterval is the target tick period.
	UpdateInterval() time.Duration

	// UpdateSignaler returns a custom inter-tick wait strategy, or nil for
	// the default fixed interval.
	UpdateSignaler() Signaler
}

// Engine supplies the per-tick execution snapshot. The returned samples
// are named timings used only for instrumentation.
type Engine interface {
	UpdateState() map[string]time.Duration
}

// Signaler blocks between ticks.
type Signaler interface {
	// Wait returns when the next tick is due or wake receives.
	Wait(interval time.Duration, wake <-chan struct{})
}

// IntervalSignaler paces ticks on a fixed grid. A tick that overruns the
// grid by more than one interval restarts the grid from now.
type IntervalSignaler struct {
	next time.Time
}

// Wait implements Signaler.
func (s *IntervalSignaler) Wait(interval time.Duration, wake <-chan struct{}) {
	now := time.Now()
	if s.next.IsZero() || now.Sub(s.next) > interval {
		s.next = now
	}
	s.next = s.next.Add(interval)

	d := s.next.Sub(now)
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-wake:
	}
}

// gate is a manual-reset event. Wait returns a channel that is closed while
// the gate is set.
type gate struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

func newGate(set bool) *gate {
	g := &gate{ch: make(chan struct{})}
	if set {
		close(g.ch)
		g.set = true
	}
	return g
}

// Set opens the gate, releasing every waiter.
func (g *gate) Set() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.set {
		close(g.ch)
		g.set = true
	}
}

// Reset closes the gate.
func (g *gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.set {
		g.ch = make(chan struct{})
		g.set = false
	}
}

// IsSet reports whether the gate is open.
func (g *gate) IsSet() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.set
}

// Wait returns a channel closed while the gate is set.
func (g *gate) Wait() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ch
}
