package hardware

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-show/internal/instrumentation"
)

// EventKind classifies a device lifecycle event.
type EventKind string

const (
	EventStarted EventKind = "started"
	EventStopped EventKind = "stopped"
	EventFault   EventKind = "fault"
	EventTimeout EventKind = "timeout"
)

// Event reports a lifecycle change of a managed device.
type Event struct {
	Device string
	Kind   EventKind
	Err    error
	At     time.Time
}

// maxParallelStops bounds how many devices StopAll stops at once.
const maxParallelStops = 16

// Manager owns one update thread per output device.
//
// Thread Safety: all methods are safe for concurrent use.
type Manager struct {
	engine   Engine
	registry *instrumentation.Registry
	cfg      Config
	logger   Logger

	mu        sync.RWMutex
	threads   map[string]*Thread
	order     []string
	observers []func(Event)
}

// NewManager creates a manager. engine and registry may be nil.
func NewManager(engine Engine, registry *instrumentation.Registry, cfg Config) *Manager {
	return &Manager{
		engine:   engine,
		registry: registry,
		cfg:      cfg.withDefaults(),
		logger:   noopLogger{},
		threads:  make(map[string]*Thread),
	}
}

// SetLogger sets the logger for the manager and the threads it creates.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Subscribe registers fn for lifecycle events. fn must not block.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *Manager) emit(name string, kind EventKind, err error) {
	m.mu.RLock()
	observers := slices.Clone(m.observers)
	m.mu.RUnlock()

	ev := Event{Device: name, Kind: kind, Err: err, At: time.Now().UTC()}
	for _, fn := range observers {
		fn(ev)
	}
}

// Add creates a thread for device.
func (m *Manager) Add(device Device) (*Thread, error) {
	name := device.Name()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.threads[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceExists, name)
	}

	t := NewThread(device, m.engine, m.registry, m.cfg)
	t.SetLogger(m.logger)
	t.OnError(func(err error) {
		m.emit(name, EventFault, err)
	})
	m.threads[name] = t
	m.order = append(m.order, name)
	return t, nil
}

// Thread returns the thread for a device name.
func (m *Manager) Thread(name string) (*Thread, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.threads[name]
	return t, ok
}

// Threads returns every thread in the order added.
func (m *Manager) Threads() []*Thread {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Thread, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.threads[name])
	}
	return out
}

// StartAll starts every stopped thread. Devices that fail to start are
// reported in the joined error; the others keep running.
func (m *Manager) StartAll() error {
	var errs []error
	for _, t := range m.Threads() {
		if t.State() != StateStopped {
			continue
		}
		if err := t.Start(); err != nil {
			m.logger.Error("failed to start device", "device", t.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		m.emit(t.Name(), EventStarted, nil)
	}
	return errors.Join(errs...)
}

// Pause pauses one device.
func (m *Manager) Pause(name string) error {
	t, ok := m.Thread(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	t.Pause()
	return nil
}

// Resume resumes one device.
func (m *Manager) Resume(name string) error {
	t, ok := m.Thread(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	t.Resume()
	return nil
}

// PauseAll pauses every device.
func (m *Manager) PauseAll() {
	for _, t := range m.Threads() {
		t.Pause()
	}
}

// ResumeAll resumes every device.
func (m *Manager) ResumeAll() {
	for _, t := range m.Threads() {
		t.Resume()
	}
}

// StopAll stops every running thread in parallel and waits for each to
// finish. Threads already stopped are skipped. Timeouts and stop failures
// are joined into the returned error.
func (m *Manager) StopAll() error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(maxParallelStops)

	for _, t := range m.Threads() {
		g.Go(func() error {
			err := m.stop(t)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (m *Manager) stop(t *Thread) error {
	if t.State() != StateStarted {
		return nil
	}
	stopErr := t.Stop()
	if errors.Is(stopErr, ErrInvalidState) {
		// Faulted between the state check and Stop.
		return nil
	}
	if err := t.WaitForFinish(); err != nil {
		m.logger.Error("device did not stop", "device", t.Name(), "error", err)
		m.emit(t.Name(), EventTimeout, err)
		return errors.Join(stopErr, err)
	}
	m.emit(t.Name(), EventStopped, stopErr)
	return stopErr
}

// Stats returns a snapshot of every thread.
func (m *Manager) Stats() []Stats {
	threads := m.Threads()
	out := make([]Stats, 0, len(threads))
	for _, t := range threads {
		out = append(out, t.Stats())
	}
	return out
}
