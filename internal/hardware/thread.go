package hardware

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-show/internal/instrumentation"
)

// State is the execution state of an update thread.
type State int32

const (
	StateStopped State = iota
	StateStarted
	StateStopping
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarted:
		return "started"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Default timing limits.
const (
	DefaultJitterThreshold = 10 * time.Millisecond
	DefaultStopTimeout     = 4 * time.Second
)

// Config tunes an update thread.
type Config struct {
	// JitterThreshold is how far a tick may drift from the device's update
	// interval before it is logged as jitter.
	JitterThreshold time.Duration

	// StopTimeout bounds WaitForFinish.
	StopTimeout time.Duration
}

// DefaultConfig returns the default thread configuration.
func DefaultConfig() Config {
	return Config{
		JitterThreshold: DefaultJitterThreshold,
		StopTimeout:     DefaultStopTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.JitterThreshold <= 0 {
		c.JitterThreshold = DefaultJitterThreshold
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	return c
}

// Logger defines the logging interface for update threads.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// perfValues are the instrumentation values of one run.
type perfValues struct {
	refresh *instrumentation.RefreshRateValue
	sleep   *instrumentation.MillisecondsValue
	delta   *instrumentation.MillisecondsValue
	system  *instrumentation.MillisecondsValue
	update  *instrumentation.MillisecondsValue
}

func newPerfValues(device string) *perfValues {
	return &perfValues{
		refresh: instrumentation.NewRefreshRateValue(fmt.Sprintf("Output device refresh rate [%s]", device)),
		sleep:   instrumentation.NewMillisecondsValue(fmt.Sprintf("Output device sleep time [%s]", device)),
		delta:   instrumentation.NewMillisecondsValue(fmt.Sprintf("Output device delta time [%s]", device)),
		system:  instrumentation.NewMillisecondsValue(fmt.Sprintf("Output device system time [%s]", device)),
		update:  instrumentation.NewMillisecondsValue(fmt.Sprintf("Output device update time [%s]", device)),
	}
}

func (p *perfValues) all() []instrumentation.Value {
	return []instrumentation.Value{p.refresh, p.sleep, p.delta, p.system, p.update}
}

// Stats is a point-in-time view of a thread.
type Stats struct {
	Name      string        `json:"name"`
	State     string        `json:"state"`
	Paused    bool          `json:"paused"`
	Interval  time.Duration `json:"interval"`
	Uptime    time.Duration `json:"uptime,omitempty"`
	Ticks     int64         `json:"ticks"`
	Jitter    int64         `json:"jitter_events"`
	LastError string        `json:"last_error,omitempty"`
}

// Thread runs one device's update loop on its own goroutine.
//
// Thread Safety: all methods are safe for concurrent use. A stopped thread
// can be started again once WaitForFinish has returned.
type Thread struct {
	device   Device
	engine   Engine
	registry *instrumentation.Registry
	cfg      Config
	logger   Logger

	state  atomic.Int32
	ticks  atomic.Int64
	jitter atomic.Int64
	wake   chan struct{}
	pause  *gate

	mu        sync.Mutex
	finished  *gate
	values    *perfValues
	startedAt time.Time
	lastErr   error
	onError   []func(error)
}

// NewThread creates a stopped thread for device. engine and registry may be
// nil.
func NewThread(device Device, engine Engine, registry *instrumentation.Registry, cfg Config) *Thread {
	return &Thread{
		device:   device,
		engine:   engine,
		registry: registry,
		cfg:      cfg.withDefaults(),
		logger:   noopLogger{},
		wake:     make(chan struct{}, 1),
		pause:    newGate(true),
		finished: newGate(true),
	}
}

// SetLogger sets the logger for the thread.
func (t *Thread) SetLogger(logger Logger) {
	t.logger = logger
}

// OnError registers fn to be called when the loop stops on a fault. It runs
// on the update goroutine after the thread has reached StateStopped.
func (t *Thread) OnError(fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onError = append(t.onError, fn)
}

// Device returns the driven device.
func (t *Thread) Device() Device { return t.device }

// Name returns the device name.
func (t *Thread) Name() string { return t.device.Name() }

// State returns the current execution state.
func (t *Thread) State() State { return State(t.state.Load()) }

// Paused reports whether the pause gate is closed.
func (t *Thread) Paused() bool { return !t.pause.IsSet() }

// LastError returns the fault that last stopped the loop.
func (t *Thread) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Start starts the device and launches the update loop. Only valid when
// stopped.
func (t *Thread) Start() error {
	if !t.state.CompareAndSwap(int32(StateStopped), int32(StateStarted)) {
		return fmt.Errorf("%w: cannot start %s while %s", ErrInvalidState, t.Name(), t.State())
	}
	if err := t.device.Start(); err != nil {
		t.state.Store(int32(StateStopped))
		return fmt.Errorf("starting %s: %w", t.Name(), err)
	}

	done := newGate(false)
	select {
	case <-t.wake:
	default:
	}

	values := newPerfValues(t.Name())
	for _, v := range values.all() {
		t.registry.Add(v)
	}

	signaler := t.device.UpdateSignaler()
	if signaler == nil {
		signaler = &IntervalSignaler{}
	}

	start := time.Now()
	t.mu.Lock()
	t.finished = done
	t.values = values
	t.startedAt = start
	t.lastErr = nil
	t.mu.Unlock()

	t.logger.Info("update thread started", "device", t.Name(), "interval", t.device.UpdateInterval())
	go t.run(start, signaler, values, done)
	return nil
}

// Stop asks the loop to exit, waking it from the inter-tick wait and the
// pause gate, and stops the device. Only valid when started. Use
// WaitForFinish to wait for the loop itself.
func (t *Thread) Stop() error {
	if !t.state.CompareAndSwap(int32(StateStarted), int32(StateStopping)) {
		return fmt.Errorf("%w: cannot stop %s while %s", ErrInvalidState, t.Name(), t.State())
	}
	select {
	case t.wake <- struct{}{}:
	default:
	}
	t.Resume()
	t.removeValues()

	t.logger.Info("update thread stopping", "device", t.Name())
	if err := t.device.Stop(); err != nil {
		return fmt.Errorf("stopping %s: %w", t.Name(), err)
	}
	return nil
}

// Pause gates the loop before its next tick and pauses the device.
func (t *Thread) Pause() {
	t.device.Pause()
	t.pause.Reset()
}

// Resume opens the pause gate and resumes the device.
func (t *Thread) Resume() {
	t.device.Resume()
	t.pause.Set()
}

// WaitForFinish blocks until the loop has stopped. It returns
// ErrStopTimeout if that takes longer than the configured stop timeout.
func (t *Thread) WaitForFinish() error {
	t.mu.Lock()
	done := t.finished
	t.mu.Unlock()

	timer := time.NewTimer(t.cfg.StopTimeout)
	defer timer.Stop()

	select {
	case <-done.Wait():
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s did not stop within %v", ErrStopTimeout, t.Name(), t.cfg.StopTimeout)
	}
}

// Stats returns a snapshot of the thread.
func (t *Thread) Stats() Stats {
	t.mu.Lock()
	startedAt, lastErr := t.startedAt, t.lastErr
	t.mu.Unlock()

	s := Stats{
		Name:     t.Name(),
		State:    t.State().String(),
		Paused:   t.Paused(),
		Interval: t.device.UpdateInterval(),
		Ticks:    t.ticks.Load(),
		Jitter:   t.jitter.Load(),
	}
	if t.State() == StateStarted {
		s.Uptime = time.Since(startedAt)
	}
	if lastErr != nil {
		s.LastError = lastErr.Error()
	}
	return s
}

func (t *Thread) removeValues() {
	t.mu.Lock()
	values := t.values
	t.values = nil
	t.mu.Unlock()

	if values == nil {
		return
	}
	for _, v := range values.all() {
		t.registry.Remove(v)
	}
}

// run is the update loop.
func (t *Thread) run(start time.Time, signaler Signaler, v *perfValues, done *gate) {
	defer func() {
		if r := recover(); r != nil {
			t.fault(fmt.Errorf("%w: %s: panic: %v", ErrDeviceFault, t.Name(), r), done)
		}
	}()

	interval := t.device.UpdateInterval()
	var last, lastSample time.Duration
	first := true

	for t.State() != StateStopping {
		now := time.Since(start)
		dt := now - last
		last = now

		var samples map[string]time.Duration
		if t.engine != nil {
			samples = t.engine.UpdateState()
		}
		exec := time.Since(start) - now

		v.refresh.Increment()
		before := time.Since(start)
		if err := t.device.Update(); err != nil {
			// Stop closes the device under a tick that is still running.
			if t.State() == StateStopping {
				t.logger.Debug("update failed while stopping", "device", t.Name(), "error", err)
				break
			}
			t.fault(fmt.Errorf("%w: %s: %w", ErrDeviceFault, t.Name(), err), done)
			return
		}
		out := time.Since(start) - before
		t.ticks.Add(1)

		delta := absDuration(interval - dt)
		v.update.Set(out)
		v.delta.Set(delta)
		v.system.Set(time.Since(start) - now)

		if !first {
			t.checkJitter(now, dt, exec, out, delta, samples, &lastSample, interval)
		}
		first = false

		waitStart := time.Now()
		signaler.Wait(interval, t.wake)
		v.sleep.Set(time.Since(waitStart))

		<-t.pause.Wait()
	}

	t.state.Store(int32(StateStopped))
	done.Set()
	t.logger.Info("update thread stopped", "device", t.Name())
}

// checkJitter logs ticks, and execution samples, that drifted from the
// update interval by more than the jitter threshold.
func (t *Thread) checkJitter(now, dt, exec, out, delta time.Duration, samples map[string]time.Duration, lastSample *time.Duration, interval time.Duration) {
	jitter := false
	if delta > t.cfg.JitterThreshold {
		jitter = true
		t.logger.Debug("hwt jitter", "device", t.Name(), "now_ms", now.Milliseconds(), "dt_ms", dt.Milliseconds())
	}

	names := make([]string, 0, len(samples))
	var sample time.Duration
	for name, d := range samples {
		if strings.Contains(name, "System") {
			continue
		}
		names = append(names, fmt.Sprintf("%s:%d", name, d.Milliseconds()))
		sample = max(sample, d)
	}
	slices.Sort(names)

	var dtSample time.Duration
	if sample > 0 {
		dtSample = sample - *lastSample
		*lastSample = sample
		if dtSample > 0 && absDuration(interval-dtSample) > t.cfg.JitterThreshold {
			jitter = true
			t.logger.Debug("samp jitter", "device", t.Name(), "samp_ms", sample.Milliseconds(), "dts_ms", dtSample.Milliseconds())
		}
	}

	if jitter {
		t.jitter.Add(1)
		t.logger.Debug("tick timing",
			"device", t.Name(),
			"now_ms", now.Milliseconds(),
			"dt_ms", dt.Milliseconds(),
			"exec_ms", exec.Milliseconds(),
			"out_ms", out.Milliseconds(),
			"samples", strings.Join(names, " "),
			"dts_ms", dtSample.Milliseconds(),
		)
	}
}

// fault ends the loop after an error. The thread is marked stopped and the
// finished gate released before observers are told, so an observer may
// safely stop or restart the thread.
func (t *Thread) fault(err error, done *gate) {
	t.mu.Lock()
	t.lastErr = err
	handlers := slices.Clone(t.onError)
	t.mu.Unlock()

	prev := State(t.state.Swap(int32(StateStopped)))
	done.Set()

	t.logger.Error("device update failed", "device", t.Name(), "error", err)

	if prev == StateStarted {
		t.removeValues()
		if stopErr := t.device.Stop(); stopErr != nil {
			t.logger.Warn("stopping faulted device", "device", t.Name(), "error", stopErr)
		}
	}

	for _, h := range handlers {
		h(err)
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
