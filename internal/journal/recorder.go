package journal

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-show/internal/execution"
	"github.com/nerrad567/gray-logic-show/internal/hardware"
)

const (
	defaultQueueSize = 256
	drainTimeout     = 2 * time.Second
)

// Logger defines the logging interface for the recorder.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// entry holds exactly one of its fields.
type entry struct {
	device *DeviceEvent
	live   *LiveIntent
}

// Recorder writes device events and scheduled live intents to a Repository
// from its own goroutine. The observe methods never block: when the queue
// is full the entry is dropped and counted.
type Recorder struct {
	repo    Repository
	logger  Logger
	queue   chan entry
	dropped atomic.Uint64
}

// NewRecorder creates a recorder. A non-positive size selects 256.
func NewRecorder(repo Repository, size int) *Recorder {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Recorder{repo: repo, logger: noopLogger{}, queue: make(chan entry, size)}
}

// SetLogger sets the logger for write failures.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// ObserveDevice queues a hardware lifecycle event. Pass it to
// (*hardware.Manager).Subscribe.
func (r *Recorder) ObserveDevice(ev hardware.Event) {
	de := &DeviceEvent{Device: ev.Device, Kind: string(ev.Kind), OccurredAt: ev.At}
	if ev.Err != nil {
		de.Message = ev.Err.Error()
	}
	r.enqueue(entry{device: de})
}

// ObserveEffect queues a scheduled effect. Pass it to
// (*execution.Playback).Subscribe.
func (r *Recorder) ObserveEffect(info execution.EffectInfo) {
	r.enqueue(entry{live: &LiveIntent{
		EffectID: info.ID.String(),
		Name:     info.Name,
		Layer:    int(info.Layer),
		Channels: info.Channels,
	}})
}

func (r *Recorder) enqueue(e entry) {
	select {
	case r.queue <- e:
	default:
		if r.dropped.Add(1) == 1 {
			r.logger.Warn("journal entry dropped", "error", ErrQueueFull)
		}
	}
}

// Dropped returns how many entries were discarded because the queue was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Run writes queued entries until ctx is cancelled, then drains what is
// left for up to two seconds.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case e := <-r.queue:
			r.write(ctx, e)
		case <-ctx.Done():
			r.drain()
			return
		}
	}
}

func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case e := <-r.queue:
			r.write(ctx, e)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, e entry) {
	var err error
	switch {
	case e.device != nil:
		err = r.repo.RecordDeviceEvent(ctx, e.device)
	case e.live != nil:
		err = r.repo.RecordLiveIntent(ctx, e.live)
	}
	if err != nil {
		r.logger.Error("journal write failed", "error", err)
	}
}
