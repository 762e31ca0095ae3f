package execution

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-show/internal/instrumentation"
	"github.com/nerrad567/gray-logic-show/internal/intent"
)

// Timing sample names returned by UpdateState.
const (
	SamplePosition = "Playback position"
	SampleSystem   = "System clock"
)

// Effect is a set of channel intents scheduled on one layer.
type Effect struct {
	ID      uuid.UUID
	Name    string
	Intents intent.ChannelIntents
	Layer   byte

	// Start is the playback position at which the effect begins.
	Start time.Duration
}

// end is the playback position after which no node of the effect is active.
func (e *Effect) end() time.Duration {
	var span time.Duration
	for _, n := range e.Intents {
		span = max(span, n.EndTime())
	}
	return e.Start + span
}

// EffectInfo describes a scheduled effect.
type EffectInfo struct {
	ID       uuid.UUID     `json:"id"`
	Name     string        `json:"name"`
	Layer    byte          `json:"layer"`
	Start    time.Duration `json:"start"`
	End      time.Duration `json:"end"`
	Channels int           `json:"channels"`
}

func (e *Effect) info() EffectInfo {
	return EffectInfo{
		ID:       e.ID,
		Name:     e.Name,
		Layer:    e.Layer,
		Start:    e.Start,
		End:      e.end(),
		Channels: len(e.Intents),
	}
}

// frame is one computed snapshot of every channel's states.
type frame struct {
	position time.Duration
	states   map[intent.ChannelID][]*intent.State
}

// Logger defines the logging interface for the playback engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Playback schedules effects against a monotonic position and publishes a
// per-channel state snapshot on every UpdateState call.
//
// Thread Safety: UpdateState may be called concurrently by every device
// thread. ChannelStates reads the latest snapshot without locking.
type Playback struct {
	now    func() time.Time
	origin time.Time
	logger Logger

	mu        sync.Mutex
	effects   map[uuid.UUID]*Effect
	observers []func(EffectInfo)

	current atomic.Pointer[frame]

	liveAccepted *instrumentation.Counter
	liveRejected *instrumentation.Counter
}

// NewPlayback creates an engine whose position starts at zero now.
func NewPlayback() *Playback {
	return newPlayback(time.Now)
}

func newPlayback(now func() time.Time) *Playback {
	p := &Playback{
		now:     now,
		origin:  now(),
		logger:  noopLogger{},
		effects: make(map[uuid.UUID]*Effect),

		liveAccepted: instrumentation.NewCounter("Live intents accepted"),
		liveRejected: instrumentation.NewCounter("Live intents rejected"),
	}
	p.current.Store(&frame{states: map[intent.ChannelID][]*intent.State{}})
	return p
}

// SetLogger sets the logger for the engine.
func (p *Playback) SetLogger(logger Logger) {
	p.logger = logger
}

// Position returns the current playback position.
func (p *Playback) Position() time.Duration {
	return p.now().Sub(p.origin)
}

// Schedule adds an effect. A zero ID is assigned a new one. The effect's
// intents must not be modified afterwards.
func (p *Playback) Schedule(e Effect) uuid.UUID {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	p.mu.Lock()
	p.effects[e.ID] = &e
	observers := slices.Clone(p.observers)
	p.mu.Unlock()

	p.logger.Debug("effect scheduled", "effect", e.Name, "id", e.ID, "layer", e.Layer, "start", e.Start)
	info := e.info()
	for _, fn := range observers {
		fn(info)
	}
	return e.ID
}

// Subscribe registers fn to be called after every Schedule. fn must not block.
func (p *Playback) Subscribe(fn func(EffectInfo)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// ScheduleNow adds an effect starting at the current position plus delay.
func (p *Playback) ScheduleNow(e Effect, delay time.Duration) uuid.UUID {
	e.Start = p.Position() + delay
	return p.Schedule(e)
}

// Cancel removes an effect.
func (p *Playback) Cancel(id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.effects[id]; !ok {
		return ErrEffectNotFound
	}
	delete(p.effects, id)
	return nil
}

// Effects lists scheduled effects ordered by start.
func (p *Playback) Effects() []EffectInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EffectInfo, 0, len(p.effects))
	for _, e := range p.effects {
		out = append(out, e.info())
	}
	slices.SortFunc(out, func(a, b EffectInfo) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// UpdateState evaluates every active effect at the current position,
// publishes the snapshot and drops finished effects. The samples are the
// playback position and the wall clock.
func (p *Playback) UpdateState() map[string]time.Duration {
	p.mu.Lock()
	pos := p.Position()
	states := make(map[intent.ChannelID][]*intent.State)
	for id, e := range p.effects {
		if pos >= e.end() {
			delete(p.effects, id)
			p.logger.Debug("effect finished", "effect", e.Name, "id", id)
			continue
		}
		if pos < e.Start {
			continue
		}
		rel := pos - e.Start
		for ch, node := range e.Intents {
			if s := node.StateAt(rel, e.Layer); s != nil {
				states[ch] = append(states[ch], s)
			}
		}
	}
	p.current.Store(&frame{position: pos, states: states})
	p.mu.Unlock()

	return map[string]time.Duration{
		SamplePosition: pos,
		SampleSystem:   time.Duration(p.now().UnixNano()),
	}
}

// ChannelStates returns the states of a channel in the latest snapshot.
// Each call returns fresh clones, so callers may modify them.
func (p *Playback) ChannelStates(id intent.ChannelID) []*intent.State {
	states := p.current.Load().states[id]
	if len(states) == 0 {
		return nil
	}
	out := make([]*intent.State, len(states))
	for i, s := range states {
		out[i] = s.Clone()
	}
	return out
}

// LiveIntentCounters returns the counters of accepted and rejected live
// intent messages, for registration with an instrumentation registry.
func (p *Playback) LiveIntentCounters() []instrumentation.Value {
	return []instrumentation.Value{p.liveAccepted, p.liveRejected}
}

// SnapshotPosition returns the position of the latest snapshot. It lags
// Position by up to one device tick and stays put while no device runs.
func (p *Playback) SnapshotPosition() time.Duration {
	return p.current.Load().position
}
