package output

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-show/internal/combinator"
	"github.com/nerrad567/gray-logic-show/internal/command"
	"github.com/nerrad567/gray-logic-show/internal/filter"
	"github.com/nerrad567/gray-logic-show/internal/hardware"
	"github.com/nerrad567/gray-logic-show/internal/intent"
	"github.com/nerrad567/gray-logic-show/internal/policy"
)

// Module is a hardware or virtual output shared by every controller in a
// chain.
type Module interface {
	Start() error
	Stop() error
	Pause()
	Resume()

	// SetChainIndex selects which controller of the chain the next
	// UpdateState call is for.
	SetChainIndex(index int)

	// UpdateState writes one controller's commands, one per output.
	UpdateState(cmds []command.Command) error

	// UpdateInterval is the target tick period of the module.
	UpdateInterval() time.Duration
}

// Flusher is implemented by modules that buffer every chain member and
// transmit once per tick.
type Flusher interface {
	Flush() error
}

// SignalerProvider is implemented by modules with their own tick pacing.
type SignalerProvider interface {
	UpdateSignaler() hardware.Signaler
}

// StateSource supplies the current states of a channel.
type StateSource interface {
	ChannelStates(id intent.ChannelID) []*intent.State
}

// Logger defines the logging interface for controllers.
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

// controllerNamespace derives stable controller ids from names.
var controllerNamespace = uuid.MustParse("6f1d7c3e-2b8a-4c59-9e0d-5a4b3c2d1e0f")

// IDFromName returns the stable controller id for name.
func IDFromName(name string) uuid.UUID {
	return uuid.NewSHA1(controllerNamespace, []byte(name))
}

// Config describes a controller.
type Config struct {
	// ID defaults to IDFromName(Name).
	ID uuid.UUID

	Name string

	// OutputCount is the fixed number of outputs.
	OutputCount int

	// DataPolicy is the default policy for outputs without their own.
	DataPolicy policy.DataPolicy

	// Module is the live output module. Only the root of a chain has one;
	// other members use their prior's.
	Module Module

	// Combinator defaults to the brightness occlusion combinator.
	Combinator *combinator.Combinator
}

// Controller owns a fixed set of outputs and generates their commands.
//
// Thread Safety: all methods are safe for concurrent use. Output state is
// guarded by the output-change lock; Update holds it for every member of
// the chain while it recomputes and writes.
type Controller struct {
	id         uuid.UUID
	name       string
	policy     policy.DataPolicy
	module     Module
	combinator *combinator.Combinator
	source     StateSource
	linking    *Linking
	logger     Logger

	mu      sync.RWMutex
	outputs []*Output
}

// NewController creates a controller reading states from source. It is not
// usable for updates until registered with a Linking.
func NewController(cfg Config, source StateSource) *Controller {
	id := cfg.ID
	if id == uuid.Nil {
		id = IDFromName(cfg.Name)
	}
	comb := cfg.Combinator
	if comb == nil {
		comb = combinator.New(nil)
	}
	outputs := make([]*Output, max(cfg.OutputCount, 0))
	for i := range outputs {
		outputs[i] = &Output{Name: fmt.Sprintf("%s-%d", cfg.Name, i+1)}
	}
	return &Controller{
		id:         id,
		name:       cfg.Name,
		policy:     cfg.DataPolicy,
		module:     cfg.Module,
		combinator: comb,
		source:     source,
		logger:     noopLogger{},
		outputs:    outputs,
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// ID returns the controller id.
func (c *Controller) ID() uuid.UUID { return c.id }

// Name returns the controller name. It implements hardware.Device.
func (c *Controller) Name() string { return c.name }

// OutputCount returns the number of outputs.
func (c *Controller) OutputCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.outputs)
}

// OutputModule returns the live module for this controller, delegating to
// the prior controller when this one has none.
func (c *Controller) OutputModule() Module {
	if c.module != nil || c.linking == nil {
		return c.module
	}
	if prior, ok := c.linking.Prior(c.id); ok {
		return prior.OutputModule()
	}
	return nil
}

// IsRoot reports whether this controller heads its chain.
func (c *Controller) IsRoot() bool {
	return c.linking != nil && c.linking.IsRoot(c.id)
}

// Start starts the live module.
func (c *Controller) Start() error {
	if m := c.OutputModule(); m != nil {
		return m.Start()
	}
	return nil
}

// Stop stops the live module.
func (c *Controller) Stop() error {
	if m := c.OutputModule(); m != nil {
		return m.Stop()
	}
	return nil
}

// Pause pauses the live module.
func (c *Controller) Pause() {
	if m := c.OutputModule(); m != nil {
		m.Pause()
	}
}

// Resume resumes the live module.
func (c *Controller) Resume() {
	if m := c.OutputModule(); m != nil {
		m.Resume()
	}
}

// UpdateInterval returns the module's tick period.
func (c *Controller) UpdateInterval() time.Duration {
	if m := c.OutputModule(); m != nil {
		return m.UpdateInterval()
	}
	return 0
}

// UpdateSignaler returns the module's own pacing, if it has one.
func (c *Controller) UpdateSignaler() hardware.Signaler {
	if sp, ok := c.OutputModule().(SignalerProvider); ok {
		return sp.UpdateSignaler()
	}
	return nil
}

// Update runs one tick for the chain this controller heads. Every member's
// outputs are recomputed before the first write, then each member is
// written in chain order. A controller that is not a root, has no live
// module or sits in an inconsistent chain does nothing.
func (c *Controller) Update() error {
	if !c.IsRoot() {
		return nil
	}
	module := c.OutputModule()
	if module == nil {
		return nil
	}
	chain, err := c.linking.Chain(c.id)
	if err != nil {
		c.logger.Debug("skipping update of inconsistent chain", "controller", c.name, "error", err)
		return nil
	}

	for _, member := range chain {
		member.mu.Lock()
	}
	defer func() {
		for i := len(chain) - 1; i >= 0; i-- {
			chain[i].mu.Unlock()
		}
	}()

	for _, member := range chain {
		if err := member.updateOutputsLocked(); err != nil {
			return err
		}
	}
	for i, member := range chain {
		module.SetChainIndex(i)
		if err := module.UpdateState(member.commandsLocked()); err != nil {
			return fmt.Errorf("writing %s: %w", member.name, err)
		}
	}
	if f, ok := module.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flushing %s: %w", c.name, err)
		}
	}
	return nil
}

// updateOutputsLocked recomputes every output. Caller holds c.mu.
func (c *Controller) updateOutputsLocked() error {
	for i, o := range c.outputs {
		p := o.policy
		if p == nil {
			p = c.policy
		}
		if p == nil {
			return fmt.Errorf("%w: controller %s output %d", ErrNoDataPolicy, c.name, i)
		}

		var states []*intent.State
		if c.source != nil {
			for _, ch := range o.Sources {
				states = append(states, c.source.ChannelStates(ch)...)
			}
		}
		o.command = o.filters.Apply(p.GenerateCommand(c.combinator.Combine(states)))
	}
	return nil
}

func (c *Controller) commandsLocked() []command.Command {
	cmds := make([]command.Command, len(c.outputs))
	for i, o := range c.outputs {
		cmds[i] = o.command
	}
	return cmds
}

// Commands returns the current command of every output.
func (c *Controller) Commands() []command.Command {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.commandsLocked()
}

// Snapshot returns a read-only view of every output.
func (c *Controller) Snapshot() []OutputSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]OutputSnapshot, len(c.outputs))
	for i, o := range c.outputs {
		out[i] = o.snapshot(i)
	}
	return out
}

// output returns the output at index, or nil. Caller holds c.mu.
func (c *Controller) output(index int) *Output {
	if index < 0 || index >= len(c.outputs) {
		return nil
	}
	return c.outputs[index]
}

// SetOutputSources sets the channels feeding an output.
func (c *Controller) SetOutputSources(index int, sources ...intent.ChannelID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	o := c.output(index)
	if o == nil {
		return fmt.Errorf("%w: %d", ErrOutputIndex, index)
	}
	o.Sources = slices.Clone(sources)
	return nil
}

// SetOutputDataPolicy overrides the controller policy for one output. A
// nil policy restores the controller default.
func (c *Controller) SetOutputDataPolicy(index int, p policy.DataPolicy) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	o := c.output(index)
	if o == nil {
		return fmt.Errorf("%w: %d", ErrOutputIndex, index)
	}
	o.policy = p
	return nil
}

// AddPostFilter appends a filter to an output. Out of range indices are
// ignored.
func (c *Controller) AddPostFilter(index int, f filter.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o := c.output(index); o != nil {
		o.filters = append(o.filters, f)
	}
}

// InsertPostFilter inserts a filter at position pos, clamped to the list.
func (c *Controller) InsertPostFilter(index, pos int, f filter.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o := c.output(index); o != nil {
		pos = min(max(pos, 0), len(o.filters))
		o.filters = slices.Insert(o.filters, pos, f)
	}
}

// RemovePostFilter removes the filter at position pos.
func (c *Controller) RemovePostFilter(index, pos int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o := c.output(index); o != nil && pos >= 0 && pos < len(o.filters) {
		o.filters = slices.Delete(o.filters, pos, pos+1)
	}
}

// ClearPostFilters removes every filter of an output.
func (c *Controller) ClearPostFilters(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o := c.output(index); o != nil {
		o.filters = nil
	}
}

// PostFilters returns a copy of an output's filters.
func (c *Controller) PostFilters(index int) []filter.Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if o := c.output(index); o != nil {
		return slices.Clone([]filter.Filter(o.filters))
	}
	return nil
}

// ValidatePolicies reports every output that has no effective data policy.
func (c *Controller) ValidatePolicies() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var errs []error
	for i, o := range c.outputs {
		if o.policy == nil && c.policy == nil {
			errs = append(errs, fmt.Errorf("%w: controller %s output %d", ErrNoDataPolicy, c.name, i))
		}
	}
	return errors.Join(errs...)
}
