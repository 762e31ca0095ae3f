// Package rig assembles output controllers, their chains and their output
// modules from the controllers section of config.yaml.
package rig

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"periph.io/x/conn/v3/physic"

	"github.com/nerrad567/gray-logic-show/internal/filter"
	"github.com/nerrad567/gray-logic-show/internal/hardware"
	"github.com/nerrad567/gray-logic-show/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-show/internal/intent"
	"github.com/nerrad567/gray-logic-show/internal/modules/artnet"
	"github.com/nerrad567/gray-logic-show/internal/modules/midiout"
	"github.com/nerrad567/gray-logic-show/internal/modules/mqttout"
	"github.com/nerrad567/gray-logic-show/internal/modules/pixel"
	"github.com/nerrad567/gray-logic-show/internal/modules/preview"
	"github.com/nerrad567/gray-logic-show/internal/modules/renard"
	"github.com/nerrad567/gray-logic-show/internal/output"
	"github.com/nerrad567/gray-logic-show/internal/policy"
)

var (
	// ErrUnknownModule is returned for an unsupported module type.
	ErrUnknownModule = errors.New("rig: unknown module type")

	// ErrUnknownPrior is returned when chain_after names no controller.
	ErrUnknownPrior = errors.New("rig: chain_after names no controller")
)

// Deps are the shared collaborators the built modules and controllers use.
type Deps struct {
	// Source supplies channel states, normally the playback engine.
	Source output.StateSource

	// Publisher is required by mqtt modules; nil when MQTT is not connected.
	Publisher mqttout.Publisher

	// Broadcaster receives preview frames; may be nil.
	Broadcaster preview.Broadcaster

	// Logger is given to every controller; may be nil.
	Logger output.Logger
}

// Rig is a built set of controllers.
type Rig struct {
	Linking *output.Linking

	// Controllers in configuration order.
	Controllers []*output.Controller

	// Previews lists the preview modules so their frames can be served.
	Previews []*preview.Module
}

// Build creates every controller, links the chains, applies patches and
// checks that every output has a data policy. All problems are reported
// together.
func Build(cfgs []config.ControllerConfig, deps Deps) (*Rig, error) {
	r := &Rig{Linking: output.NewLinking()}
	byKey := make(map[string]*output.Controller, len(cfgs)*2)
	var errs []error

	for _, cc := range cfgs {
		ctrl, err := r.newController(cc, deps)
		if err != nil {
			errs = append(errs, fmt.Errorf("controller %s: %w", cc.Name, err))
			continue
		}
		if err := r.Linking.Register(ctrl); err != nil {
			errs = append(errs, fmt.Errorf("controller %s: %w", cc.Name, err))
			continue
		}
		r.Controllers = append(r.Controllers, ctrl)
		byKey[cc.Name] = ctrl
		byKey[ctrl.ID().String()] = ctrl
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, cc := range cfgs {
		ctrl := byKey[cc.Name]
		if cc.ChainAfter != "" {
			prior, ok := byKey[cc.ChainAfter]
			if !ok {
				errs = append(errs, fmt.Errorf("controller %s: %w: %q", cc.Name, ErrUnknownPrior, cc.ChainAfter))
			} else if err := r.Linking.Link(prior.ID(), ctrl.ID()); err != nil {
				errs = append(errs, fmt.Errorf("controller %s: %w", cc.Name, err))
			}
		}
		for _, p := range cc.Patches {
			if err := applyPatch(ctrl, p); err != nil {
				errs = append(errs, fmt.Errorf("controller %s output %d: %w", cc.Name, p.Output, err))
			}
		}
		if err := ctrl.ValidatePolicies(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

func (r *Rig) newController(cc config.ControllerConfig, deps Deps) (*output.Controller, error) {
	cfg := output.Config{Name: cc.Name, OutputCount: cc.Outputs}
	if cc.ID != "" {
		id, err := uuid.Parse(cc.ID)
		if err != nil {
			return nil, fmt.Errorf("parsing id: %w", err)
		}
		cfg.ID = id
	}
	if cc.DataPolicy != "" {
		p, err := policy.Parse(cc.DataPolicy)
		if err != nil {
			return nil, err
		}
		cfg.DataPolicy = p
	}
	if cc.ChainAfter == "" {
		m, err := NewModule(cc.Name, cc.Module, deps)
		if err != nil {
			return nil, err
		}
		if pm, ok := m.(*preview.Module); ok {
			r.Previews = append(r.Previews, pm)
		}
		cfg.Module = m
	}

	ctrl := output.NewController(cfg, deps.Source)
	if deps.Logger != nil {
		ctrl.SetLogger(deps.Logger)
	}
	return ctrl, nil
}

func applyPatch(ctrl *output.Controller, p config.PatchConfig) error {
	sources := make([]intent.ChannelID, 0, len(p.Channels))
	for _, ch := range p.Channels {
		id, err := uuid.Parse(ch)
		if err != nil {
			return fmt.Errorf("channel %q: %w", ch, err)
		}
		sources = append(sources, id)
	}
	if err := ctrl.SetOutputSources(p.Output, sources...); err != nil {
		return err
	}
	if p.DataPolicy != "" {
		dp, err := policy.Parse(p.DataPolicy)
		if err != nil {
			return err
		}
		if err := ctrl.SetOutputDataPolicy(p.Output, dp); err != nil {
			return err
		}
	}
	for _, fc := range p.Filters {
		f, err := filter.New(fc.Type, fc.Params)
		if err != nil {
			return err
		}
		ctrl.AddPostFilter(p.Output, f)
	}
	return nil
}

// NewModule creates the output module described by mc.
func NewModule(name string, mc config.ModuleConfig, deps Deps) (output.Module, error) {
	interval := mc.Interval()
	switch mc.Type {
	case config.ModulePreview:
		m := preview.New(name, interval)
		if deps.Broadcaster != nil {
			m.SetBroadcaster(deps.Broadcaster)
		}
		return m, nil
	case config.ModuleArtNet:
		return artnet.New(artnet.Config{
			Name:     name,
			Target:   mc.Target,
			Universe: uint16(mc.Universe), //nolint:gosec // validated 0-32767
			Interval: interval,
		}), nil
	case config.ModuleRenard:
		return renard.New(renard.Config{Name: name, Device: mc.Device, Baud: mc.Baud, Interval: interval}), nil
	case config.ModuleMQTT:
		if deps.Publisher == nil {
			return nil, mqttout.ErrNoPublisher
		}
		return mqttout.New(mqttout.Config{
			Name:     name,
			QoS:      byte(mc.QoS), //nolint:gosec // validated 0-2
			Retained: mc.Retained,
			Interval: interval,
		}, deps.Publisher), nil
	case config.ModulePixel:
		return pixel.New(pixel.Config{
			Name:      name,
			Port:      mc.Port,
			NumPixels: mc.NumPixels,
			Frequency: physic.Frequency(mc.FrequencyKHz) * physic.KiloHertz,
			Interval:  interval,
		}), nil
	case config.ModuleMIDI:
		return midiout.New(midiout.Config{Name: name, Port: mc.Port, Interval: interval}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, mc.Type)
	}
}

// Roots returns the chain roots, the controllers that become devices.
func (r *Rig) Roots() []*output.Controller {
	return r.Linking.Roots()
}

// Attach adds one hardware thread per chain root to m.
func (r *Rig) Attach(m *hardware.Manager) error {
	for _, root := range r.Roots() {
		if _, err := m.Add(root); err != nil {
			return fmt.Errorf("attaching %s: %w", root.Name(), err)
		}
	}
	return nil
}

// Controller finds a controller by name or id.
func (r *Rig) Controller(key string) (*output.Controller, bool) {
	for _, c := range r.Controllers {
		if c.Name() == key || c.ID().String() == key {
			return c, true
		}
	}
	return nil, false
}
