package combinator

import (
	"cmp"
	"slices"

	"github.com/nerrad567/gray-logic-show/internal/intent"
)

// LayerMixer composites one layer over the layers beneath it.
type LayerMixer interface {
	// MixColors composites the high layer's mixing colour over the low one.
	MixColors(high, low intent.Color) intent.Color

	// MixDiscrete composites two discrete values of the same colour.
	MixDiscrete(high, low intent.DiscreteValue) intent.DiscreteValue
}

// Combinator combines layered states using a LayerMixer.
type Combinator struct {
	mixer LayerMixer
}

// New returns a Combinator using mixer. A nil mixer selects DefaultMixer.
func New(mixer LayerMixer) *Combinator {
	if mixer == nil {
		mixer = DefaultMixer{}
	}
	return &Combinator{mixer: mixer}
}

var defaultCombinator = New(nil)

// Combine combines states with the default brightness occlusion mixer.
func Combine(states []*intent.State) []*intent.State {
	return defaultCombinator.Combine(states)
}

// discreteSet accumulates discrete values keyed by ARGB, remembering the
// order in which colours were first seen so output is deterministic.
type discreteSet struct {
	values map[uint32]intent.DiscreteValue
	order  []uint32
}

func newDiscreteSet() *discreteSet {
	return &discreteSet{values: make(map[uint32]intent.DiscreteValue, 4)}
}

func (d *discreteSet) get(key uint32) (intent.DiscreteValue, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *discreteSet) put(key uint32, v intent.DiscreteValue) {
	if _, ok := d.values[key]; !ok {
		d.order = append(d.order, key)
	}
	d.values[key] = v
}

func (d *discreteSet) reset() {
	clear(d.values)
	d.order = d.order[:0]
}

// layerAccumulator holds what one layer, or the layers composited so far,
// contributes.
type layerAccumulator struct {
	mix      intent.Color
	hasMix   bool
	discrete *discreteSet
}

func (a *layerAccumulator) addMixing(c intent.Color) {
	if !a.hasMix {
		a.mix, a.hasMix = c, true
		return
	}
	a.mix = a.mix.Combine(c)
}

// addDiscrete keeps the higher intensity when a colour is already present.
func (a *layerAccumulator) addDiscrete(v intent.DiscreteValue) {
	key := v.Color.ARGB()
	if cur, ok := a.discrete.get(key); ok && cur.Intensity >= v.Intensity {
		return
	}
	a.discrete.put(key, v)
}

// Combine reduces states to at most one RGB state plus one discrete state
// per distinct discrete colour, followed by pass-through states. Inputs of
// length 0 or 1 are returned as-is. The input slice is not reordered.
func (c *Combinator) Combine(states []*intent.State) []*intent.State {
	if len(states) <= 1 {
		return states
	}

	sorted := slices.Clone(states)
	slices.SortStableFunc(sorted, func(a, b *intent.State) int {
		return cmp.Compare(b.Layer, a.Layer)
	})

	combined := layerAccumulator{discrete: newDiscreteSet()}
	layer := layerAccumulator{discrete: newDiscreteSet()}
	var passthrough []*intent.State

	top := sorted[0].Layer
	current := top
	for _, s := range sorted {
		if s.Layer != current {
			c.mixLayers(&combined, &layer)
			current = s.Layer
		}
		switch v := s.Value().(type) {
		case intent.RGBValue:
			layer.addMixing(v.FullColor())
		case intent.LightingValue:
			layer.addMixing(v.FullColor())
		case intent.DiscreteValue:
			layer.addDiscrete(v)
		default:
			passthrough = append(passthrough, s)
		}
	}
	c.mixLayers(&combined, &layer)

	out := make([]*intent.State, 0, 1+len(combined.discrete.order)+len(passthrough))
	if combined.hasMix {
		out = append(out, intent.Static(intent.RGBValue{Color: combined.mix}, top))
	}
	for _, key := range combined.discrete.order {
		out = append(out, intent.Static(combined.discrete.values[key], top))
	}
	return append(out, passthrough...)
}

// mixLayers folds the finished layer into the running result and resets it.
func (c *Combinator) mixLayers(combined, layer *layerAccumulator) {
	if layer.hasMix {
		if combined.hasMix {
			combined.mix = c.mixer.MixColors(combined.mix, layer.mix)
		} else {
			combined.mix, combined.hasMix = layer.mix, true
		}
	}

	for _, key := range layer.discrete.order {
		low := layer.discrete.values[key]
		if high, ok := combined.discrete.get(key); ok {
			combined.discrete.put(key, c.mixer.MixDiscrete(high, low))
			continue
		}
		combined.discrete.put(key, low)
	}

	layer.mix, layer.hasMix = intent.Color{}, false
	layer.discrete.reset()
}
