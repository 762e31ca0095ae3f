// Package combinator reduces the intent states of one channel to the
// minimal set that produces the same output.
//
// States are composited by layer, highest first. Within a layer, mixing
// colours (RGB and lighting values) are combined with a component-wise
// maximum and discrete colours collapse to the highest intensity per exact
// ARGB value. Layers are then composited with a LayerMixer.
//
// The result holds at most one RGB value followed by one discrete value per
// distinct discrete colour. Variants without a mixing rule (float,
// percentage, position, command) are passed through after them unchanged.
//
// Usage:
//
//	states = combinator.Combine(states)
//
//	ck := combinator.ChromaKey{Key: intent.RGB(0, 255, 0), Lower: 0.1, Upper: 1, HueTolerance: 20, SaturationTolerance: 0.1}
//	states = combinator.New(ck).Combine(states)
//
// Thread Safety:
//
// Combine keeps no state between calls and is safe for concurrent use.
package combinator
