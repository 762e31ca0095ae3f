// Package intent models lighting intents and their evaluated states.
//
// An Intent describes how a value changes over a relative time span
// (a float fading from 0 to 1 over two seconds, a static red, ...).
// Intents are owned by show data and are read-only during playback.
//
// A State is the projection of an Intent at one relative time. States are
// created fresh every tick, tagged with a Layer, and discarded once the
// tick's combination has completed. A State may carry:
//   - SubordinateStates: child contributions folded into the parent value
//     through a combination Operation (add, multiply, max, min, replace)
//   - FilterStates: per-intent transforms applied after aggregation
//
// # Values
//
// Value is a closed set of variants:
//
//	DiscreteValue    colour + intensity, mixed per exact colour
//	RGBValue         mixing colour
//	LightingValue    mixing colour expressed as hue/saturation + intensity
//	FloatValue       float transition result
//	PercentageValue  percentage transition result
//	CommandValue     opaque protocol command
//	PositionValue    position (pan/tilt style) value
//
// Every consumer switches over the variants explicitly and names a default
// branch, so adding a variant never degrades silently into a no-op.
//
// # Channel intents
//
// ChannelIntents maps a channel id to exactly one root Node. Further nodes
// aimed at an already-rooted channel are attached to the root as
// subordinates; the root is never replaced.
//
// Thread Safety:
//   - Values and Intents are immutable and safe to share.
//   - A State is owned by the tick that created it; Clone before handing it
//     to another goroutine that may modify its filter or subordinate lists.
package intent
