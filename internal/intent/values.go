package intent

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/nerrad567/gray-logic-show/internal/command"
)

// maxComponent is the full-scale value of one colour component.
const maxComponent = 255.0

// Color is an ARGB colour with 8 bits per component.
type Color struct {
	A uint8 `json:"a"`
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Black is opaque black. It is a real colour, not an absent one.
var Black = Color{A: 0xFF}

// RGB returns an opaque colour.
func RGB(r, g, b uint8) Color {
	return Color{A: 0xFF, R: r, G: g, B: b}
}

// FromARGB unpacks a 0xAARRGGBB value.
func FromARGB(argb uint32) Color {
	return Color{
		A: uint8(argb >> 24),
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
	}
}

// ARGB packs the colour as 0xAARRGGBB. Discrete values are keyed by it.
func (c Color) ARGB() uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Combine returns the component-wise maximum of both colours
// ("highest channel wins").
func (c Color) Combine(o Color) Color {
	return Color{
		A: max(c.A, o.A),
		R: max(c.R, o.R),
		G: max(c.G, o.G),
		B: max(c.B, o.B),
	}
}

// Brightness returns the HSV value (V) of the colour in [0,1].
func (c Color) Brightness() float64 {
	return float64(max(c.R, c.G, c.B)) / maxComponent
}

// Scale multiplies every colour component by f, clamped to [0,1].
func (c Color) Scale(f float64) Color {
	f = clamp01(f)
	return Color{
		A: c.A,
		R: uint8(math.Round(float64(c.R) * f)),
		G: uint8(math.Round(float64(c.G) * f)),
		B: uint8(math.Round(float64(c.B) * f)),
	}
}

// Colorful converts to a go-colorful colour for HSV work.
func (c Color) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / maxComponent,
		G: float64(c.G) / maxComponent,
		B: float64(c.B) / maxComponent,
	}
}

// FromColorful converts back from go-colorful, keeping alpha opaque.
func FromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return RGB(r, g, b)
}

// Value is the closed set of values an intent state can yield.
type Value interface {
	isValue()
}

// DiscreteValue is a colour on a single-colour channel with an intensity in [0,1].
type DiscreteValue struct {
	Color     Color   `json:"color"`
	Intensity float64 `json:"intensity"`
}

// FullColor returns the colour scaled by its intensity.
func (v DiscreteValue) FullColor() Color {
	return v.Color.Scale(v.Intensity)
}

// RGBValue is a full mixing colour.
type RGBValue struct {
	Color Color `json:"color"`
}

// FullColor returns the colour itself.
func (v RGBValue) FullColor() Color {
	return v.Color
}

// LightingValue is a mixing colour whose brightness is given by Intensity.
type LightingValue struct {
	Color     Color   `json:"color"`
	Intensity float64 `json:"intensity"`
}

// FullColor keeps the hue and saturation of Color and uses Intensity as
// the HSV value.
func (v LightingValue) FullColor() Color {
	h, s, _ := v.Color.Colorful().Hsv()
	return FromColorful(colorful.Hsv(h, s, clamp01(v.Intensity)))
}

// FloatValue is the result of a float transition.
type FloatValue float64

// PercentageValue is the result of a percentage transition, nominally [0,1].
type PercentageValue float64

// PositionValue is a position in [0,1] (pan, tilt, ...).
type PositionValue float64

// CommandValue carries an already-formed protocol command.
type CommandValue struct {
	Command command.Command
}

func (DiscreteValue) isValue()   {}
func (RGBValue) isValue()        {}
func (LightingValue) isValue()   {}
func (FloatValue) isValue()      {}
func (PercentageValue) isValue() {}
func (PositionValue) isValue()   {}
func (CommandValue) isValue()    {}

// Kind names a value variant. Used in logs and JSON.
func Kind(v Value) string {
	switch v.(type) {
	case DiscreteValue:
		return "discrete"
	case RGBValue:
		return "rgb"
	case LightingValue:
		return "lighting"
	case FloatValue:
		return "float"
	case PercentageValue:
		return "percentage"
	case PositionValue:
		return "position"
	case CommandValue:
		return "command"
	default:
		return "unknown"
	}
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
