package combinator

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/nerrad567/gray-logic-show/internal/intent"
)

// DefaultMixer occludes lower layers in proportion to the brightness of the
// layer above. A higher layer at full brightness hides everything beneath
// it; at zero brightness it is fully transparent.
type DefaultMixer struct{}

// MixColors scales the HSV value of low by (1 - V(high)) and max-combines
// the result with high.
func (DefaultMixer) MixColors(high, low intent.Color) intent.Color {
	h, s, v := low.Colorful().Hsv()
	dimmed := intent.FromColorful(colorful.Hsv(h, s, v*(1-high.Brightness())))
	return high.Combine(dimmed)
}

// MixDiscrete returns high with intensity max(high, low*(1-high)).
func (DefaultMixer) MixDiscrete(high, low intent.DiscreteValue) intent.DiscreteValue {
	high.Intensity = math.Max(high.Intensity, low.Intensity*(1-high.Intensity))
	return high
}

// ChromaKey replaces the lower layer with the higher one only where the
// lower colour matches Key. Lower and Upper bound the brightness window in
// [0,1]; HueTolerance is in degrees and wraps at 0/360.
type ChromaKey struct {
	Key                 intent.Color
	Lower               float64
	Upper               float64
	HueTolerance        float64
	SaturationTolerance float64
}

// inWindow reports whether v lies inside the brightness window.
func (k ChromaKey) inWindow(v float64) bool {
	return v >= k.Lower && v <= k.Upper
}

// MixColors implements LayerMixer.
func (k ChromaKey) MixColors(high, low intent.Color) intent.Color {
	lh, ls, lv := low.Colorful().Hsv()
	if !k.inWindow(lv) {
		return low
	}

	kh, ks, _ := k.Key.Colorful().Hsv()
	if math.Abs(round2(ls)-round2(ks)) > k.SaturationTolerance {
		return low
	}

	d := math.Mod(math.Abs(lh-kh), 360)
	if math.Min(d, 360-d) > k.HueTolerance {
		return low
	}
	return high
}

// MixDiscrete returns high when the low intensity is inside the brightness
// window, otherwise low.
func (k ChromaKey) MixDiscrete(high, low intent.DiscreteValue) intent.DiscreteValue {
	if k.inWindow(low.Intensity) {
		return high
	}
	return low
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
