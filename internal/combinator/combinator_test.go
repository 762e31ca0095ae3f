package combinator

import (
	"math"
	"testing"

	"github.com/nerrad567/gray-logic-show/internal/command"
	"github.com/nerrad567/gray-logic-show/internal/intent"
)

var (
	red   = intent.RGB(255, 0, 0)
	green = intent.RGB(0, 255, 0)
	blue  = intent.RGB(0, 0, 255)
)

func rgb(c intent.Color, layer byte) *intent.State {
	return intent.Static(intent.RGBValue{Color: c}, layer)
}

func discrete(c intent.Color, level float64, layer byte) *intent.State {
	return intent.Static(intent.DiscreteValue{Color: c, Intensity: level}, layer)
}

// split separates combined states into the mixing colour and discrete values.
func split(t *testing.T, states []*intent.State) (*intent.Color, []intent.DiscreteValue, []intent.Value) {
	t.Helper()
	var mix *intent.Color
	var ds []intent.DiscreteValue
	var other []intent.Value
	for _, s := range states {
		switch v := s.Value().(type) {
		case intent.RGBValue:
			if mix != nil {
				t.Fatalf("more than one mixing value in result")
			}
			c := v.Color
			mix = &c
		case intent.DiscreteValue:
			ds = append(ds, v)
		default:
			other = append(other, v)
		}
	}
	return mix, ds, other
}

func TestCombine_ZeroAndOne(t *testing.T) {
	if got := Combine(nil); got != nil {
		t.Errorf("Combine(nil) = %v, want nil", got)
	}

	inputs := []*intent.State{
		rgb(red, 3),
		discrete(green, 0.2, 1),
		intent.Static(intent.FloatValue(4), 0),
		intent.Static(intent.CommandValue{Command: command.Byte(9)}, 7),
	}
	for _, s := range inputs {
		in := []*intent.State{s}
		got := Combine(in)
		if len(got) != 1 || got[0] != s {
			t.Errorf("Combine([%s]) did not return the input unchanged", intent.Kind(s.Value()))
		}
	}
}

func TestCombine_LayerOcclusion(t *testing.T) {
	tests := []struct {
		name string
		high intent.Color
		want intent.Color
	}{
		{name: "full brightness hides lower layer", high: blue, want: blue},
		{name: "zero brightness is transparent", high: intent.Black, want: red},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combine([]*intent.State{rgb(red, 1), rgb(tt.high, 2)})
			mix, ds, _ := split(t, got)
			if mix == nil {
				t.Fatal("no mixing colour in result")
			}
			if *mix != tt.want {
				t.Errorf("mixing colour = %+v, want %+v", *mix, tt.want)
			}
			if len(ds) != 0 {
				t.Errorf("discrete values = %d, want 0", len(ds))
			}
		})
	}
}

func TestCombine_PartialOcclusion(t *testing.T) {
	half := intent.RGB(0, 0, 128)
	got := Combine([]*intent.State{rgb(red, 1), rgb(half, 2)})
	mix, _, _ := split(t, got)

	// V(high) = 128/255 leaves the red at roughly half brightness.
	if mix.B != 128 || mix.G != 0 {
		t.Errorf("mixing colour = %+v, want B=128 G=0", *mix)
	}
	if mix.R < 125 || mix.R > 128 {
		t.Errorf("mixing colour R = %d, want ~127", mix.R)
	}
}

func TestCombine_SameLayerMixingIsComponentMax(t *testing.T) {
	a := intent.RGB(10, 200, 30)
	b := intent.RGB(100, 20, 30)
	lit := intent.Static(intent.LightingValue{Color: intent.RGB(0, 0, 255), Intensity: 1}, 4)

	got := Combine([]*intent.State{rgb(a, 4), rgb(b, 4), lit})
	mix, _, _ := split(t, got)

	want := intent.RGB(100, 200, 255)
	if *mix != want {
		t.Errorf("mixing colour = %+v, want %+v", *mix, want)
	}
}

func TestCombine_DiscreteCollapseWithinLayer(t *testing.T) {
	got := Combine([]*intent.State{discrete(red, 0.3, 5), discrete(red, 0.7, 5)})
	_, ds, _ := split(t, got)

	if len(ds) != 1 {
		t.Fatalf("discrete values = %d, want 1", len(ds))
	}
	if ds[0].Intensity != 0.7 {
		t.Errorf("intensity = %v, want 0.7", ds[0].Intensity)
	}
}

func TestCombine_DiscreteCrossLayerBlend(t *testing.T) {
	tests := []struct {
		name      string
		high, low float64
		want      float64
	}{
		{name: "higher wins", high: 0.4, low: 0.5, want: 0.4},
		{name: "lower shows through", high: 0.2, low: 1, want: 0.8},
		{name: "opaque higher", high: 1, low: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combine([]*intent.State{discrete(red, tt.low, 1), discrete(red, tt.high, 2)})
			_, ds, _ := split(t, got)
			if len(ds) != 1 {
				t.Fatalf("discrete values = %d, want 1", len(ds))
			}
			if math.Abs(ds[0].Intensity-tt.want) > 1e-9 {
				t.Errorf("intensity = %v, want %v", ds[0].Intensity, tt.want)
			}
		})
	}
}

func TestCombine_DiscreteDistinctColoursPassThrough(t *testing.T) {
	got := Combine([]*intent.State{
		discrete(red, 0.5, 3),
		discrete(green, 0.25, 1),
		discrete(blue, 1, 2),
	})
	_, ds, _ := split(t, got)

	if len(ds) != 3 {
		t.Fatalf("discrete values = %d, want 3", len(ds))
	}
	// Highest layer first.
	order := []intent.Color{red, blue, green}
	for i, c := range order {
		if ds[i].Color != c {
			t.Errorf("ds[%d].Color = %+v, want %+v", i, ds[i].Color, c)
		}
	}
	if ds[2].Intensity != 0.25 {
		t.Errorf("green intensity = %v, want 0.25", ds[2].Intensity)
	}
}

func TestCombine_MixedVariants(t *testing.T) {
	cmd := intent.Static(intent.CommandValue{Command: command.Byte(42)}, 9)
	pos := intent.Static(intent.PositionValue(0.5), 0)
	in := []*intent.State{
		rgb(red, 1),
		cmd,
		discrete(green, 0.6, 2),
		pos,
	}

	got := Combine(in)
	mix, ds, other := split(t, got)

	if mix == nil || *mix != red {
		t.Errorf("mixing colour = %v, want red", mix)
	}
	if len(ds) != 1 || ds[0].Color != green {
		t.Errorf("discrete = %+v, want one green", ds)
	}
	if len(other) != 2 {
		t.Fatalf("pass-through values = %d, want 2", len(other))
	}
	if got[len(got)-2] != cmd || got[len(got)-1] != pos {
		t.Error("pass-through states should be appended in layer order")
	}
	if in[1] != cmd || in[3] != pos {
		t.Error("input slice was reordered")
	}
}

func TestCombine_NoMixingValueWhenOnlyDiscrete(t *testing.T) {
	got := Combine([]*intent.State{discrete(red, 1, 1), discrete(green, 1, 1)})
	mix, ds, _ := split(t, got)
	if mix != nil {
		t.Errorf("mixing colour = %+v, want none", *mix)
	}
	if len(ds) != 2 {
		t.Errorf("discrete values = %d, want 2", len(ds))
	}
}

func TestChromaKey_MixColors(t *testing.T) {
	ck := ChromaKey{Key: green, Lower: 0.1, Upper: 1, HueTolerance: 20, SaturationTolerance: 0.1}

	tests := []struct {
		name string
		low  intent.Color
		want intent.Color
	}{
		{name: "key colour replaced", low: green, want: blue},
		{name: "near hue replaced", low: intent.RGB(40, 255, 0), want: blue},
		{name: "other hue kept", low: red, want: red},
		{name: "too dark kept", low: intent.RGB(0, 10, 0), want: intent.RGB(0, 10, 0)},
		{name: "desaturated kept", low: intent.RGB(128, 255, 128), want: intent.RGB(128, 255, 128)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ck.MixColors(blue, tt.low); got != tt.want {
				t.Errorf("MixColors() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChromaKey_HueWrap(t *testing.T) {
	ck := ChromaKey{Key: red, Lower: 0, Upper: 1, HueTolerance: 15, SaturationTolerance: 0.05}
	magentaRed := intent.RGB(255, 0, 40) // hue ~351

	if got := ck.MixColors(blue, magentaRed); got != blue {
		t.Errorf("MixColors() = %+v, want key match across 0/360", got)
	}
}

func TestChromaKey_MixDiscrete(t *testing.T) {
	ck := ChromaKey{Lower: 0.5, Upper: 1}
	high := intent.DiscreteValue{Color: red, Intensity: 0.1}

	if got := ck.MixDiscrete(high, intent.DiscreteValue{Color: red, Intensity: 0.8}); got != high {
		t.Errorf("MixDiscrete(in window) = %+v, want high", got)
	}
	low := intent.DiscreteValue{Color: red, Intensity: 0.2}
	if got := ck.MixDiscrete(high, low); got != low {
		t.Errorf("MixDiscrete(out of window) = %+v, want low", got)
	}
}

func TestNew_WithChromaKey(t *testing.T) {
	c := New(ChromaKey{Key: green, Lower: 0, Upper: 1, HueTolerance: 10, SaturationTolerance: 0.1})
	got := c.Combine([]*intent.State{rgb(green, 1), rgb(intent.RGB(0, 0, 10), 2)})
	mix, _, _ := split(t, got)

	if want := intent.RGB(0, 0, 10); *mix != want {
		t.Errorf("mixing colour = %+v, want %+v", *mix, want)
	}
}
