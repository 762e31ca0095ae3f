package policy

import (
	"fmt"
	"math"
	"strings"

	"github.com/nerrad567/gray-logic-show/internal/command"
	"github.com/nerrad567/gray-logic-show/internal/intent"
)

// DataPolicy generates the command for one output from its combined states.
// An empty state list yields a nil command.
type DataPolicy interface {
	GenerateCommand(states []*intent.State) command.Command
}

// Func adapts a function to DataPolicy.
type Func func(states []*intent.State) command.Command

// GenerateCommand implements DataPolicy.
func (f Func) GenerateCommand(states []*intent.State) command.Command { return f(states) }

// Intensity8 emits the brightest state as an 8-bit level.
type Intensity8 struct{}

// GenerateCommand implements DataPolicy.
func (Intensity8) GenerateCommand(states []*intent.State) command.Command {
	if len(states) == 0 {
		return nil
	}
	return command.Byte(math.Round(Intensity(states) * math.MaxUint8))
}

// Intensity16 emits the brightest state as a 16-bit level.
type Intensity16 struct{}

// GenerateCommand implements DataPolicy.
func (Intensity16) GenerateCommand(states []*intent.State) command.Command {
	if len(states) == 0 {
		return nil
	}
	return command.Word(math.Round(Intensity(states) * math.MaxUint16))
}

// Color emits an RGB command. The mixing colour is max-combined with every
// discrete colour scaled by its intensity; levels become grey.
type Color struct{}

// GenerateCommand implements DataPolicy.
func (Color) GenerateCommand(states []*intent.State) command.Command {
	if len(states) == 0 {
		return nil
	}
	var c intent.Color
	for _, s := range states {
		switch v := s.Value().(type) {
		case intent.RGBValue:
			c = c.Combine(v.FullColor())
		case intent.LightingValue:
			c = c.Combine(v.FullColor())
		case intent.DiscreteValue:
			c = c.Combine(v.FullColor())
		case intent.CommandValue:
			rgb := command.Color(v.Command)
			c = c.Combine(intent.RGB(rgb.R, rgb.G, rgb.B))
		default:
			l := uint8(math.Round(level(v) * math.MaxUint8))
			c = c.Combine(intent.RGB(l, l, l))
		}
	}
	return command.RGB{R: c.R, G: c.G, B: c.B}
}

// Intensity returns the highest level in [0,1] across states.
func Intensity(states []*intent.State) float64 {
	var out float64
	for _, s := range states {
		out = math.Max(out, level(s.Value()))
	}
	return out
}

// level maps any value variant onto [0,1].
func level(v intent.Value) float64 {
	switch v := v.(type) {
	case intent.RGBValue:
		return v.Color.Brightness()
	case intent.LightingValue:
		return v.FullColor().Brightness()
	case intent.DiscreteValue:
		return v.FullColor().Brightness()
	case intent.FloatValue:
		return clamp01(float64(v))
	case intent.PercentageValue:
		return clamp01(float64(v))
	case intent.PositionValue:
		return clamp01(float64(v))
	case intent.CommandValue:
		return float64(command.Level(v.Command)) / math.MaxUint8
	default:
		return 0
	}
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Min(math.Max(f, 0), 1)
}

// Parse returns the data policy registered under name.
func Parse(name string) (DataPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "intensity8", "intensity", "dimming":
		return Intensity8{}, nil
	case "intensity16", "fine":
		return Intensity16{}, nil
	case "color", "colour", "rgb":
		return Color{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}
