package intent

import (
	"fmt"
	"math"
	"strings"
)

// Operation combines a subordinate value into its parent value.
type Operation int

const (
	// OpMax keeps the higher of the two values (component-wise for colours).
	OpMax Operation = iota
	// OpAdd adds, saturating at full scale for colours and intensities.
	OpAdd
	// OpMultiply multiplies, treating colours and intensities as [0,1].
	OpMultiply
	// OpMin keeps the lower of the two values.
	OpMin
	// OpReplace takes the subordinate value.
	OpReplace
)

var operationNames = map[Operation]string{
	OpMax:      "max",
	OpAdd:      "add",
	OpMultiply: "multiply",
	OpMin:      "min",
	OpReplace:  "replace",
}

// String implements fmt.Stringer.
func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return fmt.Sprintf("operation(%d)", int(op))
}

// ParseOperation converts a configuration name into an Operation.
func ParseOperation(name string) (Operation, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return OpMax, nil
	}
	for op, opName := range operationNames {
		if opName == n {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// Apply folds b into a. When the variants differ, a is returned unchanged:
// a subordinate of another variant has nothing meaningful to contribute.
func (op Operation) Apply(a, b Value) Value {
	switch av := a.(type) {
	case FloatValue:
		if bv, ok := b.(FloatValue); ok {
			return FloatValue(op.number(float64(av), float64(bv), math.Inf(1)))
		}
	case PercentageValue:
		if bv, ok := b.(PercentageValue); ok {
			return PercentageValue(op.number(float64(av), float64(bv), 1))
		}
	case PositionValue:
		if bv, ok := b.(PositionValue); ok {
			return PositionValue(op.number(float64(av), float64(bv), 1))
		}
	case RGBValue:
		if bv, ok := b.(RGBValue); ok {
			return RGBValue{Color: op.color(av.Color, bv.Color)}
		}
	case LightingValue:
		if bv, ok := b.(LightingValue); ok {
			if op == OpReplace {
				return bv
			}
			return LightingValue{Color: av.Color, Intensity: op.number(av.Intensity, bv.Intensity, 1)}
		}
	case DiscreteValue:
		if bv, ok := b.(DiscreteValue); ok && bv.Color == av.Color {
			return DiscreteValue{Color: av.Color, Intensity: op.number(av.Intensity, bv.Intensity, 1)}
		}
	case CommandValue:
		if bv, ok := b.(CommandValue); ok && op == OpReplace {
			return bv
		}
	default:
		return a
	}
	return a
}

func (op Operation) number(a, b, ceiling float64) float64 {
	switch op {
	case OpAdd:
		return math.Min(a+b, ceiling)
	case OpMultiply:
		return a * b
	case OpMin:
		return math.Min(a, b)
	case OpReplace:
		return b
	default:
		return math.Max(a, b)
	}
}

func (op Operation) color(a, b Color) Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(op.number(float64(x)/maxComponent, float64(y)/maxComponent, 1) * maxComponent))
	}
	return Color{
		A: max(a.A, b.A),
		R: mix(a.R, b.R),
		G: mix(a.G, b.G),
		B: mix(a.B, b.B),
	}
}
