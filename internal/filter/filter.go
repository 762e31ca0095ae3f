package filter

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-show/internal/command"
)

// Filter transforms a command. Returning nil vetoes it.
type Filter interface {
	Affect(cmd command.Command) command.Command
}

// Func adapts a function to Filter.
type Func func(cmd command.Command) command.Command

// Affect implements Filter.
func (f Func) Affect(cmd command.Command) command.Command { return f(cmd) }

var evaluation atomic.Bool

func init() {
	evaluation.Store(true)
}

// SetEvaluation turns filter evaluation on or off for every output.
func SetEvaluation(enabled bool) {
	evaluation.Store(enabled)
}

// EvaluationEnabled reports whether filters currently run.
func EvaluationEnabled() bool {
	return evaluation.Load()
}

// Chain is an ordered list of filters.
type Chain []Filter

// Apply runs the filters in order. It returns nil as soon as a filter
// vetoes; later filters are not invoked. A nil cmd, or evaluation being
// switched off, returns cmd untouched.
func (c Chain) Apply(cmd command.Command) command.Command {
	if cmd == nil || !EvaluationEnabled() {
		return cmd
	}
	for _, f := range c {
		cmd = f.Affect(cmd)
		if cmd == nil {
			return nil
		}
	}
	return cmd
}

// mapLevels applies fn to every component of cmd, in [0,1].
func mapLevels(cmd command.Command, fn func(float64) float64) command.Command {
	to8 := func(v uint8) uint8 {
		return uint8(math.Round(clamp01(fn(float64(v)/math.MaxUint8)) * math.MaxUint8))
	}
	switch v := cmd.(type) {
	case command.Byte:
		return command.Byte(to8(uint8(v)))
	case command.Word:
		return command.Word(math.Round(clamp01(fn(float64(v)/math.MaxUint16)) * math.MaxUint16))
	case command.RGB:
		return command.RGB{R: to8(v.R), G: to8(v.G), B: to8(v.B)}
	default:
		return cmd
	}
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Min(math.Max(f, 0), 1)
}

// Gamma applies level^Gamma.
type Gamma struct {
	Gamma float64
}

// Affect implements Filter.
func (g Gamma) Affect(cmd command.Command) command.Command {
	return mapLevels(cmd, func(l float64) float64 { return math.Pow(l, g.Gamma) })
}

// Invert maps every level to full scale minus the level.
type Invert struct{}

// Affect implements Filter.
func (Invert) Affect(cmd command.Command) command.Command {
	return mapLevels(cmd, func(l float64) float64 { return 1 - l })
}

// Threshold vetoes commands whose 8-bit level is below Min.
type Threshold struct {
	Min uint8
}

// Affect implements Filter.
func (t Threshold) Affect(cmd command.Command) command.Command {
	if command.Level(cmd) < t.Min {
		return nil
	}
	return cmd
}

// Limit scales levels so full scale becomes Max (in [0,1]).
type Limit struct {
	Max float64
}

// Affect implements Filter.
func (l Limit) Affect(cmd command.Command) command.Command {
	return mapLevels(cmd, func(v float64) float64 { return v * l.Max })
}

// New builds a filter from its configured type name and parameters.
func New(kind string, params map[string]float64) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "gamma":
		g, ok := params["gamma"]
		if !ok {
			g = 2.2
		}
		if g <= 0 {
			return nil, fmt.Errorf("%w: gamma must be positive, got %v", ErrInvalidParameter, g)
		}
		return Gamma{Gamma: g}, nil
	case "invert":
		return Invert{}, nil
	case "threshold":
		m := params["min"]
		if m < 0 || m > math.MaxUint8 {
			return nil, fmt.Errorf("%w: threshold min must be 0-255, got %v", ErrInvalidParameter, m)
		}
		return Threshold{Min: uint8(m)}, nil
	case "limit":
		m, ok := params["max"]
		if !ok {
			m = 1
		}
		if m < 0 || m > 1 {
			return nil, fmt.Errorf("%w: limit max must be 0-1, got %v", ErrInvalidParameter, m)
		}
		return Limit{Max: m}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, kind)
	}
}
