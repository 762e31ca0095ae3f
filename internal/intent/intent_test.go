package intent

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFloatTransition_ValueAt(t *testing.T) {
	in := FloatTransition{Start: 0, End: 10, Span: 2 * time.Second}

	tests := []struct {
		name string
		at   time.Duration
		want float64
	}{
		{name: "start", at: 0, want: 0},
		{name: "midpoint", at: time.Second, want: 5},
		{name: "end", at: 2 * time.Second, want: 10},
		{name: "before start clamps", at: -time.Second, want: 0},
		{name: "after end clamps", at: 5 * time.Second, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := in.ValueAt(tt.at).(FloatValue)
			if !ok {
				t.Fatalf("ValueAt() type = %T, want FloatValue", in.ValueAt(tt.at))
			}
			if !approx(float64(got), tt.want) {
				t.Errorf("ValueAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestPercentageTransition_ZeroSpan(t *testing.T) {
	in := PercentageTransition{Start: 0.2, End: 0.8}

	got := in.ValueAt(0).(PercentageValue)
	if !approx(float64(got), 0.8) {
		t.Errorf("ValueAt(0) = %v, want 0.8", got)
	}
}

func TestState_ValueAggregatesSubordinates(t *testing.T) {
	parent := NewState(PercentageTransition{Start: 0.5, End: 0.5, Span: time.Second}, 0, 1)
	child := NewState(PercentageTransition{Start: 0.25, End: 0.25, Span: time.Second}, 0, 1)
	parent.SubordinateStates = append(parent.SubordinateStates, SubordinateState{State: child, Operation: OpAdd})

	got := parent.Value().(PercentageValue)
	if !approx(float64(got), 0.75) {
		t.Errorf("Value() = %v, want 0.75", got)
	}
}

func TestState_ValueAppliesFilterStatesAfterSubordinates(t *testing.T) {
	s := NewState(PercentageTransition{Start: 0.4, End: 0.4, Span: time.Second}, 0, 1)
	s.SubordinateStates = []SubordinateState{{
		State:     NewState(PercentageTransition{Start: 0.4, End: 0.4, Span: time.Second}, 0, 1),
		Operation: OpAdd,
	}}
	s.FilterStates = []FilterState{FilterFunc(func(v Value) Value {
		return v.(PercentageValue) / 2
	})}

	got := s.Value().(PercentageValue)
	if !approx(float64(got), 0.4) {
		t.Errorf("Value() = %v, want 0.4", got)
	}
}

func TestState_CloneIsIndependent(t *testing.T) {
	in := StaticIntent{Value: RGBValue{Color: RGB(255, 0, 0)}, Span: time.Second}
	s := NewState(in, 100*time.Millisecond, 3)
	s.FilterStates = []FilterState{FilterFunc(func(v Value) Value { return v })}

	c := s.Clone()
	c.FilterStates = append(c.FilterStates, FilterFunc(func(v Value) Value { return v }))
	c.SubordinateStates = append(c.SubordinateStates, SubordinateState{State: Static(RGBValue{}, 0)})

	if c.Intent() != s.Intent() {
		t.Error("Clone() should share the intent")
	}
	if c.Layer != 3 || c.RelativeTime != 100*time.Millisecond {
		t.Errorf("Clone() layer/time = %d/%v, want 3/100ms", c.Layer, c.RelativeTime)
	}
	if len(s.FilterStates) != 1 {
		t.Errorf("original FilterStates len = %d, want 1", len(s.FilterStates))
	}
	if len(s.SubordinateStates) != 0 {
		t.Errorf("original SubordinateStates len = %d, want 0", len(s.SubordinateStates))
	}
}

func TestOperation_Apply(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		a, b Value
		want Value
	}{
		{name: "max floats", op: OpMax, a: FloatValue(1), b: FloatValue(3), want: FloatValue(3)},
		{name: "min floats", op: OpMin, a: FloatValue(1), b: FloatValue(3), want: FloatValue(1)},
		{name: "add percentage saturates", op: OpAdd, a: PercentageValue(0.7), b: PercentageValue(0.6), want: PercentageValue(1)},
		{name: "multiply percentage", op: OpMultiply, a: PercentageValue(0.5), b: PercentageValue(0.5), want: PercentageValue(0.25)},
		{name: "replace position", op: OpReplace, a: PositionValue(0.1), b: PositionValue(0.9), want: PositionValue(0.9)},
		{name: "max rgb", op: OpMax, a: RGBValue{Color: RGB(10, 200, 0)}, b: RGBValue{Color: RGB(100, 20, 5)}, want: RGBValue{Color: RGB(100, 200, 5)}},
		{name: "mismatched variants keep parent", op: OpAdd, a: FloatValue(1), b: PercentageValue(1), want: FloatValue(1)},
		{name: "discrete other colour ignored", op: OpMax, a: DiscreteValue{Color: RGB(255, 0, 0), Intensity: 0.2}, b: DiscreteValue{Color: RGB(0, 255, 0), Intensity: 0.9}, want: DiscreteValue{Color: RGB(255, 0, 0), Intensity: 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.op.Apply(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("%s.Apply(%v, %v) = %v, want %v", tt.op, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseOperation(t *testing.T) {
	if op, err := ParseOperation("Multiply"); err != nil || op != OpMultiply {
		t.Errorf("ParseOperation(Multiply) = %v, %v; want multiply, nil", op, err)
	}
	if op, err := ParseOperation(""); err != nil || op != OpMax {
		t.Errorf("ParseOperation(\"\") = %v, %v; want max, nil", op, err)
	}
	if _, err := ParseOperation("xor"); err == nil {
		t.Error("ParseOperation(xor) expected error, got nil")
	}
}

func TestLightingValue_FullColor(t *testing.T) {
	v := LightingValue{Color: RGB(255, 0, 0), Intensity: 0.5}
	got := v.FullColor()

	if got.R < 126 || got.R > 128 || got.G != 0 || got.B != 0 {
		t.Errorf("FullColor() = %+v, want ~{R:127 G:0 B:0}", got)
	}
}

func TestColor_ARGBRoundTrip(t *testing.T) {
	c := Color{A: 0x12, R: 0x34, G: 0x56, B: 0x78}
	if got := c.ARGB(); got != 0x12345678 {
		t.Errorf("ARGB() = %#x, want 0x12345678", got)
	}
	if got := FromARGB(0x12345678); got != c {
		t.Errorf("FromARGB() = %+v, want %+v", got, c)
	}
}

func TestChannelIntents_SingleRootPerChannel(t *testing.T) {
	ci := ChannelIntents{}
	ch := uuid.New()
	first := NewNode(PercentageTransition{Start: 1, End: 1, Span: time.Second}, 0)
	second := NewNode(PercentageTransition{Start: 0.5, End: 0.5, Span: time.Second}, 0)
	third := NewNode(PercentageTransition{Start: 0.1, End: 0.1, Span: time.Second}, 0)

	ci.AddIntentNodeToChannel(ch, first, OpMax)
	ci.AddIntentNodeToChannel(ch, second, OpMultiply)
	ci.AddIntentNodeToChannel(ch, third, OpAdd)
	ci.AddIntentNodeToChannel(ch, nil, OpAdd)

	if len(ci) != 1 {
		t.Fatalf("len(ci) = %d, want 1", len(ci))
	}
	if ci[ch] != first {
		t.Error("root node was replaced")
	}
	if len(first.Subordinates) != 2 {
		t.Fatalf("subordinates = %d, want 2", len(first.Subordinates))
	}
	if first.Subordinates[0].Operation != OpMultiply || first.Subordinates[1].Operation != OpAdd {
		t.Errorf("subordinate operations = %v, %v; want multiply, add",
			first.Subordinates[0].Operation, first.Subordinates[1].Operation)
	}
}

func TestChannelIntents_AddIntentNodesToChannels(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	dst := ChannelIntents{a: NewNode(FloatTransition{Span: time.Second}, 0)}
	src := ChannelIntents{
		a: NewNode(FloatTransition{Span: time.Second}, 0),
		b: NewNode(FloatTransition{Span: time.Second}, 0),
	}

	dst.AddIntentNodesToChannels(src, OpAdd)

	if len(dst) != 2 {
		t.Errorf("len(dst) = %d, want 2", len(dst))
	}
	if len(dst[a].Subordinates) != 1 {
		t.Errorf("dst[a] subordinates = %d, want 1", len(dst[a].Subordinates))
	}
	if dst[b] != src[b] {
		t.Error("dst[b] should be rooted with src[b]")
	}
}

func TestNode_StateAt(t *testing.T) {
	root := NewNode(PercentageTransition{Start: 0, End: 1, Span: 2 * time.Second}, time.Second)
	late := NewNode(PercentageTransition{Start: 0.5, End: 0.5, Span: time.Second}, 2500*time.Millisecond)
	root.Subordinates = []SubordinateNode{{Node: late, Operation: OpAdd}}

	if s := root.StateAt(500*time.Millisecond, 1); s != nil {
		t.Error("StateAt before start should be nil")
	}
	if s := root.StateAt(3*time.Second, 1); s != nil {
		t.Error("StateAt at end should be nil")
	}

	s := root.StateAt(2*time.Second, 4)
	if s == nil {
		t.Fatal("StateAt(2s) = nil")
	}
	if s.RelativeTime != time.Second || s.Layer != 4 {
		t.Errorf("state time/layer = %v/%d, want 1s/4", s.RelativeTime, s.Layer)
	}
	if len(s.SubordinateStates) != 0 {
		t.Errorf("inactive subordinate included: %d", len(s.SubordinateStates))
	}

	s = root.StateAt(2750*time.Millisecond, 4)
	if len(s.SubordinateStates) != 1 {
		t.Fatalf("active subordinate missing")
	}
	got := float64(s.Value().(PercentageValue))
	if !approx(got, 1) {
		t.Errorf("Value() = %v, want 1 (0.875 + 0.5 saturated)", got)
	}
}
