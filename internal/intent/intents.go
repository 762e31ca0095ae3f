package intent

import "time"

// Intent describes how a value changes over a relative time span.
type Intent interface {
	// TimeSpan is the length of the intent.
	TimeSpan() time.Duration

	// ValueAt evaluates the intent at a time relative to its start.
	// Times outside [0, TimeSpan] are clamped.
	ValueAt(t time.Duration) Value
}

// FloatTransition interpolates a float from Start to End.
type FloatTransition struct {
	Start float64
	End   float64
	Span  time.Duration
}

// TimeSpan implements Intent.
func (i FloatTransition) TimeSpan() time.Duration { return i.Span }

// ValueAt implements Intent.
func (i FloatTransition) ValueAt(t time.Duration) Value {
	return FloatValue(interpolate(t, i.Span, i.Start, i.End))
}

// PercentageTransition interpolates a percentage (0..1) from Start to End.
type PercentageTransition struct {
	Start float64
	End   float64
	Span  time.Duration
}

// TimeSpan implements Intent.
func (i PercentageTransition) TimeSpan() time.Duration { return i.Span }

// ValueAt implements Intent.
func (i PercentageTransition) ValueAt(t time.Duration) Value {
	return PercentageValue(interpolate(t, i.Span, i.Start, i.End))
}

// LightingTransition fades a colour's intensity from Start to End.
type LightingTransition struct {
	Color Color
	Start float64
	End   float64
	Span  time.Duration
}

// TimeSpan implements Intent.
func (i LightingTransition) TimeSpan() time.Duration { return i.Span }

// ValueAt implements Intent.
func (i LightingTransition) ValueAt(t time.Duration) Value {
	return LightingValue{Color: i.Color, Intensity: interpolate(t, i.Span, i.Start, i.End)}
}

// DiscreteTransition fades a discrete colour's intensity from Start to End.
type DiscreteTransition struct {
	Color Color
	Start float64
	End   float64
	Span  time.Duration
}

// TimeSpan implements Intent.
func (i DiscreteTransition) TimeSpan() time.Duration { return i.Span }

// ValueAt implements Intent.
func (i DiscreteTransition) ValueAt(t time.Duration) Value {
	return DiscreteValue{Color: i.Color, Intensity: interpolate(t, i.Span, i.Start, i.End)}
}

// StaticIntent yields the same value for its whole span.
type StaticIntent struct {
	Value Value
	Span  time.Duration
}

// TimeSpan implements Intent.
func (i StaticIntent) TimeSpan() time.Duration { return i.Span }

// ValueAt implements Intent.
func (i StaticIntent) ValueAt(time.Duration) Value { return i.Value }

// interpolate linearly maps t in [0, span] onto [from, to].
func interpolate(t, span time.Duration, from, to float64) float64 {
	if span <= 0 || t >= span {
		return to
	}
	if t <= 0 {
		return from
	}
	frac := float64(t) / float64(span)
	return from + (to-from)*frac
}
