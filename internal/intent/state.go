package intent

import "time"

// FilterState transforms the value of a single intent state before combination.
type FilterState interface {
	Apply(v Value) Value
}

// FilterFunc adapts a function to FilterState.
type FilterFunc func(v Value) Value

// Apply implements FilterState.
func (f FilterFunc) Apply(v Value) Value { return f(v) }

// SubordinateState is a child contribution folded into a parent state.
type SubordinateState struct {
	State     *State
	Operation Operation
}

// State is an Intent evaluated at one relative time.
type State struct {
	intent Intent

	// RelativeTime is the elapsed time since the intent started.
	RelativeTime time.Duration

	// Layer orders compositing; higher layers composite over lower ones.
	Layer byte

	// FilterStates are applied in order after subordinate aggregation.
	FilterStates []FilterState

	// SubordinateStates are folded into this state's value in order.
	SubordinateStates []SubordinateState
}

// NewState evaluates intent at relative time t on the given layer.
func NewState(in Intent, t time.Duration, layer byte) *State {
	return &State{
		intent:       in,
		RelativeTime: t,
		Layer:        layer,
	}
}

// Static wraps a fixed value as a state. The combinator uses it for results.
func Static(v Value, layer byte) *State {
	return NewState(StaticIntent{Value: v}, 0, layer)
}

// Intent returns the underlying intent.
func (s *State) Intent() Intent {
	return s.intent
}

// Value evaluates the intent, aggregates subordinates and applies filter states.
func (s *State) Value() Value {
	v := s.intent.ValueAt(s.RelativeTime)
	for _, sub := range s.SubordinateStates {
		if sub.State == nil {
			continue
		}
		v = sub.Operation.Apply(v, sub.State.Value())
	}
	for _, f := range s.FilterStates {
		v = f.Apply(v)
	}
	return v
}

// Clone returns a copy sharing the same Intent with independent filter and
// subordinate lists.
func (s *State) Clone() *State {
	c := &State{
		intent:       s.intent,
		RelativeTime: s.RelativeTime,
		Layer:        s.Layer,
	}
	if len(s.FilterStates) > 0 {
		c.FilterStates = append([]FilterState(nil), s.FilterStates...)
	}
	if len(s.SubordinateStates) > 0 {
		c.SubordinateStates = append([]SubordinateState(nil), s.SubordinateStates...)
	}
	return c
}
