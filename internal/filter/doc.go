// Package filter implements the per-output post-filter pipeline.
//
// A Filter transforms the command an output is about to send, or vetoes it
// by returning nil. A Chain runs its filters in order and stops at the first
// veto, leaving the output blank for that tick.
//
// Evaluation can be switched off process-wide with SetEvaluation, for
// example to look at raw levels while diagnosing a rig. The switch is read
// atomically on every tick.
//
// Built-in filters:
//   - Gamma: dimming curve
//   - Invert: full scale minus level
//   - Threshold: vetoes levels below a minimum
//   - Limit: scales levels down to a maximum
package filter
