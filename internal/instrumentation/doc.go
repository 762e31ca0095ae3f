// Package instrumentation keeps named runtime values for output devices
// and publishes them.
//
// Update threads register their values when they start and remove them when
// they stop, so the Registry only ever lists live devices. Values are safe to
// set from the thread that owns them while any goroutine reads them.
//
// A nil *Registry is valid and discards everything, so components can run
// without instrumentation wired in.
//
// Publisher snapshots a Registry at a fixed interval and writes one point per
// value to InfluxDB:
//
//	measurement: output_instrumentation
//	tags:        name, unit
//	fields:      value
package instrumentation
