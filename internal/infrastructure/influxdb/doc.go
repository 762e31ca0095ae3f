// Package influxdb provides InfluxDB connectivity for the show controller.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched point writing and health monitoring.
//
// # Measurements
//
//   - output_instrumentation: hardware thread samples (see instrumentation)
//   - device_events: started, stopped, fault and timeout events
//   - playback: the playback clock and the number of scheduled effects
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without instrumentation export
//	}
//	defer client.Close()
//
//	pub := instrumentation.NewPublisher(registry, client, cfg.Output.PublishEvery())
//	go pub.Run(ctx)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Writes are non-blocking; async write errors go to the SetOnError callback.
package influxdb
