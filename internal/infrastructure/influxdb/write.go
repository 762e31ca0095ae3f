package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by the show controller.
const (
	// MeasurementDeviceEvents records hardware thread lifecycle events.
	MeasurementDeviceEvents = "device_events"

	// MeasurementPlayback records the playback clock.
	MeasurementPlayback = "playback"
)

// WriteDeviceEvent records a lifecycle event (started, stopped, fault,
// timeout) of one hardware device thread.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteDeviceEvent("stage", "fault", "write /dev/ttyUSB0: i/o error")
func (c *Client) WriteDeviceEvent(device, kind, message string) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{"count": 1}
	if message != "" {
		fields["message"] = message
	}

	point := write.NewPoint(
		MeasurementDeviceEvents,
		map[string]string{
			"device": device,
			"kind":   kind,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePlaybackPosition records the playback position in seconds and the
// number of scheduled effects.
func (c *Client) WritePlaybackPosition(position time.Duration, effects int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementPlayback,
		nil,
		map[string]interface{}{
			"position_s": position.Seconds(),
			"effects":    effects,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
// It satisfies instrumentation.PointWriter.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("output_instrumentation",
//	    map[string]string{"device": "stage", "sample": "Update jitter"},
//	    map[string]interface{}{"value": 0.4})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the sample was taken earlier than the write, such as
// jitter samples carrying the tick time.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
