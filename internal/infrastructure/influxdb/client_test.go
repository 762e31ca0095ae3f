package influxdb_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-show/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-show/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-show/internal/instrumentation"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "grayshow-dev-token",
		Org:           "graylogic",
		Bucket:        "show",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// connectOrSkip connects to the local InfluxDB or skips the test.
func connectOrSkip(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// writeAndCheck runs write, flushes and fails on any async write error.
func writeAndCheck(t *testing.T, client *influxdb.Client, write func()) {
	t.Helper()
	var (
		mu       sync.Mutex
		writeErr error
	)
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})

	write()
	client.Flush()
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		t.Errorf("Write error = %v", writeErr)
	}
}

var _ instrumentation.PointWriter = (*influxdb.Client)(nil)

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestNilClient(t *testing.T) {
	var client *influxdb.Client
	if client.IsConnected() {
		t.Error("IsConnected() on nil client = true")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
	// Writes on a disconnected client are dropped.
	client.WriteDeviceEvent("stage", "fault", "boom")
	client.WritePoint("output_instrumentation", nil, map[string]interface{}{"value": 1.0})
}

func TestHealthCheck(t *testing.T) {
	client := connectOrSkip(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	if err := client.HealthCheck(cancelled); err == nil {
		t.Error("HealthCheck() should return error for cancelled context")
	}
}

// =============================================================================
// Write Tests
// =============================================================================

func TestWriteDeviceEvent(t *testing.T) {
	client := connectOrSkip(t)
	writeAndCheck(t, client, func() {
		client.WriteDeviceEvent("stage", "started", "")
		client.WriteDeviceEvent("stage", "fault", "write: broken pipe")
	})
}

func TestWritePlaybackPosition(t *testing.T) {
	client := connectOrSkip(t)
	writeAndCheck(t, client, func() {
		client.WritePlaybackPosition(90*time.Second, 3)
	})
}

func TestWritePointWithTime(t *testing.T) {
	client := connectOrSkip(t)
	writeAndCheck(t, client, func() {
		client.WritePointWithTime(
			"output_instrumentation",
			map[string]string{"device": "stage", "sample": "Update jitter"},
			map[string]interface{}{"value": 0.4},
			time.Now().Add(-time.Minute),
		)
	})
}

func TestClose(t *testing.T) {
	client := connectOrSkip(t)
	client.WriteDeviceEvent("stage", "stopped", "")

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
}
