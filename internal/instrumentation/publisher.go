package instrumentation

import (
	"context"
	"time"
)

// measurement is the InfluxDB measurement instrumentation is written to.
const measurement = "output_instrumentation"

// defaultPublishInterval is used when no interval is configured.
const defaultPublishInterval = 10 * time.Second

// PointWriter is the subset of the InfluxDB client the publisher needs.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]interface{})
}

// Publisher periodically writes registry snapshots to a PointWriter.
type Publisher struct {
	registry *Registry
	writer   PointWriter
	interval time.Duration
}

// NewPublisher creates a publisher. A non-positive interval selects the
// default of ten seconds.
func NewPublisher(registry *Registry, writer PointWriter, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = defaultPublishInterval
	}
	return &Publisher{registry: registry, writer: writer, interval: interval}
}

// Run publishes until ctx is cancelled. It returns immediately when either
// the registry or the writer is absent.
func (p *Publisher) Run(ctx context.Context) {
	if p == nil || p.registry == nil || p.writer == nil {
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Publish()
		}
	}
}

// Publish writes the current snapshot once.
func (p *Publisher) Publish() {
	if p == nil || p.writer == nil {
		return
	}
	for _, s := range p.registry.Snapshot() {
		p.writer.WritePoint(measurement,
			map[string]string{"name": s.Name, "unit": s.Unit},
			map[string]interface{}{"value": s.Value},
		)
	}
}
