// Package mqttout is an output module publishing each chain member's
// commands as a JSON frame over MQTT.
package mqttout

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-show/internal/command"
	"github.com/nerrad567/gray-logic-show/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-show/internal/modules"
)

// ErrNoPublisher is returned when the module has no MQTT publisher.
var ErrNoPublisher = errors.New("mqttout: no publisher")

// Publisher is the subset of the MQTT client the module uses.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Frame is the JSON payload of one chain member.
type Frame struct {
	Module     string   `json:"module"`
	ChainIndex int      `json:"chain_index"`
	Levels     []uint8  `json:"levels"`
	Commands   []string `json:"commands"`
	Timestamp  int64    `json:"ts"`
}

// Config configures an MQTT output module.
type Config struct {
	Name     string
	QoS      byte
	Retained bool
	Interval time.Duration
}

// Module is the MQTT output module.
type Module struct {
	modules.Base
	qos      byte
	retained bool
	now      func() time.Time

	mu        sync.Mutex
	publisher Publisher
	running   bool
}

// New creates an MQTT output module publishing through p.
func New(cfg Config, p Publisher) *Module {
	m := &Module{
		qos:       cfg.QoS,
		retained:  cfg.Retained,
		now:       time.Now,
		publisher: p,
	}
	m.Init(cfg.Name, cfg.Interval)
	return m
}

// Start implements output.Module.
func (m *Module) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publisher == nil {
		return ErrNoPublisher
	}
	m.running = true
	return nil
}

// Stop implements output.Module.
func (m *Module) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// Topic returns the topic for a chain member.
func (m *Module) Topic(chainIndex int) string {
	return mqtt.Topics{}.ShowOutput(m.Name(), chainIndex)
}

// UpdateState publishes the selected chain member's frame.
func (m *Module) UpdateState(cmds []command.Command) error {
	m.mu.Lock()
	p, running := m.publisher, m.running
	m.mu.Unlock()
	if !running || m.Paused() {
		return nil
	}

	idx := m.ChainIndex()
	f := Frame{
		Module:     m.Name(),
		ChainIndex: idx,
		Levels:     make([]uint8, len(cmds)),
		Commands:   make([]string, len(cmds)),
		Timestamp:  m.now().UnixMilli(),
	}
	for i, c := range cmds {
		f.Levels[i] = command.Level(c)
		f.Commands[i] = command.Describe(c)
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("mqttout: encoding frame: %w", err)
	}
	return p.Publish(m.Topic(idx), payload, m.qos, m.retained)
}
