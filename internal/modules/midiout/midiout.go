// Package midiout is an output module sending one MIDI control change per
// output. The MIDI channel is the chain index and the controller number is
// the output index; levels are scaled to 7 bits. Only changed values are
// sent.
package midiout

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/nerrad567/gray-logic-show/internal/command"
	"github.com/nerrad567/gray-logic-show/internal/modules"
)

const (
	maxChannels    = 16
	maxControllers = 128
)

var (
	// ErrNotStarted is returned when writing before Start.
	ErrNotStarted = errors.New("midiout: module not started")

	// ErrPortNotFound is returned when no output port matches the configured name.
	ErrPortNotFound = errors.New("midiout: no matching output port")

	// ErrChannel is returned for a chain member beyond MIDI channel 16.
	ErrChannel = errors.New("midiout: chain index out of midi channel range")
)

// Config configures a MIDI output module.
type Config struct {
	Name     string
	Port     string // case-insensitive substring of the output port name
	Interval time.Duration
}

// Module is the MIDI output module.
type Module struct {
	modules.Base
	port    string
	connect func(port string) (func(midi.Message) error, error)

	mu   sync.Mutex
	send func(midi.Message) error
	last map[uint16]uint8 // channel<<8 | controller -> value
}

// New creates a MIDI output module. A MIDI driver must be registered,
// usually by a blank import of gitlab.com/gomidi/midi/v2/drivers/rtmididrv.
func New(cfg Config) *Module {
	m := &Module{
		port:    cfg.Port,
		connect: connectPort,
		last:    make(map[uint16]uint8),
	}
	m.Init(cfg.Name, cfg.Interval)
	return m
}

// FindOutPort returns the first output port whose name contains substr.
func FindOutPort(substr string) (drivers.Out, error) {
	lower := strings.ToLower(substr)
	for _, port := range midi.GetOutPorts() {
		if strings.Contains(strings.ToLower(port.String()), lower) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPortNotFound, substr)
}

func connectPort(name string) (func(midi.Message) error, error) {
	port, err := FindOutPort(name)
	if err != nil {
		return nil, err
	}
	send, err := midi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("midiout: open output port: %w", err)
	}
	return send, nil
}

// Start opens the output port.
func (m *Module) Start() error {
	send, err := m.connect(m.port)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.send = send
	clear(m.last)
	return nil
}

// Stop releases the port. The driver itself is closed at process exit.
func (m *Module) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.send = nil
	return nil
}

// UpdateState sends a control change for every output whose value changed.
// Outputs beyond controller 127 are ignored.
func (m *Module) UpdateState(cmds []command.Command) error {
	if m.Paused() {
		return nil
	}
	idx := m.ChainIndex()
	if idx < 0 || idx >= maxChannels {
		return fmt.Errorf("%w: %d", ErrChannel, idx)
	}
	ch := uint8(idx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.send == nil {
		return ErrNotStarted
	}
	for i, c := range cmds[:min(len(cmds), maxControllers)] {
		cc := uint8(i)
		v := command.Level(c) >> 1
		key := uint16(ch)<<8 | uint16(cc)
		if prev, ok := m.last[key]; ok && prev == v {
			continue
		}
		if err := m.send(midi.ControlChange(ch, cc, v)); err != nil {
			return fmt.Errorf("midiout: channel %d cc %d: %w", ch, cc, err)
		}
		m.last[key] = v
	}
	return nil
}
