// Package renard is an output module speaking the Renard serial protocol.
//
// Every chain member becomes one packet: the sync byte, the address byte
// 0x80 plus the chain index, then one escaped level byte per output. The
// port is opened at the configured baud rate, 8N1, which is what Renard
// boards expect.
package renard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/nerrad567/gray-logic-show/internal/command"
	"github.com/nerrad567/gray-logic-show/internal/modules"
)

// Protocol bytes.
const (
	Sync        = 0x7E
	AddressBase = 0x80
	Escape      = 0x7F
	Pad         = 0x7D
)

// DefaultBaud is the usual Renard line speed.
const DefaultBaud = 57600

// maxChain is the number of addressable controllers on one line.
const maxChain = 0xFF - AddressBase

var (
	// ErrNotStarted is returned when writing before Start.
	ErrNotStarted = errors.New("renard: module not started")

	// ErrAddress is returned when a chain member has no Renard address.
	ErrAddress = errors.New("renard: chain index out of range")
)

// Config configures a Renard module.
type Config struct {
	Name     string
	Device   string // serial device path, e.g. /dev/ttyUSB0
	Baud     int    // zero means DefaultBaud
	Interval time.Duration
}

// Module is the Renard output module.
type Module struct {
	modules.Base
	device string
	mode   serial.Mode
	open   func(path string, mode *serial.Mode) (io.WriteCloser, error)

	mu  sync.Mutex
	w   io.WriteCloser
	buf bytes.Buffer
}

// New creates a Renard module.
func New(cfg Config) *Module {
	baud := cfg.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	m := &Module{
		device: cfg.Device,
		mode: serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		open: openPort,
	}
	m.Init(cfg.Name, cfg.Interval)
	return m
}

func openPort(path string, mode *serial.Mode) (io.WriteCloser, error) {
	return serial.Open(path, mode)
}

// Baud returns the configured line speed.
func (m *Module) Baud() int { return m.mode.BaudRate }

// Start opens the serial port.
func (m *Module) Start() error {
	mode := m.mode
	w, err := m.open(m.device, &mode)
	if err != nil {
		return fmt.Errorf("renard: opening %s at %d baud: %w", m.device, m.mode.BaudRate, err)
	}
	m.mu.Lock()
	m.w = w
	m.mu.Unlock()
	return nil
}

// Stop closes the serial port.
func (m *Module) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.w == nil {
		return nil
	}
	err := m.w.Close()
	m.w = nil
	return err
}

// UpdateState writes the packet of the selected chain member.
func (m *Module) UpdateState(cmds []command.Command) error {
	if m.Paused() {
		return nil
	}
	idx := m.ChainIndex()
	if idx < 0 || idx > maxChain {
		return fmt.Errorf("%w: %d", ErrAddress, idx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.w == nil {
		return ErrNotStarted
	}
	m.buf.Reset()
	AppendPacket(&m.buf, idx, cmds)
	if _, err := m.w.Write(m.buf.Bytes()); err != nil {
		return fmt.Errorf("renard: writing %s: %w", m.device, err)
	}
	return nil
}

// AppendPacket encodes one packet for the controller at chain index idx.
func AppendPacket(buf *bytes.Buffer, idx int, cmds []command.Command) {
	buf.WriteByte(Sync)
	buf.WriteByte(byte(AddressBase + idx))
	for _, c := range cmds {
		switch l := command.Level(c); l {
		case Pad:
			buf.Write([]byte{Escape, 0x2F})
		case Sync:
			buf.Write([]byte{Escape, 0x30})
		case Escape:
			buf.Write([]byte{Escape, 0x31})
		default:
			buf.WriteByte(l)
		}
	}
}
