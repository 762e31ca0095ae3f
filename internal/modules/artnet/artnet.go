// Package artnet is an output module sending Art-DMX packets over UDP.
//
// Each chain member is one DMX universe: universe = base universe + chain
// index. Every output occupies one 8-bit slot.
package artnet

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jsimonetti/go-artnet/packet"

	"github.com/nerrad567/gray-logic-show/internal/command"
	"github.com/nerrad567/gray-logic-show/internal/modules"
)

// DefaultPort is the Art-Net UDP port.
const DefaultPort = 6454

const (
	headerSize  = 18
	maxSlots    = 512
	maxUniverse = 0x7FFF
)

var (
	// ErrNotStarted is returned when writing before Start.
	ErrNotStarted = errors.New("artnet: module not started")

	// ErrUniverse is returned when a chain member maps past the last universe.
	ErrUniverse = errors.New("artnet: universe out of range")
)

// Config configures an Art-Net module.
type Config struct {
	Name     string
	Target   string // host or host:port
	Universe uint16 // base universe (15-bit port address)
	Interval time.Duration
}

// Module is the Art-Net output module.
type Module struct {
	modules.Base
	target   string
	universe uint16
	dial     func(network, address string) (net.Conn, error)

	mu   sync.Mutex
	conn net.Conn
	seq  map[uint16]uint8
}

// New creates an Art-Net module.
func New(cfg Config) *Module {
	target := cfg.Target
	if _, _, err := net.SplitHostPort(target); err != nil {
		target = net.JoinHostPort(target, fmt.Sprint(DefaultPort))
	}
	m := &Module{
		target:   target,
		universe: cfg.Universe,
		dial:     net.Dial,
		seq:      make(map[uint16]uint8),
	}
	m.Init(cfg.Name, cfg.Interval)
	return m
}

// Start opens the UDP socket.
func (m *Module) Start() error {
	conn, err := m.dial("udp", m.target)
	if err != nil {
		return fmt.Errorf("artnet: dialing %s: %w", m.target, err)
	}
	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
	return nil
}

// Stop closes the socket.
func (m *Module) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}

// UpdateState sends the selected chain member as one universe. Paused
// modules send nothing.
func (m *Module) UpdateState(cmds []command.Command) error {
	if m.Paused() {
		return nil
	}
	u := int(m.universe) + m.ChainIndex()
	if u > maxUniverse {
		return fmt.Errorf("%w: %d", ErrUniverse, u)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return ErrNotStarted
	}
	seq := m.seq[uint16(u)] + 1
	if seq == 0 {
		seq = 1
	}
	m.seq[uint16(u)] = seq

	pkt, err := Packet(uint16(u), seq, cmds)
	if err != nil {
		return err
	}
	if _, err := m.conn.Write(pkt); err != nil {
		return fmt.Errorf("artnet: universe %d: %w", u, err)
	}
	return nil
}

// Packet builds an ArtDmx packet for universe. Commands beyond 512 slots
// are dropped; the data length is padded to an even number and the frame
// is cut to that length.
func Packet(universe uint16, sequence uint8, cmds []command.Command) ([]byte, error) {
	cmds = cmds[:min(len(cmds), maxSlots)]
	n := max(len(cmds)+len(cmds)%2, 2)

	p := packet.NewArtDMXPacket()
	p.Sequence = sequence
	p.SubUni = uint8(universe)
	p.Net = uint8(universe >> 8)
	p.Length = uint16(n)
	for i, c := range cmds {
		p.Data[i] = command.Level(c)
	}

	b, err := p.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("artnet: encoding universe %d: %w", universe, err)
	}
	if len(b) > headerSize+n {
		b = b[:headerSize+n]
	}
	return b, nil
}
