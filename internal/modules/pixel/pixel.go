// Package pixel is an output module driving a WS281x LED strip over SPI
// with periph.io's nrzled driver.
//
// Chain members are laid out back to back on one strip in chain order.
// Each output is one pixel. Frames are buffered by UpdateState and sent
// once per tick by Flush.
//
// The host must be initialised with periph.io/x/host/v3.Init before Start.
package pixel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"

	"github.com/nerrad567/gray-logic-show/internal/command"
	"github.com/nerrad567/gray-logic-show/internal/modules"
)

const channels = 3

// DefaultFrequency is the SPI clock used to shape the NRZ bit stream.
const DefaultFrequency = 2500 * physic.KiloHertz

// ErrNotStarted is returned when flushing before Start.
var ErrNotStarted = errors.New("pixel: module not started")

// Config configures a pixel strip module.
type Config struct {
	Name      string
	Port      string // spireg port name, empty for the first port
	NumPixels int
	Frequency physic.Frequency
	Interval  time.Duration
}

// Module is the WS281x output module.
type Module struct {
	modules.Base
	portName  string
	numPixels int
	freq      physic.Frequency
	open      func(name string) (spi.PortCloser, error)

	mu      sync.Mutex
	conn    spi.PortCloser
	dev     *nrzled.Dev
	members map[int][]command.RGB
	frame   []byte
}

// New creates a pixel module.
func New(cfg Config) *Module {
	freq := cfg.Frequency
	if freq <= 0 {
		freq = DefaultFrequency
	}
	m := &Module{
		portName:  cfg.Port,
		numPixels: cfg.NumPixels,
		freq:      freq,
		open:      spireg.Open,
		members:   make(map[int][]command.RGB),
		frame:     make([]byte, cfg.NumPixels*channels),
	}
	m.Init(cfg.Name, cfg.Interval)
	return m
}

// Start opens the SPI port and the strip driver.
func (m *Module) Start() error {
	p, err := m.open(m.portName)
	if err != nil {
		return fmt.Errorf("pixel: opening spi port %q: %w", m.portName, err)
	}
	dev, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: m.numPixels,
		Channels:  channels,
		Freq:      m.freq,
	})
	if err != nil {
		_ = p.Close()
		return fmt.Errorf("pixel: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.conn = p
	m.dev = dev
	clear(m.members)
	return nil
}

// Stop blanks the strip and closes the port.
func (m *Module) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return nil
	}
	haltErr := m.dev.Halt()
	closeErr := m.conn.Close()
	m.dev, m.conn = nil, nil
	return errors.Join(haltErr, closeErr)
}

// UpdateState buffers the selected chain member's pixels.
func (m *Module) UpdateState(cmds []command.Command) error {
	px := make([]command.RGB, len(cmds))
	for i, c := range cmds {
		px[i] = command.Color(c)
	}
	m.mu.Lock()
	m.members[m.ChainIndex()] = px
	m.mu.Unlock()
	return nil
}

// Flush lays out every buffered member in chain order and writes the
// strip. Pixels beyond the strip length are dropped; missing ones are dark.
// The buffers are emptied afterwards so a member that left the chain does
// not linger on the strip.
func (m *Module) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { clear(m.members) }()

	if m.Paused() {
		return nil
	}
	if m.dev == nil {
		return ErrNotStarted
	}

	clear(m.frame)
	pos := 0
	for idx := 0; pos < m.numPixels; idx++ {
		px, ok := m.members[idx]
		if !ok {
			break
		}
		for _, c := range px {
			if pos >= m.numPixels {
				break
			}
			m.frame[pos*channels] = c.R
			m.frame[pos*channels+1] = c.G
			m.frame[pos*channels+2] = c.B
			pos++
		}
	}
	if _, err := m.dev.Write(m.frame); err != nil {
		return fmt.Errorf("pixel: %w", err)
	}
	return nil
}

// Frame returns a copy of the last laid-out strip buffer.
func (m *Module) Frame() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.frame...)
}
