// Package preview is a virtual output module that keeps the latest frame
// of every chain member and forwards frames to a broadcaster, typically the
// API WebSocket hub.
package preview

import (
	"slices"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-show/internal/command"
	"github.com/nerrad567/gray-logic-show/internal/modules"
)

// Frame is the output of one chain member on one tick.
type Frame struct {
	Module     string        `json:"module"`
	ChainIndex int           `json:"chain_index"`
	Colors     []command.RGB `json:"colors"`
	At         time.Time     `json:"at"`
}

// Broadcaster receives every frame. It must not block.
type Broadcaster interface {
	BroadcastFrame(f Frame)
}

// Module is the preview output module.
type Module struct {
	modules.Base

	mu          sync.RWMutex
	frames      map[int]Frame
	broadcaster Broadcaster
	running     bool
}

// New creates a preview module.
func New(name string, interval time.Duration) *Module {
	m := &Module{frames: make(map[int]Frame)}
	m.Init(name, interval)
	return m
}

// SetBroadcaster sets the frame sink. nil disables broadcasting.
func (m *Module) SetBroadcaster(b Broadcaster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcaster = b
}

// Start implements output.Module.
func (m *Module) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	return nil
}

// Stop implements output.Module and forgets every frame.
func (m *Module) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	clear(m.frames)
	return nil
}

// UpdateState stores the frame for the selected chain member. Paused
// modules keep the frame but do not broadcast it.
func (m *Module) UpdateState(cmds []command.Command) error {
	f := Frame{
		Module:     m.Name(),
		ChainIndex: m.ChainIndex(),
		Colors:     make([]command.RGB, len(cmds)),
		At:         time.Now().UTC(),
	}
	for i, c := range cmds {
		f.Colors[i] = command.Color(c)
	}

	m.mu.Lock()
	m.frames[f.ChainIndex] = f
	b := m.broadcaster
	live := m.running && !m.Paused()
	m.mu.Unlock()

	if b != nil && live {
		b.BroadcastFrame(f)
	}
	return nil
}

// Frames returns the latest frame of every chain member, by chain index.
func (m *Module) Frames() []Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Frame, 0, len(m.frames))
	for _, f := range m.frames {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Frame) int { return a.ChainIndex - b.ChainIndex })
	return out
}
