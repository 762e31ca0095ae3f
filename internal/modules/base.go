// Package modules holds the pieces shared by the concrete output modules
// in its subpackages.
//
// Each module implements output.Module. A module is owned by the root
// controller of a chain; the controller selects the chain member with
// SetChainIndex before every UpdateState call.
package modules

import (
	"sync/atomic"
	"time"
)

// DefaultInterval is the tick period used when a module is configured
// without one (40 Hz, the usual DMX refresh).
const DefaultInterval = 25 * time.Millisecond

// Base implements the bookkeeping every module needs. Embed it.
type Base struct {
	name     string
	interval time.Duration
	paused   atomic.Bool
	chain    atomic.Int32
}

// Init sets the name and interval. A non-positive interval uses
// DefaultInterval.
func (b *Base) Init(name string, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	b.name = name
	b.interval = interval
}

// Name returns the module name.
func (b *Base) Name() string { return b.name }

// UpdateInterval returns the tick period.
func (b *Base) UpdateInterval() time.Duration { return b.interval }

// Pause marks the module paused. Modules skip transmission while paused.
func (b *Base) Pause() { b.paused.Store(true) }

// Resume clears the paused flag.
func (b *Base) Resume() { b.paused.Store(false) }

// Paused reports whether the module is paused.
func (b *Base) Paused() bool { return b.paused.Load() }

// SetChainIndex selects the chain member for the next UpdateState.
func (b *Base) SetChainIndex(index int) { b.chain.Store(int32(index)) }

// ChainIndex returns the selected chain member.
func (b *Base) ChainIndex() int { return int(b.chain.Load()) }
