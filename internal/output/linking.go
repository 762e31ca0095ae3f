package output

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Linking registers controllers and the links that chain them.
//
// A chain starts at a root (a controller with no prior) and follows next
// links. Each controller has at most one prior and one next, so chains are
// simple lists. Chains are materialised on first use and cached until the
// topology changes.
//
// Thread Safety: all methods are safe for concurrent use.
type Linking struct {
	mu          sync.RWMutex
	controllers map[uuid.UUID]*Controller
	order       []uuid.UUID
	prior       map[uuid.UUID]uuid.UUID
	next        map[uuid.UUID]uuid.UUID
	chains      map[uuid.UUID][]*Controller
}

// NewLinking creates an empty registry.
func NewLinking() *Linking {
	return &Linking{
		controllers: make(map[uuid.UUID]*Controller),
		prior:       make(map[uuid.UUID]uuid.UUID),
		next:        make(map[uuid.UUID]uuid.UUID),
		chains:      make(map[uuid.UUID][]*Controller),
	}
}

// Register adds c to the registry and binds c to it.
func (l *Linking) Register(c *Controller) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.controllers[c.id]; ok {
		return fmt.Errorf("%w: %s", ErrControllerExists, c.id)
	}
	l.controllers[c.id] = c
	l.order = append(l.order, c.id)
	c.linking = l
	clear(l.chains)
	return nil
}

// Unregister removes a controller and any links to it. Its former
// successor becomes the root of its own chain.
func (l *Linking) Unregister(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.controllers[id]; !ok {
		return
	}
	l.unlinkLocked(id)
	if n, ok := l.next[id]; ok {
		delete(l.prior, n)
		delete(l.next, id)
	}
	delete(l.controllers, id)
	l.order = slices.DeleteFunc(l.order, func(x uuid.UUID) bool { return x == id })
	clear(l.chains)
}

// Link places next directly after prior.
func (l *Linking) Link(prior, next uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if prior == next {
		return fmt.Errorf("%w: %s", ErrSelfLink, prior)
	}
	for _, id := range []uuid.UUID{prior, next} {
		if _, ok := l.controllers[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownController, id)
		}
	}
	if p, ok := l.prior[next]; ok {
		return fmt.Errorf("%w: %s already follows %s", ErrAlreadyLinked, next, p)
	}
	if n, ok := l.next[prior]; ok {
		return fmt.Errorf("%w: %s already precedes %s", ErrAlreadyLinked, prior, n)
	}
	// next is a root here; linking would be circular if prior descends from it.
	for id, ok := prior, true; ok; id, ok = l.prior[id] {
		if id == next {
			return fmt.Errorf("%w: %s -> %s", ErrCycle, prior, next)
		}
	}

	l.prior[next] = prior
	l.next[prior] = next
	clear(l.chains)
	return nil
}

// Unlink detaches id from its prior, making it a root.
func (l *Linking) Unlink(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlinkLocked(id)
	clear(l.chains)
}

func (l *Linking) unlinkLocked(id uuid.UUID) {
	if p, ok := l.prior[id]; ok {
		delete(l.next, p)
		delete(l.prior, id)
	}
}

// Controller returns a registered controller.
func (l *Linking) Controller(id uuid.UUID) (*Controller, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.controllers[id]
	return c, ok
}

// Controllers returns every controller in registration order.
func (l *Linking) Controllers() []*Controller {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Controller, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.controllers[id])
	}
	return out
}

// Roots returns the root of every chain in registration order.
func (l *Linking) Roots() []*Controller {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Controller
	for _, id := range l.order {
		if _, linked := l.prior[id]; !linked {
			out = append(out, l.controllers[id])
		}
	}
	return out
}

// IsRoot reports whether id is registered and has no prior.
func (l *Linking) IsRoot(id uuid.UUID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, registered := l.controllers[id]
	_, linked := l.prior[id]
	return registered && !linked
}

// Prior returns the controller directly before id.
func (l *Linking) Prior(id uuid.UUID) (*Controller, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.prior[id]
	if !ok {
		return nil, false
	}
	c, ok := l.controllers[p]
	return c, ok
}

// Next returns the controller directly after id.
func (l *Linking) Next(id uuid.UUID) (*Controller, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n, ok := l.next[id]
	if !ok {
		return nil, false
	}
	c, ok := l.controllers[n]
	return c, ok
}

// Root returns the root of the chain containing id.
func (l *Linking) Root(id uuid.UUID) (*Controller, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rootID, err := l.rootLocked(id)
	if err != nil {
		return nil, false
	}
	return l.controllers[rootID], true
}

// rootLocked walks prior links from id. The walk is bounded by the number of
// registered controllers.
func (l *Linking) rootLocked(id uuid.UUID) (uuid.UUID, error) {
	if _, ok := l.controllers[id]; !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownController, id)
	}
	for range len(l.controllers) {
		p, ok := l.prior[id]
		if !ok {
			if _, registered := l.controllers[id]; !registered {
				return uuid.Nil, fmt.Errorf("%w: missing %s", ErrChainBroken, id)
			}
			return id, nil
		}
		id = p
	}
	return uuid.Nil, fmt.Errorf("%w: through %s", ErrCycle, id)
}

// Chain returns the chain containing id, root first. The returned slice is
// shared and must not be modified.
func (l *Linking) Chain(id uuid.UUID) ([]*Controller, error) {
	l.mu.RLock()
	rootID, err := l.rootLocked(id)
	chain, cached := l.chains[rootID]
	l.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if cached {
		return chain, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if rootID, err = l.rootLocked(id); err != nil {
		return nil, err
	}
	if chain, cached = l.chains[rootID]; cached {
		return chain, nil
	}

	seen := make(map[uuid.UUID]bool)
	for cur, ok := rootID, true; ok; cur, ok = l.next[cur] {
		c, registered := l.controllers[cur]
		if !registered {
			return nil, fmt.Errorf("%w: missing %s", ErrChainBroken, cur)
		}
		if seen[cur] {
			return nil, fmt.Errorf("%w: %s repeats", ErrCycle, cur)
		}
		seen[cur] = true
		chain = append(chain, c)
	}
	l.chains[rootID] = chain
	return chain, nil
}

// ChainIndex returns the position of id in its chain, or -1.
func (l *Linking) ChainIndex(id uuid.UUID) int {
	chain, err := l.Chain(id)
	if err != nil {
		return -1
	}
	return slices.IndexFunc(chain, func(c *Controller) bool { return c.id == id })
}
