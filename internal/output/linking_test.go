package output

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func newLinked(t *testing.T, names ...string) (*Linking, []*Controller) {
	t.Helper()
	l := NewLinking()
	out := make([]*Controller, len(names))
	for i, name := range names {
		out[i] = NewController(Config{Name: name, OutputCount: 1}, nil)
		if err := l.Register(out[i]); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}
	return l, out
}

func chainNames(chain []*Controller) []string {
	out := make([]string, len(chain))
	for i, c := range chain {
		out[i] = c.Name()
	}
	return out
}

func TestIDFromName_Stable(t *testing.T) {
	if IDFromName("dmx") != IDFromName("dmx") {
		t.Error("IDFromName() not stable")
	}
	if IDFromName("dmx") == IDFromName("pixels") {
		t.Error("IDFromName() collides for different names")
	}
	c := NewController(Config{Name: "dmx"}, nil)
	if c.ID() != IDFromName("dmx") {
		t.Errorf("ID() = %s, want derived from name", c.ID())
	}
	explicit := uuid.New()
	if c := NewController(Config{ID: explicit, Name: "dmx"}, nil); c.ID() != explicit {
		t.Errorf("ID() = %s, want %s", c.ID(), explicit)
	}
}

func TestLinking_RegisterDuplicate(t *testing.T) {
	l, _ := newLinked(t, "a")
	err := l.Register(NewController(Config{Name: "a"}, nil))
	if !errors.Is(err, ErrControllerExists) {
		t.Errorf("Register(duplicate) = %v, want ErrControllerExists", err)
	}
}

func TestLinking_Chain(t *testing.T) {
	l, cs := newLinked(t, "root", "a", "b", "solo")
	root, a, b, solo := cs[0], cs[1], cs[2], cs[3]

	if err := l.Link(root.ID(), a.ID()); err != nil {
		t.Fatalf("Link(root, a) error = %v", err)
	}
	if err := l.Link(a.ID(), b.ID()); err != nil {
		t.Fatalf("Link(a, b) error = %v", err)
	}

	for _, c := range []*Controller{root, a, b} {
		chain, err := l.Chain(c.ID())
		if err != nil {
			t.Fatalf("Chain(%s) error = %v", c.Name(), err)
		}
		got := chainNames(chain)
		if len(got) != 3 || got[0] != "root" || got[1] != "a" || got[2] != "b" {
			t.Errorf("Chain(%s) = %v, want [root a b]", c.Name(), got)
		}
	}
	if got := l.ChainIndex(b.ID()); got != 2 {
		t.Errorf("ChainIndex(b) = %d, want 2", got)
	}

	roots := chainNames(l.Roots())
	if len(roots) != 2 || roots[0] != "root" || roots[1] != "solo" {
		t.Errorf("Roots() = %v, want [root solo]", roots)
	}
	if !root.IsRoot() || a.IsRoot() || !solo.IsRoot() {
		t.Error("IsRoot() wrong for linked controllers")
	}
	if r, ok := l.Root(b.ID()); !ok || r != root {
		t.Errorf("Root(b) = %v, want root", r)
	}
}

func TestLinking_LinkValidation(t *testing.T) {
	l, cs := newLinked(t, "a", "b", "c")
	a, b, c := cs[0], cs[1], cs[2]
	if err := l.Link(a.ID(), b.ID()); err != nil {
		t.Fatalf("Link(a, b) error = %v", err)
	}

	tests := []struct {
		name    string
		prior   uuid.UUID
		next    uuid.UUID
		wantErr error
	}{
		{"self", c.ID(), c.ID(), ErrSelfLink},
		{"unknown", a.ID(), uuid.New(), ErrUnknownController},
		{"next already has prior", c.ID(), b.ID(), ErrAlreadyLinked},
		{"prior already has next", a.ID(), c.ID(), ErrAlreadyLinked},
		{"cycle", b.ID(), a.ID(), ErrCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := l.Link(tt.prior, tt.next); !errors.Is(err, tt.wantErr) {
				t.Errorf("Link() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLinking_UnlinkAndUnregister(t *testing.T) {
	l, cs := newLinked(t, "a", "b", "c")
	a, b, c := cs[0], cs[1], cs[2]
	_ = l.Link(a.ID(), b.ID())
	_ = l.Link(b.ID(), c.ID())

	// Warm the cache so the topology change must invalidate it.
	if _, err := l.Chain(a.ID()); err != nil {
		t.Fatalf("Chain() error = %v", err)
	}

	l.Unlink(c.ID())
	chain, _ := l.Chain(a.ID())
	if got := chainNames(chain); len(got) != 2 {
		t.Errorf("Chain(a) after Unlink = %v, want [a b]", got)
	}
	if !c.IsRoot() {
		t.Error("c should be a root after Unlink")
	}

	_ = l.Link(b.ID(), c.ID())
	l.Unregister(b.ID())
	if _, ok := l.Controller(b.ID()); ok {
		t.Error("b still registered")
	}
	if !c.IsRoot() {
		t.Error("c should be a root after its prior is unregistered")
	}
	chain, _ = l.Chain(a.ID())
	if got := chainNames(chain); len(got) != 1 || got[0] != "a" {
		t.Errorf("Chain(a) after Unregister = %v, want [a]", got)
	}
	if _, err := l.Chain(b.ID()); !errors.Is(err, ErrUnknownController) {
		t.Errorf("Chain(unregistered) = %v, want ErrUnknownController", err)
	}
	if got := len(l.Controllers()); got != 2 {
		t.Errorf("len(Controllers()) = %d, want 2", got)
	}
}
