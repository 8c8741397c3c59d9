package render

import (
	"cmp"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/scene"
)

// EntryFlags are the sort-relevant bits of a RenderEntry.
type EntryFlags uint8

const (
	// EntryDistanceSort puts the entry in the back-to-front group.
	EntryDistanceSort EntryFlags = 1 << iota
	// EntrySelected draws the entry before unselected ones of equal rank.
	EntrySelected
)

func (f EntryFlags) Has(flag EntryFlags) bool { return f&flag != 0 }

// DrawFunc is one step of drawing a node on a device.
type DrawFunc func(d Device, e *RenderEntry)

// Pass is a named DrawFunc with a stable identity. Entries sharing a setup
// pass are drawn together so the device changes state less often.
type Pass struct {
	Name string
	Fn   DrawFunc
	id   int64
}

var passIDs atomic.Int64

// NewPass wraps fn with a new identity.
func NewPass(name string, fn DrawFunc) *Pass {
	return &Pass{Name: name, Fn: fn, id: passIDs.Add(1)}
}

func (p *Pass) ID() int64 {
	if p == nil {
		return 0
	}
	return p.id
}

func (p *Pass) call(d Device, e *RenderEntry) {
	if p != nil && p.Fn != nil {
		p.Fn(d, e)
	}
}

// DrawFuncs is what a node type registers to be drawn. Setup and Reset
// bracket a run of entries with the same Setup; ObjectReset runs when the
// node changes.
type DrawFuncs struct {
	Setup        *Pass
	Draw         *Pass
	Reset        *Pass
	ObjectReset  *Pass
	DistanceSort bool
}

// RenderEntry is one pooled draw request, valid for a single pass.
type RenderEntry struct {
	Node *scene.Node
	// World is the node's global matrix and Matrix the view matrix in
	// effect when it was visited.
	World    mgl64.Mat4
	Matrix   mgl64.Mat4
	Flags    EntryFlags
	Distance float64

	Setup       *Pass
	Draw        *Pass
	Reset       *Pass
	ObjectReset *Pass
}

// compareEntries is the draw order: the unsorted group first, then back to
// front, selected first, then by node, setup and draw identity.
func compareEntries(a, b *RenderEntry) int {
	ad, bd := a.Flags.Has(EntryDistanceSort), b.Flags.Has(EntryDistanceSort)
	if ad != bd {
		if bd {
			return -1
		}
		return 1
	}
	if ad {
		if c := cmp.Compare(b.Distance, a.Distance); c != 0 {
			return c
		}
	}
	as, bs := a.Flags.Has(EntrySelected), b.Flags.Has(EntrySelected)
	if as != bs {
		if as {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.Node.ID(), b.Node.ID()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Setup.ID(), b.Setup.ID()); c != 0 {
		return c
	}
	return cmp.Compare(a.Draw.ID(), b.Draw.ID())
}

// entryPool hands out entries and takes all of them back at once.
type entryPool struct {
	entries []*RenderEntry
	used    int
}

func (p *entryPool) get() *RenderEntry {
	if p.used == len(p.entries) {
		p.entries = append(p.entries, &RenderEntry{})
	}
	e := p.entries[p.used]
	p.used++
	*e = RenderEntry{}
	return e
}

func (p *entryPool) reset() {
	for _, e := range p.entries[:p.used] {
		e.Node = nil
	}
	p.used = 0
}
