package selection

import (
	"github.com/FocuswithJustin/ClozeMark/core/dom"
)

// Outcome is what a tree-mutating operation tells the tracker about where
// the selection should go afterwards. The zero value means "put it back where
// it was".
type Outcome struct {
	// After places a caret just after this node.
	After dom.Node
	// Range is an explicit selection override and wins over After.
	Range *Range
}

// Tracker restores the surface selection around tree mutations.
type Tracker struct {
	Root    dom.Node
	Surface Surface

	// Atomic marks elements whose edges the caret must not rest inside of,
	// such as cloze annotations. Optional.
	Atomic func(dom.Node) bool
}

// NewTracker returns a tracker for root and surface.
func NewTracker(root dom.Node, surface Surface) *Tracker {
	return &Tracker{Root: root, Surface: surface}
}

// RunPreserving snapshots the selection, runs op, and restores the selection.
//
// Restoration order: the explicit override from op, then a caret after op's
// focal node, then the pre-mutation snapshot when its paths still resolve,
// then the post-mutation selection, and finally the pre-mutation snapshot
// resolved by text offset. The selection is restored even when op fails.
func (t *Tracker) RunPreserving(op func() (Outcome, error)) error {
	pre := CaptureSurface(t.Root, t.Surface)
	out, err := op()
	post := CaptureSurface(t.Root, t.Surface)

	r, ok := t.choose(pre, post, out)
	if ok && t.Surface != nil {
		t.Surface.SetSelection(t.nudge(r))
	}
	return err
}

func (t *Tracker) choose(pre, post *Snapshot, out Outcome) (Range, bool) {
	if out.Range != nil && out.Range.Within(t.Root) {
		return *out.Range, true
	}
	if !out.After.IsNil() && out.After != t.Root && t.Root.Contains(out.After) {
		return Caret(After(out.After)), true
	}
	if pre != nil {
		r, structural := restore(t.Root, pre)
		if structural || post == nil {
			return r, true
		}
		return Restore(t.Root, post), true
	}
	if post != nil {
		return Restore(t.Root, post), true
	}
	return Range{}, false
}

// nudge moves a caret resting exactly on the inner edge of an atomic element
// to just after that element.
func (t *Tracker) nudge(r Range) Range {
	if t.Atomic == nil || !r.Collapsed() {
		return r
	}
	b := r.Start
	atom := b.Node.Closest(t.Root, func(n dom.Node) bool {
		return n != t.Root && t.Atomic(n)
	})
	if atom.IsNil() {
		return r
	}
	rel := dom.OffsetOf(atom, b.Node, b.Offset)
	if rel == 0 || rel == atom.TextLen() {
		return Caret(After(atom))
	}
	return r
}
