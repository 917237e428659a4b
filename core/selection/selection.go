// Package selection keeps the user's caret stable while the document tree is
// rewritten under it.
//
// A selection endpoint is captured in two forms at once: the child-index path
// from the editable root plus a local offset, and a character offset into the
// root's flattened text. Restoring prefers the path and falls back to the
// offset when the tree shape no longer matches.
package selection

import (
	"github.com/FocuswithJustin/ClozeMark/core/dom"
)

// Boundary is one endpoint of a selection. For text containers Offset counts
// code points; for elements it is a child index.
type Boundary struct {
	Node   dom.Node
	Offset int
}

// Before returns the boundary just before n in its parent.
func Before(n dom.Node) Boundary {
	return Boundary{Node: n.Parent(), Offset: n.Index()}
}

// After returns the boundary just after n in its parent.
func After(n dom.Node) Boundary {
	return Boundary{Node: n.Parent(), Offset: n.Index() + 1}
}

// Valid reports whether b points at an attached position inside root.
func (b Boundary) Valid(root dom.Node) bool {
	if b.Node.IsNil() || !root.Contains(b.Node) {
		return false
	}
	return b.Offset >= 0 && b.Offset <= b.Node.Len()
}

// Range is a selection between two boundaries in document order.
type Range struct {
	Start Boundary
	End   Boundary
}

// Caret returns a collapsed range at b.
func Caret(b Boundary) Range {
	return Range{Start: b, End: b}
}

// Collapsed reports whether the range is a caret.
func (r Range) Collapsed() bool {
	return r.Start == r.End
}

// Within reports whether both boundaries are valid positions inside root.
func (r Range) Within(root dom.Node) bool {
	return r.Start.Valid(root) && r.End.Valid(root)
}

// Offsets returns the flattened text offsets of both boundaries.
func (r Range) Offsets(root dom.Node) (start, end int) {
	start = dom.OffsetOf(root, r.Start.Node, r.Start.Offset)
	end = dom.OffsetOf(root, r.End.Node, r.End.Offset)
	return start, end
}

// TextOf returns the flattened text covered by r.
func TextOf(root dom.Node, r Range) string {
	if !r.Within(root) {
		return ""
	}
	start, end := r.Offsets(root)
	if end < start {
		start, end = end, start
	}
	return dom.Substring(root.Text(), start, end)
}

// Surface is the host editing surface's view of the active selection.
type Surface interface {
	// Selection returns the active selection, if any.
	Selection() (Range, bool)
	// SetSelection replaces the active selection.
	SetSelection(Range)
}

// Static is an in-memory Surface for hosts that keep the selection
// themselves (the CLI, the websocket session, tests).
type Static struct {
	r  Range
	ok bool
}

// NewStatic returns a Surface holding r.
func NewStatic(r Range) *Static {
	return &Static{r: r, ok: true}
}

func (s *Static) Selection() (Range, bool) {
	return s.r, s.ok
}

func (s *Static) SetSelection(r Range) {
	s.r = r
	s.ok = true
}

// Clear drops the selection.
func (s *Static) Clear() {
	s.r = Range{}
	s.ok = false
}
