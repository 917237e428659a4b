package selection

import (
	"github.com/FocuswithJustin/ClozeMark/core/dom"
)

// Point is the captured form of one boundary: both the flattened text offset
// and the structural path with its local offset.
type Point struct {
	// Offset is the character offset into the root's flattened text.
	Offset int `json:"offset"`
	// Path lists child indices from the root down to the container.
	Path []int `json:"path"`
	// Local is the offset within the container (code points or child index).
	Local int `json:"local"`
}

// Snapshot is a captured selection.
type Snapshot struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Collapsed reports whether the captured selection was a caret.
func (s *Snapshot) Collapsed() bool {
	return s.Start.Offset == s.End.Offset && s.Start.Local == s.End.Local && equalPaths(s.Start.Path, s.End.Path)
}

// Capture snapshots r relative to root. It returns nil when r does not lie
// inside root.
func Capture(root dom.Node, r Range) *Snapshot {
	if root.IsNil() || !r.Within(root) {
		return nil
	}
	return &Snapshot{
		Start: pointOf(root, r.Start),
		End:   pointOf(root, r.End),
	}
}

// CaptureSurface snapshots the surface's active selection, or returns nil
// when there is none or it lies outside root.
func CaptureSurface(root dom.Node, s Surface) *Snapshot {
	if s == nil {
		return nil
	}
	r, ok := s.Selection()
	if !ok {
		return nil
	}
	return Capture(root, r)
}

func pointOf(root dom.Node, b Boundary) Point {
	path, _ := PathOf(root, b.Node)
	return Point{
		Offset: dom.OffsetOf(root, b.Node, b.Offset),
		Path:   path,
		Local:  b.Offset,
	}
}

// PathOf returns the child indices leading from root to n.
func PathOf(root, n dom.Node) ([]int, bool) {
	if !root.Contains(n) {
		return nil, false
	}
	var rev []int
	for p := n; p != root; p = p.Parent() {
		rev = append(rev, p.Index())
	}
	path := make([]int, len(rev))
	for i, idx := range rev {
		path[len(rev)-1-i] = idx
	}
	return path, true
}

// Resolve walks a child-index path from root. It fails when any index is
// out of range.
func Resolve(root dom.Node, path []int) (dom.Node, bool) {
	n := root
	for _, idx := range path {
		child := n.Child(idx)
		if child.IsNil() {
			return dom.Node{}, false
		}
		n = child
	}
	return n, !n.IsNil()
}

// Restore turns a snapshot back into a live range under root. Each endpoint
// is resolved structurally first and by text offset when the path no longer
// fits the tree.
func Restore(root dom.Node, s *Snapshot) Range {
	r, _ := restore(root, s)
	return r
}

// restore also reports whether both endpoints resolved structurally.
func restore(root dom.Node, s *Snapshot) (Range, bool) {
	start, okStart := s.Start.structural(root)
	if !okStart {
		start = s.Start.byOffset(root)
	}
	end, okEnd := s.End.structural(root)
	if !okEnd {
		end = s.End.byOffset(root)
	}
	return Range{Start: start, End: end}, okStart && okEnd
}

func (p Point) structural(root dom.Node) (Boundary, bool) {
	n, ok := Resolve(root, p.Path)
	if !ok || p.Local < 0 || p.Local > n.Len() {
		return Boundary{}, false
	}
	return Boundary{Node: n, Offset: p.Local}, true
}

// byOffset scans text nodes for the one whose cumulative length brackets the
// stored offset. Offsets past the end land at the end of the last text node.
func (p Point) byOffset(root dom.Node) Boundary {
	var last dom.Node
	cum := 0
	for _, t := range dom.TextNodes(root) {
		l := t.Len()
		if l == 0 {
			continue
		}
		if p.Offset <= cum+l {
			local := p.Offset - cum
			if local < 0 {
				local = 0
			}
			return Boundary{Node: t, Offset: local}
		}
		cum += l
		last = t
	}
	if !last.IsNil() {
		return Boundary{Node: last, Offset: last.Len()}
	}
	if p.Offset > 0 {
		return Boundary{Node: root, Offset: root.ChildCount()}
	}
	return Boundary{Node: root, Offset: 0}
}

func equalPaths(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AtOffsets builds a range from document-wide code point offsets.
func AtOffsets(root dom.Node, start, end int) Range {
	return Range{
		Start: Point{Offset: start}.byOffset(root),
		End:   Point{Offset: end}.byOffset(root),
	}
}
