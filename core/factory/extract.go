package factory

import (
	"strings"

	"github.com/FocuswithJustin/ClozeMark/core/dom"
	"github.com/FocuswithJustin/ClozeMark/core/selection"
)

// pos is a position between the children of an element: just before ref,
// or at the end when ref is nil. Unlike a child index it survives sibling
// insertions elsewhere in the parent.
type pos struct {
	parent dom.Node
	ref    dom.Node
}

func before(n dom.Node) pos { return pos{parent: n.Parent(), ref: n} }
func after(n dom.Node) pos  { return pos{parent: n.Parent(), ref: n.NextSibling()} }

func (p pos) atStart() bool { return p.ref == p.parent.FirstChild() }
func (p pos) atEnd() bool   { return p.ref.IsNil() }

// toPos converts a boundary into an element position, splitting a text node
// when the boundary falls strictly inside it.
func toPos(b selection.Boundary) pos {
	n := b.Node
	if !n.IsText() {
		return pos{parent: n, ref: n.Child(b.Offset)}
	}
	switch {
	case b.Offset <= 0:
		return before(n)
	case b.Offset >= n.Len():
		return after(n)
	}
	return before(n.SplitText(b.Offset))
}

// liftable reports whether a fully selected element may be taken whole
// instead of having its content wrapped in place.
func liftable(n dom.Node) bool {
	return dom.IsListItem(n) || !dom.IsBlock(n)
}

// lift moves both positions outward past element edges with no selected
// content between them. An element whose whole content is selected is taken
// whole when liftable allows it; this is what turns a fully selected list
// item into a list item move rather than a wrap inside the item.
func lift(root dom.Node, start, end pos) (pos, pos) {
	for {
		changed := false
	startSide:
		for start.parent != root && !start.parent.Contains(end.parent) {
			switch {
			case start.atStart():
				start = before(start.parent)
			case start.atEnd():
				start = after(start.parent)
			default:
				break startSide
			}
			changed = true
		}
	endSide:
		for end.parent != root && !end.parent.Contains(start.parent) {
			switch {
			case end.atEnd():
				end = after(end.parent)
			case end.atStart():
				end = before(end.parent)
			default:
				break endSide
			}
			changed = true
		}
		if e := start.parent; e == end.parent && e != root && start.atStart() && end.atEnd() && liftable(e) {
			start, end = before(e), after(e)
			changed = true
		}
		if !changed {
			return start, end
		}
	}
}

// commonAncestor returns the deepest element containing both a and b.
func commonAncestor(a, b dom.Node) dom.Node {
	for p := a; !p.IsNil(); p = p.Parent() {
		if p.Contains(b) {
			return p
		}
	}
	return dom.Node{}
}

// splitUpTo splits every element between p and c at p, so that the returned
// position lies directly in c. The left part of each split keeps the original
// node; the right part is a shallow clone inserted after it.
func splitUpTo(p pos, c dom.Node) pos {
	for p.parent != c {
		e := p.parent
		switch {
		case p.atEnd():
			p = after(e)
		case p.atStart():
			p = before(e)
		default:
			clone := e.Clone(false)
			for n := p.ref; !n.IsNil(); {
				next := n.NextSibling()
				clone.AppendChild(n)
				n = next
			}
			e.InsertAfter(clone)
			p = before(clone)
		}
	}
	return p
}

// extract detaches the content between start and end. Partially selected
// ancestors are split so that their selected part moves out. It returns the
// detached nodes in order and the position in their former common ancestor
// where they were.
func extract(root dom.Node, start, end pos) ([]dom.Node, pos) {
	c := commonAncestor(start.parent, end.parent)
	if c.IsNil() {
		c = root
	}
	// Split the end side first: it only ever inserts after the start side.
	end = splitUpTo(end, c)
	start = splitUpTo(start, c)

	var nodes []dom.Node
	for n := start.ref; !n.IsNil() && n != end.ref; {
		next := n.NextSibling()
		n.Remove()
		nodes = append(nodes, n)
		n = next
	}
	return nodes, end
}

// rehomeItems puts top-level list items back into a shallow clone of the
// list they came from. Consecutive items share one clone.
func rehomeItems(origin dom.Node, nodes []dom.Node) []dom.Node {
	if !dom.IsList(origin) {
		return nodes
	}
	var out []dom.Node
	var list dom.Node
	for _, n := range nodes {
		switch {
		case dom.IsListItem(n):
			if list.IsNil() {
				list = origin.Clone(false)
				out = append(out, list)
			}
			list.AppendChild(n)
		case !list.IsNil() && isBlank(n):
			list.AppendChild(n)
		default:
			list = dom.Node{}
			out = append(out, n)
		}
	}
	return out
}

// isBlank reports whether n is a whitespace-only text node.
func isBlank(n dom.Node) bool {
	return n.IsText() && strings.TrimSpace(n.Data()) == ""
}

// isBlockish reports whether n is, or holds, block content.
func isBlockish(n dom.Node) bool {
	return dom.IsBlock(n) || dom.HasBlock(n)
}

// dropEmptyItems removes list items left without content next to the
// insertion point.
func dropEmptyItems(ns ...dom.Node) {
	for _, n := range ns {
		if dom.IsListItem(n) && n.IsEmpty() {
			n.Remove()
		}
	}
}

// splitList moves the children of list from ref on into a shallow clone
// placed after list, and returns the insertion point between the halves. A
// half left without items is removed.
func splitList(list, ref dom.Node) (dom.Node, dom.Node) {
	parent := list.Parent()
	tail := list.Clone(false)
	for n := ref; !n.IsNil(); {
		next := n.NextSibling()
		n.Remove()
		tail.AppendChild(n)
		n = next
	}
	dropEmptyItems(list.LastChild(), tail.FirstChild())

	ref = list.NextSibling()
	if hasItems(tail) {
		parent.InsertBefore(tail, ref)
		ref = tail
	}
	if !hasItems(list) {
		list.Remove()
	}
	return parent, ref
}

func hasItems(list dom.Node) bool {
	for _, c := range list.Children() {
		if dom.IsListItem(c) {
			return true
		}
	}
	return false
}
