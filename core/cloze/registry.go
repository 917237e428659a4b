package cloze

import "github.com/FocuswithJustin/ClozeMark/core/dom"

// Registry tracks which annotations the learner revealed during the current
// iteration and which annotation was created last. It is keyed by node
// identity and owned by one editor; it is not safe for concurrent use.
type Registry struct {
	revealed map[dom.Node]struct{}
	last     dom.Node
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{revealed: make(map[dom.Node]struct{})}
}

// MarkRevealed records annotations as revealed.
func (r *Registry) MarkRevealed(as ...Annotation) {
	for _, a := range as {
		if !a.IsNil() {
			r.revealed[a.node] = struct{}{}
		}
	}
}

// Forget drops annotations from the revealed set.
func (r *Registry) Forget(as ...Annotation) {
	for _, a := range as {
		delete(r.revealed, a.node)
	}
}

// IsRevealed reports whether a is in the revealed set.
func (r *Registry) IsRevealed(a Annotation) bool {
	_, ok := r.revealed[a.node]
	return ok
}

// Len returns the size of the revealed set.
func (r *Registry) Len() int { return len(r.revealed) }

// SetLast remembers a as the most recently created annotation.
func (r *Registry) SetLast(a Annotation) { r.last = a.node }

// Last returns the most recently created annotation if it is still an
// annotation attached under root. A stale reference is cleared.
func (r *Registry) Last(root dom.Node) (Annotation, bool) {
	a := Annotation{node: r.last}
	if a.IsNil() || !a.Attached(root) {
		r.last = dom.Node{}
		return Annotation{}, false
	}
	return a, true
}

// Prune drops every entry whose node is no longer an annotation under root
// and returns how many were removed.
func (r *Registry) Prune(root dom.Node) int {
	n := 0
	for node := range r.revealed {
		if !(Annotation{node: node}).Attached(root) {
			delete(r.revealed, node)
			n++
		}
	}
	if !r.last.IsNil() && !(Annotation{node: r.last}).Attached(root) {
		r.last = dom.Node{}
	}
	return n
}

// Clear empties the revealed set. The last created reference survives.
func (r *Registry) Clear() {
	clear(r.revealed)
}

// Reveal uncovers a and every member of its link group.
func (r *Registry) Reveal(a Annotation) []Annotation {
	members := Members(a)
	for _, m := range members {
		m.SetManualReveal(true)
		Sync(m)
	}
	r.MarkRevealed(members...)
	return members
}

// Mask covers a and every member of its link group again.
func (r *Registry) Mask(a Annotation) []Annotation {
	members := Members(a)
	for _, m := range members {
		m.SetManualReveal(false)
		m.SetPriorityManualReveal(false)
		Sync(m)
	}
	r.Forget(members...)
	return members
}

// Toggle masks a's group when a is revealed and reveals it otherwise. It
// reports whether the group ends up revealed.
func (r *Registry) Toggle(a Annotation) bool {
	if r.IsRevealed(a) || a.ManualReveal() {
		r.Mask(a)
		return false
	}
	r.Reveal(a)
	return true
}
