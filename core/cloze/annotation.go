// Package cloze models cloze annotations: the markup attributes that carry
// their state, the spaced-repetition state machine, link groups and the
// priority visibility filter.
package cloze

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/ClozeMark/core/dom"
)

// Markup attributes. Everything an annotation knows is stored on its
// element so the document round-trips through serialization.
const (
	AttrCloze          = "data-cloze"
	AttrPlaceholder    = "data-placeholder"
	AttrScore          = "data-score"
	AttrPriority       = "data-priority"
	AttrRevisionDelay  = "data-revision-delay"
	AttrFeedback       = "data-feedback"
	AttrManualReveal   = "data-manual-reveal"
	AttrDeferred       = "data-deferred"
	AttrPriorityReveal = "data-priority-reveal"
	AttrLinkGroup      = "data-link-group"
	AttrPriorityHidden = "data-priority-hidden"
	AttrMasked         = "data-masked"
)

// DefaultPlaceholder replaces masked content when an annotation has no
// placeholder of its own.
const DefaultPlaceholder = "[...]"

// Kind is the layout of an annotation element.
type Kind string

const (
	Inline Kind = "inline"
	Block  Kind = "block"
)

// Element returns the tag used for this kind.
func (k Kind) Element() string {
	if k == Block {
		return "div"
	}
	return "span"
}

// Annotation is a handle on an annotation element. Two handles on the same
// element compare equal.
type Annotation struct {
	node dom.Node
}

// IsAnnotation reports whether n is an annotation element.
func IsAnnotation(n dom.Node) bool {
	return n.IsElement() && n.HasAttr(AttrCloze)
}

// From returns the annotation for n.
func From(n dom.Node) (Annotation, bool) {
	if !IsAnnotation(n) {
		return Annotation{}, false
	}
	return Annotation{node: n}, true
}

// Enclosing returns the annotation containing n (n included), searching no
// higher than root.
func Enclosing(root, n dom.Node) (Annotation, bool) {
	a := n.Closest(root, IsAnnotation)
	if a.IsNil() {
		return Annotation{}, false
	}
	return Annotation{node: a}, true
}

// All returns every annotation under root, root included, in document
// order.
func All(root dom.Node) []Annotation {
	nodes := root.MustQuery("descendant-or-self::*[@" + AttrCloze + "]")
	out := make([]Annotation, len(nodes))
	for i, n := range nodes {
		out[i] = Annotation{node: n}
	}
	return out
}

// New builds a detached annotation element with fresh state.
func New(kind Kind, priority Priority, placeholder string) Annotation {
	a := Annotation{node: dom.NewElement(kind.Element(), AttrCloze, string(kind))}
	a.SetPlaceholder(placeholder)
	a.SetPriority(priority)
	a.SetScore(0)
	a.SetRevisionDelay(0)
	return a
}

// Node returns the annotation element.
func (a Annotation) Node() dom.Node { return a.node }

// IsNil reports whether a is the zero handle.
func (a Annotation) IsNil() bool { return a.node.IsNil() }

// Kind returns the annotation layout. Unknown values read as Inline.
func (a Annotation) Kind() Kind {
	if a.node.AttrOr(AttrCloze, "") == string(Block) {
		return Block
	}
	return Inline
}

// Attached reports whether the annotation lies within root.
func (a Annotation) Attached(root dom.Node) bool {
	return root.Contains(a.node) && IsAnnotation(a.node)
}

// Placeholder returns the text shown while masked.
func (a Annotation) Placeholder() string {
	if v := a.node.AttrOr(AttrPlaceholder, ""); strings.TrimSpace(v) != "" {
		return v
	}
	return DefaultPlaceholder
}

// SetPlaceholder sets the masked text. A blank string stores the default.
func (a Annotation) SetPlaceholder(s string) {
	if strings.TrimSpace(s) == "" {
		s = DefaultPlaceholder
	}
	a.node.SetAttr(AttrPlaceholder, s)
}

// Score returns the clamped score. Missing or malformed values read as 0.
func (a Annotation) Score() int {
	v, ok := a.intAttr(AttrScore)
	if !ok {
		return 0
	}
	return clampScore(v)
}

// SetScore stores score clamped to [MinScore, MaxScore].
func (a Annotation) SetScore(score int) {
	a.node.SetAttr(AttrScore, strconv.Itoa(clampScore(score)))
}

// Priority returns the tier. Missing or malformed values read as
// DefaultPriority.
func (a Annotation) Priority() Priority {
	p, err := ParsePriority(a.node.AttrOr(AttrPriority, ""))
	if err != nil {
		return DefaultPriority
	}
	return p
}

// SetPriority stores the tier. Invalid tiers store DefaultPriority.
func (a Annotation) SetPriority(p Priority) {
	if !p.IsValid() {
		p = DefaultPriority
	}
	a.node.SetAttr(AttrPriority, p.String())
}

// RevisionDelay returns the remaining iterations before the annotation is
// due. A missing value is derived from the score; negative values read as 0.
func (a Annotation) RevisionDelay() int {
	v, ok := a.intAttr(AttrRevisionDelay)
	if !ok {
		return DelayFor(a.Score())
	}
	if v < 0 {
		return 0
	}
	return v
}

// SetRevisionDelay stores the delay, floored at 0.
func (a Annotation) SetRevisionDelay(d int) {
	if d < 0 {
		d = 0
	}
	a.node.SetAttr(AttrRevisionDelay, strconv.Itoa(d))
}

// Feedback returns the feedback recorded this iteration.
func (a Annotation) Feedback() Feedback {
	f, err := ParseFeedback(a.node.AttrOr(AttrFeedback, ""))
	if err != nil {
		return FeedbackNone
	}
	return f
}

// SetFeedback records feedback. FeedbackNone clears it.
func (a Annotation) SetFeedback(f Feedback) {
	if !f.IsGrade() {
		a.node.RemoveAttr(AttrFeedback)
		return
	}
	a.node.SetAttr(AttrFeedback, f.String())
}

// ManualReveal reports whether the learner revealed the annotation this
// iteration.
func (a Annotation) ManualReveal() bool { return a.node.Flag(AttrManualReveal) }

// SetManualReveal sets the manual reveal flag.
func (a Annotation) SetManualReveal(on bool) { a.node.SetFlag(AttrManualReveal, on) }

// Deferred reports whether the annotation is due and its content was
// deliberately uncovered.
func (a Annotation) Deferred() bool { return a.node.Flag(AttrDeferred) }

// SetDeferred sets the deferred flag.
func (a Annotation) SetDeferred(on bool) { a.node.SetFlag(AttrDeferred, on) }

// PriorityManualReveal reports whether re-enabling the annotation's tier
// revealed it.
func (a Annotation) PriorityManualReveal() bool { return a.node.Flag(AttrPriorityReveal) }

// SetPriorityManualReveal sets the priority reveal flag.
func (a Annotation) SetPriorityManualReveal(on bool) { a.node.SetFlag(AttrPriorityReveal, on) }

// PriorityHidden reports whether the visibility filter hides the annotation.
func (a Annotation) PriorityHidden() bool { return a.node.Flag(AttrPriorityHidden) }

// SetPriorityHidden sets the filter marker.
func (a Annotation) SetPriorityHidden(on bool) { a.node.SetFlag(AttrPriorityHidden, on) }

// LinkGroup returns the annotation's group identifier.
func (a Annotation) LinkGroup() (string, bool) {
	v, ok := a.node.Attr(AttrLinkGroup)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// SetLinkGroup assigns a group identifier. An empty id unlinks.
func (a Annotation) SetLinkGroup(id string) {
	if id == "" {
		a.node.RemoveAttr(AttrLinkGroup)
		return
	}
	a.node.SetAttr(AttrLinkGroup, id)
}

func (a Annotation) intAttr(name string) (int, bool) {
	v, ok := a.node.Attr(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}
