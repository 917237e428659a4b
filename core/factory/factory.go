// Package factory turns selected content and typed markers into cloze
// annotations.
//
// Selections are cut out of the tree the way a DOM range extraction does it:
// partially selected ancestors are split, fully selected list items move as
// whole items, and the extracted content is wrapped in one annotation per
// inline run or block.
package factory

import (
	"strings"

	"github.com/FocuswithJustin/ClozeMark/core/cloze"
	"github.com/FocuswithJustin/ClozeMark/core/dom"
	"github.com/FocuswithJustin/ClozeMark/core/errors"
	"github.com/FocuswithJustin/ClozeMark/core/pattern"
	"github.com/FocuswithJustin/ClozeMark/core/selection"
)

// Options configures new annotations.
type Options struct {
	// Placeholder is shown while an annotation is masked. Empty means
	// cloze.DefaultPlaceholder.
	Placeholder string
}

// Factory creates annotations inside one editable root.
type Factory struct {
	root     dom.Node
	registry *cloze.Registry
	opts     Options
}

// New returns a factory for root. New annotations are recorded in reg.
func New(root dom.Node, reg *cloze.Registry, opts Options) *Factory {
	if reg == nil {
		reg = cloze.NewRegistry()
	}
	return &Factory{root: root, registry: reg, opts: opts}
}

// Result describes the annotations a call created.
type Result struct {
	Annotations []cloze.Annotation
	// LinkGroup is the group the annotations joined, if any.
	LinkGroup string
	// After is the node the caret belongs after.
	After dom.Node
}

// CreateFromSelection wraps the content of r in annotations of priority p.
// With linkToPrevious the new annotations join the group of the annotation
// created last, minting one when it has none.
//
// Several annotations come out of one call when the selection mixes inline
// runs and blocks; they are always linked to each other.
func (f *Factory) CreateFromSelection(r selection.Range, p cloze.Priority, linkToPrevious bool) (Result, error) {
	r, err := f.validate(r)
	if err != nil {
		return Result{}, err
	}

	// The previous annotation is resolved before the tree changes.
	prev, hasPrev := f.registry.Last(f.root)

	end := toPos(r.End)
	start := toPos(r.Start)
	start, end = lift(f.root, start, end)
	nodes, at := extract(f.root, start, end)
	if len(nodes) == 0 {
		return Result{}, errors.NewSelection(errors.SelectionBlank)
	}
	nodes = rehomeItems(at.parent, nodes)

	var created []cloze.Annotation
	var out []dom.Node
	if !anyBlock(nodes) {
		a := f.newAnnotation(cloze.Inline, p)
		for _, n := range nodes {
			a.Node().AppendChild(n)
		}
		created = append(created, a)
		out = append(out, a.Node())
	} else {
		var run []dom.Node
		flush := func() {
			if len(run) == 0 {
				return
			}
			if allBlank(run) {
				out = append(out, run...)
			} else {
				a := f.newAnnotation(cloze.Inline, p)
				for _, n := range run {
					a.Node().AppendChild(n)
				}
				created = append(created, a)
				out = append(out, a.Node())
			}
			run = nil
		}
		for _, n := range nodes {
			if !isBlockish(n) {
				run = append(run, n)
				continue
			}
			flush()
			a := f.newAnnotation(cloze.Block, p)
			a.Node().AppendChild(n)
			created = append(created, a)
			out = append(out, a.Node())
		}
		flush()
	}

	if dom.IsList(at.parent) && at.parent != f.root {
		parent, ref := splitList(at.parent, at.ref)
		for _, n := range out {
			parent.InsertBefore(n, ref)
		}
	} else {
		for _, n := range out {
			at.parent.InsertBefore(n, at.ref)
		}
		dropEmptyItems(out[0].PrevSibling(), out[len(out)-1].NextSibling())
	}

	res := Result{Annotations: created, After: out[len(out)-1]}
	switch {
	case linkToPrevious && hasPrev:
		id, _ := prev.LinkGroup()
		res.LinkGroup = cloze.Link(id, append([]cloze.Annotation{prev}, created...)...)
	case len(created) > 1:
		res.LinkGroup = cloze.Link("", created...)
	}
	f.registry.SetLast(created[len(created)-1])
	return res, nil
}

// PromoteFromPattern replaces a marker found in a text node with an inline
// annotation holding the marker's inner text. The delimiter count sets the
// priority.
func (f *Factory) PromoteFromPattern(text dom.Node, m pattern.Match) (Result, error) {
	if !text.IsText() || !f.root.Contains(text) {
		return Result{}, errors.NewValidation("text", "node is not a text node inside the document")
	}
	if _, inside := cloze.Enclosing(f.root, text); inside {
		return Result{}, errors.NewValidation("text", "marker is already inside an annotation")
	}
	if m.Start < 0 || m.End > text.Len() || m.Start >= m.End ||
		dom.Substring(text.Data(), m.InnerStart, m.InnerEnd) != m.Inner {
		return Result{}, errors.NewValidation("match", "marker does not match the text node")
	}

	text.SplitText(m.End)
	marker := text
	if right := text.SplitText(m.Start); !right.IsNil() {
		marker = right
	}
	a := f.newAnnotation(cloze.Inline, m.Priority())
	marker.ReplaceWith(a.Node())
	marker.SetData(m.Inner)
	a.Node().AppendChild(marker)

	f.registry.SetLast(a)
	return Result{Annotations: []cloze.Annotation{a}, After: a.Node()}, nil
}

// newAnnotation builds an annotation that starts revealed to its author.
func (f *Factory) newAnnotation(kind cloze.Kind, p cloze.Priority) cloze.Annotation {
	a := cloze.New(kind, p, f.opts.Placeholder)
	a.SetManualReveal(true)
	a.SetPriorityManualReveal(true)
	cloze.Sync(a)
	f.registry.MarkRevealed(a)
	return a
}

// validate checks r and returns it in document order.
func (f *Factory) validate(r selection.Range) (selection.Range, error) {
	if r.Collapsed() {
		return r, f.refuse(r, errors.SelectionCollapsed)
	}
	if !r.Within(f.root) {
		return r, f.refuse(r, errors.SelectionOutside)
	}
	startKey, ok1 := keyOf(f.root, r.Start)
	endKey, ok2 := keyOf(f.root, r.End)
	if !ok1 || !ok2 {
		return r, f.refuse(r, errors.SelectionOutside)
	}
	if compareKeys(startKey, endKey) > 0 {
		r.Start, r.End = r.End, r.Start
		startKey, endKey = endKey, startKey
	}
	for _, b := range []selection.Boundary{r.Start, r.End} {
		if _, inside := cloze.Enclosing(f.root, b.Node); inside {
			return r, f.refuse(r, errors.SelectionInsideAnnotation)
		}
	}
	for _, a := range cloze.All(f.root) {
		k, ok := keyOf(f.root, selection.Before(a.Node()))
		if ok && compareKeys(startKey, k) <= 0 && compareKeys(k, endKey) < 0 {
			return r, f.refuse(r, errors.SelectionHoldsAnnotation)
		}
	}
	if strings.TrimSpace(selection.TextOf(f.root, r)) == "" {
		return r, f.refuse(r, errors.SelectionBlank)
	}
	return r, nil
}

// refuse reports why r cannot be used, with its offsets when it resolves.
func (f *Factory) refuse(r selection.Range, reason errors.SelectionReason) error {
	err := errors.NewSelection(reason)
	if r.Within(f.root) {
		err.Start, err.End = r.Offsets(f.root)
	}
	return err
}

// keyOf orders boundaries: the child-index path of the container followed by
// the offset. Shorter keys sort before longer keys they prefix.
func keyOf(root dom.Node, b selection.Boundary) ([]int, bool) {
	path, ok := selection.PathOf(root, b.Node)
	if !ok {
		return nil, false
	}
	return append(path, b.Offset), true
}

func compareKeys(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func anyBlock(nodes []dom.Node) bool {
	for _, n := range nodes {
		if isBlockish(n) {
			return true
		}
	}
	return false
}

func allBlank(nodes []dom.Node) bool {
	for _, n := range nodes {
		if !isBlank(n) {
			return false
		}
	}
	return true
}
