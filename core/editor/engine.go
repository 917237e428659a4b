// Package editor is the host-facing entry point of the annotation engine.
//
// An Engine owns one editable root. Every entry point runs synchronously,
// mutates the tree inside a selection-preserving block, and then reconciles
// annotation state: registry pruning, attribute normalization, link group
// cleanup and the priority filter.
package editor

import (
	"log/slog"

	"github.com/FocuswithJustin/ClozeMark/core/cloze"
	"github.com/FocuswithJustin/ClozeMark/core/dom"
	"github.com/FocuswithJustin/ClozeMark/core/errors"
	"github.com/FocuswithJustin/ClozeMark/core/factory"
	"github.com/FocuswithJustin/ClozeMark/core/pattern"
	"github.com/FocuswithJustin/ClozeMark/core/selection"
	"github.com/FocuswithJustin/ClozeMark/internal/logging"
)

// DefaultBulkCap bounds bulk promotion.
const DefaultBulkCap = 200

// Options configures an Engine.
type Options struct {
	// Placeholder is the masked text of new annotations.
	Placeholder string
	// Visible is the initial set of visible priority tiers. The zero value
	// shows every tier.
	Visible cloze.PrioritySet
	// HideAll starts with every tier hidden. It overrides Visible.
	HideAll bool
	// BulkCap bounds bulk promotion. Zero means DefaultBulkCap.
	BulkCap int
	// Logger receives engine logs. Nil means the global logger.
	Logger *slog.Logger
}

// Engine drives the annotation pipeline over one document root.
type Engine struct {
	root     dom.Node
	tracker  *selection.Tracker
	registry *cloze.Registry
	factory  *factory.Factory
	filter   *cloze.Filter
	bulkCap  int
	log      *slog.Logger
}

// New returns an engine over root. The surface may be nil for hosts without
// a selection; creation and caret operations then fail validation.
func New(root dom.Node, surface selection.Surface, opts Options) *Engine {
	if surface == nil {
		surface = &selection.Static{}
	}
	visible := opts.Visible
	if visible == 0 {
		visible = cloze.AllPriorities
	}
	if opts.HideAll {
		visible = 0
	}
	if opts.BulkCap <= 0 {
		opts.BulkCap = DefaultBulkCap
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger()
	}
	reg := cloze.NewRegistry()
	tracker := selection.NewTracker(root, surface)
	tracker.Atomic = cloze.IsAnnotation
	e := &Engine{
		root:     root,
		tracker:  tracker,
		registry: reg,
		factory:  factory.New(root, reg, factory.Options{Placeholder: opts.Placeholder}),
		filter:   cloze.NewFilter(visible),
		bulkCap:  opts.BulkCap,
		log:      opts.Logger,
	}
	return e
}

// Root returns the editable root.
func (e *Engine) Root() dom.Node { return e.root }

// Surface returns the selection surface.
func (e *Engine) Surface() selection.Surface { return e.tracker.Surface }

// Registry returns the engine's reveal registry.
func (e *Engine) Registry() *cloze.Registry { return e.registry }

// VisiblePriorities returns the visible tiers.
func (e *Engine) VisiblePriorities() cloze.PrioritySet { return e.filter.Visible() }

// RefreshReport summarizes a reconcile pass.
type RefreshReport struct {
	Annotations  int                `json:"annotations"`
	Pruned       int                `json:"pruned"`
	LinksRemoved int                `json:"links_removed"`
	Filter       cloze.FilterReport `json:"filter"`
}

// Refresh rebuilds derived state from the markup alone. Hosts call it after
// replacing content from outside the engine.
func (e *Engine) Refresh() RefreshReport {
	var r RefreshReport
	_ = e.tracker.RunPreserving(func() (selection.Outcome, error) {
		r = e.reconcile()
		return selection.Outcome{}, nil
	})
	logging.Transform(e.log, "refresh", r.Annotations, "pruned", r.Pruned, "links_removed", r.LinksRemoved)
	return r
}

func (e *Engine) reconcile() RefreshReport {
	var r RefreshReport
	r.Pruned = e.registry.Prune(e.root)
	r.Annotations = cloze.Refresh(e.root)
	r.LinksRemoved = cloze.CleanupLinks(e.root)
	r.Filter = e.filter.Recompute(e.root)
	return r
}

// CreateFromSelection turns the surface selection into annotations.
func (e *Engine) CreateFromSelection(p cloze.Priority, linkToPrevious bool) (factory.Result, error) {
	r, ok := e.tracker.Surface.Selection()
	if !ok {
		return factory.Result{}, errors.NewSelection(errors.SelectionMissing)
	}
	return e.CreateFromRange(r, p, linkToPrevious)
}

// CreateFromRange turns r into annotations and leaves the caret after them.
func (e *Engine) CreateFromRange(r selection.Range, p cloze.Priority, linkToPrevious bool) (factory.Result, error) {
	var res factory.Result
	err := e.tracker.RunPreserving(func() (selection.Outcome, error) {
		var err error
		res, err = e.factory.CreateFromSelection(r, p, linkToPrevious)
		if err != nil {
			return selection.Outcome{}, err
		}
		e.reconcile()
		return selection.Outcome{After: res.After}, nil
	})
	if err != nil {
		return factory.Result{}, err
	}
	logging.Transform(e.log, "create", len(res.Annotations), "priority", p.String(), "linked", res.LinkGroup != "")
	return res, nil
}

// PromoteAtCaret promotes the marker nearest the caret in the caret's text
// node. It reports false when there is no marker.
func (e *Engine) PromoteAtCaret() (factory.Result, bool, error) {
	r, ok := e.tracker.Surface.Selection()
	if !ok || !r.Start.Valid(e.root) {
		return factory.Result{}, false, nil
	}
	text, caret := textAt(r.Start)
	if text.IsNil() {
		return factory.Result{}, false, nil
	}
	if _, inside := cloze.Enclosing(e.root, text); inside {
		return factory.Result{}, false, nil
	}
	m, found := pattern.Find(text.Data(), caret)
	if !found {
		return factory.Result{}, false, nil
	}

	var res factory.Result
	err := e.tracker.RunPreserving(func() (selection.Outcome, error) {
		var err error
		res, err = e.factory.PromoteFromPattern(text, m)
		if err != nil {
			return selection.Outcome{}, err
		}
		e.reconcile()
		return selection.Outcome{After: res.After}, nil
	})
	if err != nil {
		return factory.Result{}, false, err
	}
	logging.Transform(e.log, "promote", 1, "priority", m.Priority().String(), "delims", m.Delims)
	return res, true, nil
}

// textAt resolves a boundary to a text node and a caret offset in it.
func textAt(b selection.Boundary) (dom.Node, int) {
	if b.Node.IsText() {
		return b.Node, b.Offset
	}
	if prev := b.Node.Child(b.Offset - 1); prev.IsText() {
		return prev, prev.Len()
	}
	if next := b.Node.Child(b.Offset); next.IsText() {
		return next, 0
	}
	return dom.Node{}, 0
}

// PromoteAll promotes markers until none remain or the bulk cap is reached.
// Markers left over at the cap stay in the text for a later pass. The
// selection keeps its place in the text; removed delimiters shift it left.
func (e *Engine) PromoteAll() (int, error) {
	promoted := 0
	err := e.tracker.RunPreserving(func() (selection.Outcome, error) {
		r, tracked := e.tracker.Surface.Selection()
		tracked = tracked && r.Within(e.root)
		var start, end int
		if tracked {
			start, end = r.Offsets(e.root)
		}

		var out selection.Outcome
		finish := func() {
			if tracked {
				rng := selection.AtOffsets(e.root, start, end)
				out.Range = &rng
			}
		}

		for promoted < e.bulkCap {
			text, m, ok := e.nextMarker()
			if !ok {
				break
			}
			base := dom.TextBefore(e.root, text)
			if _, err := e.factory.PromoteFromPattern(text, m); err != nil {
				finish()
				return out, err
			}
			start, end = shiftPast(start, base, m), shiftPast(end, base, m)
			promoted++
		}
		if promoted == e.bulkCap {
			if _, _, more := e.nextMarker(); more {
				e.log.Debug("bulk promotion cap reached", "cap", e.bulkCap)
			}
		}
		e.reconcile()
		finish()
		return out, nil
	})
	logging.Transform(e.log, "promote_all", promoted)
	return promoted, err
}

// shiftPast maps a flattened offset across the removal of m's delimiter
// runs. base is the offset of m's text node. Offsets inside a run land on the
// inner text edge next to it.
func shiftPast(offset, base int, m pattern.Match) int {
	switch {
	case offset <= base+m.Start:
		return offset
	case offset <= base+m.InnerStart:
		return base + m.Start
	case offset <= base+m.InnerEnd:
		return offset - m.Delims
	case offset <= base+m.End:
		return base + m.InnerEnd - m.Delims
	default:
		return offset - 2*m.Delims
	}
}

// nextMarker finds the first marker in a text node outside annotations.
func (e *Engine) nextMarker() (dom.Node, pattern.Match, bool) {
	var text dom.Node
	var match pattern.Match
	e.root.Walk(func(n dom.Node) bool {
		if !text.IsNil() || cloze.IsAnnotation(n) {
			return false
		}
		if n.IsText() {
			if ms := pattern.Scan(n.Data()); len(ms) > 0 {
				text, match = n, ms[0]
			}
		}
		return true
	})
	return text, match, !text.IsNil()
}

// ApplyFeedback grades an annotation.
func (e *Engine) ApplyFeedback(a cloze.Annotation, f cloze.Feedback) error {
	if !a.Attached(e.root) {
		return errors.NewNotFound("annotation", "detached")
	}
	err := e.tracker.RunPreserving(func() (selection.Outcome, error) {
		if err := cloze.ApplyFeedback(a, f); err != nil {
			return selection.Outcome{}, errors.NewValidation("feedback", err.Error())
		}
		e.filter.Recompute(e.root)
		return selection.Outcome{}, nil
	})
	if err != nil {
		return err
	}
	logging.Transform(e.log, "feedback", 1, "feedback", f.String(), "score", a.Score(), "delay", a.RevisionDelay())
	return nil
}

// AdvanceIteration starts a new study round.
func (e *Engine) AdvanceIteration() cloze.IterationReport {
	var r cloze.IterationReport
	_ = e.tracker.RunPreserving(func() (selection.Outcome, error) {
		r = cloze.AdvanceIteration(e.root)
		e.registry.Clear()
		e.filter.Recompute(e.root)
		return selection.Outcome{}, nil
	})
	logging.Transform(e.log, "iterate", r.NowDue+r.StillWaiting, "now_due", r.NowDue, "still_waiting", r.StillWaiting)
	return r
}

// SetVisiblePriorities replaces the visible tiers and recomputes masking.
func (e *Engine) SetVisiblePriorities(s cloze.PrioritySet) cloze.FilterReport {
	e.filter.Set(s)
	return e.recomputeFilter()
}

// SetAllVisible shows every tier or hides them all.
func (e *Engine) SetAllVisible(on bool) cloze.FilterReport {
	e.filter.SetAll(on)
	return e.recomputeFilter()
}

func (e *Engine) recomputeFilter() cloze.FilterReport {
	var r cloze.FilterReport
	_ = e.tracker.RunPreserving(func() (selection.Outcome, error) {
		r = e.filter.Recompute(e.root)
		return selection.Outcome{}, nil
	})
	logging.Transform(e.log, "filter", r.Units, "visible", e.filter.Visible().String(), "hidden", r.Hidden, "revealed", r.Revealed)
	return r
}

// Toggle reveals a masked annotation's group or masks a revealed one. It
// reports whether the group ends up revealed.
func (e *Engine) Toggle(a cloze.Annotation) (bool, error) {
	if !a.Attached(e.root) {
		return false, errors.NewNotFound("annotation", "detached")
	}
	var revealed bool
	_ = e.tracker.RunPreserving(func() (selection.Outcome, error) {
		revealed = e.registry.Toggle(a)
		return selection.Outcome{}, nil
	})
	logging.Transform(e.log, "toggle", len(cloze.Members(a)), "revealed", revealed)
	return revealed, nil
}

// AnnotationAtCaret returns the annotation holding the selection start or
// sitting right before a caret.
func (e *Engine) AnnotationAtCaret() (cloze.Annotation, bool) {
	r, ok := e.tracker.Surface.Selection()
	if !ok || !r.Start.Valid(e.root) {
		return cloze.Annotation{}, false
	}
	if a, ok := cloze.Enclosing(e.root, r.Start.Node); ok && a.Node() != e.root {
		return a, true
	}
	if !r.Start.Node.IsText() {
		return cloze.From(r.Start.Node.Child(r.Start.Offset - 1))
	}
	return cloze.Annotation{}, false
}
