package cloze

import (
	"fmt"

	"github.com/FocuswithJustin/ClozeMark/core/dom"
)

// Score bounds.
const (
	MinScore = -4
	MaxScore = 4
)

// delays maps a non-negative score to the number of iterations before the
// annotation is due again.
var delays = [...]int{0, 1, 2, 4, 7}

func clampScore(s int) int {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}

// DelayFor returns the revision delay for a score. Scores at or below zero
// are due immediately.
func DelayFor(score int) int {
	score = clampScore(score)
	if score <= 0 {
		return 0
	}
	return delays[score]
}

// Masked reports whether the annotation content is hidden behind its
// placeholder. It is derived from stored state only.
func Masked(a Annotation) bool {
	if a.Deferred() || a.ManualReveal() || a.PriorityManualReveal() {
		return false
	}
	return a.RevisionDelay() > 0 || a.PriorityHidden()
}

// Due reports whether the annotation has no iterations left to wait.
func Due(a Annotation) bool {
	return a.RevisionDelay() == 0
}

// Sync writes the derived masked marker.
func Sync(a Annotation) {
	a.node.SetFlag(AttrMasked, Masked(a))
}

// Normalize rewrites an annotation's attributes into canonical form: a
// known kind, a non-empty placeholder, a clamped score, a valid priority, a
// non-negative delay and a valid feedback value. It then syncs the masked
// marker.
func Normalize(a Annotation) {
	a.node.SetAttr(AttrCloze, string(a.Kind()))
	a.SetPlaceholder(a.Placeholder())
	a.SetScore(a.Score())
	a.SetPriority(a.Priority())
	a.SetRevisionDelay(a.RevisionDelay())
	a.SetFeedback(a.Feedback())
	Sync(a)
}

// Refresh normalizes every annotation under root and returns how many it
// visited.
func Refresh(root dom.Node) int {
	all := All(root)
	for _, a := range all {
		Normalize(a)
	}
	return len(all)
}

// ApplyFeedback adjusts the score by the feedback delta, recomputes the
// delay and records the feedback. An annotation whose new delay is zero is
// deferred: it reads as due right away.
func ApplyFeedback(a Annotation, f Feedback) error {
	if a.IsNil() {
		return ErrNotAnnotation
	}
	if !f.IsGrade() {
		return fmt.Errorf("%w: %s", ErrInvalidFeedback, f)
	}
	score := clampScore(a.Score() + f.Delta())
	delay := DelayFor(score)
	a.SetScore(score)
	a.SetRevisionDelay(delay)
	a.SetDeferred(delay == 0)
	a.SetFeedback(f)
	Sync(a)
	return nil
}

// IterationReport counts the outcome of an iteration advance.
type IterationReport struct {
	NowDue       int `json:"now_due"`
	StillWaiting int `json:"still_waiting"`
}

// AdvanceIteration starts a new study round over every annotation under
// root. Transient reveal flags and feedback are cleared and positive delays
// count down by one. Annotations reaching zero become due and lose their
// deferred flag.
func AdvanceIteration(root dom.Node) IterationReport {
	var r IterationReport
	for _, a := range All(root) {
		a.SetManualReveal(false)
		a.SetPriorityManualReveal(false)
		a.SetFeedback(FeedbackNone)
		delay := a.RevisionDelay()
		if delay > 0 {
			delay--
			a.SetRevisionDelay(delay)
		}
		if delay == 0 {
			a.SetDeferred(false)
			r.NowDue++
		} else {
			r.StillWaiting++
		}
		Sync(a)
	}
	return r
}
