package cloze

import "github.com/FocuswithJustin/ClozeMark/core/dom"

// Filter hides annotations whose priority tier is switched off.
type Filter struct {
	visible PrioritySet
}

// NewFilter returns a filter showing the given tiers.
func NewFilter(visible PrioritySet) *Filter {
	return &Filter{visible: visible & AllPriorities}
}

// Visible returns the visible tiers.
func (f *Filter) Visible() PrioritySet { return f.visible }

// Set replaces the visible tiers.
func (f *Filter) Set(s PrioritySet) { f.visible = s & AllPriorities }

// SetAll shows every tier or none.
func (f *Filter) SetAll(on bool) {
	if on {
		f.visible = AllPriorities
		return
	}
	f.visible = 0
}

// Enabled reports whether tier p is visible.
func (f *Filter) Enabled(p Priority) bool { return f.visible.Has(p) }

// FilterReport counts the outcome of a recompute.
type FilterReport struct {
	Units    int `json:"units"`
	Hidden   int `json:"hidden"`
	Revealed int `json:"revealed"`
}

// Recompute decides visibility once per link group or ungrouped annotation.
// A unit is hidden when none of its tiers is enabled and no member has a
// spaced-repetition override (deferred or a positive score). A hidden unit
// whose tier comes back is granted a priority reveal so it shows without a
// click.
func (f *Filter) Recompute(root dom.Node) FilterReport {
	var r FilterReport
	for _, unit := range Units(root) {
		r.Units++
		enabled, override, wasHidden := false, false, false
		for _, a := range unit {
			enabled = enabled || f.Enabled(a.Priority())
			override = override || a.Deferred() || a.Score() > 0
			wasHidden = wasHidden || a.PriorityHidden()
		}
		hide := !enabled && !override
		grant := enabled && wasHidden
		for _, a := range unit {
			a.SetPriorityHidden(hide)
			if hide {
				a.SetPriorityManualReveal(false)
			} else if grant {
				a.SetPriorityManualReveal(true)
			}
			Sync(a)
		}
		switch {
		case hide:
			r.Hidden++
		case grant:
			r.Revealed++
		}
	}
	return r
}
