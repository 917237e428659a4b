package editor

import (
	"github.com/FocuswithJustin/ClozeMark/core/cloze"
	"github.com/FocuswithJustin/ClozeMark/core/factory"
)

// Stats counts annotation state across the document.
type Stats struct {
	Annotations int            `json:"annotations"`
	Masked      int            `json:"masked"`
	Hidden      int            `json:"hidden"`
	Due         int            `json:"due"`
	Waiting     int            `json:"waiting"`
	Groups      int            `json:"groups"`
	Revealed    int            `json:"revealed"`
	ByPriority  map[string]int `json:"by_priority"`
	Visible     string         `json:"visible"`
}

// Stats reports counts without touching the tree.
func (e *Engine) Stats() Stats {
	s := Stats{
		ByPriority: make(map[string]int, 3),
		Visible:    e.filter.Visible().String(),
		Revealed:   e.registry.Len(),
	}
	for _, a := range cloze.All(e.root) {
		s.Annotations++
		s.ByPriority[a.Priority().String()]++
		if cloze.Masked(a) {
			s.Masked++
		}
		if a.PriorityHidden() {
			s.Hidden++
		}
		if cloze.Due(a) {
			s.Due++
		} else {
			s.Waiting++
		}
	}
	for _, unit := range cloze.Units(e.root) {
		if len(unit) > 1 {
			s.Groups++
		}
	}
	return s
}

// Created is the host-facing summary of a creation or promotion.
type Created struct {
	Count     int      `json:"count"`
	Kinds     []string `json:"kinds"`
	Priority  string   `json:"priority"`
	LinkGroup string   `json:"link_group,omitempty"`
}

func summarize(res factory.Result) Created {
	c := Created{Count: len(res.Annotations), LinkGroup: res.LinkGroup}
	for _, a := range res.Annotations {
		c.Kinds = append(c.Kinds, string(a.Kind()))
		c.Priority = a.Priority().String()
	}
	return c
}
