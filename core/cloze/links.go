package cloze

import (
	"github.com/google/uuid"

	"github.com/FocuswithJustin/ClozeMark/core/dom"
)

// NewGroupID mints a link group identifier.
func NewGroupID() string {
	return uuid.NewString()
}

// Members returns every annotation sharing a's link group, a included, in
// document order. An ungrouped annotation is its own only member.
func Members(a Annotation) []Annotation {
	id, ok := a.LinkGroup()
	if !ok {
		return []Annotation{a}
	}
	nodes := a.node.Root().MustQuery("descendant-or-self::*[@" + AttrCloze + " and @" + AttrLinkGroup + "=" + dom.Literal(id) + "]")
	out := make([]Annotation, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Annotation{node: n})
	}
	if len(out) == 0 {
		out = append(out, a)
	}
	return out
}

// Link puts every annotation in as into the group id, minting one when id is
// empty. It returns the id used.
func Link(id string, as ...Annotation) string {
	if id == "" {
		id = NewGroupID()
	}
	for _, a := range as {
		if !a.IsNil() {
			a.SetLinkGroup(id)
		}
	}
	return id
}

// CleanupLinks strips group ids from nodes that are not annotations and
// dissolves groups with fewer than two members under root. It returns the
// number of ids removed.
func CleanupLinks(root dom.Node) int {
	removed := 0
	for _, n := range root.MustQuery("descendant-or-self::*[@" + AttrLinkGroup + " and not(@" + AttrCloze + ")]") {
		n.RemoveAttr(AttrLinkGroup)
		removed++
	}
	groups := make(map[string][]Annotation)
	var order []string
	for _, a := range All(root) {
		id, ok := a.LinkGroup()
		if !ok {
			if a.node.HasAttr(AttrLinkGroup) {
				a.node.RemoveAttr(AttrLinkGroup)
				removed++
			}
			continue
		}
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], a)
	}
	for _, id := range order {
		if members := groups[id]; len(members) < 2 {
			for _, a := range members {
				a.SetLinkGroup("")
				removed++
			}
		}
	}
	return removed
}

// Units partitions the annotations under root into link groups and
// ungrouped singletons, in document order of each unit's first member.
func Units(root dom.Node) [][]Annotation {
	var units [][]Annotation
	index := make(map[string]int)
	for _, a := range All(root) {
		id, ok := a.LinkGroup()
		if !ok {
			units = append(units, []Annotation{a})
			continue
		}
		if i, seen := index[id]; seen {
			units[i] = append(units[i], a)
			continue
		}
		index[id] = len(units)
		units = append(units, []Annotation{a})
	}
	return units
}
