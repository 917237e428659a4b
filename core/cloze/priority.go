package cloze

import (
	"encoding"
	"fmt"
	"strings"
)

// Priority is the author-assigned importance tier of an annotation. It is
// independent of spaced-repetition scheduling.
type Priority int

const (
	High   Priority = iota + 1 // Most important.
	Medium                     // Default tier.
	Low                        // Least important.
)

// DefaultPriority is used when markup carries no valid priority.
const DefaultPriority = Medium

var (
	priorityNames  = [...]string{High: "high", Medium: "medium", Low: "low"}
	priorityByName = map[string]Priority{
		"high":   High,
		"medium": Medium,
		"low":    Low,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Priority(0)
	_ encoding.TextMarshaler   = Priority(0)
	_ encoding.TextUnmarshaler = (*Priority)(nil)
)

// IsValid reports whether p is High, Medium or Low.
func (p Priority) IsValid() bool {
	return p >= High && p <= Low
}

// String returns the attribute form ("high", "medium", "low").
func (p Priority) String() string {
	if p.IsValid() {
		return priorityNames[p]
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, int(p))
	}
	return []byte(priorityNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	v, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePriority parses "high", "medium" or "low" (case-insensitive).
func ParsePriority(s string) (Priority, error) {
	v, ok := priorityByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return v, nil
}

// PrioritySet is a set of priority tiers.
type PrioritySet uint8

// AllPriorities contains every tier.
const AllPriorities = PrioritySet(1<<High | 1<<Medium | 1<<Low)

// SetOf builds a set from tiers. Invalid tiers are ignored.
func SetOf(ps ...Priority) PrioritySet {
	var s PrioritySet
	for _, p := range ps {
		s = s.With(p)
	}
	return s
}

// Has reports whether p is in the set.
func (s PrioritySet) Has(p Priority) bool {
	return p.IsValid() && s&(1<<p) != 0
}

// With returns the set plus p.
func (s PrioritySet) With(p Priority) PrioritySet {
	if !p.IsValid() {
		return s
	}
	return s | 1<<p
}

// Without returns the set minus p.
func (s PrioritySet) Without(p Priority) PrioritySet {
	if !p.IsValid() {
		return s
	}
	return s &^ (1 << p)
}

// List returns the members from high to low.
func (s PrioritySet) List() []Priority {
	var out []Priority
	for _, p := range []Priority{High, Medium, Low} {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// String returns a comma-separated list, "all" or "none".
func (s PrioritySet) String() string {
	switch s & AllPriorities {
	case AllPriorities:
		return "all"
	case 0:
		return "none"
	}
	names := make([]string, 0, 3)
	for _, p := range s.List() {
		names = append(names, p.String())
	}
	return strings.Join(names, ",")
}

// ParsePrioritySet parses a comma-separated list of tiers. "all" and "none"
// are accepted as shorthands.
func ParsePrioritySet(s string) (PrioritySet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return AllPriorities, nil
	case "none", "":
		return 0, nil
	}
	var set PrioritySet
	for _, part := range strings.Split(s, ",") {
		p, err := ParsePriority(part)
		if err != nil {
			return 0, err
		}
		set = set.With(p)
	}
	return set, nil
}
