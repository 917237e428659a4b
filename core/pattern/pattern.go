// Package pattern finds raw cloze markers typed into text.
//
// A marker is a run of one to three delimiter characters, a non-empty span
// without delimiters, and a closing run of the same length: #text#, ##text##
// or ###text###. Runs are maximal, so a four-delimiter run never reads as two
// nested markers.
package pattern

import (
	"fmt"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/ClozeMark/core/cloze"
)

// Delimiter is the marker character.
const Delimiter = '#'

// MaxDelimiters is the longest delimiter run that forms a marker.
const MaxDelimiters = 3

// markerLexer splits text into maximal delimiter runs and the text between
// them.
var markerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Delim", Pattern: `#+`},
	{Name: "Text", Pattern: `[^#]+`},
})

var delimType = markerLexer.Symbols()["Delim"]

// Match is one marker found in a string. Offsets count code points.
type Match struct {
	// Start and End bound the whole marker, delimiters included.
	Start int
	End   int
	// InnerStart and InnerEnd bound the text between the delimiter runs.
	InnerStart int
	InnerEnd   int
	// Inner is the text between the delimiter runs.
	Inner string
	// Delims is the length of each delimiter run (1-3).
	Delims int
}

// Priority maps the delimiter count to a priority tier: one delimiter is
// high, two medium, three low.
func (m Match) Priority() cloze.Priority {
	return PriorityFor(m.Delims)
}

// Contains reports whether a caret offset lies within the marker, edges
// included.
func (m Match) Contains(caret int) bool {
	return m.Start <= caret && caret <= m.End
}

// Distance is the caret's distance to the nearest marker edge, or 0 when the
// marker contains it.
func (m Match) Distance(caret int) int {
	if m.Contains(caret) {
		return 0
	}
	if caret < m.Start {
		return m.Start - caret
	}
	return caret - m.End
}

func (m Match) String() string {
	return fmt.Sprintf("%q[%d:%d]x%d", m.Inner, m.Start, m.End, m.Delims)
}

// PriorityFor maps a delimiter count to a priority tier.
func PriorityFor(delims int) cloze.Priority {
	switch delims {
	case 1:
		return cloze.High
	case 3:
		return cloze.Low
	default:
		return cloze.Medium
	}
}

type token struct {
	delim bool
	value string
	start int // code point offset
	runes int
}

func tokenize(text string) ([]token, error) {
	lex, err := markerLexer.LexString("", text)
	if err != nil {
		return nil, err
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	out := make([]token, 0, len(raw))
	offset := 0
	for _, t := range raw {
		if t.EOF() {
			break
		}
		n := utf8.RuneCountInString(t.Value)
		out = append(out, token{
			delim: t.Type == delimType,
			value: t.Value,
			start: offset,
			runes: n,
		})
		offset += n
	}
	return out, nil
}

// Scan returns every marker in text, left to right, without overlaps.
func Scan(text string) []Match {
	if !containsDelimiter(text) {
		return nil
	}
	tokens, err := tokenize(text)
	if err != nil {
		// The two rules cover every input; a lexer error means no markers.
		return nil
	}
	var out []Match
	for i := 0; i+2 < len(tokens); {
		open, inner, closing := tokens[i], tokens[i+1], tokens[i+2]
		if open.delim && !inner.delim && closing.delim &&
			open.runes <= MaxDelimiters && open.runes == closing.runes {
			out = append(out, Match{
				Start:      open.start,
				End:        closing.start + closing.runes,
				InnerStart: inner.start,
				InnerEnd:   inner.start + inner.runes,
				Inner:      inner.value,
				Delims:     open.runes,
			})
			i += 3
			continue
		}
		i++
	}
	return out
}

// Best picks the marker a caret refers to: one containing the caret if any,
// otherwise the one with the smallest edge distance. Ties go to the marker
// that starts later.
func Best(matches []Match, caret int) (Match, bool) {
	var best Match
	found := false
	for _, m := range matches {
		if !found {
			best, found = m, true
			continue
		}
		bd, md := best.Distance(caret), m.Distance(caret)
		if md < bd || (md == bd && m.Start > best.Start) {
			best = m
		}
	}
	return best, found
}

// Find scans text and returns the best marker for the caret.
func Find(text string, caret int) (Match, bool) {
	return Best(Scan(text), caret)
}

func containsDelimiter(text string) bool {
	for _, r := range text {
		if r == Delimiter {
			return true
		}
	}
	return false
}

