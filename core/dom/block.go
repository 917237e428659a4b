package dom

import "strings"

// blockElements is the set of element names laid out as blocks.
var blockElements = map[string]bool{
	"address":    true,
	"article":    true,
	"aside":      true,
	"blockquote": true,
	"dd":         true,
	"details":    true,
	"div":        true,
	"dl":         true,
	"dt":         true,
	"fieldset":   true,
	"figcaption": true,
	"figure":     true,
	"footer":     true,
	"form":       true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
	"h4":         true,
	"h5":         true,
	"h6":         true,
	"header":     true,
	"hr":         true,
	"li":         true,
	"main":       true,
	"nav":        true,
	"ol":         true,
	"p":          true,
	"pre":        true,
	"section":    true,
	"table":      true,
	"tbody":      true,
	"td":         true,
	"tfoot":      true,
	"th":         true,
	"thead":      true,
	"tr":         true,
	"ul":         true,
}

// IsBlock reports whether n is a block-level element.
func IsBlock(n Node) bool {
	return n.IsElement() && blockElements[strings.ToLower(n.Name())]
}

// HasBlock reports whether n or any descendant is block-level.
func HasBlock(n Node) bool {
	found := false
	n.Walk(func(c Node) bool {
		if found {
			return false
		}
		if IsBlock(c) {
			found = true
			return false
		}
		return true
	})
	return found
}

// IsList reports whether n is a list container.
func IsList(n Node) bool {
	return n.Is("ul", "ol")
}

// IsListItem reports whether n is a list item.
func IsListItem(n Node) bool {
	return n.Is("li")
}
