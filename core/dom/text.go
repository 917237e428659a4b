package dom

import "unicode/utf8"

// TextNodes returns the text nodes under root in document order.
func TextNodes(root Node) []Node {
	return root.Find(func(n Node) bool { return n.IsText() })
}

// TextBefore returns the flattened text length, in code points, of
// everything under root that precedes n in document order. n itself and its
// descendants are not counted. n must be root or inside it.
func TextBefore(root, n Node) int {
	total := 0
	done := false
	root.Walk(func(c Node) bool {
		if done {
			return false
		}
		if c == n {
			done = true
			return false
		}
		if c.IsText() {
			total += utf8.RuneCountInString(c.Data())
		}
		return true
	})
	return total
}

// OffsetOf converts a (container, offset) boundary into a flattened text
// offset relative to root. For text containers offset counts code points;
// for elements it is a child index.
func OffsetOf(root, container Node, offset int) int {
	if container.IsText() {
		return TextBefore(root, container) + clamp(offset, 0, container.Len())
	}
	if child := container.Child(offset); !child.IsNil() {
		return TextBefore(root, child)
	}
	return TextBefore(root, container) + container.TextLen()
}

// Substring returns the code points [start, end) of s.
func Substring(s string, start, end int) string {
	runes := []rune(s)
	start = clamp(start, 0, len(runes))
	end = clamp(end, start, len(runes))
	return string(runes[start:end])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
