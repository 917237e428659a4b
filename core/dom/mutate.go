package dom

import (
	"github.com/antchfx/xmlquery"
)

// Remove detaches n from its parent. Detached nodes keep their subtree.
func (n Node) Remove() {
	if n.x == nil {
		return
	}
	xmlquery.RemoveFromTree(n.x)
}

// AppendChild moves c to the end of n's children.
func (n Node) AppendChild(c Node) {
	if n.x == nil || c.x == nil {
		return
	}
	c.Remove()
	xmlquery.AddChild(n.x, c.x)
}

// InsertBefore moves c into n immediately before ref. A nil ref appends.
func (n Node) InsertBefore(c, ref Node) {
	if n.x == nil || c.x == nil {
		return
	}
	if ref.x == nil || ref.x.Parent != n.x {
		n.AppendChild(c)
		return
	}
	if c.x == ref.x {
		return
	}
	c.Remove()
	c.x.Parent = n.x
	c.x.NextSibling = ref.x
	c.x.PrevSibling = ref.x.PrevSibling
	if ref.x.PrevSibling != nil {
		ref.x.PrevSibling.NextSibling = c.x
	} else {
		n.x.FirstChild = c.x
	}
	ref.x.PrevSibling = c.x
}

// InsertAfter moves c into n's parent immediately after n.
func (n Node) InsertAfter(c Node) {
	p := n.Parent()
	if p.IsNil() {
		return
	}
	p.InsertBefore(c, n.NextSibling())
}

// InsertAt moves c into n so that it becomes child number i.
func (n Node) InsertAt(c Node, i int) {
	n.InsertBefore(c, n.Child(i))
}

// ReplaceWith puts r where n is and detaches n.
func (n Node) ReplaceWith(r Node) {
	p := n.Parent()
	if p.IsNil() || r == n {
		return
	}
	p.InsertBefore(r, n)
	n.Remove()
}

// Clone copies n. A shallow clone copies only the node and its attributes.
func (n Node) Clone(deep bool) Node {
	if n.x == nil {
		return Node{}
	}
	return Node{x: cloneNode(n.x, deep)}
}

func cloneNode(src *xmlquery.Node, deep bool) *xmlquery.Node {
	dst := &xmlquery.Node{
		Type:         src.Type,
		Data:         src.Data,
		Prefix:       src.Prefix,
		NamespaceURI: src.NamespaceURI,
	}
	if len(src.Attr) > 0 {
		dst.Attr = make([]xmlquery.Attr, len(src.Attr))
		copy(dst.Attr, src.Attr)
	}
	if deep {
		for c := src.FirstChild; c != nil; c = c.NextSibling {
			xmlquery.AddChild(dst, cloneNode(c, true))
		}
	}
	return dst
}

// SplitText splits a text node at a code point offset. n keeps the left part
// and the returned node, inserted right after n, holds the rest. Splitting at
// either edge returns the nil node and leaves n untouched.
func (n Node) SplitText(offset int) Node {
	if n.Kind() != KindText {
		return Node{}
	}
	runes := []rune(n.x.Data)
	if offset <= 0 || offset >= len(runes) {
		return Node{}
	}
	right := NewText(string(runes[offset:]))
	n.x.Data = string(runes[:offset])
	if !n.Parent().IsNil() {
		n.InsertAfter(right)
	}
	return right
}

// IsEmpty reports whether n has no text and no element descendants.
func (n Node) IsEmpty() bool {
	if n.IsText() {
		return n.Data() == ""
	}
	empty := true
	n.Walk(func(c Node) bool {
		if c == n {
			return true
		}
		if c.IsElement() || (c.IsText() && c.Data() != "") {
			empty = false
			return false
		}
		return true
	})
	return empty
}
