package dom

import (
	"encoding/xml"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"
)

// Kind is the variant of a node as seen by the engine.
type Kind int

const (
	// KindOther covers documents, comments, declarations and anything else
	// that carries no editable text.
	KindOther Kind = iota
	// KindElement is an element node.
	KindElement
	// KindText is a text or CDATA node.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	default:
		return "other"
	}
}

// Node is a comparable handle on a tree node. The zero value is the nil node.
// Two handles are equal exactly when they refer to the same underlying node,
// so Node is usable as a map key for identity side tables.
type Node struct {
	x *xmlquery.Node
}

// Wrap returns a handle for an xmlquery node.
func Wrap(x *xmlquery.Node) Node {
	return Node{x: x}
}

// Unwrap returns the underlying xmlquery node.
func (n Node) Unwrap() *xmlquery.Node {
	return n.x
}

// NewElement creates a detached element. attrs are name/value pairs.
func NewElement(name string, attrs ...string) Node {
	n := Node{x: &xmlquery.Node{Type: xmlquery.ElementNode, Data: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.SetAttr(attrs[i], attrs[i+1])
	}
	return n
}

// NewText creates a detached text node.
func NewText(s string) Node {
	return Node{x: &xmlquery.Node{Type: xmlquery.TextNode, Data: s}}
}

// IsNil reports whether n refers to no node.
func (n Node) IsNil() bool {
	return n.x == nil
}

// Kind returns the node variant.
func (n Node) Kind() Kind {
	if n.x == nil {
		return KindOther
	}
	switch n.x.Type {
	case xmlquery.ElementNode:
		return KindElement
	case xmlquery.TextNode, xmlquery.CharDataNode:
		return KindText
	default:
		return KindOther
	}
}

// IsElement reports whether n is an element.
func (n Node) IsElement() bool { return n.Kind() == KindElement }

// IsText reports whether n is a text node.
func (n Node) IsText() bool { return n.Kind() == KindText }

// Name returns the local element name, or "" for non-elements.
func (n Node) Name() string {
	if n.Kind() != KindElement {
		return ""
	}
	return n.x.Data
}

// Is reports whether n is an element with one of the given names.
func (n Node) Is(names ...string) bool {
	name := n.Name()
	if name == "" {
		return false
	}
	for _, want := range names {
		if strings.EqualFold(name, want) {
			return true
		}
	}
	return false
}

func (n Node) Parent() Node {
	if n.x == nil {
		return Node{}
	}
	return Node{x: n.x.Parent}
}

func (n Node) FirstChild() Node {
	if n.x == nil {
		return Node{}
	}
	return Node{x: n.x.FirstChild}
}

func (n Node) LastChild() Node {
	if n.x == nil {
		return Node{}
	}
	return Node{x: n.x.LastChild}
}

func (n Node) NextSibling() Node {
	if n.x == nil {
		return Node{}
	}
	return Node{x: n.x.NextSibling}
}

func (n Node) PrevSibling() Node {
	if n.x == nil {
		return Node{}
	}
	return Node{x: n.x.PrevSibling}
}

// Children returns every child node (elements, text and others) in order.
func (n Node) Children() []Node {
	if n.x == nil {
		return nil
	}
	var out []Node
	for c := n.x.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, Node{x: c})
	}
	return out
}

// ChildCount returns the number of children.
func (n Node) ChildCount() int {
	if n.x == nil {
		return 0
	}
	count := 0
	for c := n.x.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// Child returns the i-th child or the nil node when i is out of range.
func (n Node) Child(i int) Node {
	if n.x == nil || i < 0 {
		return Node{}
	}
	c := n.x.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return Node{x: c}
}

// Index returns the position of n among its siblings, or -1 when detached.
func (n Node) Index() int {
	if n.x == nil || n.x.Parent == nil {
		return -1
	}
	i := 0
	for c := n.x.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c == n.x {
			return i
		}
		i++
	}
	return -1
}

// Data returns the raw content of a text node.
func (n Node) Data() string {
	if n.Kind() != KindText {
		return ""
	}
	return n.x.Data
}

// SetData replaces the content of a text node.
func (n Node) SetData(s string) {
	if n.Kind() == KindText {
		n.x.Data = s
	}
}

// Len returns the size of n in boundary offsets: code points for text
// nodes, child count for everything else.
func (n Node) Len() int {
	if n.Kind() == KindText {
		return utf8.RuneCountInString(n.x.Data)
	}
	return n.ChildCount()
}

// Text returns the flattened text of the subtree rooted at n.
func (n Node) Text() string {
	if n.x == nil {
		return ""
	}
	if n.Kind() == KindText {
		return n.x.Data
	}
	var sb strings.Builder
	n.Walk(func(c Node) bool {
		if c.Kind() == KindText {
			sb.WriteString(c.x.Data)
		}
		return true
	})
	return sb.String()
}

// TextLen returns the flattened text length of n in code points.
func (n Node) TextLen() int {
	return utf8.RuneCountInString(n.Text())
}

// Attr returns an attribute value and whether it is present.
func (n Node) Attr(name string) (string, bool) {
	if n.Kind() != KindElement {
		return "", false
	}
	for _, a := range n.x.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns an attribute value or def when absent.
func (n Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// HasAttr reports whether the attribute is present.
func (n Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// SetAttr sets or replaces an attribute on an element.
func (n Node) SetAttr(name, value string) {
	if n.Kind() != KindElement {
		return
	}
	for i := range n.x.Attr {
		if n.x.Attr[i].Name.Space == "" && n.x.Attr[i].Name.Local == name {
			n.x.Attr[i].Value = value
			return
		}
	}
	n.x.Attr = append(n.x.Attr, xmlquery.Attr{Name: xml.Name{Local: name}, Value: value})
}

// RemoveAttr deletes an attribute and reports whether it was present.
func (n Node) RemoveAttr(name string) bool {
	if n.Kind() != KindElement {
		return false
	}
	for i := range n.x.Attr {
		if n.x.Attr[i].Name.Space == "" && n.x.Attr[i].Name.Local == name {
			n.x.Attr = append(n.x.Attr[:i], n.x.Attr[i+1:]...)
			return true
		}
	}
	return false
}

// SetFlag sets a boolean attribute: present as "true", or removed.
func (n Node) SetFlag(name string, on bool) {
	if on {
		n.SetAttr(name, "true")
		return
	}
	n.RemoveAttr(name)
}

// Flag reads a boolean attribute written by SetFlag. Any value other than
// "false" counts as set, matching HTML boolean attribute semantics.
func (n Node) Flag(name string) bool {
	v, ok := n.Attr(name)
	return ok && v != "false"
}

// Contains reports whether o is n or one of its descendants.
func (n Node) Contains(o Node) bool {
	if n.x == nil || o.x == nil {
		return false
	}
	for p := o.x; p != nil; p = p.Parent {
		if p == n.x {
			return true
		}
	}
	return false
}

// Root returns the topmost ancestor of n.
func (n Node) Root() Node {
	if n.x == nil {
		return Node{}
	}
	p := n.x
	for p.Parent != nil {
		p = p.Parent
	}
	return Node{x: p}
}

// Closest returns n or its nearest ancestor satisfying pred, stopping at
// (and including) limit when limit is not nil.
func (n Node) Closest(limit Node, pred func(Node) bool) Node {
	for p := n; !p.IsNil(); p = p.Parent() {
		if pred(p) {
			return p
		}
		if p == limit {
			break
		}
	}
	return Node{}
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the node just visited.
func (n Node) Walk(fn func(Node) bool) {
	if n.x == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.x.FirstChild; c != nil; {
		next := c.NextSibling
		Node{x: c}.Walk(fn)
		c = next
	}
}

// Find returns every node in the subtree (n included) satisfying pred.
func (n Node) Find(pred func(Node) bool) []Node {
	var out []Node
	n.Walk(func(c Node) bool {
		if pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}
