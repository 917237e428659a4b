// Package dom is the document tree surface the annotation engine works on.
//
// Documents are well-formed (X)HTML-like markup parsed with xmlquery. The engine
// never sees xmlquery types directly: it walks and mutates the tree through the
// Node handle, which exposes a closed set of kinds (element, text, other) and a
// small capability surface (children, parent, attributes, text content).
//
// Security Notes:
//   - The xmlquery parser uses Go's encoding/xml, which does not fetch external
//     entities. Markup is handled in memory only.
package dom

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/ClozeMark/core/errors"
)

// Document is a parsed markup document.
type Document struct {
	root *xmlquery.Node
}

// Parse parses markup and returns a Document.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewParse("markup", "", err.Error())
	}
	if !hasDeclaration(data) {
		dropDeclarations(root)
	}
	doc := &Document{root: root}
	if doc.Body().IsNil() {
		return nil, errors.NewParse("markup", "", "document has no root element")
	}
	return doc, nil
}

// hasDeclaration reports whether data opens with an <?xml ...?> declaration.
func hasDeclaration(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n\ufeff")
	return bytes.HasPrefix(data, []byte("<?xml"))
}

// dropDeclarations removes the declaration xmlquery synthesizes for input
// that had none, so serializing gives back the original markup.
func dropDeclarations(root *xmlquery.Node) {
	for child := root.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == xmlquery.DeclarationNode {
			xmlquery.RemoveFromTree(child)
		}
		child = next
	}
}

// ParseString is Parse for a string.
func ParseString(s string) (*Document, error) {
	return Parse([]byte(s))
}

// NewDocument creates a document whose editable root is an empty element.
func NewDocument(rootName string) *Document {
	root := &xmlquery.Node{Type: xmlquery.DocumentNode}
	xmlquery.AddChild(root, NewElement(rootName).x)
	return &Document{root: root}
}

// Body returns the editable root: the first element child of the document.
func (d *Document) Body() Node {
	if d == nil || d.root == nil {
		return Node{}
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return Node{x: child}
		}
	}
	return Node{}
}

// Serialize renders the whole document back to markup bytes.
func (d *Document) Serialize() []byte {
	if d == nil || d.root == nil {
		return nil
	}
	return []byte(Render(Node{x: d.root}))
}

// Render renders a node and its subtree. Unlike xmlquery's OutputXML, text is
// written verbatim (only escaped), so whitespace survives a round trip.
func Render(n Node) string {
	if n.IsNil() {
		return ""
	}
	var buf strings.Builder
	renderNode(&buf, n.x)
	return buf.String()
}

// RenderChildren renders the children of n without n itself.
func RenderChildren(n Node) string {
	if n.IsNil() {
		return ""
	}
	var buf strings.Builder
	for child := n.x.FirstChild; child != nil; child = child.NextSibling {
		renderNode(&buf, child)
	}
	return buf.String()
}

func renderNode(w *strings.Builder, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			renderNode(w, child)
		}

	case xmlquery.DeclarationNode:
		w.WriteString("<?xml")
		for _, attr := range n.Attr {
			fmt.Fprintf(w, " %s=\"%s\"", attr.Name.Local, escapeAttr(attr.Value))
		}
		w.WriteString("?>")

	case xmlquery.ElementNode:
		w.WriteString("<")
		w.WriteString(qualifiedName(n.Prefix, n.Data))
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(qualifiedName(attr.Name.Space, attr.Name.Local))
			w.WriteString("=\"")
			w.WriteString(escapeAttr(attr.Value))
			w.WriteString("\"")
		}
		if n.FirstChild == nil {
			w.WriteString("/>")
			return
		}
		w.WriteString(">")
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			renderNode(w, child)
		}
		w.WriteString("</")
		w.WriteString(qualifiedName(n.Prefix, n.Data))
		w.WriteString(">")

	case xmlquery.TextNode:
		w.WriteString(escapeText(n.Data))

	case xmlquery.CharDataNode:
		w.WriteString("<![CDATA[")
		w.WriteString(n.Data)
		w.WriteString("]]>")

	case xmlquery.CommentNode:
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")
	}
}

func qualifiedName(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = escapeText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "\n", "&#xA;")
	s = strings.ReplaceAll(s, "\t", "&#x9;")
	return s
}
