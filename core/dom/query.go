package dom

import (
	"fmt"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// compiled caches XPath expressions; the engine issues the same handful of
// queries on every event.
var compiled = struct {
	sync.Mutex
	exprs map[string]*xpath.Expr
}{exprs: make(map[string]*xpath.Expr)}

func compile(expr string) (*xpath.Expr, error) {
	compiled.Lock()
	defer compiled.Unlock()
	if e, ok := compiled.exprs[expr]; ok {
		return e, nil
	}
	e, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	compiled.exprs[expr] = e
	return e, nil
}

// Query evaluates an XPath expression relative to n and returns matching
// nodes in document order.
func (n Node) Query(expr string) ([]Node, error) {
	if n.x == nil {
		return nil, nil
	}
	e, err := compile(expr)
	if err != nil {
		return nil, err
	}
	matches := xmlquery.QuerySelectorAll(n.x, e)
	out := make([]Node, len(matches))
	for i, m := range matches {
		out[i] = Node{x: m}
	}
	return out, nil
}

// QueryFirst evaluates an XPath expression relative to n and returns the
// first match, or the nil node.
func (n Node) QueryFirst(expr string) (Node, error) {
	if n.x == nil {
		return Node{}, nil
	}
	e, err := compile(expr)
	if err != nil {
		return Node{}, err
	}
	return Node{x: xmlquery.QuerySelector(n.x, e)}, nil
}

// MustQuery is Query for expressions fixed at compile time. It panics on an
// invalid expression.
func (n Node) MustQuery(expr string) []Node {
	out, err := n.Query(expr)
	if err != nil {
		panic(fmt.Sprintf("dom: %v", err))
	}
	return out
}

// Literal quotes s as an XPath string literal.
func Literal(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
