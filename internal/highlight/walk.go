package highlight

import "golang.org/x/net/html"

// Node is one of TextNode, ElementNode or ProtectedNode.
type Node interface {
	HTML() *html.Node
	isNode()
}

// TextNode is character data eligible for matching.
type TextNode struct{ n *html.Node }

// ElementNode is a content element (or the document root) whose children are visited.
type ElementNode struct{ n *html.Node }

// ProtectedNode is never entered: embedded scripts and styles, comments, doctypes.
type ProtectedNode struct{ n *html.Node }

func (t TextNode) HTML() *html.Node      { return t.n }
func (e ElementNode) HTML() *html.Node   { return e.n }
func (p ProtectedNode) HTML() *html.Node { return p.n }

func (TextNode) isNode()      {}
func (ElementNode) isNode()   {}
func (ProtectedNode) isNode() {}

var protectedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
	"textarea": true,
	"title":    true,
}

// Classify maps an html.Node onto the closed set of node variants.
func Classify(n *html.Node) Node {
	switch n.Type {
	case html.TextNode:
		return TextNode{n}
	case html.ElementNode:
		if protectedTags[n.Data] {
			return ProtectedNode{n}
		}
		return ElementNode{n}
	case html.DocumentNode:
		return ElementNode{n}
	default:
		return ProtectedNode{n}
	}
}

// Visitor receives every node reached by Walk.
type Visitor interface {
	VisitText(TextNode)
	VisitElement(ElementNode)
	VisitProtected(ProtectedNode)
}

// Walk visits n and its descendants in document order. Children of an element
// are snapshotted before they are visited, so a visitor may replace the node
// it is handed. Protected nodes are reported but never descended into.
func Walk(n *html.Node, v Visitor) {
	if n == nil {
		return
	}
	switch node := Classify(n).(type) {
	case TextNode:
		v.VisitText(node)
	case ProtectedNode:
		v.VisitProtected(node)
	case ElementNode:
		v.VisitElement(node)
		for _, c := range children(n) {
			Walk(c, v)
		}
	}
}

func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}
