package highlight

import "golang.org/x/net/html"

type annotator struct {
	m       *Matcher
	cat     Category
	markers int
}

// Annotate wraps every match of m inside root in a marker of category c and
// returns the number of markers produced. A nil root or matcher is a no-op.
// Text nodes without a match are left untouched. Matches spanning two adjacent
// text nodes are not found, since each text node is scanned on its own.
func Annotate(root *html.Node, m *Matcher, c Category) int {
	if root == nil || m == nil {
		return 0
	}
	a := &annotator{m: m, cat: c}
	Walk(root, a)
	return a.markers
}

func (a *annotator) VisitElement(ElementNode)     {}
func (a *annotator) VisitProtected(ProtectedNode) {}

func (a *annotator) VisitText(t TextNode) {
	n := t.HTML()
	if n.Parent == nil || a.insideMarker(n) {
		return
	}
	text := n.Data
	matches := a.m.FindAll(text)
	if len(matches) == 0 {
		return
	}

	container := &html.Node{
		Type: html.ElementNode,
		Data: "span",
		Attr: []html.Attribute{{Key: ContainerAttr, Val: string(a.cat)}},
	}
	last := 0
	for _, loc := range matches {
		if loc[0] > last {
			container.AppendChild(textNode(text[last:loc[0]]))
		}
		marker := &html.Node{
			Type: html.ElementNode,
			Data: "span",
			Attr: []html.Attribute{{Key: "class", Val: a.cat.Class()}},
		}
		marker.AppendChild(textNode(text[loc[0]:loc[1]]))
		container.AppendChild(marker)
		last = loc[1]
		a.markers++
	}
	if last < len(text) {
		container.AppendChild(textNode(text[last:]))
	}

	n.Parent.InsertBefore(container, n)
	n.Parent.RemoveChild(n)
}

// insideMarker reports whether n already sits in a marker of the annotator's
// category, so repeated passes never nest or recount markers.
func (a *annotator) insideMarker(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if IsMarker(p, a.cat) {
			return true
		}
	}
	return false
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
