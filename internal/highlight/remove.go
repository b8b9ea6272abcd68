package highlight

import (
	"strings"

	"golang.org/x/net/html"
)

// Remove reverts the annotations of category c under root: every marker is
// replaced by a text node holding its text content, every container is
// unwrapped, and adjacent text nodes are merged. Markers and containers of
// other categories are kept. It returns the number of markers removed.
//
// Markers and containers of another category found inside a removed marker
// are kept. Any other element inside a marker (external corruption) is
// flattened to its text content; nothing is reported to the caller.
func Remove(root *html.Node, c Category) int {
	if root == nil {
		return 0
	}
	removed := flattenMarkers(root, c)
	unwrapContainers(root, c)
	Normalize(root)
	return removed
}

func flattenMarkers(n *html.Node, c Category) int {
	removed := 0
	for _, child := range children(n) {
		if child.Type == html.ElementNode && IsMarker(child, c) {
			for _, r := range flattenMarker(child, c) {
				n.InsertBefore(r, child)
			}
			n.RemoveChild(child)
			removed++
			continue
		}
		if _, ok := Classify(child).(ElementNode); ok {
			removed += flattenMarkers(child, c)
		}
	}
	return removed
}

// flattenMarker detaches the content of marker m: text and annotations of
// other categories are kept, every other element is reduced to its text.
func flattenMarker(m *html.Node, c Category) []*html.Node {
	var out []*html.Node
	for _, ch := range children(m) {
		switch {
		case ch.Type == html.ElementNode && foreignAnnotation(ch, c):
			m.RemoveChild(ch)
			out = append(out, ch)
		case ch.Type == html.ElementNode:
			out = append(out, flattenMarker(ch, c)...)
		default:
			out = append(out, textNode(TextContent(ch)))
		}
	}
	return out
}

// foreignAnnotation reports whether n is a marker or container created by a
// category other than c.
func foreignAnnotation(n *html.Node, c Category) bool {
	if v := attr(n, ContainerAttr); v != "" && v != string(c) {
		return true
	}
	for _, other := range []Category{CategoryAlert, CategorySearch} {
		if other != c && IsMarker(n, other) {
			return true
		}
	}
	return false
}

func unwrapContainers(n *html.Node, c Category) {
	for _, child := range children(n) {
		if _, ok := Classify(child).(ElementNode); !ok {
			continue
		}
		unwrapContainers(child, c)
		if attr(child, ContainerAttr) != string(c) {
			continue
		}
		for _, gc := range children(child) {
			child.RemoveChild(gc)
			n.InsertBefore(gc, child)
		}
		n.RemoveChild(child)
	}
}

// Normalize merges adjacent text nodes and drops empty ones throughout the
// subtree, like the DOM's Node.normalize.
func Normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode:
			for next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				after := next.NextSibling
				n.RemoveChild(next)
				next = after
			}
			if c.Data == "" {
				n.RemoveChild(c)
			}
		case html.ElementNode:
			Normalize(c)
		}
		c = next
	}
}

// IsMarker reports whether n is a marker element of category c.
func IsMarker(n *html.Node, c Category) bool {
	if n.Type != html.ElementNode || n.Data != "span" {
		return false
	}
	for _, cls := range strings.Fields(attr(n, "class")) {
		if cls == c.Class() {
			return true
		}
	}
	return false
}

// Count returns the number of markers of category c under root.
func Count(root *html.Node, c Category) int {
	if root == nil {
		return 0
	}
	n := 0
	if IsMarker(root, c) {
		n++
	}
	for ch := root.FirstChild; ch != nil; ch = ch.NextSibling {
		n += Count(ch, c)
	}
	return n
}

// TextContent concatenates all text under n, including protected nodes,
// like the DOM's textContent.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
