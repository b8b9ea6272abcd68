package document

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNotFound is returned by a Source when no document has the given ID.
var ErrNotFound = errors.New("document not found")

// ContentClass is the class of the container holding renderable content.
const ContentClass = "contenido-documento"

// Document is a bulletin document ready for viewing.
type Document struct {
	ID         string    // BOE identifier, e.g. BOE-A-2024-12345
	Title      string
	Department string
	Section    string
	Published  time.Time
	PDFURL     string
	Content    *html.Node // <div class="contenido-documento"> container
}

// Source resolves documents by ID.
type Source interface {
	Get(ctx context.Context, id string) (*Document, error)
}

// NewContainer returns an empty content container.
func NewContainer() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: ContentClass}},
	}
}

// ParseContent parses an HTML fragment into a new content container.
func ParseContent(r io.Reader) (*html.Node, error) {
	root := NewContainer()
	nodes, err := html.ParseFragment(r, root)
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// Clone returns a deep copy of n detached from any tree.
func Clone(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(Clone(ch))
	}
	return c
}

// Render serializes the children of n (its inner HTML).
func Render(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", fmt.Errorf("render content: %w", err)
		}
	}
	return sb.String(), nil
}

// TextContent returns the concatenated text of n, trimmed.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	if n != nil {
		extract(n)
	}
	return strings.TrimSpace(buf.String())
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
