package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/boelens/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. The first level-1
// heading, if any, becomes the title.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, root); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	content, err := document.ParseContent(&buf)
	if err != nil {
		return nil, err
	}

	doc := newDocument(filename)
	doc.Content = content
	if title := firstHeading(root, src); title != "" {
		doc.Title = title
	}
	return doc, nil
}

func firstHeading(doc ast.Node, src []byte) string {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			return string(headingText(h, src))
		}
	}
	return ""
}

func headingText(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			continue
		}
		buf.Write(headingText(c, src))
	}
	return buf.Bytes()
}
