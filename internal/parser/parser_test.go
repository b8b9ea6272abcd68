package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/boelens/internal/document"
)

func render(t *testing.T, doc *document.Document) string {
	t.Helper()
	out, err := document.Render(doc.Content)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out
}

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\n\n\nThird & last."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" || doc.ID != "notes" {
		t.Errorf("expected title and id %q, got %q / %q", "notes", doc.Title, doc.ID)
	}
	want := "<p>First paragraph line one.\nFirst paragraph line two.</p><p>Second paragraph.</p><p>Third &amp; last.</p>"
	if got := render(t, doc); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Content.FirstChild != nil {
		t.Error("expected empty content for empty input")
	}
}

func TestHTMLParser_BodyAndTitle(t *testing.T) {
	input := `<html><head><title>Real Decreto 1/2024</title></head><body><h1>Preámbulo</h1><p>Texto.</p></body></html>`
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "BOE-A-2024-1.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Real Decreto 1/2024" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}
	if doc.ID != "BOE-A-2024-1" {
		t.Errorf("expected id from filename, got %q", doc.ID)
	}
	if got := render(t, doc); got != "<h1>Preámbulo</h1><p>Texto.</p>" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestMarkdownParser_RendersHTML(t *testing.T) {
	input := "# Orden ministerial\n\nPrimer *párrafo*.\n\n## Anexo\n\n- uno\n- dos\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "orden.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Orden ministerial" {
		t.Errorf("expected title from h1, got %q", doc.Title)
	}
	got := render(t, doc)
	for _, want := range []string{"<h1>Orden ministerial</h1>", "<em>párrafo</em>", "<h2>Anexo</h2>", "<li>dos</li>"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestMarkdownParser_NoHeadingKeepsFilenameTitle(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader("solo texto"), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "plain" {
		t.Errorf("expected %q, got %q", "plain", doc.Title)
	}
}

func TestCSVParser_Table(t *testing.T) {
	input := "departamento,total\nHacienda,3\nJusticia,5\n"
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(input), "resumen.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<table><thead><tr><th>departamento</th><th>total</th></tr></thead><tbody><tr><td>Hacienda</td><td>3</td></tr><tr><td>Justicia</td><td>5</td></tr></tbody></table>"
	if got := render(t, doc); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"a.txt", false},
		{"a.MD", false},
		{"a.htm", false},
		{"a.pdf", false},
		{"a.docx", false},
		{"a.exe", true},
	}
	for _, tt := range tests {
		_, err := ForFile(tt.filename)
		if (err != nil) != tt.wantErr {
			t.Errorf("ForFile(%q) err=%v, wantErr=%v", tt.filename, err, tt.wantErr)
		}
		if IsSupportedExtension(tt.filename) == tt.wantErr {
			t.Errorf("IsSupportedExtension(%q) mismatch", tt.filename)
		}
	}
}

func TestDirSource_Get(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "BOE-A-2024-7.txt"), []byte("Ley de ayudas."), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.bin"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := &DirSource{Dir: dir}

	doc, err := src.Get(context.Background(), "BOE-A-2024-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID != "BOE-A-2024-7" {
		t.Errorf("unexpected id %q", doc.ID)
	}
	if got := render(t, doc); got != "<p>Ley de ayudas.</p>" {
		t.Errorf("unexpected content %q", got)
	}

	for _, id := range []string{"missing", "ignored", "../etc/passwd", ""} {
		if _, err := src.Get(context.Background(), id); !errors.Is(err, document.ErrNotFound) {
			t.Errorf("Get(%q): expected ErrNotFound, got %v", id, err)
		}
	}
}
