package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/boelens/internal/document"
)

// DirSource serves documents from files in a local directory. A document's ID
// is its filename without the extension.
type DirSource struct {
	Dir string
}

// Get implements document.Source.
func (s *DirSource) Get(ctx context.Context, id string) (*document.Document, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return nil, document.ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.find(id)
	if err != nil {
		return nil, err
	}

	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	doc, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	doc.ID = id
	return doc, nil
}

func (s *DirSource) find(id string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, id+".*"))
	if err != nil {
		return "", fmt.Errorf("glob documents: %w", err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if strings.TrimSuffix(filepath.Base(m), filepath.Ext(m)) == id && IsSupportedExtension(m) {
			return m, nil
		}
	}
	return "", document.ErrNotFound
}
