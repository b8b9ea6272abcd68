package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/boelens/internal/document"
)

// CSVParser handles CSV files, rendered as a single table.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := newDocument(filename)
	if len(records) == 0 {
		return doc, nil
	}

	// First row is headers.
	table := element("table", "")
	thead := element("thead", "")
	tr := element("tr", "")
	for _, h := range records[0] {
		tr.AppendChild(element("th", h))
	}
	thead.AppendChild(tr)
	table.AppendChild(thead)

	tbody := element("tbody", "")
	for _, row := range records[1:] {
		tr := element("tr", "")
		for _, cell := range row {
			tr.AppendChild(element("td", cell))
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	doc.Content.AppendChild(table)
	return doc, nil
}
