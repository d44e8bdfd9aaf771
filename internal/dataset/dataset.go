// Package dataset loads labeled holdout sets from CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tagcat/go-tagcat/eval"
)

// ErrMissingColumns indicates the CSV header lacks the required columns.
var ErrMissingColumns = errors.New("dataset: missing required columns")

// Dataset is a labeled evaluation set in file order.
type Dataset struct {
	Examples []eval.Example
}

// Texts returns the example texts in order.
func (d *Dataset) Texts() []string {
	out := make([]string, len(d.Examples))
	for i, x := range d.Examples {
		out[i] = x.Text
	}
	return out
}

// Tags returns the ground-truth tags in order.
func (d *Dataset) Tags() []string {
	out := make([]string, len(d.Examples))
	for i, x := range d.Examples {
		out[i] = x.Tag
	}
	return out
}

// Len returns the number of examples.
func (d *Dataset) Len() int { return len(d.Examples) }

// Load reads a CSV holdout set. The header must contain a tag column plus
// either a text column or title and description columns; in the latter case
// text is the two fields joined with a space. Other columns are ignored.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ds, nil
}

// Read parses CSV dataset content from r.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	tagCol, ok := col["tag"]
	if !ok {
		return nil, fmt.Errorf("%w: tag", ErrMissingColumns)
	}

	textCol, hasText := col["text"]
	titleCol, hasTitle := col["title"]
	descCol, hasDesc := col["description"]
	if !hasText && !(hasTitle && hasDesc) {
		return nil, fmt.Errorf("%w: need text or title+description", ErrMissingColumns)
	}

	ds := &Dataset{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var text string
		if hasText {
			text = record[textCol]
		} else {
			text = record[titleCol] + " " + record[descCol]
		}

		ds.Examples = append(ds.Examples, eval.Example{
			Text: normalizeSpace(text),
			Tag:  strings.TrimSpace(record[tagCol]),
		})
	}

	return ds, nil
}

// normalizeSpace trims and collapses runs of whitespace to single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
