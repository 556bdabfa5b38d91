// Package extract pulls the "title" and "solution" columns out of the first sheet of a
// spreadsheet workbook.
package extract

import (
	"fmt"
	"os"

	"github.com/hyperjump/extractify/internal/models"
)

// Extractor turns workbook bytes into extracted items. It holds no per-call state and is
// safe for concurrent use.
type Extractor struct {
	formatted bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFormattedValues makes xlsx cells read as displayed (number formats applied)
// instead of as stored.
func WithFormattedValues(on bool) Option {
	return func(e *Extractor) { e.formatted = on }
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract decodes content, resolves the title and solution columns from the header row
// of the first sheet and returns one item per data row with at least one non-empty target
// cell, in sheet order. If only one of the two headers exists the other field is always "".
// All failures are *ParseError.
func (e *Extractor) Extract(content []byte) ([]models.ExtractedItem, error) {
	sheet, err := decodeFirstSheet(content, e.formatted)
	if err != nil {
		return nil, &ParseError{Kind: KindDecode, Err: err}
	}

	cols := resolveColumns(sheet.header())
	if !cols.found() {
		return nil, &ParseError{Kind: KindColumns, Err: ErrColumnsNotFound}
	}

	items := make([]models.ExtractedItem, 0, len(sheet.dataRows()))
	for _, row := range sheet.dataRows() {
		if len(row) == 0 {
			continue
		}
		item := models.ExtractedItem{
			Title:    cellText(row, cols.title),
			Solution: cellText(row, cols.solution),
		}
		if item.Title == "" && item.Solution == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// ExtractFile reads the file at path and extracts it. Read failures are not ParseErrors.
func (e *Extractor) ExtractFile(path string) ([]models.ExtractedItem, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.Extract(content)
}
