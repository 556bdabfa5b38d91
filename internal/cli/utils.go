// Package cli renders extraction results for the terminal.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/extractify/internal/export"
	"github.com/hyperjump/extractify/internal/models"
)

// OutputFormat is the format for item output.
type OutputFormat string

const (
	// OutputText is human-readable cards (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one tab-separated item per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is the export JSON.
	OutputJSON OutputFormat = "json"
)

const (
	emptyField    = "N/A"
	compactMaxLen = 120
	rule          = "─────────────────────────────────────────────────────────"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputCompact, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteItems writes items extracted from fileName to w in the given format.
// JSON output of an empty list is "[]".
func WriteItems(w io.Writer, fileName string, items []models.ExtractedItem, format OutputFormat) error {
	switch format {
	case OutputJSON:
		data, err := export.Marshal(items)
		if errors.Is(err, export.ErrNothingToExport) {
			data = []byte("[]")
		} else if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case OutputCompact:
		for _, item := range items {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", compactField(item.Title), compactField(item.Solution)); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeItemsText(w, fileName, items)
	}
}

func writeItemsText(w io.Writer, fileName string, items []models.ExtractedItem) error {
	if fileName != "" {
		fmt.Fprintf(w, "\nFile: %s\n", fileName)
	}
	fmt.Fprintf(w, "Extracted Data (%d items)\n\n", len(items))
	for _, item := range items {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Title:    %s\n", orEmpty(item.Title))
		_, err := fmt.Fprintf(w, "Solution: %s\n\n", orEmpty(item.Solution))
		if err != nil {
			return err
		}
	}
	return nil
}

func orEmpty(s string) string {
	if s == "" {
		return emptyField
	}
	return s
}

// compactField flattens whitespace so each item stays on one line.
func compactField(s string) string {
	return Truncate(strings.Join(strings.Fields(s), " "), compactMaxLen)
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
