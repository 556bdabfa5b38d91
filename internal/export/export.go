// Package export serializes extracted items to the downloadable JSON file.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/extractify/internal/models"
)

const (
	// DefaultFileName is used when the upload name has no usable stem.
	DefaultFileName = "extracted-data.json"
	suffix          = "-extracted.json"
	indent          = "  "
)

// ErrNothingToExport is returned when there are no items to write.
var ErrNothingToExport = errors.New("nothing to export")

// Marshal returns items as a pretty-printed JSON array with two-space indentation.
// HTML characters are written as-is.
func Marshal(items []models.ExtractedItem) ([]byte, error) {
	if len(items) == 0 {
		return nil, ErrNothingToExport
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(items); err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// FileName derives the export file name from the uploaded file name: everything before
// the first dot of its base name, suffixed with "-extracted.json". A base name with an
// empty stem, such as ".xlsx", gets DefaultFileName instead of a bare "-extracted.json".
func FileName(uploadName string) string {
	if uploadName == "" {
		return DefaultFileName
	}
	base := filepath.Base(uploadName)
	stem, _, _ := strings.Cut(base, ".")
	if stem == "" || stem == string(filepath.Separator) {
		return DefaultFileName
	}
	return stem + suffix
}

// WriteFile writes the export for uploadName into dir and returns the written path.
// dir is created if missing.
func WriteFile(dir, uploadName string, items []models.ExtractedItem) (string, error) {
	data, err := Marshal(items)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(uploadName))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
