package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/extractify/internal/models"
)

func TestMarshal(t *testing.T) {
	items := []models.ExtractedItem{{Title: "A", Solution: "B"}, {Title: "", Solution: "C"}}
	got, err := Marshal(items)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[
  {
    "title": "A",
    "solution": "B"
  },
  {
    "title": "",
    "solution": "C"
  }
]`
	if string(got) != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestMarshal_empty(t *testing.T) {
	for _, items := range [][]models.ExtractedItem{nil, {}} {
		if _, err := Marshal(items); !errors.Is(err, ErrNothingToExport) {
			t.Errorf("Marshal(%v): got %v, want ErrNothingToExport", items, err)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.xlsx", "report-extracted.json"},
		{"legacy.xls", "legacy-extracted.json"},
		{"my.data.xlsx", "my-extracted.json"},
		{"noext", "noext-extracted.json"},
		{"/uploads/2024/q1.xlsx", "q1-extracted.json"},
		{".hidden.xlsx", DefaultFileName},
		{".xlsx", DefaultFileName},
		{"/uploads/.xls", DefaultFileName},
		{"", DefaultFileName},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FileName(tt.in); got != tt.want {
				t.Errorf("FileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	items := []models.ExtractedItem{{Title: "t", Solution: "s"}}
	path, err := WriteFile(dir, "sheet.xlsx", items)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if path != filepath.Join(dir, "sheet-extracted.json") {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []models.ExtractedItem
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0] != items[0] {
		t.Errorf("decoded %+v", decoded)
	}
}

func TestWriteFile_nothingToExport(t *testing.T) {
	dir := t.TempDir()
	if _, err := WriteFile(dir, "sheet.xlsx", nil); !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("got %v, want ErrNothingToExport", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sheet-extracted.json")); !os.IsNotExist(err) {
		t.Error("no file should be written for an empty export")
	}
}

func TestMarshal_noHTMLEscaping(t *testing.T) {
	got, err := Marshal([]models.ExtractedItem{{Title: "a < b", Solution: "x & y"}})
	if err != nil {
		t.Fatal(err)
	}
	want := "[\n  {\n    \"title\": \"a < b\",\n    \"solution\": \"x & y\"\n  }\n]"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
