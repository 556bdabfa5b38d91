package extract

import (
	"github.com/gabriel-vasile/mimetype"
)

// Format is the container format detected from workbook bytes.
type Format string

const (
	FormatXLSX    Format = "xlsx"
	FormatXLS     Format = "xls"
	FormatUnknown Format = "unknown"
)

// SupportedExtensions lists the file extensions upload and watch filters accept.
// The extractor itself only looks at content.
var SupportedExtensions = []string{".xlsx", ".xls"}

// Detect sniffs the container format of content. OLE2 compound files are treated as
// legacy workbooks, zip archives as OOXML workbooks.
func Detect(content []byte) Format {
	if len(content) == 0 {
		return FormatUnknown
	}
	for m := mimetype.Detect(content); m != nil; m = m.Parent() {
		if m.Is("application/x-ole-storage") {
			return FormatXLS
		}
		if m.Is("application/zip") {
			return FormatXLSX
		}
	}
	return FormatUnknown
}

// Sheet is one decoded grid. A nil or empty row means the row is absent.
type Sheet struct {
	Name string
	Rows [][]string
}

func (s *Sheet) header() []string {
	if s == nil || len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

func (s *Sheet) dataRows() [][]string {
	if s == nil || len(s.Rows) < 2 {
		return nil
	}
	return s.Rows[1:]
}

// decodeFirstSheet decodes content and returns its first sheet in workbook order.
// A workbook without sheets yields an empty Sheet, not an error.
func decodeFirstSheet(content []byte, formatted bool) (*Sheet, error) {
	if Detect(content) == FormatXLS {
		return decodeXLS(content)
	}
	return decodeXLSX(content, formatted)
}
