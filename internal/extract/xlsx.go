package extract

import (
	"bytes"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// decodeXLSX reads the first sheet of an OOXML workbook. Errors from excelize are
// returned as-is.
func decodeXLSX(content []byte, formatted bool) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Sheet{}, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: !formatted})
	if err != nil {
		return nil, err
	}
	if !formatted {
		if err := stringifyRaw(f, sheets[0], rows); err != nil {
			return nil, err
		}
	}
	return &Sheet{Name: sheets[0], Rows: rows}, nil
}

// stringifyRaw rewrites stored cell text in place: booleans become true/false and
// numbers their shortest decimal form. Text cells are left alone so "007" stays "007".
func stringifyRaw(f *excelize.File, sheet string, rows [][]string) error {
	for r, cells := range rows {
		for c, v := range cells {
			if v == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			typ, err := f.GetCellType(sheet, name)
			if err != nil {
				return err
			}
			switch typ {
			case excelize.CellTypeBool:
				cells[c] = boolText(v)
			case excelize.CellTypeNumber, excelize.CellTypeUnset:
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					cells[c] = numberText(n)
				}
			}
		}
	}
	return nil
}

func boolText(v string) string {
	switch v {
	case "1":
		return "true"
	case "0":
		return "false"
	}
	return v
}

// numberText prints n in plain decimal notation, switching to exponent form only for
// magnitudes of 1e21 and above or below 1e-6.
func numberText(n float64) string {
	if a := math.Abs(n); a != 0 && (a >= 1e21 || a < 1e-6) {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
