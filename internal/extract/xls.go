package extract

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/extrame/xls"
)

const (
	xlsCharset = "utf-8"
	// xlsMaxColumns is the BIFF8 column limit.
	xlsMaxColumns = 256
)

var errNoWorkbookStream = errors.New("xls: compound file has no Workbook stream")

// decodeXLS reads the first sheet of a BIFF (.xls) workbook. The decoder panics on some
// truncated files; that is reported as an ordinary decode error.
func decodeXLS(content []byte) (sheet *Sheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			sheet, err = nil, fmt.Errorf("xls: malformed workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), xlsCharset)
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, errNoWorkbookStream
	}
	if wb.NumSheets() == 0 {
		return &Sheet{}, nil
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return &Sheet{}, nil
	}

	rows := make([][]string, int(ws.MaxRow)+1)
	for i := range rows {
		if row := sheetRow(ws, i); row != nil {
			rows[i] = rowCells(row)
		}
	}
	return &Sheet{Name: ws.Name, Rows: rows}, nil
}

// sheetRow returns row i, or nil when the sheet has no record for it. WorkSheet.Row
// dereferences the missing entry, so the lookup recovers per row.
func sheetRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

// rowCells reads the cells of row with trailing blanks dropped. A row that only exists
// through its cell records has no column bounds, so every column is scanned.
func rowCells(row *xls.Row) []string {
	first, last := row.FirstCol(), row.LastCol()
	if last <= first {
		first, last = 0, xlsMaxColumns
	}
	if first < 0 {
		first = 0
	}
	cells := make([]string, last)
	end := 0
	for c := first; c < last; c++ {
		if cells[c] = row.Col(c); cells[c] != "" {
			end = c + 1
		}
	}
	return cells[:end]
}
