package extract

import "strings"

const (
	titleHeader    = "title"
	solutionHeader = "solution"
	notFound       = -1
)

// columns holds the resolved positions of the two target columns.
type columns struct {
	title    int
	solution int
}

// resolveColumns scans header once; the first matching cell wins for each column.
func resolveColumns(header []string) columns {
	c := columns{title: notFound, solution: notFound}
	for i, cell := range header {
		switch strings.ToLower(cell) {
		case titleHeader:
			if c.title == notFound {
				c.title = i
			}
		case solutionHeader:
			if c.solution == notFound {
				c.solution = i
			}
		}
	}
	return c
}

func (c columns) found() bool {
	return c.title != notFound || c.solution != notFound
}

// cellText returns the cell at idx, or "" when the column is unresolved or the row is short.
func cellText(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
