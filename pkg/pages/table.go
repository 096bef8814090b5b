package pages

import (
	"fmt"
	"strings"

	"github.com/fodqa/fod-regression/pkg/testerr"
)

// Table is a data grid rooted at a CSS selector. Rows and columns are 0-based.
type Table struct {
	page
	root string
}

func newTable(p page, root string) Table {
	return Table{page: p, root: root}
}

func (t Table) rowsSelector() string {
	return t.root + " tbody tr:not(.k-no-data)"
}

func (t Table) rowSelector(row int) string {
	return fmt.Sprintf("%s tbody tr:nth-child(%d)", t.root, row+1)
}

func (t Table) cellSelector(row, col int) string {
	return fmt.Sprintf("%s td:nth-child(%d)", t.rowSelector(row), col+1)
}

// RowsCount returns the number of data rows.
func (t Table) RowsCount() (int, error) {
	return t.d.Count(t.rowsSelector())
}

// IsEmpty reports whether the grid shows no data rows.
func (t Table) IsEmpty() (bool, error) {
	n, err := t.RowsCount()
	return n == 0, err
}

// Headers returns the column titles.
func (t Table) Headers() ([]string, error) {
	return t.d.Texts(t.root + " thead th")
}

// ColumnIndex returns the index of the column titled header.
func (t Table) ColumnIndex(header string) (int, error) {
	headers, err := t.Headers()
	if err != nil {
		return -1, err
	}
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), header) {
			return i, nil
		}
	}
	return -1, testerr.ElementNotFound(fmt.Sprintf("column %q", header), t.root)
}

// CellText returns the text of one cell.
func (t Table) CellText(row, col int) (string, error) {
	return t.d.Text(t.cellSelector(row, col))
}

// ColumnTexts returns the text of every cell of column col.
func (t Table) ColumnTexts(col int) ([]string, error) {
	return t.d.Texts(fmt.Sprintf("%s td:nth-child(%d)", t.rowsSelector(), col+1))
}

// FindRow returns the first row whose column col equals text.
func (t Table) FindRow(col int, text string) (int, error) {
	values, err := t.ColumnTexts(col)
	if err != nil {
		return -1, err
	}
	for i, v := range values {
		if strings.TrimSpace(v) == text {
			return i, nil
		}
	}
	return -1, testerr.ElementNotFound(fmt.Sprintf("row with %q", text), t.root)
}

// clickInRow clicks the element sel inside row.
func (t Table) clickInRow(row int, sel string) error {
	return t.d.Click(t.rowSelector(row) + " " + sel)
}
