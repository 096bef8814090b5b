package files

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// CSV is a fully loaded export. The first record is the header.
type CSV struct {
	Path    string
	headers []string
	rows    [][]string
}

// OpenCSV reads the file at path. A UTF-8 byte order mark in front of the
// header is dropped.
func OpenCSV(path string) (*CSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv %s is empty", path)
	}
	headers := records[0]
	headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	return &CSV{Path: path, headers: headers, rows: records[1:]}, nil
}

func (c *CSV) Headers() []string {
	return append([]string(nil), c.headers...)
}

func (c *CSV) RowsCount() int { return len(c.rows) }

func (c *CSV) index(column string) (int, error) {
	for i, h := range c.headers {
		if strings.TrimSpace(h) == column {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %q not found in %s", column, c.Path)
}

// ColumnValues returns the column's value for every row.
func (c *CSV) ColumnValues(column string) ([]string, error) {
	i, err := c.index(column)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(c.rows))
	for r, row := range c.rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out, nil
}

// AllRows projects every row onto columns, in the order given. With no
// columns all of them are returned.
func (c *CSV) AllRows(columns ...string) ([][]string, error) {
	if len(columns) == 0 {
		columns = c.headers
	}
	idx := make([]int, len(columns))
	for k, col := range columns {
		i, err := c.index(strings.TrimSpace(col))
		if err != nil {
			return nil, err
		}
		idx[k] = i
	}
	out := make([][]string, 0, len(c.rows))
	for _, row := range c.rows {
		projected := make([]string, len(idx))
		for k, i := range idx {
			if i < len(row) {
				projected[k] = row[i]
			}
		}
		out = append(out, projected)
	}
	return out, nil
}
