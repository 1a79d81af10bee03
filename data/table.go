package data

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Error is a sentinel error for malformed sample files.
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

var (
	ErrNoColumn = Error{"no such column"}
	ErrBadRow   = Error{"malformed table row"}
)

// Table is a whitespace-separated sample file: a header row with one name
// per column, then one row of numbers per event.
type Table struct {
	Columns []string
	Rows    [][]float64

	index map[string]int
}

// LoadTable reads at most limit rows of the table at path (all rows if limit <= 0).
func LoadTable(path string, limit int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sample table")
	}
	defer f.Close()

	t, err := ReadTable(f, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return t, nil
}

func ReadTable(r io.Reader, limit int) (*Table, error) {
	sc := bufio.NewScanner(r)
	t := &Table{index: make(map[string]int)}

	var lineNum int
	for sc.Scan() {
		lineNum++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		if t.Columns == nil {
			for i, name := range fields {
				if _, dup := t.index[name]; dup {
					return nil, errors.Wrapf(ErrBadRow, "line %d: column %q repeated", lineNum, name)
				}
				t.index[name] = i
			}
			t.Columns = fields
			continue
		}

		if len(fields) != len(t.Columns) {
			return nil, errors.Wrapf(ErrBadRow, "line %d: expected %d values, got %d", lineNum, len(t.Columns), len(fields))
		}
		row := make([]float64, len(fields))
		for i, tok := range fields {
			x, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrBadRow, "line %d, column %s: %q", lineNum, t.Columns[i], tok)
			}
			row[i] = x
		}
		t.Rows = append(t.Rows, row)
		if limit > 0 && len(t.Rows) == limit {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if t.Columns == nil {
		return nil, errors.Wrap(ErrBadRow, "missing header")
	}
	return t, nil
}

// Column returns the position of the named column.
func (t *Table) Column(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, errors.Wrapf(ErrNoColumn, "%q", name)
	}
	return i, nil
}

// Select returns, for every row, the values of the named columns in the
// order given.
func (t *Table) Select(names []string) ([][]float64, error) {
	cols := make([]int, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}

	out := make([][]float64, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = make([]float64, len(cols))
		for i, c := range cols {
			out[r][i] = row[c]
		}
	}
	return out, nil
}

// LoadNames reads a variable list: one name per line, blank lines ignored.
func LoadNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening variable list")
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return names, nil
}
