// Package table holds the tabular capability the graph pipeline runs on: an
// immutable, ordered set of rows sharing one column set. Every operation
// returns a new Table and leaves its receiver untouched.
package table

import (
	"github.com/pkg/errors"
)

var (
	// ErrColumnNotFound is returned when an operation references a column the table does not have
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when a column name appears twice in a header
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrRaggedRow is returned when a row's width differs from the header
	ErrRaggedRow = errors.New("row width does not match columns")
)

// Table is an ordered sequence of rows with named scalar cells
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// New builds a table from a header and positional rows. Cells are normalized
// with Normalize; the input slices are copied.
func New(columns []string, rows [][]any) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, exists := index[c]; exists {
			return nil, errors.Wrapf(ErrDuplicateColumn, "%q", c)
		}
		index[c] = i
	}

	out := make([][]any, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.Wrapf(ErrRaggedRow, "row %d has %d cells, expected %d", i, len(row), len(columns))
		}
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = Normalize(v)
		}
		out[i] = cells
	}

	return &Table{
		columns: append([]string(nil), columns...),
		index:   index,
		rows:    out,
	}, nil
}

// FromMaps builds a table from map-shaped rows. A key absent from a row is a
// missing cell; keys not listed in columns are ignored.
func FromMaps(columns []string, rows []map[string]any) (*Table, error) {
	positional := make([][]any, len(rows))
	for i, m := range rows {
		cells := make([]any, len(columns))
		for j, c := range columns {
			cells[j] = m[c]
		}
		positional[i] = cells
	}
	return New(columns, positional)
}

// MustNew is New for literals in tests and examples; it panics on error
func MustNew(columns []string, rows [][]any) *Table {
	t, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// derive shares the header of t with a new row set. Rows are never mutated
// after construction, so sharing them between tables is safe.
func (t *Table) derive(rows [][]any) *Table {
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Columns returns a copy of the column names in order
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the table has the named column
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) columnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, errors.Wrapf(ErrColumnNotFound, "%q (have %v)", name, t.columns)
	}
	return i, nil
}

// Value returns the cell at row i in the named column
func (t *Table) Value(i int, column string) (any, error) {
	c, err := t.columnIndex(column)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(t.rows) {
		return nil, errors.Errorf("row %d out of range [0,%d)", i, len(t.rows))
	}
	return t.rows[i][c], nil
}

// Cells returns a copy of row i in column order
func (t *Table) Cells(i int) []any {
	return append([]any(nil), t.rows[i]...)
}

// Row returns row i as a column-name keyed map
func (t *Table) Row(i int) map[string]any {
	m := make(map[string]any, len(t.columns))
	for j, c := range t.columns {
		m[c] = t.rows[i][j]
	}
	return m
}

// Column returns every value of the named column in row order
func (t *Table) Column(name string) ([]any, error) {
	c, err := t.columnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[c]
	}
	return out, nil
}

// Select returns a table holding only the given columns, in the given order.
// Naming the same column twice is an error, as is naming an absent column.
func (t *Table) Select(columns ...string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, name := range columns {
		c, err := t.columnIndex(name)
		if err != nil {
			return nil, err
		}
		idx[i] = c
	}

	rows := make([][]any, len(t.rows))
	for i, row := range t.rows {
		cells := make([]any, len(idx))
		for j, c := range idx {
			cells[j] = row[c]
		}
		rows[i] = cells
	}
	return New(columns, rows)
}

// Where keeps the rows whose value in column satisfies keep, preserving
// order. The first error from keep aborts the scan and no table is returned.
func (t *Table) Where(column string, keep func(v any) (bool, error)) (*Table, error) {
	c, err := t.columnIndex(column)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(t.rows))
	for i, row := range t.rows {
		ok, err := keep(row[c])
		if err != nil {
			return nil, errors.Wrapf(err, "column %q row %d", column, i)
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return t.derive(rows), nil
}

// Rename returns a table whose columns are renamed through mapping
// (old name to new name). Unmapped columns keep their names.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	for old := range mapping {
		if _, err := t.columnIndex(old); err != nil {
			return nil, err
		}
	}

	columns := make([]string, len(t.columns))
	for i, c := range t.columns {
		if renamed, ok := mapping[c]; ok {
			columns[i] = renamed
		} else {
			columns[i] = c
		}
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, exists := index[c]; exists {
			return nil, errors.Wrapf(ErrDuplicateColumn, "%q after rename", c)
		}
		index[c] = i
	}
	return &Table{columns: columns, index: index, rows: t.rows}, nil
}

// Head returns the first n rows. A negative n is treated as zero.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n >= len(t.rows) {
		return t.derive(t.rows)
	}
	return t.derive(t.rows[:n:n])
}

// WithColumn returns a table with an extra column holding value in every
// row. If the column already exists its values are replaced.
func (t *Table) WithColumn(name string, value any) *Table {
	value = Normalize(value)

	if c, ok := t.index[name]; ok {
		rows := make([][]any, len(t.rows))
		for i, row := range t.rows {
			cells := append([]any(nil), row...)
			cells[c] = value
			rows[i] = cells
		}
		return t.derive(rows)
	}

	columns := append(t.Columns(), name)
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	rows := make([][]any, len(t.rows))
	for i, row := range t.rows {
		cells := make([]any, len(row)+1)
		copy(cells, row)
		cells[len(row)] = value
		rows[i] = cells
	}
	return &Table{columns: columns, index: index, rows: rows}
}
