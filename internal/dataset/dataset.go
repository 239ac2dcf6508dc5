// Package dataset provides the in-memory table the recipe interpreter folds
// over: an ordered set of equally long, typed columns.
package dataset

import (
	"errors"
	"fmt"
	"math"
)

// ErrLengthMismatch is returned when a column does not match the row count.
var ErrLengthMismatch = errors.New("column length does not match dataset rows")

// Dataset is an ordered set of named columns of equal length.
type Dataset struct {
	cols []*Column
	rows int
}

// New builds a dataset from columns. Names must be unique and all columns
// must have the same length.
func New(cols ...*Column) (*Dataset, error) {
	d := &Dataset{}
	for _, c := range cols {
		if d.Has(c.Name) {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if err := d.Set(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MustNew is New for static fixtures. It panics on error.
func MustNew(cols ...*Column) *Dataset {
	d, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return d
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int { return d.rows }

// NumCols returns the column count.
func (d *Dataset) NumCols() int { return len(d.cols) }

// Names returns column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. Callers must not mutate the slice.
func (d *Dataset) Columns() []*Column { return d.cols }

// Column returns the named column.
func (d *Dataset) Column(name string) (*Column, bool) {
	for _, c := range d.cols {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Has reports whether a column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.Column(name)
	return ok
}

// Drop removes a column and reports whether it existed.
func (d *Dataset) Drop(name string) bool {
	for i, c := range d.cols {
		if c.Name == name {
			d.cols = append(d.cols[:i], d.cols[i+1:]...)
			return true
		}
	}
	return false
}

// Set replaces the column with the same name in place, or appends it.
func (d *Dataset) Set(col *Column) error {
	if len(d.cols) == 0 {
		d.rows = col.Len()
	} else if col.Len() != d.rows {
		return fmt.Errorf("%w: %q has %d values, want %d", ErrLengthMismatch, col.Name, col.Len(), d.rows)
	}
	for i, c := range d.cols {
		if c.Name == col.Name {
			d.cols[i] = col
			return nil
		}
	}
	d.cols = append(d.cols, col)
	return nil
}

// Filter keeps the rows where keep is true.
func (d *Dataset) Filter(keep []bool) {
	idx := make([]int, 0, d.rows)
	for i := 0; i < d.rows && i < len(keep); i++ {
		if keep[i] {
			idx = append(idx, i)
		}
	}
	for i, c := range d.cols {
		d.cols[i] = c.take(idx)
	}
	d.rows = len(idx)
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{rows: d.rows, cols: make([]*Column, len(d.cols))}
	for i, c := range d.cols {
		out.cols[i] = c.Clone()
	}
	return out
}

// SanitizeNonFinite turns infinite numeric values into missing values.
func (d *Dataset) SanitizeNonFinite() {
	for _, c := range d.cols {
		if c.Kind != KindNumeric {
			continue
		}
		for i, v := range c.Num {
			if math.IsInf(v, 0) {
				c.Num[i] = math.NaN()
			}
		}
	}
}

// Records renders at most limit rows as name→value maps. A limit of zero or
// less renders every row. Values are JSON-safe: see Column.Value.
func (d *Dataset) Records(limit int) []map[string]any {
	n := d.rows
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		rec := make(map[string]any, len(d.cols))
		for _, c := range d.cols {
			rec[c.Name] = c.Value(i)
		}
		out[i] = rec
	}
	return out
}
