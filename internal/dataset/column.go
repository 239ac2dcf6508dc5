package dataset

import (
	"math"
	"strconv"
	"time"
)

// Kind is the inferred element kind of a column.
type Kind int

// Column kinds.
const (
	KindNumeric Kind = iota
	KindCategorical
	KindDatetime
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindDatetime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Column is a named, typed vector. Only the slice matching Kind is used.
// Numeric missing values are NaN; other kinds mark missing values in Null.
type Column struct {
	Name string
	Kind Kind
	Num  []float64
	Text []string
	Time []time.Time
	Null []bool
}

// NewNumeric returns a numeric column. NaN marks a missing value.
func NewNumeric(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindNumeric, Num: values}
}

// NewCategorical returns a categorical column. A nil null mask means no
// value is missing.
func NewCategorical(name string, values []string, null []bool) *Column {
	if null == nil {
		null = make([]bool, len(values))
	}
	return &Column{Name: name, Kind: KindCategorical, Text: values, Null: null}
}

// NewDatetime returns a datetime column.
func NewDatetime(name string, values []time.Time, null []bool) *Column {
	if null == nil {
		null = make([]bool, len(values))
	}
	return &Column{Name: name, Kind: KindDatetime, Time: values, Null: null}
}

// Len returns the number of rows.
func (c *Column) Len() int {
	switch c.Kind {
	case KindNumeric:
		return len(c.Num)
	case KindDatetime:
		return len(c.Time)
	default:
		return len(c.Text)
	}
}

// IsNumeric reports whether the column holds numbers.
func (c *Column) IsNumeric() bool {
	return c.Kind == KindNumeric
}

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == KindNumeric {
		return math.IsNaN(c.Num[i])
	}
	return c.Null[i]
}

// MissingCount returns the number of missing rows.
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Present returns the non-missing numeric values. It returns nil for
// non-numeric columns.
func (c *Column) Present() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.Num))
	for _, v := range c.Num {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Value returns row i as a JSON-friendly value: float64, string or nil.
// Non-finite numbers and missing values become nil; datetimes become text.
func (c *Column) Value(i int) any {
	if c.IsMissing(i) {
		return nil
	}
	switch c.Kind {
	case KindNumeric:
		v := c.Num[i]
		if math.IsInf(v, 0) {
			return nil
		}
		return v
	case KindDatetime:
		return FormatTime(c.Time[i])
	default:
		return c.Text[i]
	}
}

// String returns the textual form of row i, or "nan" when missing.
func (c *Column) String(i int) string {
	if c.IsMissing(i) {
		return "nan"
	}
	switch c.Kind {
	case KindNumeric:
		return FormatNumber(c.Num[i])
	case KindDatetime:
		return FormatTime(c.Time[i])
	default:
		return c.Text[i]
	}
}

// Key returns a value usable for equality grouping. Missing values share
// one key that never collides with a real value.
func (c *Column) Key(i int) string {
	if c.IsMissing(i) {
		return "\x00"
	}
	return c.String(i)
}

// Clone returns a deep copy.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Num != nil {
		out.Num = append([]float64(nil), c.Num...)
	}
	if c.Text != nil {
		out.Text = append([]string(nil), c.Text...)
	}
	if c.Time != nil {
		out.Time = append([]time.Time(nil), c.Time...)
	}
	if c.Null != nil {
		out.Null = append([]bool(nil), c.Null...)
	}
	return out
}

// CopyRow copies the value of row src into row dst.
func (c *Column) CopyRow(dst, src int) {
	switch c.Kind {
	case KindNumeric:
		c.Num[dst] = c.Num[src]
		return
	case KindDatetime:
		c.Time[dst] = c.Time[src]
	default:
		c.Text[dst] = c.Text[src]
	}
	c.Null[dst] = c.Null[src]
}

// AsCategorical converts the column to its textual form, keeping missing
// values missing.
func (c *Column) AsCategorical() *Column {
	if c.Kind == KindCategorical {
		return c.Clone()
	}
	n := c.Len()
	text := make([]string, n)
	null := make([]bool, n)
	for i := 0; i < n; i++ {
		if c.IsMissing(i) {
			null[i] = true
			continue
		}
		text[i] = c.String(i)
	}
	return NewCategorical(c.Name, text, null)
}

func (c *Column) take(idx []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case KindNumeric:
		out.Num = make([]float64, len(idx))
		for j, i := range idx {
			out.Num[j] = c.Num[i]
		}
		return out
	case KindDatetime:
		out.Time = make([]time.Time, len(idx))
		for j, i := range idx {
			out.Time[j] = c.Time[i]
		}
	default:
		out.Text = make([]string, len(idx))
		for j, i := range idx {
			out.Text[j] = c.Text[i]
		}
	}
	out.Null = make([]bool, len(idx))
	for j, i := range idx {
		out.Null[j] = c.Null[i]
	}
	return out
}

// FormatNumber renders integral values without a fractional part.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatTime renders a date, adding the clock only when it is set.
func FormatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}
