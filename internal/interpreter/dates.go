package interpreter

import (
	"math"
	"time"

	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/dataset"
)

// extractDateParts adds <col>_year, _month, _day and _dow (Monday = 0).
// Values that do not parse as dates yield missing parts.
func extractDateParts(ds *dataset.Dataset, sc *stepContext) error {
	var p catalog.DateParams
	if err := sc.decode(&p); err != nil {
		return err
	}
	c, _ := ds.Column(sc.col)

	var parsed *dataset.Column
	switch c.Kind {
	case dataset.KindDatetime:
		parsed = c
	case dataset.KindCategorical:
		times := make([]time.Time, c.Len())
		null := make([]bool, c.Len())
		for i := range times {
			t, ok := time.Time{}, false
			if !c.IsMissing(i) {
				t, ok = dataset.ParseTime(c.Text[i])
			}
			times[i], null[i] = t, !ok
		}
		parsed = dataset.NewDatetime(c.Name, times, null)
	default:
		return skipf("column %q is %s, not a date", sc.col, c.Kind)
	}

	n := parsed.Len()
	year := make([]float64, n)
	month := make([]float64, n)
	day := make([]float64, n)
	dow := make([]float64, n)
	for i := 0; i < n; i++ {
		if parsed.IsMissing(i) {
			year[i], month[i], day[i], dow[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN()
			continue
		}
		t := parsed.Time[i]
		year[i] = float64(t.Year())
		month[i] = float64(t.Month())
		day[i] = float64(t.Day())
		dow[i] = float64((int(t.Weekday()) + 6) % 7)
	}

	if err := ds.Set(parsed); err != nil {
		return err
	}
	for _, part := range []*dataset.Column{
		dataset.NewNumeric(sc.col+"_year", year),
		dataset.NewNumeric(sc.col+"_month", month),
		dataset.NewNumeric(sc.col+"_day", day),
		dataset.NewNumeric(sc.col+"_dow", dow),
	} {
		if err := ds.Set(part); err != nil {
			return err
		}
	}
	if p.DropOriginal {
		ds.Drop(sc.col)
	}
	return nil
}
