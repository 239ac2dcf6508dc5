package interpreter

import (
	"math"
	"strings"

	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/dataset"
	"github.com/leapstack-labs/prima/internal/stats"
)

func dropColumn(ds *dataset.Dataset, sc *stepContext) error {
	ds.Drop(sc.col)
	return nil
}

// dropDuplicates keeps the first occurrence of every distinct row.
func dropDuplicates(ds *dataset.Dataset, _ *stepContext) error {
	cols := ds.Columns()
	seen := make(map[string]struct{}, ds.NumRows())
	keep := make([]bool, ds.NumRows())

	var b strings.Builder
	for i := range keep {
		b.Reset()
		for _, c := range cols {
			b.WriteString(c.Key(i))
			b.WriteByte(0x1f)
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep[i] = true
	}
	ds.Filter(keep)
	return nil
}

// dropOutliersZScore keeps rows whose absolute z-score is below the
// threshold. Rows with a missing value are dropped.
func dropOutliersZScore(ds *dataset.Dataset, sc *stepContext) error {
	var p catalog.ZScoreParams
	if err := sc.decode(&p); err != nil {
		return err
	}
	c, err := numeric(ds, sc.col)
	if err != nil {
		return err
	}

	present := c.Present()
	mean, std := stats.Mean(present), stats.SampleStd(present)
	if math.IsNaN(std) || std == 0 {
		return nil
	}

	keep := make([]bool, c.Len())
	for i, v := range c.Num {
		keep[i] = math.Abs((v-mean)/std) < p.Threshold
	}
	ds.Filter(keep)
	return nil
}

// dropOutliersManual keeps rows strictly below the cutoff.
func dropOutliersManual(ds *dataset.Dataset, sc *stepContext) error {
	var p catalog.CutoffParams
	if err := sc.decode(&p); err != nil {
		return err
	}
	c, err := numeric(ds, sc.col)
	if err != nil {
		return err
	}

	keep := make([]bool, c.Len())
	for i, v := range c.Num {
		keep[i] = v < p.Value
	}
	ds.Filter(keep)
	return nil
}
