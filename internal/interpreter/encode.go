package interpreter

import (
	"cmp"
	"math"
	"slices"

	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/dataset"
	"github.com/leapstack-labs/prima/internal/stats"
)

// level is one distinct present value of a column.
type level struct {
	key string
	num float64
}

// levels returns the distinct present values of c in sorted order: numeric
// order for numbers, lexical order otherwise.
func levels(c *dataset.Column) []level {
	seen := make(map[string]bool)
	var out []level
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		k := c.Key(i)
		if seen[k] {
			continue
		}
		seen[k] = true
		l := level{key: k}
		if c.IsNumeric() {
			l.num = c.Num[i]
		}
		out = append(out, l)
	}
	if c.IsNumeric() {
		slices.SortFunc(out, func(a, b level) int { return cmp.Compare(a.num, b.num) })
	} else {
		slices.SortFunc(out, func(a, b level) int { return cmp.Compare(a.key, b.key) })
	}
	return out
}

// oneHotEncode replaces a column with 0/1 indicator columns named
// <col>_<level>, one per level except the first. Missing rows get zeros.
// The step is skipped when an indicator name is already taken by another
// column.
func oneHotEncode(ds *dataset.Dataset, sc *stepContext) error {
	c, _ := ds.Column(sc.col)
	lv := levels(c)

	dummies := make([]*dataset.Column, 0, len(lv))
	for _, l := range lv[min(1, len(lv)):] {
		name := sc.col + "_" + l.key
		if name != sc.col && ds.Has(name) {
			return skipf("column %q already exists", name)
		}
		vals := make([]float64, c.Len())
		for i := range vals {
			if !c.IsMissing(i) && c.Key(i) == l.key {
				vals[i] = 1
			}
		}
		dummies = append(dummies, dataset.NewNumeric(name, vals))
	}

	ds.Drop(sc.col)
	for _, d := range dummies {
		if err := ds.Set(d); err != nil {
			return err
		}
	}
	return nil
}

// labelEncode maps the string form of every value, "nan" for missing, to
// its rank among the sorted distinct strings.
func labelEncode(ds *dataset.Dataset, sc *stepContext) error {
	c, _ := ds.Column(sc.col)
	strs := make([]string, c.Len())
	for i := range strs {
		strs[i] = c.String(i)
	}
	classes := slices.Clone(strs)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	codes := make([]float64, len(strs))
	for i, s := range strs {
		k, _ := slices.BinarySearch(classes, s)
		codes[i] = float64(k)
	}
	return ds.Set(dataset.NewNumeric(sc.col, codes))
}

// ordinalEncode maps every present value to the rank of its sorted level.
func ordinalEncode(ds *dataset.Dataset, sc *stepContext) error {
	c, _ := ds.Column(sc.col)
	rank := make(map[string]float64)
	for i, l := range levels(c) {
		rank[l.key] = float64(i)
	}
	codes := make([]float64, c.Len())
	for i := range codes {
		if c.IsMissing(i) {
			codes[i] = math.NaN()
			continue
		}
		codes[i] = rank[c.Key(i)]
	}
	return ds.Set(dataset.NewNumeric(sc.col, codes))
}

// targetEncode replaces each category with the mean target value of its
// rows. Missing categories and categories without target values get the
// overall target mean.
func targetEncode(ds *dataset.Dataset, sc *stepContext) error {
	var p catalog.TargetParams
	if err := sc.decode(&p); err != nil {
		return err
	}
	if p.TargetCol == "" {
		return skipf("target_col is required")
	}
	if p.TargetCol == sc.col {
		return skipf("target column must differ from the encoded column")
	}
	target, err := numeric(ds, p.TargetCol)
	if err != nil {
		return err
	}
	c, _ := ds.Column(sc.col)

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		y := target.Num[i]
		if c.IsMissing(i) || math.IsNaN(y) {
			continue
		}
		sums[c.Key(i)] += y
		counts[c.Key(i)]++
	}
	global := stats.Mean(target.Present())

	enc := make([]float64, c.Len())
	for i := range enc {
		enc[i] = global
		if c.IsMissing(i) {
			continue
		}
		if n := counts[c.Key(i)]; n > 0 {
			enc[i] = sums[c.Key(i)] / float64(n)
		}
	}
	return ds.Set(dataset.NewNumeric(sc.col, enc))
}
