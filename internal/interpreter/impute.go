package interpreter

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/dataset"
	"github.com/leapstack-labs/prima/internal/stats"
)

func fillNAMean(ds *dataset.Dataset, sc *stepContext) error {
	return fillNumeric(ds, sc.col, stats.Mean)
}

func fillNAMedian(ds *dataset.Dataset, sc *stepContext) error {
	return fillNumeric(ds, sc.col, stats.Median)
}

func fillNumeric(ds *dataset.Dataset, name string, stat func([]float64) float64) error {
	c, err := numeric(ds, name)
	if err != nil {
		return err
	}
	if c.MissingCount() == 0 {
		return nil
	}
	fill := stat(c.Present())
	if math.IsNaN(fill) {
		return nil
	}
	for i, v := range c.Num {
		if math.IsNaN(v) {
			c.Num[i] = fill
		}
	}
	return nil
}

func fillNAMode(ds *dataset.Dataset, sc *stepContext) error {
	c, _ := ds.Column(sc.col)
	fillRows(c, allRows(c.Len()), nil)
	return nil
}

// modeRow returns the index of a row holding the most frequent present value
// among rows. Ties go to the smallest value.
func modeRow(c *dataset.Column, rows []int) (int, bool) {
	if c.IsNumeric() {
		var vals []float64
		for _, i := range rows {
			if !c.IsMissing(i) {
				vals = append(vals, c.Num[i])
			}
		}
		m, ok := stats.Mode(vals)
		if !ok {
			return 0, false
		}
		for _, i := range rows {
			if c.Num[i] == m {
				return i, true
			}
		}
		return 0, false
	}

	var keys []string
	for _, i := range rows {
		if !c.IsMissing(i) {
			keys = append(keys, c.Key(i))
		}
	}
	m, ok := stats.Mode(keys)
	if !ok {
		return 0, false
	}
	for _, i := range rows {
		if !c.IsMissing(i) && c.Key(i) == m {
			return i, true
		}
	}
	return 0, false
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// fillNAConst fills with a constant. A numeric column stays numeric when
// the constant is a number; otherwise the column becomes categorical.
func fillNAConst(ds *dataset.Dataset, sc *stepContext) error {
	var p catalog.ConstParams
	if err := sc.decode(&p); err != nil {
		return err
	}
	c, _ := ds.Column(sc.col)

	if c.IsNumeric() {
		if f, ok := toFloat(p.Value); ok {
			for i, v := range c.Num {
				if math.IsNaN(v) {
					c.Num[i] = f
				}
			}
			return nil
		}
	}
	if c.Kind == dataset.KindDatetime {
		if t, ok := dataset.ParseTime(fmt.Sprint(p.Value)); ok {
			for i := range c.Time {
				if c.Null[i] {
					c.Time[i], c.Null[i] = t, false
				}
			}
			return nil
		}
	}

	text := constText(p.Value)
	cat := c.AsCategorical()
	for i := range cat.Text {
		if cat.Null[i] {
			cat.Text[i], cat.Null[i] = text, false
		}
	}
	return ds.Set(cat)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func constText(v any) string {
	if f, ok := toFloat(v); ok {
		if _, isString := v.(string); !isString {
			return dataset.FormatNumber(f)
		}
	}
	return fmt.Sprint(v)
}

// fillNAKNN fills each missing value with the mean of the k nearest rows
// that have the value, measured by nan-euclidean distance over every numeric
// column. Rows with no usable donor get the column mean.
func fillNAKNN(ds *dataset.Dataset, sc *stepContext) error {
	var p catalog.KNNParams
	if err := sc.decode(&p); err != nil {
		return err
	}
	if p.Neighbors < 1 {
		return skipf("n_neighbors must be positive, got %d", p.Neighbors)
	}
	target, err := numeric(ds, sc.col)
	if err != nil {
		return err
	}
	if target.MissingCount() == 0 {
		return nil
	}

	var features []*dataset.Column
	for _, c := range ds.Columns() {
		if c.IsNumeric() {
			features = append(features, c)
		}
	}

	var donors []int
	for i, v := range target.Num {
		if !math.IsNaN(v) {
			donors = append(donors, i)
		}
	}
	if len(donors) == 0 {
		return nil
	}
	fallback := stats.Mean(target.Present())

	type neighbor struct {
		row  int
		dist float64
	}
	filled := slices.Clone(target.Num)
	for i, v := range target.Num {
		if !math.IsNaN(v) {
			continue
		}
		if err := sc.ctx.Err(); err != nil {
			return err
		}
		near := make([]neighbor, 0, len(donors))
		for _, j := range donors {
			if d, ok := nanEuclidean(features, i, j); ok {
				near = append(near, neighbor{row: j, dist: d})
			}
		}
		if len(near) == 0 {
			filled[i] = fallback
			continue
		}
		slices.SortStableFunc(near, func(a, b neighbor) int {
			switch {
			case a.dist < b.dist:
				return -1
			case a.dist > b.dist:
				return 1
			}
			return 0
		})
		k := min(p.Neighbors, len(near))
		var sum float64
		for _, n := range near[:k] {
			sum += target.Num[n.row]
		}
		filled[i] = sum / float64(k)
	}
	target.Num = filled
	return nil
}

// nanEuclidean measures rows i and j over the coordinates present in both,
// scaled up for the coordinates that were ignored.
func nanEuclidean(features []*dataset.Column, i, j int) (float64, bool) {
	var sum float64
	present := 0
	for _, c := range features {
		a, b := c.Num[i], c.Num[j]
		if math.IsNaN(a) || math.IsNaN(b) {
			continue
		}
		sum += (a - b) * (a - b)
		present++
	}
	if present == 0 {
		return 0, false
	}
	return math.Sqrt(float64(len(features)) / float64(present) * sum), true
}

// fillNAGroupBy fills from the statistic of each row's group, then falls
// back to the statistic over the whole column.
func fillNAGroupBy(ds *dataset.Dataset, sc *stepContext) error {
	var p catalog.GroupByParams
	if err := sc.decode(&p); err != nil {
		return err
	}
	if p.GroupCol == "" {
		return skipf("group_col is required")
	}
	group, ok := ds.Column(p.GroupCol)
	if !ok {
		return skipf("group column %q not found", p.GroupCol)
	}
	c, _ := ds.Column(sc.col)

	var numStat func([]float64) float64
	switch p.Strategy {
	case "mean":
		numStat = stats.Mean
	case "median":
		numStat = stats.Median
	case "mode":
	default:
		return skipf("unknown strategy %q", p.Strategy)
	}
	if numStat != nil && !c.IsNumeric() {
		return skipf("strategy %s needs a numeric column, %q is %s", p.Strategy, sc.col, c.Kind)
	}

	groups := make(map[string][]int)
	var order []string
	for i := 0; i < group.Len(); i++ {
		if group.IsMissing(i) {
			continue
		}
		k := group.Key(i)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	for _, k := range order {
		fillRows(c, groups[k], numStat)
	}
	fillRows(c, allRows(c.Len()), numStat)
	return nil
}

// fillRows fills the missing values among rows from the statistic of the
// present values among the same rows. A nil numStat means mode.
func fillRows(c *dataset.Column, rows []int, numStat func([]float64) float64) {
	if numStat == nil {
		src, ok := modeRow(c, rows)
		if !ok {
			return
		}
		for _, i := range rows {
			if c.IsMissing(i) {
				c.CopyRow(i, src)
			}
		}
		return
	}

	var vals []float64
	for _, i := range rows {
		if !c.IsMissing(i) {
			vals = append(vals, c.Num[i])
		}
	}
	fill := numStat(vals)
	if math.IsNaN(fill) {
		return
	}
	for _, i := range rows {
		if c.IsMissing(i) {
			c.Num[i] = fill
		}
	}
}
