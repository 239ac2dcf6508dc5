// Package stats holds the descriptive statistics shared by the recipe
// interpreter and the analyzer. Inputs never contain missing values; callers
// strip NaN first (see dataset.Column.Present).
package stats

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, or NaN for no values.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// SampleStd returns the standard deviation with n-1 degrees of freedom.
func SampleStd(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// PopStd returns the population standard deviation.
func PopStd(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return math.Sqrt(stat.PopVariance(x, nil))
}

// Quantile returns the q-th quantile using linear interpolation between the
// closest ranks, the way numpy does by default.
func Quantile(x []float64, q float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Quantiles returns several quantiles with a single sort.
func Quantiles(x []float64, qs ...float64) []float64 {
	out := make([]float64, len(qs))
	if len(x) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)
	for i, q := range qs {
		out[i] = quantileSorted(sorted, q)
	}
	return out
}

// Median returns the 50th percentile.
func Median(x []float64) float64 {
	return Quantile(x, 0.5)
}

// Mode returns the most frequent value, preferring the smallest on ties.
func Mode[T cmp.Ordered](x []T) (T, bool) {
	var zero T
	if len(x) == 0 {
		return zero, false
	}
	counts := make(map[T]int, len(x))
	for _, v := range x {
		counts[v]++
	}
	best, bestN := zero, 0
	first := true
	for v, n := range counts {
		if first || n > bestN || (n == bestN && v < best) {
			best, bestN, first = v, n, false
		}
	}
	return best, true
}

// Skew returns the biased (population) sample skewness.
func Skew(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	m2 := stat.Moment(2, x, nil)
	if m2 == 0 {
		return 0
	}
	return stat.Moment(3, x, nil) / math.Pow(m2, 1.5)
}

// MinMax returns the smallest and largest values.
func MinMax(x []float64) (lo, hi float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	return slices.Min(x), slices.Max(x)
}
