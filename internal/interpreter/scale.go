package interpreter

import (
	"math"

	"github.com/leapstack-labs/prima/internal/dataset"
	"github.com/leapstack-labs/prima/internal/stats"
)

// Scalers are fitted on the present values only and leave missing values
// missing. A zero scale is replaced by 1.

func standardScaler(ds *dataset.Dataset, sc *stepContext) error {
	return scale(ds, sc.col, func(x []float64) (float64, float64) {
		return stats.Mean(x), stats.PopStd(x)
	})
}

func minMaxScaler(ds *dataset.Dataset, sc *stepContext) error {
	return scale(ds, sc.col, func(x []float64) (float64, float64) {
		lo, hi := stats.MinMax(x)
		return lo, hi - lo
	})
}

func robustScaler(ds *dataset.Dataset, sc *stepContext) error {
	return scale(ds, sc.col, func(x []float64) (float64, float64) {
		q := stats.Quantiles(x, 0.25, 0.5, 0.75)
		return q[1], q[2] - q[0]
	})
}

func maxAbsScaler(ds *dataset.Dataset, sc *stepContext) error {
	return scale(ds, sc.col, func(x []float64) (float64, float64) {
		var m float64
		for _, v := range x {
			m = math.Max(m, math.Abs(v))
		}
		return 0, m
	})
}

// scale maps v to (v - center) / scale.
func scale(ds *dataset.Dataset, name string, fit func([]float64) (center, scale float64)) error {
	c, err := numeric(ds, name)
	if err != nil {
		return err
	}
	present := c.Present()
	if len(present) == 0 {
		return nil
	}
	center, s := fit(present)
	if s == 0 || math.IsNaN(s) {
		s = 1
	}
	for i, v := range c.Num {
		if !math.IsNaN(v) {
			c.Num[i] = (v - center) / s
		}
	}
	return nil
}
