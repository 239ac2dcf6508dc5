package interpreter

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/dataset"
	"github.com/leapstack-labs/prima/internal/stats"
)

// binNumeric replaces values with integer bin codes. The quantile strategy
// uses equal-frequency edges with duplicates dropped; uniform uses equal
// width. Intervals are closed on the right and the first one includes its
// lower edge. Missing values stay missing.
func binNumeric(ds *dataset.Dataset, sc *stepContext) error {
	var p catalog.BinParams
	if err := sc.decode(&p); err != nil {
		return err
	}
	if p.Bins < 1 || p.Bins > catalog.MaxBins {
		return skipf("bins must be between 1 and %d, got %d", catalog.MaxBins, p.Bins)
	}
	c, err := numeric(ds, sc.col)
	if err != nil {
		return err
	}
	present := c.Present()
	if len(present) == 0 {
		return skipf("column %q has no values to bin", sc.col)
	}

	var edges []float64
	switch p.Strategy {
	case "quantile":
		edges = quantileEdges(present, p.Bins)
	case "uniform":
		edges = uniformEdges(present, p.Bins)
	default:
		return skipf("unknown binning strategy %q", p.Strategy)
	}
	if len(edges) < 2 {
		return skipf("column %q has too few distinct values for %d bins", sc.col, p.Bins)
	}

	for i, v := range c.Num {
		if err := sc.interrupted(i); err != nil {
			return err
		}
		if math.IsNaN(v) {
			continue
		}
		c.Num[i] = float64(binCode(edges, v))
	}
	return nil
}

func quantileEdges(x []float64, bins int) []float64 {
	qs := make([]float64, bins+1)
	for i := range qs {
		qs[i] = float64(i) / float64(bins)
	}
	return slices.Compact(stats.Quantiles(x, qs...))
}

func uniformEdges(x []float64, bins int) []float64 {
	lo, hi := stats.MinMax(x)
	if lo == hi {
		adj := 0.001 * math.Abs(lo)
		if lo == 0 {
			adj = 0.001
		}
		lo, hi = lo-adj, hi+adj
		return linspace(lo, hi, bins+1)
	}
	edges := linspace(lo, hi, bins+1)
	edges[0] -= (hi - lo) * 0.001
	return edges
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}

// binCode returns the index of the right-closed interval holding v.
func binCode(edges []float64, v float64) int {
	if v <= edges[0] {
		return 0
	}
	k, _ := slices.BinarySearch(edges, v)
	if k >= len(edges) {
		k = len(edges) - 1
	}
	return k - 1
}

// logTransform applies log1p, shifting by |min|+1 first when any value is
// not positive so the result stays finite.
func logTransform(ds *dataset.Dataset, sc *stepContext) error {
	c, err := numeric(ds, sc.col)
	if err != nil {
		return err
	}
	applyLog(c)
	return nil
}

func applyLog(c *dataset.Column) {
	present := c.Present()
	if len(present) == 0 {
		return
	}
	var offset float64
	if lo, _ := stats.MinMax(present); lo <= 0 {
		offset = math.Abs(lo) + 1
	}
	for i, v := range c.Num {
		if !math.IsNaN(v) {
			c.Num[i] = math.Log1p(v + offset)
		}
	}
}

// boxCoxTransform normalizes a skewed column. Columns whose skewness is
// within the threshold are left alone. When λ cannot be estimated the log
// transform is used instead.
func boxCoxTransform(ds *dataset.Dataset, sc *stepContext) error {
	var p catalog.BoxCoxParams
	if err := sc.decode(&p); err != nil {
		return err
	}
	c, err := numeric(ds, sc.col)
	if err != nil {
		return err
	}
	present := c.Present()
	skew := stats.Skew(present)
	if math.IsNaN(skew) || math.Abs(skew) <= p.Threshold {
		return nil
	}

	var shift float64
	if lo, _ := stats.MinMax(present); lo <= 0 {
		shift = math.Abs(lo) + 1
	}
	shifted := make([]float64, len(present))
	for i, v := range present {
		shifted[i] = v + shift
	}

	lambda, err := stats.BoxCoxLambda(shifted)
	if err != nil {
		sc.logger.Info("box-cox failed, falling back to log transform", "column", sc.col, "error", err)
		applyLog(c)
		return nil
	}
	for i, v := range c.Num {
		if !math.IsNaN(v) {
			c.Num[i] = stats.BoxCox(v+shift, lambda)
		}
	}
	return nil
}

// interactionPrograms evaluate a binary arithmetic expression over a and b.
var interactionPrograms = compileInteractions(map[string]string{
	"+": "a + b",
	"-": "a - b",
	"*": "a * b",
	"/": "a / b",
})

func compileInteractions(sources map[string]string) map[string]*vm.Program {
	env := map[string]any{"a": 0.0, "b": 0.0}
	out := make(map[string]*vm.Program, len(sources))
	for op, src := range sources {
		prg, err := expr.Compile(src, expr.Env(env), expr.AsFloat64())
		if err != nil {
			panic(fmt.Sprintf("interpreter: compiling %q: %v", src, err))
		}
		out[op] = prg
	}
	return out
}

// createInteraction derives a new column from two numeric columns.
// Division by zero yields a missing value.
func createInteraction(ds *dataset.Dataset, sc *stepContext) error {
	var p catalog.InteractionParams
	if err := sc.decode(&p); err != nil {
		return err
	}
	if p.Col1 == "" || p.Col2 == "" {
		return skipf("col1 and col2 are required")
	}
	prg, ok := interactionPrograms[p.MathOp]
	if !ok {
		return skipf("unsupported operator %q", p.MathOp)
	}
	a, err := numeric(ds, p.Col1)
	if err != nil {
		return err
	}
	b, err := numeric(ds, p.Col2)
	if err != nil {
		return err
	}

	var machine vm.VM
	env := map[string]any{}
	out := make([]float64, a.Len())
	for i := range out {
		x, y := a.Num[i], b.Num[i]
		if math.IsNaN(x) || math.IsNaN(y) || (p.MathOp == "/" && y == 0) {
			out[i] = math.NaN()
			continue
		}
		env["a"], env["b"] = x, y
		v, err := machine.Run(prg, env)
		if err != nil {
			return fmt.Errorf("evaluating row %d: %w", i, err)
		}
		out[i] = v.(float64)
	}
	return ds.Set(dataset.NewNumeric(p.OutputName(), out))
}

// polynomialFeatures appends <col>_poly_k = col^k for k = 2..degree.
func polynomialFeatures(ds *dataset.Dataset, sc *stepContext) error {
	var p catalog.PolyParams
	if err := sc.decode(&p); err != nil {
		return err
	}
	if p.Degree > catalog.MaxPolyDegree {
		return skipf("degree %d exceeds the preview limit of %d", p.Degree, catalog.MaxPolyDegree)
	}
	c, err := numeric(ds, sc.col)
	if err != nil {
		return err
	}
	for k := 2; k <= p.Degree; k++ {
		if err := sc.ctx.Err(); err != nil {
			return err
		}
		vals := make([]float64, c.Len())
		for i, v := range c.Num {
			vals[i] = math.Pow(v, float64(k))
		}
		if err := ds.Set(dataset.NewNumeric(sc.col+"_poly_"+strconv.Itoa(k), vals)); err != nil {
			return err
		}
	}
	return nil
}
