package interpreter

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/dataset"
	"github.com/leapstack-labs/prima/internal/recipe"
	"github.com/leapstack-labs/prima/internal/stats"
	"github.com/leapstack-labs/prima/internal/testutil"
)

var nan = math.NaN()

func step(op catalog.Op, col string, params map[string]any) recipe.Step {
	return recipe.Step{ID: string(op) + ":" + col, Operation: string(op), Column: col, Params: params}
}

func run(t *testing.T, ds *dataset.Dataset, steps ...recipe.Step) *Result {
	t.Helper()
	res, err := New(testutil.NewTestLogger(t)).Apply(context.Background(), ds, &recipe.Recipe{Steps: steps})
	require.NoError(t, err)
	return res
}

func col(t *testing.T, ds *dataset.Dataset, name string) *dataset.Column {
	t.Helper()
	c, ok := ds.Column(name)
	require.True(t, ok, "column %q missing, have %v", name, ds.Names())
	return c
}

func assertFloats(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], 1e-9, "index %d", i)
	}
}

func ageCity() *dataset.Dataset {
	return dataset.MustNew(
		dataset.NewNumeric("age", []float64{25, nan, 40}),
		dataset.NewCategorical("city", []string{"A", "B", "A"}, nil),
	)
}

func TestEveryCatalogOperationHasAnApplier(t *testing.T) {
	for _, op := range catalog.List() {
		_, ok := appliers[op.ID]
		assert.Equal(t, !op.CompileOnly, ok, "operation %s", op.ID)
	}
	assert.Len(t, appliers, len(catalog.List())-3)
}

func TestApply_EmptyRecipeLeavesDatasetUnchanged(t *testing.T) {
	ds := ageCity()
	res := run(t, ds)

	assert.Equal(t, ds.NumRows(), res.Rows)
	assert.Equal(t, ds.Names(), res.Columns)
	assert.Equal(t, ds.Records(0), res.Dataset.Records(0))
	assert.Empty(t, res.Steps)
}

func TestApply_NilRecipe(t *testing.T) {
	res, err := New(nil).Apply(context.Background(), ageCity(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	ds := ageCity()
	run(t, ds, step(catalog.FillNAMedian, "age", nil), step(catalog.DropColumn, "city", nil))

	assert.True(t, col(t, ds, "age").IsMissing(1))
	assert.True(t, ds.Has("city"))
}

func TestApply_OrderSensitivity(t *testing.T) {
	dropThenFill := run(t, ageCity(),
		step(catalog.DropColumn, "age", nil),
		step(catalog.FillNAMean, "age", nil))
	require.Len(t, dropThenFill.Steps, 2)
	assert.Equal(t, StatusApplied, dropThenFill.Steps[0].Status)
	assert.Equal(t, StatusSkipped, dropThenFill.Steps[1].Status)
	assert.Contains(t, dropThenFill.Steps[1].Reason, "not found")

	fillThenDrop := run(t, ageCity(),
		step(catalog.FillNAMean, "age", nil),
		step(catalog.DropColumn, "age", nil))
	assert.Equal(t, 2, fillThenDrop.Applied())
	assert.Equal(t, 0, fillThenDrop.Skipped())
	assert.Equal(t, []string{"city"}, fillThenDrop.Columns)
}

func TestApply_DropDuplicatesIsIdempotent(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumeric("n", []float64{1, 1, 2, nan, nan}),
		dataset.NewCategorical("s", []string{"a", "a", "b", "", ""}, []bool{false, false, false, true, true}),
	)
	once := run(t, ds, step(catalog.DropDuplicates, "", nil))
	twice := run(t, ds, step(catalog.DropDuplicates, "", nil), step(catalog.DropDuplicates, "", nil))

	assert.Equal(t, 3, once.Rows)
	assert.Equal(t, once.Dataset.Records(0), twice.Dataset.Records(0))
}

func TestApply_OneHotThenDropOriginalMatchesOneHot(t *testing.T) {
	oneHot := run(t, ageCity(), step(catalog.OneHotEncode, "city", nil))
	withDrop := run(t, ageCity(),
		step(catalog.OneHotEncode, "city", nil),
		step(catalog.DropColumn, "city", nil))

	assert.ElementsMatch(t, oneHot.Columns, withDrop.Columns)
	assert.Equal(t, StatusSkipped, withDrop.Steps[1].Status)
}

func TestApply_StandardScalerCentersAndScales(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumeric("x", []float64{3, nan, 7, 11, 2, 9}))
	res := run(t, ds, step(catalog.StandardScaler, "x", nil))

	c := col(t, res.Dataset, "x")
	assert.True(t, c.IsMissing(1))
	present := c.Present()
	assert.InDelta(t, 0, stats.Mean(present), 1e-9)
	assert.InDelta(t, 1, stats.PopStd(present), 1e-9)
}

func TestApply_LogTransformShiftsNonPositive(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumeric("x", []float64{-5, 0, 3, nan}))
	res := run(t, ds, step(catalog.LogTransform, "x", nil))

	c := col(t, res.Dataset, "x")
	for i, v := range c.Num[:3] {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v), "row %d is %v", i, v)
	}
	assert.InDelta(t, math.Log1p(1), c.Num[0], 1e-12)
	assert.InDelta(t, math.Log1p(9), c.Num[2], 1e-12)
	assert.True(t, c.IsMissing(3))
}

func TestApply_LogTransformPositive(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumeric("x", []float64{1, 9}))
	res := run(t, ds, step(catalog.LogTransform, "x", nil))
	assertFloats(t, []float64{math.Log1p(1), math.Log1p(9)}, col(t, res.Dataset, "x").Num)
}

func TestApply_BoxCoxBelowThresholdIsNoOp(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumeric("x", []float64{1, 2, 3, 4, 5}))
	res := run(t, ds, step(catalog.BoxCoxTransform, "x", nil))

	assert.Equal(t, StatusApplied, res.Steps[0].Status)
	assertFloats(t, []float64{1, 2, 3, 4, 5}, col(t, res.Dataset, "x").Num)
}

func TestApply_BoxCoxReducesSkew(t *testing.T) {
	in := []float64{-2, 1, 1, 1, 2, 2, 3, 4, 8, 50, nan}
	ds := dataset.MustNew(dataset.NewNumeric("x", in))
	res := run(t, ds, step(catalog.BoxCoxTransform, "x", map[string]any{"threshold": 0.5}))

	c := col(t, res.Dataset, "x")
	assert.True(t, c.IsMissing(10))
	for _, v := range c.Present() {
		assert.False(t, math.IsInf(v, 0))
	}
	assert.Less(t, math.Abs(stats.Skew(c.Present())), math.Abs(stats.Skew(in[:10])))
}

func TestApply_AgeCityScenario(t *testing.T) {
	res := run(t, ageCity(),
		step(catalog.FillNAMedian, "age", nil),
		step(catalog.OneHotEncode, "city", nil))

	assert.Equal(t, []string{"age", "city_B"}, res.Columns)
	assert.Equal(t, 3, res.Rows)
	assertFloats(t, []float64{25, 32.5, 40}, col(t, res.Dataset, "age").Num)
	assertFloats(t, []float64{0, 1, 0}, col(t, res.Dataset, "city_B").Num)
}

func TestApply_MissingColumnScenario(t *testing.T) {
	ds := ageCity()
	res := run(t, ds, step(catalog.FillNAMean, "ZIP", nil))

	assert.Equal(t, ds.Records(0), res.Dataset.Records(0))
	require.Len(t, res.Steps, 1)
	assert.Equal(t, StatusSkipped, res.Steps[0].Status)
	assert.Equal(t, `column "ZIP" not found`, res.Steps[0].Reason)
}

func TestApply_ColParamOverridesColumn(t *testing.T) {
	res := run(t, ageCity(), step(catalog.DropColumn, "age", map[string]any{"col": "city"}))
	assert.Equal(t, []string{"age"}, res.Columns)
}

func TestApply_SkipsUnknownAndCompileOnly(t *testing.T) {
	res := run(t, ageCity(),
		recipe.Step{ID: "1", Operation: "teleport", Column: "age"},
		step(catalog.TrainRandomForest, "age", nil),
		step(catalog.FillNAMedian, "", nil))

	require.Len(t, res.Steps, 3)
	assert.Contains(t, res.Steps[0].Reason, "unknown operation")
	assert.Contains(t, res.Steps[1].Reason, "exported scripts")
	assert.Equal(t, "no target column", res.Steps[2].Reason)
	assert.Equal(t, 3, res.Skipped())
}

func TestApply_InvalidParamsSkip(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumeric("x", []float64{1, 2, 3}))
	res := run(t, ds, step(catalog.BinNumeric, "x", map[string]any{"bins": "many"}))

	assert.Equal(t, StatusSkipped, res.Steps[0].Status)
	assert.Contains(t, res.Steps[0].Reason, "bin_numeric")
	assertFloats(t, []float64{1, 2, 3}, col(t, res.Dataset, "x").Num)
}

func TestApply_IncompatibleKindSkips(t *testing.T) {
	res := run(t, ageCity(), step(catalog.FillNAMean, "city", nil))
	assert.Equal(t, StatusSkipped, res.Steps[0].Status)
	assert.Contains(t, res.Steps[0].Reason, "not numeric")
}

func TestApply_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(nil).Apply(ctx, ageCity(), &recipe.Recipe{Steps: []recipe.Step{step(catalog.DropColumn, "age", nil)}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestAppliersStopWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		op     catalog.Op
		apply  applyFunc
		params map[string]any
	}{
		{catalog.PolynomialFeatures, polynomialFeatures, map[string]any{"degree": 3}},
		{catalog.FillNAKNN, fillNAKNN, nil},
		{catalog.BinNumeric, binNumeric, map[string]any{"bins": 2}},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			ds := dataset.MustNew(dataset.NewNumeric("x", []float64{nan, 1, 2, 3}))
			sc := &stepContext{ctx: ctx, step: step(tt.op, "x", tt.params), col: "x", logger: testutil.NewTestLogger(t)}
			require.ErrorIs(t, tt.apply(ds, sc), context.Canceled)
		})
	}
}

func TestApply_DeadlineDuringStepFails(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	in := New(nil)
	_, err := in.applyStep(ctx, ageCity(), step(catalog.PolynomialFeatures, "age", nil))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	res, err := in.Apply(ctx, ageCity(), &recipe.Recipe{Steps: []recipe.Step{step(catalog.PolynomialFeatures, "age", nil)}})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, res)
}

func TestApply_NonFiniteResultsBecomeMissing(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumeric("a", []float64{1e308, 2}),
		dataset.NewNumeric("b", []float64{1e308, 3}),
	)
	res := run(t, ds, step(catalog.CreateInteraction, "", map[string]any{"col1": "a", "col2": "b", "math_op": "*"}))

	recs := res.Dataset.Records(0)
	assert.Nil(t, recs[0]["a_times_b"])
	assert.Equal(t, 6.0, recs[1]["a_times_b"])
}

func TestCleaning(t *testing.T) {
	t.Run("zscore", func(t *testing.T) {
		ds := dataset.MustNew(dataset.NewNumeric("x", []float64{1, 2, 3, 4, 100, nan}))
		res := run(t, ds, step(catalog.DropOutliersZScore, "x", map[string]any{"threshold": 1.5}))
		assertFloats(t, []float64{1, 2, 3, 4}, col(t, res.Dataset, "x").Num)
	})

	t.Run("zscore constant column is a no-op", func(t *testing.T) {
		ds := dataset.MustNew(dataset.NewNumeric("x", []float64{5, 5, 5}))
		res := run(t, ds, step(catalog.DropOutliersZScore, "x", nil))
		assert.Equal(t, 3, res.Rows)
	})

	t.Run("manual cutoff", func(t *testing.T) {
		ds := dataset.MustNew(
			dataset.NewNumeric("x", []float64{5, -1, 10, nan}),
			dataset.NewCategorical("tag", []string{"a", "b", "c", "d"}, nil),
		)
		res := run(t, ds, step(catalog.DropOutliersManual, "x", map[string]any{"value": "6"}))
		assertFloats(t, []float64{5, -1}, col(t, res.Dataset, "x").Num)
		assert.Equal(t, []string{"a", "b"}, col(t, res.Dataset, "tag").Text)
	})
}

func TestImputation(t *testing.T) {
	t.Run("mean", func(t *testing.T) {
		res := run(t, ageCity(), step(catalog.FillNAMean, "age", nil))
		assertFloats(t, []float64{25, 32.5, 40}, col(t, res.Dataset, "age").Num)
	})

	t.Run("mode prefers smallest on ties", func(t *testing.T) {
		ds := dataset.MustNew(
			dataset.NewCategorical("s", []string{"b", "a", "b", "a", ""}, []bool{false, false, false, false, true}),
			dataset.NewNumeric("n", []float64{3, 3, 1, nan, 1}),
		)
		res := run(t, ds, step(catalog.FillNAMode, "s", nil), step(catalog.FillNAMode, "n", nil))
		assert.Equal(t, "a", col(t, res.Dataset, "s").Text[4])
		assertFloats(t, []float64{3, 3, 1, 1, 1}, col(t, res.Dataset, "n").Num)
	})

	t.Run("const numeric", func(t *testing.T) {
		res := run(t, ageCity(), step(catalog.FillNAConst, "age", map[string]any{"value": "7"}))
		c := col(t, res.Dataset, "age")
		assert.Equal(t, dataset.KindNumeric, c.Kind)
		assertFloats(t, []float64{25, 7, 40}, c.Num)
	})

	t.Run("const text on numeric converts", func(t *testing.T) {
		res := run(t, ageCity(), step(catalog.FillNAConst, "age", map[string]any{"value": "unknown"}))
		c := col(t, res.Dataset, "age")
		assert.Equal(t, dataset.KindCategorical, c.Kind)
		assert.Equal(t, []string{"25", "unknown", "40"}, c.Text)
	})

	t.Run("const default", func(t *testing.T) {
		res := run(t, ageCity(), step(catalog.FillNAConst, "age", nil))
		assertFloats(t, []float64{25, 0, 40}, col(t, res.Dataset, "age").Num)
	})

	t.Run("knn", func(t *testing.T) {
		ds := dataset.MustNew(
			dataset.NewNumeric("x", []float64{1, 2, 3, 10, nan}),
			dataset.NewNumeric("y", []float64{1, 2, 3, 10, 2.1}),
		)
		res := run(t, ds, step(catalog.FillNAKNN, "x", map[string]any{"n_neighbors": 2}))
		assertFloats(t, []float64{1, 2, 3, 10, 2.5}, col(t, res.Dataset, "x").Num)
		assertFloats(t, []float64{1, 2, 3, 10, 2.1}, col(t, res.Dataset, "y").Num)
	})

	t.Run("knn without shared coordinates falls back to mean", func(t *testing.T) {
		ds := dataset.MustNew(
			dataset.NewNumeric("x", []float64{1, 3, nan}),
			dataset.NewNumeric("y", []float64{nan, nan, 5}),
		)
		res := run(t, ds, step(catalog.FillNAKNN, "x", nil))
		assertFloats(t, []float64{1, 3, 2}, col(t, res.Dataset, "x").Num)
	})

	t.Run("groupby with global fallback", func(t *testing.T) {
		ds := dataset.MustNew(
			dataset.NewCategorical("g", []string{"a", "a", "b", "b", "c"}, nil),
			dataset.NewNumeric("v", []float64{1, nan, 10, nan, nan}),
		)
		res := run(t, ds, step(catalog.FillNAGroupBy, "v", map[string]any{"group_col": "g", "strategy": "mean"}))
		assertFloats(t, []float64{1, 1, 10, 10, 5.5}, col(t, res.Dataset, "v").Num)
	})

	t.Run("groupby mode on text", func(t *testing.T) {
		ds := dataset.MustNew(
			dataset.NewCategorical("g", []string{"a", "a", "a", "b"}, nil),
			dataset.NewCategorical("v", []string{"x", "x", "", "y"}, []bool{false, false, true, false}),
		)
		res := run(t, ds, step(catalog.FillNAGroupBy, "v", map[string]any{"group_col": "g", "strategy": "mode"}))
		assert.Equal(t, []string{"x", "x", "x", "y"}, col(t, res.Dataset, "v").Text)
	})

	t.Run("groupby missing group column skips", func(t *testing.T) {
		res := run(t, ageCity(), step(catalog.FillNAGroupBy, "age", map[string]any{"group_col": "region"}))
		assert.Equal(t, StatusSkipped, res.Steps[0].Status)
	})
}

func TestExtractDateParts(t *testing.T) {
	ds := dataset.MustNew(dataset.NewCategorical("d", []string{"2024-01-15", "bad", ""}, []bool{false, false, true}))

	res := run(t, ds, step(catalog.ExtractDateParts, "d", nil))
	assert.Equal(t, []string{"d_year", "d_month", "d_day", "d_dow"}, res.Columns)
	assertFloats(t, []float64{2024, nan, nan}, col(t, res.Dataset, "d_year").Num)
	assertFloats(t, []float64{1, nan, nan}, col(t, res.Dataset, "d_month").Num)
	assertFloats(t, []float64{15, nan, nan}, col(t, res.Dataset, "d_day").Num)
	assertFloats(t, []float64{0, nan, nan}, col(t, res.Dataset, "d_dow").Num)

	kept := run(t, ds, step(catalog.ExtractDateParts, "d", map[string]any{"drop_original": "False"}))
	assert.Equal(t, dataset.KindDatetime, col(t, kept.Dataset, "d").Kind)
	assert.Equal(t, "2024-01-15", kept.Dataset.Records(1)[0]["d"])

	numeric := run(t, ageCity(), step(catalog.ExtractDateParts, "age", nil))
	assert.Equal(t, StatusSkipped, numeric.Steps[0].Status)
}

func TestBinNumeric(t *testing.T) {
	tests := []struct {
		name   string
		in     []float64
		params map[string]any
		want   []float64
	}{
		{
			name: "quantile",
			in:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, nan},
			want: []float64{0, 0, 1, 1, 2, 2, 3, 3, 4, 4, nan},
		},
		{
			name:   "quantile drops duplicate edges",
			in:     []float64{1, 1, 1, 1, 2},
			params: map[string]any{"bins": 4},
			want:   []float64{0, 0, 0, 0, 0},
		},
		{
			name:   "uniform",
			in:     []float64{0, 5, 10},
			params: map[string]any{"bins": 2, "strategy": "uniform"},
			want:   []float64{0, 0, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := dataset.MustNew(dataset.NewNumeric("x", tt.in))
			res := run(t, ds, step(catalog.BinNumeric, "x", tt.params))
			require.Equal(t, StatusApplied, res.Steps[0].Status, res.Steps[0].Reason)
			assertFloats(t, tt.want, col(t, res.Dataset, "x").Num)
		})
	}

	t.Run("too many bins skips", func(t *testing.T) {
		ds := dataset.MustNew(dataset.NewNumeric("x", []float64{1, 2, 3}))
		res := run(t, ds, step(catalog.BinNumeric, "x", map[string]any{"bins": catalog.MaxBins + 1}))
		assert.Equal(t, StatusSkipped, res.Steps[0].Status)
	})

	t.Run("single edge skips", func(t *testing.T) {
		ds := dataset.MustNew(dataset.NewNumeric("x", []float64{3, 3, 3}))
		res := run(t, ds, step(catalog.BinNumeric, "x", nil))
		assert.Equal(t, StatusSkipped, res.Steps[0].Status)
	})
}

func TestCreateInteraction(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumeric("a", []float64{1, 2, 3}),
		dataset.NewNumeric("b", []float64{2, 0, 4}),
	)

	res := run(t, ds,
		step(catalog.CreateInteraction, "", map[string]any{"col1": "a", "col2": "b", "math_op": "/"}),
		step(catalog.CreateInteraction, "", map[string]any{"col1": "a", "col2": "b", "math_op": "*", "new_name": "prod"}),
		step(catalog.CreateInteraction, "", map[string]any{"col1": "a", "col2": "b"}),
		step(catalog.CreateInteraction, "", map[string]any{"col1": "a", "col2": "b", "math_op": "-"}),
		step(catalog.CreateInteraction, "", map[string]any{"col1": "a", "col2": "zz"}),
		step(catalog.CreateInteraction, "", map[string]any{"col1": "a", "col2": "b", "math_op": "^"}),
	)

	assertFloats(t, []float64{0.5, nan, 0.75}, col(t, res.Dataset, "a_div_b").Num)
	assertFloats(t, []float64{2, 0, 12}, col(t, res.Dataset, "prod").Num)
	assertFloats(t, []float64{3, 2, 7}, col(t, res.Dataset, "a_plus_b").Num)
	assertFloats(t, []float64{-1, 2, -1}, col(t, res.Dataset, "a_minus_b").Num)
	assert.Equal(t, StatusSkipped, res.Steps[4].Status)
	assert.Equal(t, StatusSkipped, res.Steps[5].Status)
}

func TestPolynomialFeatures(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumeric("x", []float64{2, nan}))

	res := run(t, ds, step(catalog.PolynomialFeatures, "x", map[string]any{"degree": 3}))
	assert.Equal(t, []string{"x", "x_poly_2", "x_poly_3"}, res.Columns)
	assertFloats(t, []float64{4, nan}, col(t, res.Dataset, "x_poly_2").Num)
	assertFloats(t, []float64{8, nan}, col(t, res.Dataset, "x_poly_3").Num)

	linear := run(t, ds, step(catalog.PolynomialFeatures, "x", map[string]any{"degree": 1}))
	assert.Equal(t, []string{"x"}, linear.Columns)

	huge := run(t, ds, step(catalog.PolynomialFeatures, "x", map[string]any{"degree": 30000}))
	assert.Equal(t, StatusSkipped, huge.Steps[0].Status)
	assert.Contains(t, huge.Steps[0].Reason, "preview limit")
	assert.Equal(t, []string{"x"}, huge.Columns)
}

func TestScalers(t *testing.T) {
	tests := []struct {
		op   catalog.Op
		in   []float64
		want []float64
	}{
		{catalog.MinMaxScaler, []float64{0, 5, 10, nan}, []float64{0, 0.5, 1, nan}},
		{catalog.RobustScaler, []float64{1, 2, 3, 4, 5}, []float64{-1, -0.5, 0, 0.5, 1}},
		{catalog.MaxAbsScaler, []float64{-4, 2}, []float64{-1, 0.5}},
		{catalog.StandardScaler, []float64{3, 3}, []float64{0, 0}},
		{catalog.MinMaxScaler, []float64{3, 3}, []float64{0, 0}},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			ds := dataset.MustNew(dataset.NewNumeric("x", tt.in))
			res := run(t, ds, step(tt.op, "x", nil))
			assertFloats(t, tt.want, col(t, res.Dataset, "x").Num)
		})
	}
}

func TestEncoding(t *testing.T) {
	text := func() *dataset.Dataset {
		return dataset.MustNew(
			dataset.NewCategorical("s", []string{"b", "a", "", "b"}, []bool{false, false, true, false}),
			dataset.NewNumeric("y", []float64{1, 5, 10, 3}),
		)
	}

	t.Run("one-hot missing rows are zero", func(t *testing.T) {
		res := run(t, text(), step(catalog.OneHotEncode, "s", nil))
		assert.Equal(t, []string{"y", "s_b"}, res.Columns)
		assertFloats(t, []float64{1, 0, 0, 1}, col(t, res.Dataset, "s_b").Num)
	})

	t.Run("one-hot numeric levels", func(t *testing.T) {
		ds := dataset.MustNew(dataset.NewNumeric("n", []float64{10, 2, 10}))
		res := run(t, ds, step(catalog.OneHotEncode, "n", nil))
		assert.Equal(t, []string{"n_10"}, res.Columns)
	})

	t.Run("one-hot keeps an existing column with a dummy's name", func(t *testing.T) {
		ds := dataset.MustNew(
			dataset.NewCategorical("city", []string{"A", "B", "A"}, nil),
			dataset.NewNumeric("city_B", []float64{7, 8, 9}),
		)
		res := run(t, ds, step(catalog.OneHotEncode, "city", nil))
		assert.Equal(t, StatusSkipped, res.Steps[0].Status)
		assert.Contains(t, res.Steps[0].Reason, `"city_B" already exists`)
		assertFloats(t, []float64{7, 8, 9}, col(t, res.Dataset, "city_B").Num)
		assert.Equal(t, []string{"city", "city_B"}, res.Columns)
	})

	t.Run("label", func(t *testing.T) {
		res := run(t, text(), step(catalog.LabelEncode, "s", nil))
		assertFloats(t, []float64{1, 0, 2, 1}, col(t, res.Dataset, "s").Num)
	})

	t.Run("ordinal", func(t *testing.T) {
		res := run(t, text(), step(catalog.OrdinalEncode, "s", nil))
		assertFloats(t, []float64{1, 0, nan, 1}, col(t, res.Dataset, "s").Num)

		ds := dataset.MustNew(dataset.NewNumeric("n", []float64{10, 2, 10}))
		num := run(t, ds, step(catalog.OrdinalEncode, "n", nil))
		assertFloats(t, []float64{1, 0, 1}, col(t, num.Dataset, "n").Num)
	})

	t.Run("target", func(t *testing.T) {
		res := run(t, text(), step(catalog.TargetEncode, "s", map[string]any{"target_col": "y"}))
		assertFloats(t, []float64{2, 5, 4.75, 2}, col(t, res.Dataset, "s").Num)
	})

	t.Run("target requires numeric target", func(t *testing.T) {
		res := run(t, ageCity(), step(catalog.TargetEncode, "age", map[string]any{"target_col": "city"}))
		assert.Equal(t, StatusSkipped, res.Steps[0].Status)

		missing := run(t, ageCity(), step(catalog.TargetEncode, "city", nil))
		assert.Equal(t, "target_col is required", missing.Steps[0].Reason)
	})
}
