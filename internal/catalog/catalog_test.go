package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_IsOrderedAndComplete(t *testing.T) {
	ops := List()
	require.NotEmpty(t, ops)

	assert.Equal(t, DropColumn, ops[0].ID)
	assert.Equal(t, TrainRandomForest, ops[len(ops)-1].ID)

	seen := make(map[Op]bool)
	for _, op := range ops {
		assert.False(t, seen[op.ID], "duplicate id %s", op.ID)
		seen[op.ID] = true
		assert.NotEmpty(t, op.Label, "label for %s", op.ID)
		assert.NotEmpty(t, op.Category, "category for %s", op.ID)
	}
	assert.Len(t, IDs(), len(ops))
}

func TestList_ReturnsCopy(t *testing.T) {
	ops := List()
	ops[0].Label = "mutated"
	assert.Equal(t, "Drop Column", List()[0].Label)
}

func TestLookup(t *testing.T) {
	op, ok := Lookup("fill_na_groupby")
	require.True(t, ok)
	assert.Equal(t, FamilyImputation, op.Category)

	p, ok := op.Param("strategy")
	require.True(t, ok)
	assert.Equal(t, []string{"mean", "median", "mode"}, p.Options)
	assert.Equal(t, "median", p.Default)

	_, ok = Lookup("does_not_exist")
	assert.False(t, ok)
}

func TestNeedsColumn(t *testing.T) {
	tests := []struct {
		op   Op
		want bool
	}{
		{DropDuplicates, false},
		{CreateInteraction, false},
		{DropColumn, true},
		{OneHotEncode, true},
		{TrainLinearRegression, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			op, ok := Lookup(string(tt.op))
			require.True(t, ok)
			assert.Equal(t, tt.want, op.NeedsColumn())
		})
	}
}

func TestModelingIsCompileOnly(t *testing.T) {
	for _, op := range List() {
		assert.Equal(t, op.Category == FamilyModeling, op.CompileOnly, "op %s", op.ID)
	}
}

func TestDecode_Defaults(t *testing.T) {
	var z ZScoreParams
	require.NoError(t, Decode(DropOutliersZScore, nil, &z))
	assert.Equal(t, 3.0, z.Threshold)

	var b BinParams
	require.NoError(t, Decode(BinNumeric, map[string]any{}, &b))
	assert.Equal(t, 5, b.Bins)
	assert.Equal(t, "quantile", b.Strategy)

	var p PolyParams
	require.NoError(t, Decode(PolynomialFeatures, nil, &p))
	assert.Equal(t, 2, p.Degree)

	var d DateParams
	require.NoError(t, Decode(ExtractDateParts, nil, &d))
	assert.True(t, d.DropOriginal)

	var bc BoxCoxParams
	require.NoError(t, Decode(BoxCoxTransform, nil, &bc))
	assert.Equal(t, 0.5, bc.Threshold)
}

func TestDecode_WeakTyping(t *testing.T) {
	var b BinParams
	require.NoError(t, Decode(BinNumeric, map[string]any{"bins": "7", "strategy": "uniform"}, &b))
	assert.Equal(t, 7, b.Bins)
	assert.Equal(t, "uniform", b.Strategy)

	var fromFloat BinParams
	require.NoError(t, Decode(BinNumeric, map[string]any{"bins": 4.0}, &fromFloat))
	assert.Equal(t, 4, fromFloat.Bins)

	var d DateParams
	require.NoError(t, Decode(ExtractDateParts, map[string]any{"drop_original": "False"}, &d))
	assert.False(t, d.DropOriginal)

	var z ZScoreParams
	require.NoError(t, Decode(DropOutliersZScore, map[string]any{"threshold": "2.5"}, &z))
	assert.Equal(t, 2.5, z.Threshold)
}

func TestDecode_EmptyStringKeepsDefault(t *testing.T) {
	var z ZScoreParams
	require.NoError(t, Decode(DropOutliersZScore, map[string]any{"threshold": ""}, &z))
	assert.Equal(t, 3.0, z.Threshold)
}

func TestDecode_LooseValue(t *testing.T) {
	var c ConstParams
	require.NoError(t, Decode(FillNAConst, map[string]any{"value": "unknown"}, &c))
	assert.Equal(t, "unknown", c.Value)

	var def ConstParams
	require.NoError(t, Decode(FillNAConst, nil, &def))
	assert.Equal(t, 0, def.Value)
}

func TestDecode_InvalidValue(t *testing.T) {
	var b BinParams
	err := Decode(BinNumeric, map[string]any{"bins": "many"}, &b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bin_numeric")
}

func TestInteractionParams_OutputName(t *testing.T) {
	p := InteractionParams{Col1: "a", Col2: "b", MathOp: "*"}
	assert.True(t, p.ValidOperator())
	assert.Equal(t, "a_times_b", p.OutputName())

	p.NewName = "area"
	assert.Equal(t, "area", p.OutputName())

	bad := InteractionParams{Col1: "a", Col2: "b", MathOp: "%"}
	assert.False(t, bad.ValidOperator())
}
