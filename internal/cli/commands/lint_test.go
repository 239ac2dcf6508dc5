package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/leapstack-labs/prima/internal/cli/testutil"
	"github.com/leapstack-labs/prima/internal/recipe"
	"github.com/leapstack-labs/prima/internal/testutil"
)

func ruleIDs(diags []Diagnostic) []string {
	ids := make([]string, len(diags))
	for i, d := range diags {
		ids[i] = d.RuleID
	}
	return ids
}

func TestLintRecipe(t *testing.T) {
	tests := []struct {
		name  string
		steps []recipe.Step
		want  []string
	}{
		{
			name: "clean recipe",
			steps: []recipe.Step{
				{ID: "1", Operation: "fill_na_mean", Column: "age"},
				{ID: "2", Operation: "drop_duplicates"},
			},
			want: []string{},
		},
		{
			name:  "unknown operation",
			steps: []recipe.Step{{ID: "1", Operation: "teleport", Column: "age"}},
			want:  []string{"R01"},
		},
		{
			name:  "missing column",
			steps: []recipe.Step{{ID: "1", Operation: "standard_scaler"}},
			want:  []string{"R02"},
		},
		{
			name:  "column given as col param",
			steps: []recipe.Step{{ID: "1", Operation: "standard_scaler", Params: map[string]any{"col": "age"}}},
			want:  []string{},
		},
		{
			name: "duplicate step id",
			steps: []recipe.Step{
				{ID: "1", Operation: "fill_na_mean", Column: "age"},
				{ID: "1", Operation: "fill_na_mean", Column: "income"},
			},
			want: []string{"R03"},
		},
		{
			name:  "undefined parameter",
			steps: []recipe.Step{{ID: "1", Operation: "bin_numeric", Column: "age", Params: map[string]any{"bins": 4, "colour": "red"}}},
			want:  []string{"R04"},
		},
		{
			name:  "compile-only operation",
			steps: []recipe.Step{{ID: "1", Operation: "train_random_forest", Column: "price"}},
			want:  []string{"R05"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := lintRecipe(&recipe.Recipe{Steps: tt.steps})
			assert.Equal(t, tt.want, ruleIDs(diags))
		})
	}
}

func TestFilterDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		{RuleID: "R01", Severity: SeverityWarning},
		{RuleID: "R02", Severity: SeverityError},
		{RuleID: "R05", Severity: SeverityInfo},
	}

	all := filterDiagnostics(append([]Diagnostic{}, diags...), nil, SeverityInfo)
	assert.Equal(t, []string{"R01", "R02", "R05"}, ruleIDs(all))

	errorsOnly := filterDiagnostics(append([]Diagnostic{}, diags...), nil, SeverityError)
	assert.Equal(t, []string{"R02"}, ruleIDs(errorsOnly))

	disabled := filterDiagnostics(append([]Diagnostic{}, diags...), []string{"r01", " R05"}, SeverityInfo)
	assert.Equal(t, []string{"R02"}, ruleIDs(disabled))
}

func TestLintCommand_Static(t *testing.T) {
	p := clitest.SetupTestProject(t)
	p.LoadConfig(t, "PRIMA_OUTPUT=json")

	out, err := execute(t, NewLintCommand(), p.RecipePath)
	require.NoError(t, err, "the sample recipe has no static errors")
	resp := decode(t, out)
	assert.Empty(t, resp["diagnostics"])
	assert.InDelta(t, 0, resp["errors"], 0)
}

func TestLintCommand_WithFile(t *testing.T) {
	p := clitest.SetupTestProject(t)
	p.LoadConfig(t, "PRIMA_OUTPUT=json")

	out, err := execute(t, NewLintCommand(), p.RecipePath, "--file", p.CSVPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 error(s)")

	resp := decode(t, out)
	diags := resp["diagnostics"].([]any)
	require.Len(t, diags, 1)
	d := diags[0].(map[string]any)
	assert.Equal(t, "R06", d["rule_id"])
	assert.InDelta(t, 3, d["step"], 0)
	assert.Contains(t, d["message"], "fill_na_mean(ZIP)")

	_, err = execute(t, NewLintCommand(), p.RecipePath, "--file", p.CSVPath, "--disable", "R06")
	require.NoError(t, err)
}

func TestLintCommand_Markdown(t *testing.T) {
	p := clitest.SetupTestProject(t)
	p.LoadConfig(t, "PRIMA_OUTPUT=markdown")
	path := testutil.WriteFile(t, p.Dir, "bad.yaml", `steps:
  - id: "1"
    operation: teleport
  - id: "1"
    operation: minmax_scaler
`)

	out, err := execute(t, NewLintCommand(), path)
	require.Error(t, err)
	assert.Contains(t, out, "# Lint: "+path+" (3 issues)")
	assert.Contains(t, out, `- R01 step 1  unknown operation "teleport" is ignored`)
	assert.Contains(t, out, "✗ R02 step 2  minmax_scaler needs a column")
	clitest.AssertValidMarkdown(t, out)

	_, err = execute(t, NewLintCommand(), path, "--severity", "fatal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid severity")
}
