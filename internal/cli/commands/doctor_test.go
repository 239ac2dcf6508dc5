package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/leapstack-labs/prima/internal/cli/testutil"
)

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name   string
		checks []HealthCheck
		want   int
	}{
		{
			name:   "no checks returns 100",
			checks: nil,
			want:   100,
		},
		{
			name: "all passing returns 100",
			checks: []HealthCheck{
				{RuleID: "C01", Status: "pass"},
				{RuleID: "S01", Status: "pass"},
			},
			want: 100,
		},
		{
			name: "warnings reduce score",
			checks: []HealthCheck{
				{RuleID: "C01", Status: "warn", IssueCount: 1},
				{RuleID: "S02", Status: "warn", IssueCount: 2},
			},
			want: 85,
		},
		{
			name: "warnings are capped per check",
			checks: []HealthCheck{
				{RuleID: "S02", Status: "warn", IssueCount: 40},
			},
			want: 80,
		},
		{
			name: "errors reduce score more",
			checks: []HealthCheck{
				{RuleID: "S01", Status: "error", IssueCount: 1},
			},
			want: 75,
		},
		{
			name: "many errors reduce to 0",
			checks: []HealthCheck{
				{RuleID: "S01", Status: "error", IssueCount: 1},
				{RuleID: "D01", Status: "error", IssueCount: 4},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateHealthScore(tt.checks))
		})
	}
}

func TestGetRecommendation(t *testing.T) {
	tests := []struct {
		ruleID   string
		expected bool // whether a recommendation is returned
	}{
		{"C01", true},
		{"S01", true},
		{"S02", true},
		{"D01", true},
		{"UNKNOWN", false},
	}

	for _, tt := range tests {
		t.Run(tt.ruleID, func(t *testing.T) {
			rec := getRecommendation(tt.ruleID)
			if tt.expected {
				assert.NotEmpty(t, rec, "expected recommendation for %s", tt.ruleID)
			} else {
				assert.Empty(t, rec, "expected no recommendation for %s", tt.ruleID)
			}
		})
	}
}

func TestBuildDoctorOutput_SortsByGroup(t *testing.T) {
	out := buildDoctorOutput(InstallSummary{}, []HealthCheck{
		{RuleID: "S02", Group: "storage", Status: "warn", IssueCount: 2},
		{RuleID: "D01", Group: "state", Status: "pass"},
		{RuleID: "C01", Group: "config", Status: "warn", IssueCount: 1},
		{RuleID: "S01", Group: "storage", Status: "pass"},
	})

	var ids []string
	for _, c := range out.HealthChecks {
		ids = append(ids, c.RuleID)
	}
	assert.Equal(t, []string{"C01", "D01", "S01", "S02"}, ids)
	assert.Equal(t, 3, out.IssueCount)
	require.Len(t, out.Recommendations, 2)
	assert.Contains(t, out.Recommendations[0], "prima init")
	assert.Contains(t, out.Recommendations[1], "prima sweep")
}

func TestDoctor_JSON(t *testing.T) {
	p := clitest.SetupTestProject(t)
	p.Upload(t, "old", clitest.AgeCityCSV)
	p.Upload(t, "fresh", clitest.AgeCityCSV)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(p.UploadDir, "old"), past, past))
	p.LoadConfig(t, "PRIMA_OUTPUT=json")

	out, err := execute(t, NewDoctorCommand())
	require.NoError(t, err)

	resp := decode(t, out)
	summary := resp["summary"].(map[string]any)
	assert.InDelta(t, 2, summary["sessions"], 0)
	assert.InDelta(t, 1, summary["expired_sessions"], 0)
	assert.Positive(t, summary["schema_version"])

	status := map[string]string{}
	for _, c := range resp["health_checks"].([]any) {
		check := c.(map[string]any)
		status[check["rule_id"].(string)] = check["status"].(string)
	}
	assert.Equal(t, map[string]string{
		"C01": "warn", // no prima.yaml in the project
		"S01": "pass",
		"S02": "warn",
		"D01": "pass",
	}, status)
	assert.InDelta(t, 90, resp["score"], 0)
}

func TestDoctor_Markdown(t *testing.T) {
	p := clitest.SetupTestProject(t)
	p.LoadConfig(t, "PRIMA_OUTPUT=markdown")

	out, err := execute(t, NewDoctorCommand())
	require.NoError(t, err)

	assert.Contains(t, out, "# Prima Health Report")
	assert.Contains(t, out, "### Storage")
	assert.Contains(t, out, "- **[PASS]** S01: Upload directory writable")
	assert.Contains(t, out, "**95/100**")
	clitest.AssertNoANSI(t, out)
	clitest.AssertValidMarkdown(t, out)
}
