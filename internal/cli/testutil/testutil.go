// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/prima/internal/cli/config"
	"github.com/leapstack-labs/prima/internal/cli/output"
	"github.com/leapstack-labs/prima/internal/storage"
)

// AgeCityCSV is a small mixed-kind dataset.
const AgeCityCSV = "age,city\n25,A\n,B\n40,A\n"

// AgeCityRecipe imputes age, one-hot encodes city and refers to a missing
// ZIP column.
const AgeCityRecipe = `session_id: s1
steps:
  - id: "1"
    operation: fill_na_mean
    column: age
  - id: "2"
    operation: one_hot_encode
    column: city
  - id: "3"
    operation: fill_na_mean
    column: ZIP
`

// Project is a temporary working directory wired into the PRIMA_
// environment.
type Project struct {
	Dir        string
	UploadDir  string
	StatePath  string
	CSVPath    string
	RecipePath string
}

// SetupTestProject creates a temporary project with a CSV and a recipe,
// makes it the working directory and points PRIMA_UPLOAD_DIR and
// PRIMA_STATE_PATH into it. The config package is reset.
func SetupTestProject(t *testing.T) *Project {
	t.Helper()

	dir := t.TempDir()
	p := &Project{
		Dir:        dir,
		UploadDir:  filepath.Join(dir, "uploads"),
		StatePath:  filepath.Join(dir, ".prima", "state.db"),
		CSVPath:    filepath.Join(dir, "people.csv"),
		RecipePath: filepath.Join(dir, "recipe.yaml"),
	}

	if err := os.WriteFile(p.CSVPath, []byte(AgeCityCSV), 0644); err != nil {
		t.Fatalf("failed to create people.csv: %v", err)
	}
	if err := os.WriteFile(p.RecipePath, []byte(AgeCityRecipe), 0644); err != nil {
		t.Fatalf("failed to create recipe.yaml: %v", err)
	}

	t.Chdir(dir)
	t.Setenv("PRIMA_UPLOAD_DIR", p.UploadDir)
	t.Setenv("PRIMA_STATE_PATH", p.StatePath)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	return p
}

// LoadConfig loads the configuration for the project with extra
// environment overrides such as "PRIMA_OUTPUT=json".
func (p *Project) LoadConfig(t *testing.T, env ...string) *config.Config {
	t.Helper()
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		t.Setenv(k, v)
	}
	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Upload stores content as the sample of session id.
func (p *Project) Upload(t *testing.T, id, content string) {
	t.Helper()
	store, err := storage.New(p.UploadDir, 0, nil)
	if err != nil {
		t.Fatalf("failed to open upload dir: %v", err)
	}
	if _, err := store.Save(context.Background(), id, "data.csv", strings.NewReader(content)); err != nil {
		t.Fatalf("failed to upload %s: %v", id, err)
	}
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the combined stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
