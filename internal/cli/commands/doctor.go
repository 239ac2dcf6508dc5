package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/cli/config"
	"github.com/leapstack-labs/prima/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the local Prima installation",
		Long: `Check that Prima can run in the current directory.

The doctor command reports:
- Installation summary (config file, sessions, state schema)
- Health checks grouped by area (Config, Storage, State)
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  prima doctor

  # Output as JSON
  prima doctor -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         InstallSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// InstallSummary contains installation-level facts.
type InstallSummary struct {
	ConfigFile      string `json:"config_file"`
	UploadDir       string `json:"upload_dir"`
	StatePath       string `json:"state_path"`
	Sessions        int    `json:"sessions"`
	ExpiredSessions int    `json:"expired_sessions"`
	SchemaVersion   int64  `json:"schema_version"`
	Operations      int    `json:"operations"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	summary := InstallSummary{
		ConfigFile: config.GetConfigFileUsed(),
		UploadDir:  cfg.UploadDir,
		StatePath:  cfg.StatePath,
		Operations: len(catalog.List()),
	}
	var checks []HealthCheck

	// Config
	configCheck := HealthCheck{RuleID: "C01", Name: "Config file", Group: "config", Status: "pass"}
	if summary.ConfigFile == "" {
		configCheck.Status = "warn"
		configCheck.IssueCount = 1
		configCheck.Details = []string{"no prima.yaml found; using defaults and PRIMA_ variables"}
	}
	checks = append(checks, configCheck)

	// Storage
	checks = append(checks, checkWritable(cfg.UploadDir))

	expiredCheck := HealthCheck{RuleID: "S02", Name: "Expired sessions", Group: "storage", Status: "pass"}
	sessions, err := cmdCtx.Uploads.List()
	if err != nil {
		expiredCheck.Status = "error"
		expiredCheck.IssueCount = 1
		expiredCheck.Details = []string{err.Error()}
	}
	now := time.Now()
	for _, s := range sessions {
		summary.Sessions++
		if age := now.Sub(s.Modified); age > cfg.Storage.Retention {
			summary.ExpiredSessions++
			expiredCheck.Details = append(expiredCheck.Details,
				fmt.Sprintf("%s (idle %s)", s.ID, age.Round(time.Minute)))
		}
	}
	if summary.ExpiredSessions > 0 && expiredCheck.Status == "pass" {
		expiredCheck.Status = "warn"
		expiredCheck.IssueCount = summary.ExpiredSessions
	}
	checks = append(checks, expiredCheck)

	// State
	schemaCheck := HealthCheck{RuleID: "D01", Name: "State schema", Group: "state", Status: "pass"}
	version, err := cmdCtx.State.MigrationVersion()
	switch {
	case err != nil:
		schemaCheck.Status = "error"
		schemaCheck.IssueCount = 1
		schemaCheck.Details = []string{err.Error()}
	case version == 0:
		schemaCheck.Status = "error"
		schemaCheck.IssueCount = 1
		schemaCheck.Details = []string{"no migrations applied"}
	}
	summary.SchemaVersion = version
	checks = append(checks, schemaCheck)

	out := buildDoctorOutput(summary, checks)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

// checkWritable creates and removes a probe file in dir.
func checkWritable(dir string) HealthCheck {
	check := HealthCheck{RuleID: "S01", Name: "Upload directory writable", Group: "storage", Status: "pass"}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		check.Status = "error"
		check.IssueCount = 1
		check.Details = []string{err.Error()}
		return check
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return check
}

func buildDoctorOutput(summary InstallSummary, checks []HealthCheck) *DoctorOutput {
	// Sort health checks by group then by rule ID
	sort.Slice(checks, func(i, j int) bool {
		if checks[i].Group != checks[j].Group {
			return checks[i].Group < checks[j].Group
		}
		return checks[i].RuleID < checks[j].RuleID
	})

	issues := 0
	for _, c := range checks {
		issues += c.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}
}

// calculateHealthScore computes a health score from 0-100. Warnings cost
// 5 points per issue (at most 20 per check) and errors 25 points each.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= 25 * max(check.IssueCount, 1)
		case "warn":
			score -= min(5*check.IssueCount, 20)
		}
	}
	return max(score, 0)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	for _, check := range checks {
		if check.Status == "pass" {
			continue
		}
		if rec := getRecommendation(check.RuleID); rec != "" {
			recommendations = append(recommendations, rec)
		}
	}
	return recommendations
}

// getRecommendation returns a recommendation for a specific check.
func getRecommendation(ruleID string) string {
	switch ruleID {
	case "C01":
		return "Run 'prima init' to create a prima.yaml with the default settings"
	case "S01":
		return "Point upload_dir (or PRIMA_UPLOAD_DIR) at a writable directory"
	case "S02":
		return "Run 'prima sweep' or start 'prima serve' to delete expired sessions"
	case "D01":
		return "Remove the state database so it is recreated on the next run"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header.Render("Prima Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Bold.Render("Summary"))
	configFile := out.Summary.ConfigFile
	if configFile == "" {
		configFile = "(none)"
	}
	r.Printf("   Config: %s\n", configFile)
	r.Printf("   Sessions: %d | Expired: %d | Operations: %d | Schema: v%d\n",
		out.Summary.Sessions, out.Summary.ExpiredSessions, out.Summary.Operations, out.Summary.SchemaVersion)
	r.Println("")

	r.Println(styles.Bold.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.Success.Render("✓")
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.Error.Render("✗")
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Bold.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# Prima Health Report")
	r.Println("")

	r.Println("## Summary")
	r.Println("")
	configFile := out.Summary.ConfigFile
	if configFile == "" {
		configFile = "(none)"
	}
	r.Println(output.FormatKeyValue("Config", configFile))
	r.Println(output.FormatKeyValue("Upload dir", out.Summary.UploadDir))
	r.Printf("- **Sessions**: %d\n", out.Summary.Sessions)
	r.Printf("- **Expired sessions**: %d\n", out.Summary.ExpiredSessions)
	r.Printf("- **Operations**: %d\n", out.Summary.Operations)
	r.Printf("- **Schema version**: %d\n", out.Summary.SchemaVersion)
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		}

		r.Printf("- **[%s]** %s: %s", status, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
