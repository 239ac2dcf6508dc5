package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/cli/output"
)

// NewOpsCommand creates the ops command.
func NewOpsCommand() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List the available operations",
		Long: `List every operation a recipe step may use, with its category and
parameters. This is the same catalog served at /api/options.`,
		Example: `  prima ops
  prima ops --category Scaling
  prima ops -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOps(cmd, category)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list operations of this category")

	return cmd
}

func runOps(cmd *cobra.Command, category string) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	var ops []catalog.Operation
	for _, op := range catalog.List() {
		if category == "" || strings.EqualFold(string(op.Category), category) {
			ops = append(ops, op)
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		if ops == nil {
			ops = []catalog.Operation{}
		}
		return r.JSON(map[string][]catalog.Operation{"operations": ops})
	}

	r.Header(1, fmt.Sprintf("Operations (%d)", len(ops)))
	rows := make([][]string, len(ops))
	for i, op := range ops {
		rows[i] = []string{string(op.ID), op.Label, string(op.Category), formatParams(op.Params)}
	}
	r.Table([]string{"id", "label", "category", "params"}, rows)
	return nil
}

func formatParams(params []catalog.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		s := p.Name + ":" + string(p.Type)
		if p.Default != nil {
			s += "=" + fmt.Sprint(p.Default)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
