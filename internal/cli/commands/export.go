package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prima/internal/cli/output"
	"github.com/leapstack-labs/prima/internal/compiler"
	"github.com/leapstack-labs/prima/internal/recipe"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:     "export <recipe>",
		Aliases: []string{"generate-code"},
		Short:   "Compile a recipe into a pandas script",
		Long: `Compile a recipe into a standalone Python script that reproduces it on the
full dataset with pandas, numpy and scikit-learn.

The script is printed to stdout unless --out is given. Steps whose column
does not exist in a given dataset are still emitted.`,
		Example: `  # Print the script
  prima export recipe.yaml

  # Write pipeline.py and show the install command
  prima export recipe.yaml --out pipeline.py

  # Full export payload as JSON
  prima export recipe.yaml -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], outPath)
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Write the script to this file")

	return cmd
}

func runExport(cmd *cobra.Command, recipePath, outPath string) error {
	cc := NewCommandContextWithoutEngine(cmd)
	r := cc.Renderer

	rec, err := recipe.LoadFile(recipePath)
	if err != nil {
		return err
	}
	export := compiler.Compile(rec).Export()

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(export.Code), 0o644); err != nil { //nolint:gosec // scripts are meant to be readable
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		cc.Logger.Debug("script written", "path", outPath, "steps", len(rec.Steps))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(export)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, export.Filename))
		r.Println("")
		if outPath == "" {
			r.Println(output.FormatCodeBlock("python", export.Code))
			r.Println("")
		} else {
			r.Println(output.FormatKeyValue("Written to", outPath))
		}
		r.Println(output.FormatKeyValue("Requirements", strings.Join(export.Requirements, ", ")))
		r.Println(output.FormatKeyValue("Install", "`"+export.InstallCommand+"`"))
	default:
		if outPath == "" {
			r.Printf("%s", export.Code)
			return nil
		}
		r.Success(fmt.Sprintf("Wrote %s", outPath))
		r.Muted(export.InstallCommand)
	}
	return nil
}
