package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new Prima project",
		Long: `Initialize a new Prima project with a default configuration.

This creates:
  - prima.yaml configuration file
  - recipe.yaml example recipe
  - .gitignore excluding uploads and local state`,
		Example: `  # Initialize in current directory
  prima init

  # Initialize in a new directory
  prima init my-project

  # Force overwrite existing config
  prima init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, "prima.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("prima.yaml already exists. Use --force to overwrite")
	}

	files, err := copyTemplate("default", dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("Prima project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Run 'prima serve' and upload a CSV")
	r.Println("  2. Put the session id into recipe.yaml")
	r.Println("  3. Run 'prima preview recipe.yaml --watch' while editing")
	r.Println("  4. Run 'prima export recipe.yaml --out pipeline.py'")

	return nil
}
