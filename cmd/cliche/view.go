package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sizzlebop/CLIche/internal/config"
)

var viewCmd = &cobra.Command{
	Use:   "view [document]",
	Short: "Render a saved markdown document in the terminal",
	Long: `Renders a markdown file with terminal styling. A bare name is looked
up under ~/.cliche/files/docs; a path is used as-is.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); os.IsNotExist(err) {
			dir, derr := config.DocsDir()
			if derr != nil {
				return derr
			}
			candidate := filepath.Join(dir, path)
			if _, cerr := os.Stat(candidate); cerr != nil {
				return fmt.Errorf("document not found: %s", args[0])
			}
			path = candidate
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return renderMarkdown(cmd, string(data))
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
