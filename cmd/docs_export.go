package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zjrosen/afb/internal/docs"
)

var docsExportCmd = &cobra.Command{
	Use:   "docs:export DIR",
	Short: "Write markdown documentation for every class",
	Long: `Write one README.md per class and one page per unit under DIR.

Classes are laid out by package path, e.g.
  DIR/github.com/zjrosen/afb/internal/sweep/Values/README.md
  DIR/github.com/zjrosen/afb/internal/sweep/Values/units/prod.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := directory()
		if err != nil {
			return err
		}
		n, err := docs.Export(afero.NewOsFs(), args[0], d)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d pages to %s\n", n, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(docsExportCmd)
}
