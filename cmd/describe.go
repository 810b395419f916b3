package cmd

import (
	"fmt"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/zjrosen/afb/internal/docs"
)

var describePlain bool

var describeCmd = &cobra.Command{
	Use:   "describe CLASS [KEY]",
	Short: "Show the documentation of a class or unit",
	Long: `Render the documentation page of a class, or of one of its units, for the terminal.

Examples:
  afb describe values
  afb describe values prod
  afb describe dict afb/load_config --plain`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := directory()
		if err != nil {
			return err
		}
		cls, err := resolveClass(d, args[0])
		if err != nil {
			return err
		}

		opts := docs.RenderOptions{
			Width:   cfg.Docs.Width,
			Style:   cfg.Docs.Style,
			Profile: termenv.ColorProfile(),
			NoCache: cfg.Docs.NoCache,
		}
		if describePlain {
			opts.Style = "notty"
			opts.Profile = termenv.Ascii
		}
		renderer, err := docs.NewRenderer(d, opts)
		if err != nil {
			return fmt.Errorf("creating renderer: %w", err)
		}

		var page string
		if len(args) == 2 {
			page, err = renderer.Unit(cmd.Context(), cls, args[1])
		} else {
			page, err = renderer.Class(cmd.Context(), cls)
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), page)
		return err
	},
}

func init() {
	describeCmd.Flags().BoolVar(&describePlain, "plain", false, "Render without colors")
	rootCmd.AddCommand(describeCmd)
}
