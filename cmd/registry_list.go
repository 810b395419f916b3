package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/afb/internal/presentation"
)

var (
	listClass  string
	listFormat string
)

var registryListCmd = &cobra.Command{
	Use:   "registry:list",
	Short: "List classes and their construction units",
	Long: `List every class of the directory with its units and their short descriptions.

Builtin units (under the afb/ prefix) are listed before user units.
Use --class to show a single class and --format text for a terminal view.

Examples:
  # List all classes as JSON
  afb registry:list

  # Show the sweep units
  afb registry:list --class values --format text

  # Parse specific fields with jq
  afb registry:list | jq '.[].units[].key'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := presentation.ParseFormat(listFormat)
		if err != nil {
			return err
		}
		d, err := directory()
		if err != nil {
			return err
		}

		var classes []presentation.ClassDTO
		if listClass != "" {
			cls, err := resolveClass(d, listClass)
			if err != nil {
				return err
			}
			classes = []presentation.ClassDTO{presentation.FromRegistry(d.GetOrCreate(cls))}
		} else {
			classes = presentation.FromDirectory(d)
		}

		formatter := presentation.NewFormatter(os.Stdout, cfg.Docs.Width)
		return formatter.FormatClasses(classes, format)
	},
}

func init() {
	registryListCmd.Flags().StringVar(&listClass, "class", "", "Show a single class (alias or qualified name)")
	registryListCmd.Flags().StringVarP(&listFormat, "format", "o", "json", "Output format: json or text")
	rootCmd.AddCommand(registryListCmd)
}
