package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/afb/internal/config"
	"github.com/zjrosen/afb/internal/spec"
)

var defaultClear bool

var defaultSetCmd = &cobra.Command{
	Use:   "default:set CLASS [KEY]",
	Short: "Set the default unit of a class in the config file",
	Long: `Record KEY as the unit make uses for CLASS when no key is given.

The key must name a unit of the class. Use --clear to remove the entry.`,
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

		key := ""
		switch {
		case defaultClear:
		case len(args) == 2:
			key = args[1]
			if err := d.GetOrCreate(cls).SetDefault(key); err != nil {
				return err
			}
		default:
			return fmt.Errorf("KEY is required unless --clear is given")
		}

		path := configPath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
		}
		if err := config.SaveDefault(path, spec.QualifiedName(cls), key); err != nil {
			return err
		}
		if key == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared default of %s in %s\n", spec.QualifiedName(cls), path)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Default of %s is now %q (%s)\n", spec.QualifiedName(cls), key, path)
		}
		return nil
	},
}

func init() {
	defaultSetCmd.Flags().BoolVar(&defaultClear, "clear", false, "Remove the default")
	rootCmd.AddCommand(defaultSetCmd)
}
