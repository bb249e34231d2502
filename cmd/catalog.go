package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/mgdispatch/infra/logger"
	"github.com/kilianp07/mgdispatch/pkg/catalog"
	"github.com/kilianp07/mgdispatch/pkg/export"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <file>",
	Short: "Print a generator catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gens, err := catalog.LoadGenerators(args[0], logger.New("catalog"))
		if err != nil {
			return err
		}
		return export.PrintGenerators(cmd.OutOrStdout(), gens)
	},
}

var pricesCmd = &cobra.Command{
	Use:   "prices <file>",
	Short: "Print a grid price schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sched, err := catalog.LoadPrices(args[0], logger.New("prices"))
		if err != nil {
			return err
		}
		return export.PrintPrices(cmd.OutOrStdout(), sched)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(pricesCmd)
}
