package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	mdapp "stonx/internal/application/marketdata"
	"stonx/internal/domain/group"
)

func newBarsCmd() *cobra.Command {
	var rng string
	cmd := &cobra.Command{
		Use:     "bars <symbol>",
		Short:   "Print daily bars for a symbol over a chart range",
		Example: `  stonx bars AAPL --range 3m`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chartRange, err := mdapp.ParseChartRange(rng)
			if err != nil {
				return err
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			out, err := mdapp.NewPricesUseCase(a.cache).Prices(ctx, args[0], chartRange)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&rng, "range", "1m", "chart range (1d|1w|1m|3m|6m|1y)")
	return cmd
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List built-in group templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), group.Templates())
		},
	}
}
