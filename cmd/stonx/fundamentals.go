package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	fundapp "stonx/internal/application/fundamentals"
	"stonx/internal/application/groups"
	"stonx/internal/domain/marketdata"
	"stonx/internal/infrastructure/external"
)

// fundamentalsPriceDays 為回填季末股價所需的日 K 區間。
const fundamentalsPriceDays = 730

func newFundamentalsCmd() *cobra.Command {
	var limitRaw string
	cmd := &cobra.Command{
		Use:     "fundamentals <symbol>",
		Short:   "Sync quarterly fundamentals from Yahoo and print them with PE TTM",
		Example: `  stonx fundamentals AAPL --limit 8`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := fundapp.ParseLimit(limitRaw)
			if err != nil {
				return err
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			symbol := marketdata.NormalizeSymbol(args[0])
			end := marketdata.TruncateDay(time.Now())
			start := end.AddDate(0, 0, -fundamentalsPriceDays)
			if _, err := a.cache.EnsureBars(ctx, symbol, marketdata.DateKey(start), marketdata.DateKey(end)); err != nil {
				return err
			}

			source := external.NewFundamentalsSource(a.cfg.MarketData)
			sync := fundapp.NewSyncUseCase(source, a.store, a.store, groups.NewUseCase(a.store, nil), a.cfg.Fundamentals.RequestDelay)
			if _, err := sync.Sync(ctx, []string{symbol}); err != nil {
				return err
			}
			report, err := fundapp.NewQueryUseCase(a.store, a.store, source, !a.cfg.MarketData.YahooDisabled).Fundamentals(ctx, symbol, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&limitRaw, "limit", "4", "number of quarters to print (1-24)")
	return cmd
}
