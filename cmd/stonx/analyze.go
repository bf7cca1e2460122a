package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stonx/internal/application/analysis"
	analysisDomain "stonx/internal/domain/analysis"
	"stonx/internal/domain/marketdata"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		symbols     string
		start       string
		end         string
		concurrency int
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a set of symbols and print metrics with group insights",
		Example: `  stonx analyze --symbols AAPL,MSFT,NVDA
  stonx analyze --symbols SPY --start 2024-01-01 --end 2024-06-30 --provider yahoo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			if end == "" {
				end = marketdata.DateKey(time.Now())
			}
			if start == "" {
				endDate, err := marketdata.ParseDate(end)
				if err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
				start = marketdata.DateKey(endDate.AddDate(0, 0, -a.cfg.Analysis.DefaultLookbackDays))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if concurrency <= 0 {
				concurrency = a.cfg.Analysis.Concurrency
			}
			uc := analysis.NewAnalyzeUseCase(a.cache, a.store, a.store, nil, concurrency)
			out, err := uc.Execute(ctx, analysis.AnalyzeInput{
				Symbols: splitSymbols(symbols),
				Range:   analysisDomain.Range{Start: start, End: end},
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&symbols, "symbols", "", "comma separated symbols")
	cmd.Flags().StringVar(&start, "start", "", "range start (YYYY-MM-DD), default analysis.default_lookback_days before end")
	cmd.Flags().StringVar(&end, "end", "", "range end (YYYY-MM-DD), default today")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel fetches, default analysis.concurrency")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
	_ = cmd.MarkFlagRequired("symbols")
	return cmd
}

func splitSymbols(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
