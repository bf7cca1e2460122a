package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	mdapp "stonx/internal/application/marketdata"
	"stonx/internal/infra/memory"
	"stonx/internal/infrastructure/config"
	"stonx/internal/infrastructure/external"
)

var (
	cfgPath      string
	providerName string
)

var rootCmd = &cobra.Command{
	Use:   "stonx",
	Short: "Stock group analytics from the command line",
	Long: `stonx fetches daily bars from a public market data provider and computes
metrics, signals and group insights without requiring a running server.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "market data provider (stooq|yahoo), overrides config")
	rootCmd.AddCommand(newAnalyzeCmd(), newBarsCmd(), newFundamentalsCmd(), newTemplatesCmd())
}

type app struct {
	cfg   config.Config
	store *memory.Store
	cache *mdapp.BarCache
}

// loadApp 以記憶體儲存建立日 K 快取，CLI 不連資料庫。
func loadApp() (*app, error) {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if providerName != "" {
		cfg.MarketData.Provider = providerName
	}
	provider, err := external.NewProvider(cfg.MarketData)
	if err != nil {
		return nil, err
	}
	store := memory.NewStore()
	return &app{cfg: cfg, store: store, cache: mdapp.NewBarCache(store, provider)}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
