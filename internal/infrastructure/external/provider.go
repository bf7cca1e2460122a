package external

import (
	"fmt"
	"strings"

	fundapp "stonx/internal/application/fundamentals"
	mdapp "stonx/internal/application/marketdata"
	"stonx/internal/infrastructure/config"
	"stonx/internal/infrastructure/external/stooq"
	"stonx/internal/infrastructure/external/yahoo"
)

// NewProvider 依設定建立日 K 來源；Stooq 遇到流量限制時改用 Yahoo。
func NewProvider(cfg config.MarketDataConfig) (mdapp.Provider, error) {
	yc := yahoo.NewClient(cfg.Timeout, cfg.UserAgent)
	switch strings.ToLower(cfg.Provider) {
	case "", "stooq":
		return stooq.NewClient(cfg.Timeout, cfg.UserAgent, yc), nil
	case "yahoo":
		return yc, nil
	default:
		return nil, fmt.Errorf("unsupported market data provider %q", cfg.Provider)
	}
}

var _ fundapp.Source = (*yahoo.Client)(nil)

// NewFundamentalsSource 建立季報與估值來源（Yahoo timeseries / quoteSummary）。
func NewFundamentalsSource(cfg config.MarketDataConfig) *yahoo.Client {
	return yahoo.NewClient(cfg.Timeout, cfg.UserAgent).WithCookie(cfg.YahooCookie)
}
