package marketdata

import (
	"context"
	"fmt"
	"time"

	"stonx/internal/domain/marketdata"
)

// ChartRange 為圖表查詢區間代碼。
type ChartRange string

const (
	Range1D ChartRange = "1d"
	Range1W ChartRange = "1w"
	Range1M ChartRange = "1m"
	Range3M ChartRange = "3m"
	Range6M ChartRange = "6m"
	Range1Y ChartRange = "1y"
)

// rangeDays 日曆天回看；1d 也取一週以避開週末與假日。
var rangeDays = map[ChartRange]int{
	Range1D: 7,
	Range1W: 7,
	Range1M: 30,
	Range3M: 90,
	Range6M: 180,
	Range1Y: 365,
}

// ParseChartRange 解析區間代碼，空字串預設 1m。
func ParseChartRange(s string) (ChartRange, error) {
	if s == "" {
		return Range1M, nil
	}
	r := ChartRange(s)
	if _, ok := rangeDays[r]; !ok {
		return "", &marketdata.ValidationError{Reasons: []string{fmt.Sprintf("unsupported range %q", s)}}
	}
	return r, nil
}

// PricesOutput 為圖表用的日 K。
type PricesOutput struct {
	Symbol string                `json:"symbol"`
	Bars   []marketdata.PriceBar `json:"bars"`
}

// PricesUseCase 提供圖表查詢，以今日為終點往回取資料。
type PricesUseCase struct {
	cache *BarCache
	now   func() time.Time
}

func NewPricesUseCase(cache *BarCache) *PricesUseCase {
	return &PricesUseCase{cache: cache, now: time.Now}
}

func (u *PricesUseCase) Prices(ctx context.Context, symbol string, rng ChartRange) (PricesOutput, error) {
	days, ok := rangeDays[rng]
	if !ok {
		return PricesOutput{}, &marketdata.ValidationError{Reasons: []string{fmt.Sprintf("unsupported range %q", rng)}}
	}
	end := marketdata.TruncateDay(u.now())
	start := end.AddDate(0, 0, -days)

	res, err := u.cache.EnsureBars(ctx, symbol, marketdata.DateKey(start), marketdata.DateKey(end))
	if err != nil {
		return PricesOutput{}, err
	}
	bars := res.Bars
	if bars == nil {
		bars = []marketdata.PriceBar{}
	}
	return PricesOutput{Symbol: marketdata.NormalizeSymbol(symbol), Bars: bars}, nil
}
