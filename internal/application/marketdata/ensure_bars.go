package marketdata

import (
	"context"
	"fmt"
	"log"
	"time"

	"stonx/internal/domain/marketdata"
)

// Provider 抽象化外部日 K 來源（Stooq、Yahoo 等）。
type Provider interface {
	Name() string
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PriceBar, error)
}

// BarRepository 定義日 K 快取的儲存介面。
type BarRepository interface {
	UpsertTicker(ctx context.Context, symbol string) error
	BarsInRange(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PriceBar, error)
	// ReplaceBars 以單一交易刪除 [start,end] 內既有資料後寫入 bars。
	ReplaceBars(ctx context.Context, symbol string, start, end time.Time, bars []marketdata.PriceBar) error
}

// DateRange 為日期區間（含頭尾，UTC 零點）。
type DateRange struct {
	Start time.Time
	End   time.Time
}

// EnsureResult 為快取補齊後的結果。
type EnsureResult struct {
	Bars    []marketdata.PriceBar
	Fetched int
}

// BarCache 先讀本地快取，缺漏的交易日才向外部來源補抓。
type BarCache struct {
	repo     BarRepository
	provider Provider
	now      func() time.Time
}

// NewBarCache 建立日 K 快取用例。
func NewBarCache(repo BarRepository, provider Provider) *BarCache {
	return &BarCache{
		repo:     repo,
		provider: provider,
		now:      time.Now,
	}
}

// ProviderName 回傳目前使用的外部來源名稱。
func (c *BarCache) ProviderName() string {
	return c.provider.Name()
}

// EnsureBars 確保 [start,end] 期間的日 K 已在快取中並回傳（日期遞增）。
func (c *BarCache) EnsureBars(ctx context.Context, symbol, start, end string) (EnsureResult, error) {
	var result EnsureResult

	symbol = marketdata.NormalizeSymbol(symbol)
	if symbol == "" {
		return result, &marketdata.ValidationError{Reasons: []string{"symbol is required"}}
	}
	startDate, err := marketdata.ParseDate(start)
	if err != nil {
		return result, &marketdata.ValidationError{Reasons: []string{err.Error()}}
	}
	endDate, err := marketdata.ParseDate(end)
	if err != nil {
		return result, &marketdata.ValidationError{Reasons: []string{err.Error()}}
	}
	// 未來日期來源不會有資料，避免每次都判定為缺漏。
	if today := marketdata.TruncateDay(c.now()); endDate.After(today) {
		endDate = today
	}
	if startDate.After(endDate) {
		return result, &marketdata.ValidationError{Reasons: []string{"start must not be after end"}}
	}

	if err := c.repo.UpsertTicker(ctx, symbol); err != nil {
		return result, fmt.Errorf("upsert ticker: %w", err)
	}

	existing, err := c.repo.BarsInRange(ctx, symbol, startDate, endDate)
	if err != nil {
		return result, fmt.Errorf("load cached bars: %w", err)
	}

	have := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		have[b.Date] = struct{}{}
	}
	missing := FindMissingRanges(startDate, endDate, have)
	if len(missing) == 0 {
		result.Bars = existing
		return result, nil
	}

	fetchStart := missing[0].Start
	fetchEnd := missing[len(missing)-1].End
	remote, err := c.provider.FetchDailyBars(ctx, symbol, fetchStart, fetchEnd)
	if err != nil {
		return result, fmt.Errorf("fetch %s from %s: %w", symbol, c.provider.Name(), err)
	}

	rows := make([]marketdata.PriceBar, 0, len(remote))
	invalid := 0
	for _, b := range remote {
		d, err := b.Time()
		if err != nil || d.Before(startDate) || d.After(endDate) {
			continue
		}
		if err := b.Validate(); err != nil {
			invalid++
			continue
		}
		rows = append(rows, b)
	}
	if invalid > 0 {
		log.Printf("[Bars] skipped invalid bars symbol=%s provider=%s count=%d", symbol, c.provider.Name(), invalid)
	}

	if len(rows) > 0 {
		if err := c.repo.ReplaceBars(ctx, symbol, fetchStart, fetchEnd, rows); err != nil {
			return result, fmt.Errorf("store bars: %w", err)
		}
		result.Fetched = len(rows)
		log.Printf("[Bars] cached symbol=%s provider=%s fetched=%d range=%s..%s",
			symbol, c.provider.Name(), len(rows), marketdata.DateKey(fetchStart), marketdata.DateKey(fetchEnd))
	}

	bars, err := c.repo.BarsInRange(ctx, symbol, startDate, endDate)
	if err != nil {
		return result, fmt.Errorf("reload cached bars: %w", err)
	}
	result.Bars = bars
	return result, nil
}

func isTradingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// FindMissingRanges 找出平日中缺資料的連續區段；週末不視為缺漏。
func FindMissingRanges(start, end time.Time, have map[string]struct{}) []DateRange {
	var ranges []DateRange
	var open *time.Time

	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
		_, ok := have[marketdata.DateKey(cursor)]
		if isTradingDay(cursor) && !ok {
			if open == nil {
				s := cursor
				open = &s
			}
			continue
		}
		if open != nil {
			ranges = append(ranges, DateRange{Start: *open, End: cursor.AddDate(0, 0, -1)})
			open = nil
		}
	}
	if open != nil {
		ranges = append(ranges, DateRange{Start: *open, End: end})
	}
	return ranges
}
