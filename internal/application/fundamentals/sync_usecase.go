package fundamentals

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	fundDomain "stonx/internal/domain/fundamentals"
	"stonx/internal/domain/marketdata"
)

const (
	defaultRequestDelay = 400 * time.Millisecond
	maxRunningAge       = 15 * time.Minute
)

// Source 為季報與估值的外部來源（Yahoo）。
type Source interface {
	FetchQuarterly(ctx context.Context, symbol string) ([]fundDomain.Quarter, error)
	FetchOverview(ctx context.Context, symbol string) (*fundDomain.Overview, error)
	FetchForwardPE(ctx context.Context, symbol string, price *float64) (*float64, error)
}

// Repository 定義季報、公司資料與同步狀態的儲存介面。
type Repository interface {
	UpsertTicker(ctx context.Context, symbol string) error
	// UpsertQuarters 以 (symbol, period_end) 覆寫季報。
	UpsertQuarters(ctx context.Context, symbol string, quarters []fundDomain.Quarter) error
	// ListQuarters 依季末日期遞減回傳最多 limit 筆。
	ListQuarters(ctx context.Context, symbol string, limit int) ([]fundDomain.Quarter, error)
	LatestFetchedAt(ctx context.Context, symbol string) (*time.Time, error)
	GetProfile(ctx context.Context, symbol string) (fundDomain.Profile, error)
	// SaveProfile 僅覆寫非 nil 欄位。
	SaveProfile(ctx context.Context, p fundDomain.Profile) error
	GetSyncState(ctx context.Context) (fundDomain.SyncState, error)
	SaveSyncState(ctx context.Context, st fundDomain.SyncState) error
}

// PriceLookup 查詢指定日期（含）以前最近一筆日 K。
type PriceLookup interface {
	LatestBarOnOrBefore(ctx context.Context, symbol string, date time.Time) (marketdata.PriceBar, bool, error)
}

// SymbolLister 提供預設同步範圍（所有群組成員）。
type SymbolLister interface {
	DistinctSymbols(ctx context.Context) ([]string, error)
}

// SyncResult 為一次同步的結果；Started 為 false 時 Reason 說明原因。
type SyncResult struct {
	Started bool
	Reason  string
	Symbols int
	Synced  int
}

// SyncUseCase 逐檔抓取季報並回填 TTM EPS 與當時本益比。
type SyncUseCase struct {
	source  Source
	repo    Repository
	prices  PriceLookup
	symbols SymbolLister
	delay   time.Duration
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error

	mu sync.Mutex
}

// NewSyncUseCase 建立季報同步用例；delay <= 0 時使用 400ms。
func NewSyncUseCase(source Source, repo Repository, prices PriceLookup, symbols SymbolLister, delay time.Duration) *SyncUseCase {
	if delay <= 0 {
		delay = defaultRequestDelay
	}
	return &SyncUseCase{
		source:  source,
		repo:    repo,
		prices:  prices,
		symbols: symbols,
		delay:   delay,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Sync 同步指定代號；symbols 為空時同步所有群組成員。
// 另一次同步進行中（且未超過 15 分鐘）時不啟動。
func (u *SyncUseCase) Sync(ctx context.Context, symbols []string) (SyncResult, error) {
	started, err := u.begin(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	if !started {
		return SyncResult{Reason: "running"}, nil
	}

	status := fundDomain.StatusIdle
	var lastError *string
	res := SyncResult{Started: true}

	defer func() {
		// 呼叫端的 context 可能已取消，狀態仍需落地。
		saveCtx := context.WithoutCancel(ctx)
		st := fundDomain.SyncState{Status: status, LastError: lastError}
		if state, err := u.repo.GetSyncState(saveCtx); err == nil {
			st.LastRunAt = state.LastRunAt
		}
		if err := u.repo.SaveSyncState(saveCtx, st); err != nil {
			log.Printf("[Fundamentals] save sync state failed: %v", err)
		}
	}()

	if len(symbols) == 0 {
		all, err := u.symbols.DistinctSymbols(ctx)
		if err != nil {
			status = fundDomain.StatusError
			lastError = errMessage(err)
			return res, err
		}
		symbols = all
	}
	deduped := dedupeSymbols(symbols)
	res.Symbols = len(deduped)
	log.Printf("[Fundamentals] syncing %d symbols via yahoo", len(deduped))

	for i, symbol := range deduped {
		n, err := u.syncSymbol(ctx, symbol)
		if errors.Is(err, fundDomain.ErrRateLimited) {
			status = fundDomain.StatusError
			lastError = fundDomain.StringPtr("rate limit hit")
			log.Printf("[Fundamentals] rate limited symbol=%s", symbol)
			break
		}
		if err != nil {
			log.Printf("[Fundamentals] sync failed symbol=%s err=%v", symbol, err)
			lastError = errMessage(err)
		} else if n > 0 {
			res.Synced++
		}
		if i < len(deduped)-1 {
			if err := u.sleep(ctx, u.delay); err != nil {
				status = fundDomain.StatusError
				lastError = errMessage(err)
				return res, err
			}
		}
	}
	return res, nil
}

// Status 回傳目前同步狀態，尚未同步過時為 idle。
func (u *SyncUseCase) Status(ctx context.Context) (string, error) {
	st, err := u.repo.GetSyncState(ctx)
	if err != nil {
		return "", err
	}
	if st.Status == "" {
		return fundDomain.StatusIdle, nil
	}
	return st.Status, nil
}

func (u *SyncUseCase) begin(ctx context.Context) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now().UTC()
	st, err := u.repo.GetSyncState(ctx)
	if err != nil {
		return false, err
	}
	if st.Status == fundDomain.StatusRunning && st.LastRunAt != nil {
		if now.Sub(*st.LastRunAt) < maxRunningAge {
			return false, nil
		}
		log.Printf("[Fundamentals] stale running state detected, continuing")
	}
	return true, u.repo.SaveSyncState(ctx, fundDomain.SyncState{Status: fundDomain.StatusRunning, LastRunAt: &now})
}

func (u *SyncUseCase) syncSymbol(ctx context.Context, symbol string) (int, error) {
	quarters, err := u.source.FetchQuarterly(ctx, symbol)
	if err != nil {
		return 0, err
	}
	log.Printf("[Fundamentals] yahoo rows symbol=%s count=%d", symbol, len(quarters))
	if len(quarters) == 0 {
		return 0, nil
	}
	if err := u.repo.UpsertTicker(ctx, symbol); err != nil {
		return 0, err
	}

	fetchedAt := u.now().UTC()
	filled := fundDomain.FillTTM(quarters)
	for i := range filled {
		q := &filled[i]
		q.Symbol = symbol
		q.Source = fundDomain.SourceYahoo
		q.FetchedAt = fetchedAt
		q.PriceClose, q.PriceAsOf, q.PETTM = nil, nil, nil

		periodEnd, err := marketdata.ParseDate(q.PeriodEnd)
		if err != nil {
			continue
		}
		bar, ok, err := u.prices.LatestBarOnOrBefore(ctx, symbol, periodEnd)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		q.PriceClose = fundDomain.Float64Ptr(bar.Close)
		q.PriceAsOf = fundDomain.StringPtr(bar.Date)
		q.PETTM = fundDomain.PE(q.PriceClose, q.EPSTTM)
	}
	if err := u.repo.UpsertQuarters(ctx, symbol, filled); err != nil {
		return 0, err
	}
	return len(filled), nil
}

func dedupeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = marketdata.NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func errMessage(err error) *string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "unknown error"
	}
	return &msg
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
