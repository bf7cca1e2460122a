package fundamentals

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	fundDomain "stonx/internal/domain/fundamentals"
	"stonx/internal/domain/marketdata"
)

const (
	defaultQuarterLimit = 4
	maxQuarterLimit     = 24
	providerName        = "Yahoo"
)

// QuarterView 為 API 輸出的單季數字。
type QuarterView struct {
	PeriodEnd         string   `json:"periodEnd"`
	Revenue           *float64 `json:"revenue"`
	GrossProfit       *float64 `json:"grossProfit"`
	OperatingIncome   *float64 `json:"operatingIncome"`
	NetIncome         *float64 `json:"netIncome"`
	EPS               *float64 `json:"eps"`
	Cash              *float64 `json:"cash"`
	Debt              *float64 `json:"debt"`
	NetCash           *float64 `json:"netCash"`
	TotalAssets       *float64 `json:"totalAssets"`
	TotalLiabilities  *float64 `json:"totalLiabilities"`
	SharesOutstanding *float64 `json:"sharesOutstanding"`
	EPSTTM            *float64 `json:"epsTtm"`
	PETTM             *float64 `json:"peTtm"`
	PriceAsOf         *string  `json:"priceAsOf"`
	PriceClose        *float64 `json:"priceClose"`
}

type OverviewView struct {
	Symbol      string   `json:"symbol"`
	Name        *string  `json:"name"`
	Exchange    *string  `json:"exchange"`
	Sector      *string  `json:"sector"`
	Industry    *string  `json:"industry"`
	MarketCap   *float64 `json:"marketCap"`
	Description *string  `json:"description"`
}

type Meta struct {
	Provider        string     `json:"provider"`
	ProviderEnabled bool       `json:"providerEnabled"`
	LatestFetchedAt *time.Time `json:"latestFetchedAt"`
	SyncStatus      string     `json:"syncStatus"`
}

// Report 為單一代號的季報與公司概況；News 目前固定為空陣列。
type Report struct {
	Symbol   string        `json:"symbol"`
	Quarters []QuarterView `json:"quarters"`
	Overview OverviewView  `json:"overview"`
	News     []interface{} `json:"news"`
	Meta     Meta          `json:"meta"`
}

// ValuationsOutput 以代號為鍵的本益比。
type ValuationsOutput struct {
	Items map[string]fundDomain.Valuation `json:"items"`
}

// ParseLimit 解析季數上限，空字串預設 4，允許 1..24。
func ParseLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultQuarterLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxQuarterLimit {
		return 0, &marketdata.ValidationError{Reasons: []string{fmt.Sprintf("limit must be an integer between 1 and %d", maxQuarterLimit)}}
	}
	return n, nil
}

// QueryUseCase 提供季報查詢與本益比計算。
type QueryUseCase struct {
	repo            Repository
	prices          PriceLookup
	source          Source
	providerEnabled bool
	now             func() time.Time
}

// NewQueryUseCase 建立查詢用例；providerEnabled 為 false 時不呼叫外部來源。
func NewQueryUseCase(repo Repository, prices PriceLookup, source Source, providerEnabled bool) *QueryUseCase {
	return &QueryUseCase{
		repo:            repo,
		prices:          prices,
		source:          source,
		providerEnabled: providerEnabled,
		now:             time.Now,
	}
}

// Fundamentals 回傳最近 limit 季的季報、公司概況與同步資訊。
func (u *QueryUseCase) Fundamentals(ctx context.Context, symbol string, limit int) (Report, error) {
	symbol = marketdata.NormalizeSymbol(symbol)
	if symbol == "" {
		return Report{}, &marketdata.ValidationError{Reasons: []string{"symbol is required"}}
	}
	if limit < 1 || limit > maxQuarterLimit {
		return Report{}, &marketdata.ValidationError{Reasons: []string{fmt.Sprintf("limit must be between 1 and %d", maxQuarterLimit)}}
	}

	quarters, err := u.repo.ListQuarters(ctx, symbol, limit)
	if err != nil {
		return Report{}, fmt.Errorf("list quarters: %w", err)
	}
	profile, err := u.repo.GetProfile(ctx, symbol)
	if err != nil {
		return Report{}, fmt.Errorf("get profile: %w", err)
	}
	overview := u.fetchOverview(ctx, symbol)

	price, err := u.latestClose(ctx, symbol)
	if err != nil {
		return Report{}, err
	}
	fetchedAt, err := u.repo.LatestFetchedAt(ctx, symbol)
	if err != nil {
		return Report{}, fmt.Errorf("latest fetched at: %w", err)
	}
	state, err := u.repo.GetSyncState(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("get sync state: %w", err)
	}
	syncStatus := state.Status
	if syncStatus == "" {
		syncStatus = fundDomain.StatusIdle
	}

	views := make([]QuarterView, 0, len(quarters))
	for _, q := range quarters {
		views = append(views, toQuarterView(q))
	}

	ov := OverviewView{
		Symbol:   symbol,
		Name:     profile.Name,
		Sector:   profile.Sector,
		Industry: profile.Industry,
	}
	if overview != nil {
		ov.Name = coalesce(overview.Name, profile.Name)
		ov.Sector = coalesce(overview.Sector, profile.Sector)
		ov.Industry = coalesce(overview.Industry, profile.Industry)
		ov.Exchange = overview.Exchange
		ov.Description = overview.Description
		ov.MarketCap = overview.MarketCap
	}
	if ov.MarketCap == nil && len(quarters) > 0 && quarters[0].SharesOutstanding != nil && price != nil {
		v := *quarters[0].SharesOutstanding * *price
		ov.MarketCap = &v
	}

	return Report{
		Symbol:   symbol,
		Quarters: views,
		Overview: ov,
		News:     []interface{}{},
		Meta: Meta{
			Provider:        providerName,
			ProviderEnabled: u.providerEnabled,
			LatestFetchedAt: fetchedAt,
			SyncStatus:      syncStatus,
		},
	}, nil
}

// Valuations 計算逗號分隔代號的 trailing 與 forward 本益比。
// trailing 以最新收盤價除以最新一季的 TTM EPS；forward 由外部來源提供。
func (u *QueryUseCase) Valuations(ctx context.Context, symbolsCSV string) (ValuationsOutput, error) {
	if strings.TrimSpace(symbolsCSV) == "" {
		return ValuationsOutput{}, &marketdata.ValidationError{Reasons: []string{"symbols is required"}}
	}
	out := ValuationsOutput{Items: map[string]fundDomain.Valuation{}}
	for _, symbol := range dedupeSymbols(strings.Split(symbolsCSV, ",")) {
		price, err := u.latestClose(ctx, symbol)
		if err != nil {
			return ValuationsOutput{}, err
		}
		var v fundDomain.Valuation
		latest, err := u.repo.ListQuarters(ctx, symbol, 1)
		if err != nil {
			return ValuationsOutput{}, fmt.Errorf("list quarters: %w", err)
		}
		if len(latest) > 0 {
			v.TrailingPE = fundDomain.PE(price, latest[0].EPSTTM)
		}
		if u.providerEnabled {
			fwd, err := u.source.FetchForwardPE(ctx, symbol, price)
			if err != nil {
				log.Printf("[Valuations] forward pe failed symbol=%s err=%v", symbol, err)
			} else {
				v.ForwardPE = fwd
			}
		}
		out.Items[symbol] = v
	}
	return out, nil
}

func (u *QueryUseCase) fetchOverview(ctx context.Context, symbol string) *fundDomain.Overview {
	if !u.providerEnabled {
		return nil
	}
	overview, err := u.source.FetchOverview(ctx, symbol)
	if err != nil {
		log.Printf("[Fundamentals] overview fetch failed symbol=%s err=%v", symbol, err)
		return nil
	}
	if overview != nil && overview.HasProfile() {
		p := fundDomain.Profile{Symbol: symbol, Name: overview.Name, Sector: overview.Sector, Industry: overview.Industry}
		if err := u.repo.SaveProfile(ctx, p); err != nil {
			log.Printf("[Fundamentals] save profile failed symbol=%s err=%v", symbol, err)
		}
	}
	return overview
}

func (u *QueryUseCase) latestClose(ctx context.Context, symbol string) (*float64, error) {
	bar, ok, err := u.prices.LatestBarOnOrBefore(ctx, symbol, u.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("latest price: %w", err)
	}
	if !ok || bar.Close <= 0 {
		return nil, nil
	}
	return fundDomain.Float64Ptr(bar.Close), nil
}

func toQuarterView(q fundDomain.Quarter) QuarterView {
	return QuarterView{
		PeriodEnd:         q.PeriodEnd,
		Revenue:           q.Revenue,
		GrossProfit:       q.GrossProfit,
		OperatingIncome:   q.OperatingIncome,
		NetIncome:         q.NetIncome,
		EPS:               q.EPS(),
		Cash:              q.Cash,
		Debt:              q.TotalDebt,
		NetCash:           q.NetCash(),
		TotalAssets:       q.TotalAssets,
		TotalLiabilities:  q.TotalLiabilities,
		SharesOutstanding: q.SharesOutstanding,
		EPSTTM:            q.EPSTTM,
		PETTM:             q.PETTM,
		PriceAsOf:         q.PriceAsOf,
		PriceClose:        q.PriceClose,
	}
}

func coalesce(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}
