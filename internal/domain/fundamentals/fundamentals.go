package fundamentals

import (
	"errors"
	"sort"
	"time"
)

// SourceYahoo 為季報資料來源標記。
const SourceYahoo = "YAHOO"

// 同步狀態。
const (
	StatusIdle    = "idle"
	StatusRunning = "running"
	StatusError   = "error"
)

// Quarter 為單一季度的財報數字，以 (Symbol, PeriodEnd) 為鍵。
// 缺值以 nil 表示。
type Quarter struct {
	Symbol            string
	PeriodEnd         string // YYYY-MM-DD
	FiscalYear        int
	FiscalQuarter     int
	Currency          *string
	Revenue           *float64
	GrossProfit       *float64
	OperatingIncome   *float64
	NetIncome         *float64
	EPSBasic          *float64
	EPSDiluted        *float64
	TotalAssets       *float64
	TotalLiabilities  *float64
	Cash              *float64
	TotalDebt         *float64
	SharesOutstanding *float64

	// 同步時依日 K 回填。
	EPSTTM     *float64
	PriceClose *float64
	PriceAsOf  *string
	PETTM      *float64

	Source    string
	FetchedAt time.Time
}

// EPS 優先取稀釋 EPS。
func (q Quarter) EPS() *float64 {
	if q.EPSDiluted != nil {
		return q.EPSDiluted
	}
	return q.EPSBasic
}

// NetCash 為現金減負債，任一缺值時回傳 nil。
func (q Quarter) NetCash() *float64 {
	if q.Cash == nil || q.TotalDebt == nil {
		return nil
	}
	v := *q.Cash - *q.TotalDebt
	return &v
}

// Profile 為代號的公司基本資料。
type Profile struct {
	Symbol   string
	Name     *string
	Sector   *string
	Industry *string
}

// Overview 為即時抓取的公司概況。
type Overview struct {
	Name              *string
	Exchange          *string
	Sector            *string
	Industry          *string
	Description       *string
	MarketCap         *float64
	SharesOutstanding *float64
}

// HasProfile 判斷概況是否帶有可回寫的公司資料。
func (o Overview) HasProfile() bool {
	return o.Name != nil || o.Sector != nil || o.Industry != nil
}

// SyncState 為全域唯一的季報同步狀態。
type SyncState struct {
	Status    string
	LastRunAt *time.Time
	LastError *string
}

// Valuation 為單一代號的本益比。
type Valuation struct {
	TrailingPE *float64 `json:"trailingPe"`
	ForwardPE  *float64 `json:"forwardPe"`
}

// FillTTM 依季末日期排序後計算近四季 EPS 合計；前三季或窗口內有缺值時為 nil。
// 回傳依日期遞增排序的新切片。
func FillTTM(quarters []Quarter) []Quarter {
	out := append([]Quarter(nil), quarters...)
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodEnd < out[j].PeriodEnd })
	for i := range out {
		out[i].EPSTTM = nil
		if i < 3 {
			continue
		}
		sum, ok := 0.0, true
		for _, q := range out[i-3 : i+1] {
			eps := q.EPS()
			if eps == nil {
				ok = false
				break
			}
			sum += *eps
		}
		if ok {
			v := sum
			out[i].EPSTTM = &v
		}
	}
	return out
}

// PE 以股價除以 EPS；EPS 非正或缺值時為 nil。
func PE(price *float64, eps *float64) *float64 {
	if price == nil || eps == nil || *eps <= 0 || *price <= 0 {
		return nil
	}
	v := *price / *eps
	return &v
}

// QuarterOf 回傳日期所在的季度（1..4）。
func QuarterOf(t time.Time) int {
	return int(t.UTC().Month()-1)/3 + 1
}

// Float64Ptr 便於建立測試資料與轉換來源資料。
func Float64Ptr(v float64) *float64 { return &v }

// StringPtr 空字串回傳 nil。
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ErrRateLimited 表示外部來源回應流量限制，整批同步應中止。
var ErrRateLimited = errors.New("fundamentals source rate limited")
