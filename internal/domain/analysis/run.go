package analysis

import (
	"errors"
	"time"
)

// ErrRunNotFound 表示查無分析批次。
var ErrRunNotFound = errors.New("run not found")

// Range 為分析期間（YYYY-MM-DD，含頭尾）。
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Request 為一次分析的原始請求。
type Request struct {
	GroupID string   `json:"groupId,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
	Range   Range    `json:"range"`
}

// RunParameters 儲存於批次上的請求與群組彙總。
type RunParameters struct {
	Request       Request        `json:"request"`
	GroupInsights *GroupInsights `json:"groupInsights,omitempty"`
}

// Run 為「一次分析」的批次紀錄。
type Run struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"createdAt"`
	Scope        string        `json:"scope"`
	ProviderUsed string        `json:"providerUsed"`
	Parameters   RunParameters `json:"parameters"`
}

// SymbolResult 為批次中單一標的的結果。
type SymbolResult struct {
	RunID    string          `json:"-"`
	Symbol   string          `json:"symbol"`
	Metrics  BasicMetrics    `json:"metrics"`
	Signals  []Signal        `json:"signals"`
	Insights *SymbolInsights `json:"insights"`
	// LegacySignals 表示儲存的 signals 為舊陣列格式。
	LegacySignals bool `json:"-"`
}

// GroupScoreSnapshot 為群組分數的歷史紀錄點。
type GroupScoreSnapshot struct {
	GroupID    string    `json:"groupId"`
	RunID      string    `json:"runId"`
	RecordedAt time.Time `json:"recordedAt"`
	Score      float64   `json:"score"`
	AvgReturn  float64   `json:"avgReturn1M"`
	AvgVolAnn  float64   `json:"avgVolAnn"`
	Breadth    float64   `json:"momentumBreadth"`
	Dispersion float64   `json:"dispersionReturn1M"`
}
