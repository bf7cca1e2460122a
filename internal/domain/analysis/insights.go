package analysis

// Trend 趨勢標籤。
type Trend string

const (
	TrendBullish  Trend = "Bullish"
	TrendBearish  Trend = "Bearish"
	TrendSideways Trend = "Sideways"
)

// Momentum 動能標籤。
type Momentum string

const (
	MomentumStrong   Momentum = "Strong"
	MomentumModerate Momentum = "Moderate"
	MomentumWeak     Momentum = "Weak"
)

// Risk 風險標籤。
type Risk string

const (
	RiskLow    Risk = "Low"
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

// SymbolInsights 為單一標的的質化判讀，每次分析重新計算。
type SymbolInsights struct {
	Trend     Trend    `json:"trend"`
	Momentum  Momentum `json:"momentum"`
	Risk      Risk     `json:"risk"`
	Anomalies []Signal `json:"anomalies"`
	Summary   string   `json:"summary"`
}

// GroupInsights 為一組標的的彙總統計與 0~100 分數。
type GroupInsights struct {
	Score              float64 `json:"score"`
	AvgReturn1M        float64 `json:"avgReturn1M"`
	AvgVolAnn          float64 `json:"avgVolAnn"`
	DispersionReturn1M float64 `json:"dispersionReturn1M"`
	MomentumBreadth    float64 `json:"momentumBreadth"`
	TopPerformer       *string `json:"topPerformer"`
	BottomPerformer    *string `json:"bottomPerformer"`
	Summary            string  `json:"summary"`
}

// SymbolMetrics 為群組彙總的輸入列。Metrics 為 nil 時視為所有欄位缺值。
type SymbolMetrics struct {
	Symbol  string
	Metrics *BasicMetrics
}
