package analysis

import (
	"fmt"
	"strings"

	domain "stonx/internal/domain/analysis"
)

// ComputeSymbolInsights 依指標與外部訊號判讀趨勢、動能、風險與異常。
func ComputeSymbolInsights(m domain.BasicMetrics, signals []domain.Signal) domain.SymbolInsights {
	trend := classifyTrend(m)
	momentum := classifyMomentum(m)
	risk := classifyRisk(m)
	anomalies := detectAnomalies(m, signals)

	return domain.SymbolInsights{
		Trend:     trend,
		Momentum:  momentum,
		Risk:      risk,
		Anomalies: anomalies,
		Summary:   buildSymbolSummary(trend, momentum, risk, anomalies),
	}
}

func hasAll(values ...*float64) bool {
	for _, v := range values {
		if v == nil {
			return false
		}
	}
	return true
}

// classifyTrend 先看均線排列，無法判定時才以 SMA50 + 三個月報酬補判。
func classifyTrend(m domain.BasicMetrics) domain.Trend {
	trend := domain.TrendSideways
	if hasAll(m.Price, m.SMA20, m.SMA50) {
		price, sma20, sma50 := *m.Price, *m.SMA20, *m.SMA50
		if price > sma20 && sma20 > sma50 {
			trend = domain.TrendBullish
		} else if price < sma20 && sma20 < sma50 {
			trend = domain.TrendBearish
		}
	}
	if trend == domain.TrendSideways && hasAll(m.Price, m.SMA50, m.Return3M) {
		price, sma50, r3m := *m.Price, *m.SMA50, *m.Return3M
		if price > sma50 && r3m > 0 {
			trend = domain.TrendBullish
		} else if price < sma50 && r3m < 0 {
			trend = domain.TrendBearish
		}
	}
	return trend
}

func classifyMomentum(m domain.BasicMetrics) domain.Momentum {
	if !hasAll(m.Return1M, m.Return3M, m.RSI14) {
		return domain.MomentumModerate
	}
	r1m, r3m, rsi := *m.Return1M, *m.Return3M, *m.RSI14
	switch {
	case r1m > 0 && r3m > 0 && rsi >= 55:
		return domain.MomentumStrong
	case r1m < 0 && r3m < 0 && rsi <= 45:
		return domain.MomentumWeak
	}
	return domain.MomentumModerate
}

func classifyRisk(m domain.BasicMetrics) domain.Risk {
	if !hasAll(m.VolAnn, m.MaxDrawdown) {
		return domain.RiskMedium
	}
	vol, dd := *m.VolAnn, *m.MaxDrawdown
	switch {
	case vol >= 45 || dd <= drawdownElevatedAt:
		return domain.RiskHigh
	case vol <= 25 && dd >= -20:
		return domain.RiskLow
	}
	return domain.RiskMedium
}

// detectAnomalies 依固定順序加入，第一筆即摘要中提到的重點。
func detectAnomalies(m domain.BasicMetrics, signals []domain.Signal) []domain.Signal {
	anomalies := []domain.Signal{}
	if m.VolumeZScore != nil {
		if *m.VolumeZScore >= 2 {
			anomalies = append(anomalies, domain.SignalVolumeSpike)
		} else if *m.VolumeZScore <= -2 {
			anomalies = append(anomalies, domain.SignalVolumeDrop)
		}
	}
	if s, ok := rsiSignal(m); ok {
		anomalies = append(anomalies, s)
	}
	if m.MaxDrawdown != nil && *m.MaxDrawdown <= drawdownElevatedAt {
		anomalies = append(anomalies, domain.SignalDrawdownElevated)
	}
	if domain.ContainsSignal(signals, domain.SignalMomentumNegLastMonth) {
		anomalies = append(anomalies, domain.SignalMomentumNegLastMonth)
	}
	return anomalies
}

func buildSymbolSummary(trend domain.Trend, momentum domain.Momentum, risk domain.Risk, anomalies []domain.Signal) string {
	summary := fmt.Sprintf("%s trend with %s momentum; risk %s.",
		trend, strings.ToLower(string(momentum)), strings.ToLower(string(risk)))
	if len(anomalies) > 0 {
		words := strings.ToLower(strings.ReplaceAll(string(anomalies[0]), "_", " "))
		summary += fmt.Sprintf(" Notable: %s.", words)
	}
	return summary
}
