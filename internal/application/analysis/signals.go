package analysis

import (
	domain "stonx/internal/domain/analysis"
)

const (
	rsiOverbought      = 70
	rsiOversold        = 30
	momentumThreshold  = 5
	drawdownElevatedAt = -35
)

// BuildSignals 產生最小規則集：RSI 超買/超賣與一個月動能正/負。
func BuildSignals(m domain.BasicMetrics) []domain.Signal {
	signals := []domain.Signal{}
	if s, ok := rsiSignal(m); ok {
		signals = append(signals, s)
	}
	if m.Return1M != nil {
		if *m.Return1M >= momentumThreshold {
			signals = append(signals, domain.SignalMomentumPos)
		} else if *m.Return1M <= -momentumThreshold {
			signals = append(signals, domain.SignalMomentumNeg)
		}
	}
	return signals
}

// BuildExtendedSignals 為分析流程使用的標準字彙：
// 負動能以 MOMENTUM_NEG_LAST_MONTH 表示，並加上 DRAWDOWN_ELEVATED。
func BuildExtendedSignals(m domain.BasicMetrics) []domain.Signal {
	signals := []domain.Signal{}
	if s, ok := rsiSignal(m); ok {
		signals = append(signals, s)
	}
	if m.Return1M != nil {
		if *m.Return1M >= momentumThreshold {
			signals = append(signals, domain.SignalMomentumPos)
		} else if *m.Return1M <= -momentumThreshold {
			signals = append(signals, domain.SignalMomentumNegLastMonth)
		}
	}
	if m.MaxDrawdown != nil && *m.MaxDrawdown <= drawdownElevatedAt {
		signals = append(signals, domain.SignalDrawdownElevated)
	}
	return signals
}

func rsiSignal(m domain.BasicMetrics) (domain.Signal, bool) {
	if m.RSI14 == nil {
		return "", false
	}
	if *m.RSI14 >= rsiOverbought {
		return domain.SignalRSIOverbought, true
	}
	if *m.RSI14 <= rsiOversold {
		return domain.SignalRSIOversold, true
	}
	return "", false
}
