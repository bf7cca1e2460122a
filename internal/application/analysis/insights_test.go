package analysis

import (
	"strings"
	"testing"

	domain "stonx/internal/domain/analysis"

	"github.com/stretchr/testify/assert"
)

func baseMetrics() domain.BasicMetrics {
	return domain.BasicMetrics{
		Price:        ptr(100.0),
		Return1D:     ptr(0.0),
		Return5D:     ptr(0.0),
		Return1M:     ptr(0.0),
		Return3M:     ptr(0.0),
		VolAnn:       ptr(20.0),
		MaxDrawdown:  ptr(-10.0),
		SMA20:        ptr(95.0),
		SMA50:        ptr(90.0),
		RSI14:        ptr(50.0),
		VolumeZScore: ptr(0.0),
	}
}

func TestComputeSymbolInsights_BullishHighRisk(t *testing.T) {
	m := baseMetrics()
	m.Price, m.SMA20, m.SMA50 = ptr(120.0), ptr(110.0), ptr(100.0)
	m.Return1M, m.Return3M, m.RSI14 = ptr(6.0), ptr(12.0), ptr(60.0)
	m.VolAnn, m.MaxDrawdown = ptr(55.0), ptr(-15.0)

	in := ComputeSymbolInsights(m, nil)
	assert.Equal(t, domain.TrendBullish, in.Trend)
	assert.Equal(t, domain.MomentumStrong, in.Momentum)
	assert.Equal(t, domain.RiskHigh, in.Risk)
	assert.Contains(t, strings.ToLower(in.Summary), "bullish")
	assert.Empty(t, in.Anomalies)
	assert.Equal(t, "Bullish trend with strong momentum; risk high.", in.Summary)
}

func TestComputeSymbolInsights_BearishLowRisk(t *testing.T) {
	m := baseMetrics()
	m.Price, m.SMA20, m.SMA50 = ptr(80.0), ptr(90.0), ptr(100.0)
	m.Return1M, m.Return3M, m.RSI14 = ptr(-2.0), ptr(-4.0), ptr(40.0)
	m.VolAnn, m.MaxDrawdown = ptr(18.0), ptr(-10.0)

	in := ComputeSymbolInsights(m, []domain.Signal{})
	assert.Equal(t, domain.TrendBearish, in.Trend)
	assert.Equal(t, domain.MomentumWeak, in.Momentum)
	assert.Equal(t, domain.RiskLow, in.Risk)
}

func TestComputeSymbolInsights_AnomaliesAndSummary(t *testing.T) {
	m := baseMetrics()
	m.VolumeZScore = ptr(2.5)
	m.Return1M, m.Return3M, m.RSI14 = ptr(-6.0), ptr(-8.0), ptr(35.0)

	in := ComputeSymbolInsights(m, []domain.Signal{domain.SignalMomentumNegLastMonth})
	assert.Contains(t, in.Anomalies, domain.SignalVolumeSpike)
	assert.Contains(t, in.Anomalies, domain.SignalMomentumNegLastMonth)
	assert.Contains(t, strings.ToLower(in.Summary), "notable")
	assert.True(t, strings.HasSuffix(in.Summary, " Notable: volume spike."), in.Summary)
}

func TestComputeSymbolInsights_AnomalyOrder(t *testing.T) {
	m := baseMetrics()
	m.VolumeZScore = ptr(-3.0)
	m.RSI14 = ptr(75.0)
	m.MaxDrawdown = ptr(-40.0)

	in := ComputeSymbolInsights(m, []domain.Signal{domain.SignalMomentumNegLastMonth, domain.SignalMomentumPos})
	assert.Equal(t, []domain.Signal{
		domain.SignalVolumeDrop,
		domain.SignalRSIOverbought,
		domain.SignalDrawdownElevated,
		domain.SignalMomentumNegLastMonth,
	}, in.Anomalies)
	assert.Equal(t, domain.RiskHigh, in.Risk)
	assert.Contains(t, in.Summary, "Notable: volume drop.")
}

func TestComputeSymbolInsights_TrendFallback(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(m *domain.BasicMetrics)
		trend domain.Trend
	}{
		{"sma20 missing uses sma50 and 3m return", func(m *domain.BasicMetrics) {
			m.SMA20 = nil
			m.Return3M = ptr(3.0)
		}, domain.TrendBullish},
		{"mixed averages fall back to bearish", func(m *domain.BasicMetrics) {
			m.Price, m.SMA20, m.SMA50 = ptr(90.0), ptr(110.0), ptr(100.0)
			m.Return3M = ptr(-1.0)
		}, domain.TrendBearish},
		{"mixed averages without confirming return", func(m *domain.BasicMetrics) {
			m.Price, m.SMA20, m.SMA50 = ptr(105.0), ptr(110.0), ptr(100.0)
			m.Return3M = ptr(-1.0)
		}, domain.TrendSideways},
		{"no averages", func(m *domain.BasicMetrics) {
			m.SMA20, m.SMA50 = nil, nil
		}, domain.TrendSideways},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := baseMetrics()
			tc.edit(&m)
			assert.Equal(t, tc.trend, ComputeSymbolInsights(m, nil).Trend)
		})
	}
}

func TestComputeSymbolInsights_Defaults(t *testing.T) {
	in := ComputeSymbolInsights(domain.BasicMetrics{}, nil)
	assert.Equal(t, domain.TrendSideways, in.Trend)
	assert.Equal(t, domain.MomentumModerate, in.Momentum)
	assert.Equal(t, domain.RiskMedium, in.Risk)
	assert.NotNil(t, in.Anomalies)
	assert.Empty(t, in.Anomalies)
	assert.Equal(t, "Sideways trend with moderate momentum; risk medium.", in.Summary)
}

func TestBuildSignals(t *testing.T) {
	cases := []struct {
		name     string
		m        domain.BasicMetrics
		basic    []domain.Signal
		extended []domain.Signal
	}{
		{
			name:     "empty metrics",
			m:        domain.BasicMetrics{},
			basic:    []domain.Signal{},
			extended: []domain.Signal{},
		},
		{
			name:     "overbought with positive momentum",
			m:        domain.BasicMetrics{RSI14: ptr(70.0), Return1M: ptr(5.0)},
			basic:    []domain.Signal{domain.SignalRSIOverbought, domain.SignalMomentumPos},
			extended: []domain.Signal{domain.SignalRSIOverbought, domain.SignalMomentumPos},
		},
		{
			name:     "oversold negative momentum deep drawdown",
			m:        domain.BasicMetrics{RSI14: ptr(30.0), Return1M: ptr(-5.0), MaxDrawdown: ptr(-35.0)},
			basic:    []domain.Signal{domain.SignalRSIOversold, domain.SignalMomentumNeg},
			extended: []domain.Signal{domain.SignalRSIOversold, domain.SignalMomentumNegLastMonth, domain.SignalDrawdownElevated},
		},
		{
			name:     "volume extremes are not signals",
			m:        domain.BasicMetrics{VolumeZScore: ptr(3.5)},
			basic:    []domain.Signal{},
			extended: []domain.Signal{},
		},
		{
			name:     "neutral",
			m:        domain.BasicMetrics{RSI14: ptr(50.0), Return1M: ptr(4.99), MaxDrawdown: ptr(-34.99)},
			basic:    []domain.Signal{},
			extended: []domain.Signal{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.basic, BuildSignals(tc.m))
			assert.Equal(t, tc.extended, BuildExtendedSignals(tc.m))
		})
	}
}
