package analysis

import (
	"encoding/json"
	"math/rand"
	"testing"

	domain "stonx/internal/domain/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(symbol string, ret, vol, rsi *float64) domain.SymbolMetrics {
	return domain.SymbolMetrics{
		Symbol:  symbol,
		Metrics: &domain.BasicMetrics{Return1M: ret, VolAnn: vol, RSI14: rsi},
	}
}

func TestComputeGroupInsights_Basic(t *testing.T) {
	g := ComputeGroupInsights([]domain.SymbolMetrics{
		row("AAPL", ptr(8.0), ptr(30.0), ptr(65.0)),
		row("MSFT", ptr(2.0), ptr(20.0), ptr(55.0)),
		row("NVDA", ptr(-4.0), ptr(50.0), ptr(40.0)),
	})

	assert.InDelta(t, 2.0, g.AvgReturn1M, 0.001)
	assert.InDelta(t, 33.33, g.AvgVolAnn, 0.001)
	assert.InDelta(t, 6.0, g.DispersionReturn1M, 0.001)
	assert.InDelta(t, 66.67, g.MomentumBreadth, 0.001)
	require.NotNil(t, g.TopPerformer)
	require.NotNil(t, g.BottomPerformer)
	assert.Equal(t, "AAPL", *g.TopPerformer)
	assert.Equal(t, "NVDA", *g.BottomPerformer)

	// 50 + 2*3 + 0.6667*20 - (33.333/80)*20 - (6/20)*15
	want := 50 + 6 + 13.3333 - 8.3333 - 4.5
	assert.InDelta(t, want, g.Score, 0.01)
	assert.Equal(t, "Modest positive returns, broad momentum, with moderate volatility, and some dispersion.", g.Summary)
}

func TestComputeGroupInsights_AllNull(t *testing.T) {
	g := ComputeGroupInsights([]domain.SymbolMetrics{
		{Symbol: "AAPL", Metrics: &domain.BasicMetrics{}},
		{Symbol: "FAIL", Metrics: nil},
	})
	assert.Equal(t, 50.0, g.Score)
	assert.Zero(t, g.AvgReturn1M)
	assert.Zero(t, g.AvgVolAnn)
	assert.Zero(t, g.DispersionReturn1M)
	assert.Zero(t, g.MomentumBreadth)
	assert.Nil(t, g.TopPerformer)
	assert.Nil(t, g.BottomPerformer)
	assert.Equal(t, "Weak or negative returns, narrow momentum, with low volatility, and tight dispersion.", g.Summary)

	empty := ComputeGroupInsights(nil)
	assert.Equal(t, 50.0, empty.Score)
}

func TestComputeGroupInsights_SingleValueHasNoDispersion(t *testing.T) {
	g := ComputeGroupInsights([]domain.SymbolMetrics{row("AAPL", ptr(12.0), nil, nil)})
	assert.Zero(t, g.DispersionReturn1M)
	assert.Equal(t, "AAPL", *g.TopPerformer)
	assert.Equal(t, "AAPL", *g.BottomPerformer)
	assert.Equal(t, 80.0, g.Score, "return component capped at +30")
}

func TestComputeGroupInsights_TieKeepsInputOrder(t *testing.T) {
	g := ComputeGroupInsights([]domain.SymbolMetrics{
		row("AAA", ptr(1.0), nil, nil),
		row("BBB", ptr(3.0), nil, nil),
		row("CCC", ptr(3.0), nil, nil),
		row("DDD", ptr(1.0), nil, nil),
	})
	assert.Equal(t, "BBB", *g.TopPerformer)
	assert.Equal(t, "DDD", *g.BottomPerformer)
}

func TestComputeGroupInsights_OrderInvariantAndBounded(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		rows := make([]domain.SymbolMetrics, 0, 6)
		for i := 0; i < 6; i++ {
			var ret, vol, rsi *float64
			if rnd.Intn(4) > 0 {
				ret = ptr(rnd.Float64()*200 - 100)
			}
			if rnd.Intn(4) > 0 {
				vol = ptr(rnd.Float64() * 200)
			}
			if rnd.Intn(4) > 0 {
				rsi = ptr(rnd.Float64() * 100)
			}
			rows = append(rows, row(string(rune('A'+i)), ret, vol, rsi))
		}
		g := ComputeGroupInsights(rows)
		assert.GreaterOrEqual(t, g.Score, 0.0)
		assert.LessOrEqual(t, g.Score, 100.0)

		shuffled := append([]domain.SymbolMetrics(nil), rows...)
		rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		s := ComputeGroupInsights(shuffled)
		assert.InDelta(t, g.Score, s.Score, 0.011)
		assert.InDelta(t, g.AvgReturn1M, s.AvgReturn1M, 0.011)
		assert.InDelta(t, g.MomentumBreadth, s.MomentumBreadth, 0.011)
	}
}

func TestGroupInsights_JSONRoundTrip(t *testing.T) {
	g := ComputeGroupInsights([]domain.SymbolMetrics{row("AAPL", ptr(1.5), ptr(22.0), ptr(51.0))})
	raw, err := json.Marshal(g)
	require.NoError(t, err)

	var back domain.GroupInsights
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, g, back)

	none := ComputeGroupInsights(nil)
	raw, err = json.Marshal(none)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"topPerformer":null`)
}
