package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "stonx/internal/domain/analysis"
)

type fakeQueryRepo struct {
	runs    map[string]domain.Run
	results map[string][]domain.SymbolResult
}

func (f fakeQueryRepo) GetRun(_ context.Context, id string) (domain.Run, error) {
	r, ok := f.runs[id]
	if !ok {
		return domain.Run{}, domain.ErrRunNotFound
	}
	return r, nil
}

func (f fakeQueryRepo) ListResults(_ context.Context, runID string) ([]domain.SymbolResult, error) {
	return append([]domain.SymbolResult(nil), f.results[runID]...), nil
}

func TestQueryUseCase_ListResultsRecomputesLegacyInsights(t *testing.T) {
	stored := &domain.SymbolInsights{Trend: domain.TrendBearish, Momentum: domain.MomentumWeak, Risk: domain.RiskHigh, Anomalies: []domain.Signal{}, Summary: "stored"}
	repo := fakeQueryRepo{
		runs: map[string]domain.Run{"r1": {ID: "r1"}},
		results: map[string][]domain.SymbolResult{"r1": {
			{Symbol: "MSFT", Metrics: domain.BasicMetrics{Price: ptr(100.0)}, Insights: stored},
			{Symbol: "AAPL", Metrics: domain.BasicMetrics{Return1M: ptr(8.0), Return3M: ptr(12.0), RSI14: ptr(75.0)}, Signals: []domain.Signal{domain.SignalRSIOverbought}, LegacySignals: true},
			{Symbol: "NVDA", Metrics: domain.BasicMetrics{Return1M: ptr(8.0)}, Signals: []domain.Signal{}},
		}},
	}
	u := NewQueryUseCase(repo)

	results, err := u.ListResults(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "AAPL", results[0].Symbol)
	require.NotNil(t, results[0].Insights)
	assert.Equal(t, domain.MomentumStrong, results[0].Insights.Momentum)
	assert.Equal(t, []domain.Signal{domain.SignalRSIOverbought}, results[0].Insights.Anomalies)

	assert.Equal(t, "MSFT", results[1].Symbol)
	assert.Same(t, stored, results[1].Insights)
	assert.NotNil(t, results[1].Signals)

	assert.Equal(t, "NVDA", results[2].Symbol)
	assert.Nil(t, results[2].Insights, "object payloads with null insights stay null")
}

func TestQueryUseCase_UnknownRun(t *testing.T) {
	u := NewQueryUseCase(fakeQueryRepo{})

	_, err := u.GetRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrRunNotFound))

	_, err = u.ListResults(context.Background(), " ")
	assert.True(t, errors.Is(err, domain.ErrRunNotFound))
}
