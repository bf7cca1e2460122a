package fundamentals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fundDomain "stonx/internal/domain/fundamentals"
	"stonx/internal/domain/marketdata"
	"stonx/internal/infra/memory"
)

func TestParseLimit(t *testing.T) {
	n, err := ParseLimit("")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = ParseLimit("24")
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	for _, bad := range []string{"0", "25", "abc", "-1"} {
		_, err := ParseLimit(bad)
		assert.True(t, marketdata.IsValidationError(err), bad)
	}
}

func newQueryUseCase(store *memory.Store, source Source, enabled bool) *QueryUseCase {
	u := NewQueryUseCase(store, store, source, enabled)
	u.now = func() time.Time { return time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC) }
	return u
}

func TestQueryUseCase_Fundamentals(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	fetched := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	seedBars(t, store, "AAPL", marketdata.PriceBar{Date: "2024-08-30", Open: 1, High: 1, Low: 1, Close: 229})
	require.NoError(t, store.UpsertQuarters(ctx, "AAPL", []fundDomain.Quarter{
		{PeriodEnd: "2024-03-31", EPSBasic: fundDomain.Float64Ptr(1.53), FetchedAt: fetched},
		{
			PeriodEnd:         "2024-06-30",
			EPSBasic:          fundDomain.Float64Ptr(1.41),
			EPSDiluted:        fundDomain.Float64Ptr(1.40),
			Cash:              fundDomain.Float64Ptr(30),
			TotalDebt:         fundDomain.Float64Ptr(100),
			SharesOutstanding: fundDomain.Float64Ptr(10),
			FetchedAt:         fetched,
		},
		{PeriodEnd: "2023-12-31", FetchedAt: fetched},
	}))
	require.NoError(t, store.SaveProfile(ctx, fundDomain.Profile{Symbol: "AAPL", Name: fundDomain.StringPtr("Apple Inc.")}))

	source := &fakeSource{overview: &fundDomain.Overview{
		Sector:   fundDomain.StringPtr("Technology"),
		Exchange: fundDomain.StringPtr("NasdaqGS"),
	}}
	u := newQueryUseCase(store, source, true)

	report, err := u.Fundamentals(ctx, "aapl", 2)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", report.Symbol)
	require.Len(t, report.Quarters, 2)

	q := report.Quarters[0]
	assert.Equal(t, "2024-06-30", q.PeriodEnd)
	assert.Equal(t, 1.40, *q.EPS, "diluted eps preferred")
	assert.Equal(t, -70.0, *q.NetCash)
	assert.Equal(t, 1.53, *report.Quarters[1].EPS)

	assert.Equal(t, "Apple Inc.", *report.Overview.Name, "stored name used when overview has none")
	assert.Equal(t, "Technology", *report.Overview.Sector)
	assert.Equal(t, "NasdaqGS", *report.Overview.Exchange)
	require.NotNil(t, report.Overview.MarketCap)
	assert.Equal(t, 2290.0, *report.Overview.MarketCap, "shares * latest close")

	assert.NotNil(t, report.News)
	assert.Empty(t, report.News)
	assert.Equal(t, "Yahoo", report.Meta.Provider)
	assert.True(t, report.Meta.ProviderEnabled)
	assert.Equal(t, fundDomain.StatusIdle, report.Meta.SyncStatus)
	require.NotNil(t, report.Meta.LatestFetchedAt)
	assert.True(t, report.Meta.LatestFetchedAt.Equal(fetched))

	p, _ := store.GetProfile(ctx, "AAPL")
	assert.Equal(t, "Technology", *p.Sector, "overview written back to profile")
	assert.Equal(t, "Apple Inc.", *p.Name)
}

func TestQueryUseCase_FundamentalsProviderDisabled(t *testing.T) {
	store := memory.NewStore()
	source := &fakeSource{overview: &fundDomain.Overview{MarketCap: fundDomain.Float64Ptr(1e12)}}
	u := newQueryUseCase(store, source, false)

	report, err := u.Fundamentals(context.Background(), "MSFT", 4)
	require.NoError(t, err)
	assert.Empty(t, report.Quarters)
	assert.NotNil(t, report.Quarters)
	assert.Nil(t, report.Overview.MarketCap)
	assert.False(t, report.Meta.ProviderEnabled)
	assert.Nil(t, report.Meta.LatestFetchedAt)

	_, err = u.Fundamentals(context.Background(), "MSFT", 25)
	assert.True(t, marketdata.IsValidationError(err))
	_, err = u.Fundamentals(context.Background(), "  ", 4)
	assert.True(t, marketdata.IsValidationError(err))
}

func TestQueryUseCase_Valuations(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	seedBars(t, store, "AAPL", marketdata.PriceBar{Date: "2024-08-30", Open: 1, High: 1, Low: 1, Close: 220})
	seedBars(t, store, "MSFT", marketdata.PriceBar{Date: "2024-08-30", Open: 1, High: 1, Low: 1, Close: 400})
	require.NoError(t, store.UpsertQuarters(ctx, "AAPL", []fundDomain.Quarter{
		{PeriodEnd: "2024-03-31", EPSTTM: fundDomain.Float64Ptr(1)},
		{PeriodEnd: "2024-06-30", EPSTTM: fundDomain.Float64Ptr(5.5)},
	}))
	require.NoError(t, store.UpsertQuarters(ctx, "MSFT", []fundDomain.Quarter{
		{PeriodEnd: "2024-06-30", EPSTTM: fundDomain.Float64Ptr(-1)},
	}))

	source := &fakeSource{forwardPE: fundDomain.Float64Ptr(28.5)}
	u := newQueryUseCase(store, source, true)

	out, err := u.Valuations(ctx, "aapl, MSFT,,AAPL,TSLA")
	require.NoError(t, err)
	require.Len(t, out.Items, 3)

	aapl := out.Items["AAPL"]
	require.NotNil(t, aapl.TrailingPE)
	assert.InDelta(t, 40.0, *aapl.TrailingPE, 1e-9)
	assert.Equal(t, 28.5, *aapl.ForwardPE)

	assert.Nil(t, out.Items["MSFT"].TrailingPE, "negative ttm eps has no pe")
	assert.Nil(t, out.Items["TSLA"].TrailingPE)

	empty, err := u.Valuations(ctx, " , ")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	_, err = u.Valuations(ctx, "")
	assert.True(t, marketdata.IsValidationError(err))
}
