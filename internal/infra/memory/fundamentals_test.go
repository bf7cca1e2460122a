package memory

import (
	"context"
	"testing"
	"time"

	fundDomain "stonx/internal/domain/fundamentals"
	"stonx/internal/domain/marketdata"
)

func TestStore_LatestBarOnOrBefore(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	start, _ := marketdata.ParseDate("2024-03-01")
	end, _ := marketdata.ParseDate("2024-03-31")
	_ = s.ReplaceBars(ctx, "AAPL", start, end, []marketdata.PriceBar{
		{Date: "2024-03-01", Close: 1},
		{Date: "2024-03-08", Close: 2},
		{Date: "2024-03-15", Close: 3},
	})

	on, _ := marketdata.ParseDate("2024-03-10")
	bar, ok, err := s.LatestBarOnOrBefore(ctx, "AAPL", on)
	if err != nil || !ok || bar.Date != "2024-03-08" {
		t.Fatalf("unexpected bar %+v ok=%v err=%v", bar, ok, err)
	}
	before, _ := marketdata.ParseDate("2024-02-01")
	if _, ok, _ := s.LatestBarOnOrBefore(ctx, "AAPL", before); ok {
		t.Fatalf("expected no bar before range")
	}
}

func TestStore_Quarters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	t1 := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	_ = s.UpsertQuarters(ctx, "AAPL", []fundDomain.Quarter{
		{PeriodEnd: "2024-03-31", FetchedAt: t1},
		{PeriodEnd: "2023-12-31", FetchedAt: t1},
	})
	_ = s.UpsertQuarters(ctx, "AAPL", []fundDomain.Quarter{
		{PeriodEnd: "2024-03-31", Revenue: fundDomain.Float64Ptr(10), FetchedAt: t2},
		{PeriodEnd: "2024-06-30", FetchedAt: t2},
	})

	all, _ := s.ListQuarters(ctx, "AAPL", 0)
	if len(all) != 3 || all[0].PeriodEnd != "2024-06-30" || all[2].PeriodEnd != "2023-12-31" {
		t.Fatalf("unexpected quarters %+v", all)
	}
	top, _ := s.ListQuarters(ctx, "AAPL", 2)
	if len(top) != 2 || top[1].Revenue == nil || *top[1].Revenue != 10 || top[1].Symbol != "AAPL" {
		t.Fatalf("expected overwritten quarter, got %+v", top)
	}
	latest, _ := s.LatestFetchedAt(ctx, "AAPL")
	if latest == nil || !latest.Equal(t2) {
		t.Fatalf("unexpected latest fetched %v", latest)
	}
	if none, _ := s.LatestFetchedAt(ctx, "MSFT"); none != nil {
		t.Fatalf("expected nil for unknown symbol")
	}
}

func TestStore_ProfileAndSyncState(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	p, _ := s.GetProfile(ctx, "AAPL")
	if p.Symbol != "AAPL" || p.Name != nil {
		t.Fatalf("unexpected empty profile %+v", p)
	}
	_ = s.SaveProfile(ctx, fundDomain.Profile{Symbol: "AAPL", Name: fundDomain.StringPtr("Apple"), Sector: fundDomain.StringPtr("Tech")})
	_ = s.SaveProfile(ctx, fundDomain.Profile{Symbol: "AAPL", Sector: fundDomain.StringPtr("Technology")})
	p, _ = s.GetProfile(ctx, "AAPL")
	if *p.Name != "Apple" || *p.Sector != "Technology" || p.Industry != nil {
		t.Fatalf("expected partial overwrite, got %+v", p)
	}
	if len(s.Tickers()) != 1 {
		t.Fatalf("expected ticker created")
	}

	st, _ := s.GetSyncState(ctx)
	if st.Status != "" {
		t.Fatalf("expected empty state, got %+v", st)
	}
	_ = s.SaveSyncState(ctx, fundDomain.SyncState{Status: fundDomain.StatusRunning, LastRunAt: &t0})
	st, _ = s.GetSyncState(ctx)
	if st.Status != fundDomain.StatusRunning || !st.LastRunAt.Equal(t0) {
		t.Fatalf("unexpected state %+v", st)
	}
}

var t0 = time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
