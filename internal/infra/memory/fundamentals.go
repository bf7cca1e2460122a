package memory

import (
	"context"
	"sort"
	"time"

	fundDomain "stonx/internal/domain/fundamentals"
	"stonx/internal/domain/marketdata"
)

// LatestBarOnOrBefore 取指定日期（含）以前最近一筆日 K。
func (s *Store) LatestBarOnOrBefore(ctx context.Context, symbol string, date time.Time) (marketdata.PriceBar, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit := marketdata.DateKey(date)
	var (
		best  marketdata.PriceBar
		found bool
	)
	for d, b := range s.bars[symbol] {
		if d > limit {
			continue
		}
		if !found || d > best.Date {
			best, found = b, true
		}
	}
	return best, found, nil
}

// UpsertQuarters 以季末日期覆寫季報。
func (s *Store) UpsertQuarters(ctx context.Context, symbol string, quarters []fundDomain.Quarter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDate, ok := s.quarters[symbol]
	if !ok {
		byDate = make(map[string]fundDomain.Quarter)
		s.quarters[symbol] = byDate
	}
	for _, q := range quarters {
		q.Symbol = symbol
		byDate[q.PeriodEnd] = q
	}
	return nil
}

// ListQuarters 依季末日期遞減回傳最多 limit 筆；limit <= 0 時全部回傳。
func (s *Store) ListQuarters(ctx context.Context, symbol string, limit int) ([]fundDomain.Quarter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]fundDomain.Quarter, 0, len(s.quarters[symbol]))
	for _, q := range s.quarters[symbol] {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodEnd > out[j].PeriodEnd })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) LatestFetchedAt(ctx context.Context, symbol string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *time.Time
	for _, q := range s.quarters[symbol] {
		if q.FetchedAt.IsZero() {
			continue
		}
		if latest == nil || q.FetchedAt.After(*latest) {
			t := q.FetchedAt
			latest = &t
		}
	}
	return latest, nil
}

// GetProfile 回傳公司資料；未知代號回傳只有 Symbol 的零值。
func (s *Store) GetProfile(ctx context.Context, symbol string) (fundDomain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[symbol]; ok {
		return p, nil
	}
	return fundDomain.Profile{Symbol: symbol}, nil
}

// SaveProfile 僅覆寫非 nil 欄位，並確保代號存在。
func (s *Store) SaveProfile(ctx context.Context, p fundDomain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickers[p.Symbol]; !ok {
		s.tickers[p.Symbol] = marketdata.Ticker{Symbol: p.Symbol, CreatedAt: s.now().UTC()}
	}
	cur := s.profiles[p.Symbol]
	cur.Symbol = p.Symbol
	if p.Name != nil {
		cur.Name = p.Name
	}
	if p.Sector != nil {
		cur.Sector = p.Sector
	}
	if p.Industry != nil {
		cur.Industry = p.Industry
	}
	s.profiles[p.Symbol] = cur
	return nil
}

func (s *Store) GetSyncState(ctx context.Context) (fundDomain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncState, nil
}

func (s *Store) SaveSyncState(ctx context.Context, st fundDomain.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncState = st
	return nil
}
