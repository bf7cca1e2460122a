package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	analysisDomain "stonx/internal/domain/analysis"
	fundDomain "stonx/internal/domain/fundamentals"
	"stonx/internal/domain/group"
	"stonx/internal/domain/marketdata"
)

// Store 為本機與測試使用的記憶體資料庫，實作日 K 快取、群組、分析批次與季報的儲存介面。
type Store struct {
	mu      sync.RWMutex
	tickers map[string]marketdata.Ticker
	bars    map[string]map[string]marketdata.PriceBar // symbol -> date -> bar
	groups  map[string]group.Group
	runs    map[string]analysisDomain.Run
	results map[string][]analysisDomain.SymbolResult // runID -> results

	quarters  map[string]map[string]fundDomain.Quarter // symbol -> period_end -> quarter
	profiles  map[string]fundDomain.Profile
	syncState fundDomain.SyncState

	now func() time.Time
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{
		tickers: make(map[string]marketdata.Ticker),
		bars:    make(map[string]map[string]marketdata.PriceBar),
		groups:  make(map[string]group.Group),
		runs:    make(map[string]analysisDomain.Run),
		results: make(map[string][]analysisDomain.SymbolResult),

		quarters: make(map[string]map[string]fundDomain.Quarter),
		profiles: make(map[string]fundDomain.Profile),

		now: time.Now,
	}
}

// UpsertTicker 建立代號（已存在則略過）。
func (s *Store) UpsertTicker(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickers[symbol]; !ok {
		s.tickers[symbol] = marketdata.Ticker{Symbol: symbol, CreatedAt: s.now().UTC()}
	}
	return nil
}

// Tickers 依代號排序回傳所有已知代號。
func (s *Store) Tickers() []marketdata.Ticker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]marketdata.Ticker, 0, len(s.tickers))
	for _, t := range s.tickers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// BarsInRange 取得區間內日 K 並依日期排序。
func (s *Store) BarsInRange(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from, to := marketdata.DateKey(start), marketdata.DateKey(end)
	var out []marketdata.PriceBar
	for date, b := range s.bars[symbol] {
		if date < from || date > to {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ReplaceBars 刪除區間內既有日 K 後寫入新資料。
func (s *Store) ReplaceBars(ctx context.Context, symbol string, start, end time.Time, bars []marketdata.PriceBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	from, to := marketdata.DateKey(start), marketdata.DateKey(end)
	day, ok := s.bars[symbol]
	if !ok {
		day = make(map[string]marketdata.PriceBar)
		s.bars[symbol] = day
	}
	for date := range day {
		if date >= from && date <= to {
			delete(day, date)
		}
	}
	for _, b := range bars {
		day[b.Date] = b
	}
	return nil
}

// ListGroups 依名稱排序回傳群組。
func (s *Store) ListGroups(ctx context.Context) ([]group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]group.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, copyGroup(g))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetGroup(ctx context.Context, id string) (group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return group.Group{}, group.ErrGroupNotFound
	}
	return copyGroup(g), nil
}

func (s *Store) CreateGroup(ctx context.Context, g group.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID]; ok {
		return group.ErrGroupExists
	}
	s.groups[g.ID] = copyGroup(g)
	return nil
}

func (s *Store) UpsertGroup(ctx context.Context, g group.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = copyGroup(g)
	return nil
}

func (s *Store) ReplaceMembers(ctx context.Context, id string, symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return group.ErrGroupNotFound
	}
	g.Symbols = append([]string{}, symbols...)
	s.groups[id] = g
	return nil
}

func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return group.ErrGroupNotFound
	}
	delete(s.groups, id)
	return nil
}

// SaveRun 寫入批次與逐檔結果。
func (s *Store) SaveRun(ctx context.Context, run analysisDomain.Run, results []analysisDomain.SymbolResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	s.results[run.ID] = append([]analysisDomain.SymbolResult(nil), results...)
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (analysisDomain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return analysisDomain.Run{}, analysisDomain.ErrRunNotFound
	}
	return run, nil
}

// ListResults 依代號排序回傳批次結果。
func (s *Store) ListResults(ctx context.Context, runID string) ([]analysisDomain.SymbolResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]analysisDomain.SymbolResult(nil), s.results[runID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func copyGroup(g group.Group) group.Group {
	g.Symbols = append([]string{}, g.Symbols...)
	return g
}
