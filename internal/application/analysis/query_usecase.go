package analysis

import (
	"context"
	"sort"
	"strings"

	domain "stonx/internal/domain/analysis"
)

// RunQueryRepository 定義批次查詢介面，具體儲存層自行實作。
// ListResults 回傳的 Insights 可能為 nil（舊格式資料）。
type RunQueryRepository interface {
	GetRun(ctx context.Context, id string) (domain.Run, error)
	ListResults(ctx context.Context, runID string) ([]domain.SymbolResult, error)
}

// QueryUseCase 提供批次與逐檔結果查詢。
type QueryUseCase struct {
	repo RunQueryRepository
}

func NewQueryUseCase(repo RunQueryRepository) *QueryUseCase {
	return &QueryUseCase{repo: repo}
}

// GetRun 查詢單一批次；查無時回傳 domain.ErrRunNotFound。
func (u *QueryUseCase) GetRun(ctx context.Context, id string) (domain.Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Run{}, domain.ErrRunNotFound
	}
	return u.repo.GetRun(ctx, id)
}

// ListResults 依代號排序回傳批次結果，舊資料缺少的解讀以儲存的指標重算。
func (u *QueryUseCase) ListResults(ctx context.Context, runID string) ([]domain.SymbolResult, error) {
	if _, err := u.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	results, err := u.repo.ListResults(ctx, runID)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].Signals == nil {
			results[i].Signals = []domain.Signal{}
		}
		if results[i].LegacySignals && results[i].Insights == nil {
			ins := ComputeSymbolInsights(results[i].Metrics, results[i].Signals)
			results[i].Insights = &ins
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Symbol < results[j].Symbol
	})
	if results == nil {
		results = []domain.SymbolResult{}
	}
	return results, nil
}
