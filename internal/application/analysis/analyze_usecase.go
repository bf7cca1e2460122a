package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	mdapp "stonx/internal/application/marketdata"
	domain "stonx/internal/domain/analysis"
	"stonx/internal/domain/group"
	"stonx/internal/domain/marketdata"
)

// BarSource 提供已快取補齊的日 K。
type BarSource interface {
	EnsureBars(ctx context.Context, symbol, start, end string) (mdapp.EnsureResult, error)
	ProviderName() string
}

// GroupReader 讀取群組成員。
type GroupReader interface {
	GetGroup(ctx context.Context, id string) (group.Group, error)
}

// RunRepository 儲存分析批次與逐檔結果。
type RunRepository interface {
	SaveRun(ctx context.Context, run domain.Run, results []domain.SymbolResult) error
}

// ScoreRecorder 紀錄群組分數歷史。
type ScoreRecorder interface {
	RecordGroupScore(ctx context.Context, snap domain.GroupScoreSnapshot) error
}

// AnalyzeInput 為一次分析的輸入；GroupID 有值時忽略 Symbols。
type AnalyzeInput struct {
	GroupID string
	Symbols []string
	Range   domain.Range
}

// Failure 紀錄單一標的取價失敗原因，該標的仍會有全 null 的指標列。
type Failure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// AnalyzeOutput 為分析結果，Results 依輸入代號順序排列。
type AnalyzeOutput struct {
	RunID         string                `json:"runId"`
	Symbols       []string              `json:"symbols"`
	Results       []domain.SymbolResult `json:"results"`
	GroupInsights domain.GroupInsights  `json:"groupInsights"`
	Failures      []Failure             `json:"failures,omitempty"`
}

type AnalyzeUseCase struct {
	bars        BarSource
	groups      GroupReader
	runs        RunRepository
	recorder    ScoreRecorder
	concurrency int
	now         func() time.Time
	newID       func() string
}

// NewAnalyzeUseCase 建立分析用例；concurrency <= 0 時預設 4。
func NewAnalyzeUseCase(bars BarSource, groups GroupReader, runs RunRepository, recorder ScoreRecorder, concurrency int) *AnalyzeUseCase {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &AnalyzeUseCase{
		bars:        bars,
		groups:      groups,
		runs:        runs,
		recorder:    recorder,
		concurrency: concurrency,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func (u *AnalyzeUseCase) Execute(ctx context.Context, input AnalyzeInput) (AnalyzeOutput, error) {
	var out AnalyzeOutput

	symbols, scope, err := u.resolveSymbols(ctx, input)
	if err != nil {
		return out, err
	}
	start, err := marketdata.ParseDate(input.Range.Start)
	if err != nil {
		return out, &marketdata.ValidationError{Reasons: []string{"range.start: " + err.Error()}}
	}
	end, err := marketdata.ParseDate(input.Range.End)
	if err != nil {
		return out, &marketdata.ValidationError{Reasons: []string{"range.end: " + err.Error()}}
	}
	if start.After(end) {
		return out, &marketdata.ValidationError{Reasons: []string{"range.start must not be after range.end"}}
	}

	results := make([]domain.SymbolResult, len(symbols))
	var (
		mu       sync.Mutex
		failures []Failure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			res, err := u.bars.EnsureBars(gctx, symbol, input.Range.Start, input.Range.End)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Printf("[Analyze] bars failed symbol=%s err=%v", symbol, err)
				mu.Lock()
				failures = append(failures, Failure{Symbol: symbol, Reason: err.Error()})
				mu.Unlock()
			}
			results[i] = AnalyzeSymbol(symbol, res.Bars)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}

	rows := make([]domain.SymbolMetrics, len(results))
	for i := range results {
		rows[i] = domain.SymbolMetrics{Symbol: results[i].Symbol, Metrics: &results[i].Metrics}
	}
	gi := ComputeGroupInsights(rows)

	run := domain.Run{
		ID:           u.newID(),
		CreatedAt:    u.now().UTC(),
		Scope:        scope,
		ProviderUsed: u.bars.ProviderName(),
		Parameters: domain.RunParameters{
			Request: domain.Request{
				GroupID: input.GroupID,
				Symbols: input.Symbols,
				Range:   input.Range,
			},
			GroupInsights: &gi,
		},
	}
	for i := range results {
		results[i].RunID = run.ID
	}
	if err := u.runs.SaveRun(ctx, run, results); err != nil {
		return out, fmt.Errorf("save run: %w", err)
	}

	if input.GroupID != "" && u.recorder != nil {
		snap := domain.GroupScoreSnapshot{
			GroupID:    input.GroupID,
			RunID:      run.ID,
			RecordedAt: run.CreatedAt,
			Score:      gi.Score,
			AvgReturn:  gi.AvgReturn1M,
			AvgVolAnn:  gi.AvgVolAnn,
			Breadth:    gi.MomentumBreadth,
			Dispersion: gi.DispersionReturn1M,
		}
		if err := u.recorder.RecordGroupScore(ctx, snap); err != nil {
			log.Printf("[Analyze] record group score failed group=%s err=%v", input.GroupID, err)
		}
	}

	log.Printf("[Analyze] run=%s scope=%s symbols=%d failures=%d score=%.2f",
		run.ID, scope, len(symbols), len(failures), gi.Score)

	out = AnalyzeOutput{
		RunID:         run.ID,
		Symbols:       symbols,
		Results:       results,
		GroupInsights: gi,
		Failures:      sortFailures(failures, symbols),
	}
	return out, nil
}

// AnalyzeSymbol 以日 K 計算單一標的的指標、訊號與解讀。
func AnalyzeSymbol(symbol string, bars []marketdata.PriceBar) domain.SymbolResult {
	m := ComputeMetrics(bars)
	signals := BuildExtendedSignals(m)
	insights := ComputeSymbolInsights(m, signals)
	return domain.SymbolResult{
		Symbol:   symbol,
		Metrics:  m,
		Signals:  signals,
		Insights: &insights,
	}
}

func (u *AnalyzeUseCase) resolveSymbols(ctx context.Context, input AnalyzeInput) ([]string, string, error) {
	groupID := strings.TrimSpace(input.GroupID)
	switch {
	case groupID != "":
		if u.groups == nil {
			return nil, "", errors.New("group lookup is not configured")
		}
		g, err := u.groups.GetGroup(ctx, groupID)
		if err != nil {
			return nil, "", err
		}
		symbols := group.UniqueSymbols(g.Symbols)
		if len(symbols) == 0 {
			return nil, "", &marketdata.ValidationError{Reasons: []string{"group has no members"}}
		}
		return symbols, "group:" + g.ID, nil
	default:
		symbols := group.UniqueSymbols(input.Symbols)
		if len(symbols) == 0 {
			return nil, "", &marketdata.ValidationError{Reasons: []string{"groupId or symbols is required"}}
		}
		return symbols, "symbols:" + strings.Join(symbols, ","), nil
	}
}

// sortFailures 依輸入代號順序排列，讓輸出與並行排程無關。
func sortFailures(failures []Failure, symbols []string) []Failure {
	if len(failures) == 0 {
		return nil
	}
	bySymbol := make(map[string]Failure, len(failures))
	for _, f := range failures {
		bySymbol[f.Symbol] = f
	}
	out := make([]Failure, 0, len(failures))
	for _, s := range symbols {
		if f, ok := bySymbol[s]; ok {
			out = append(out, f)
		}
	}
	return out
}
