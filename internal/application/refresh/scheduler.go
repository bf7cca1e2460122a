package refresh

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"stonx/internal/application/analysis"
	mdapp "stonx/internal/application/marketdata"
	analysisDomain "stonx/internal/domain/analysis"
	"stonx/internal/domain/group"
	"stonx/internal/domain/marketdata"
)

// GroupLister 列出所有群組。
type GroupLister interface {
	ListGroups(ctx context.Context) ([]group.Group, error)
}

// BarEnsurer 補齊日 K 快取。
type BarEnsurer interface {
	EnsureBars(ctx context.Context, symbol, start, end string) (mdapp.EnsureResult, error)
}

// Analyzer 執行一次分析。
type Analyzer interface {
	Execute(ctx context.Context, input analysis.AnalyzeInput) (analysis.AnalyzeOutput, error)
}

// Notifier 推送刷新摘要。
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Options 控制排程行為。
type Options struct {
	Spec          string
	LookbackDays  int
	AnalyzeGroups bool
	// Notifier 為 nil 時不推送。
	Notifier Notifier
}

// Summary 為一次刷新的統計。
type Summary struct {
	Symbols       int
	Fetched       int
	SymbolErrors  int
	GroupsScored  int
	GroupErrors   int
	StartedAt     time.Time
	FinishedAt    time.Time
	LastRunFailed bool
}

// Scheduler 以 cron 定期補齊群組成員日 K，並可選擇重跑群組分析累積分數歷史。
type Scheduler struct {
	cron     *cron.Cron
	groups   GroupLister
	bars     BarEnsurer
	analyzer Analyzer
	opts     Options
	ctx      context.Context
	now      func() time.Time

	mu      sync.Mutex
	running bool
	last    Summary
}

// NewScheduler 建立刷新排程（cron 格式含秒）。
func NewScheduler(ctx context.Context, groups GroupLister, bars BarEnsurer, analyzer Analyzer, opts Options) *Scheduler {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 120
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		groups:   groups,
		bars:     bars,
		analyzer: analyzer,
		opts:     opts,
		ctx:      ctx,
		now:      time.Now,
	}
}

// Register 依設定註冊刷新工作。
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(s.opts.Spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[Refresh] scheduler started spec=%q", s.opts.Spec)
}

// Stop 停止排程並等待執行中的工作結束。
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[Refresh] scheduler stopped")
}

// LastSummary 回傳最近一次刷新的統計。
func (s *Scheduler) LastSummary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// RunNow 立即執行一次刷新；前一次尚未結束時直接略過。
func (s *Scheduler) RunNow() Summary {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("[Refresh] previous pass still running, skipped")
		return Summary{}
	}
	s.running = true
	s.mu.Unlock()

	sum := s.runOnce()

	s.mu.Lock()
	s.running = false
	s.last = sum
	s.mu.Unlock()
	return sum
}

func (s *Scheduler) runOnce() (sum Summary) {
	sum.StartedAt = s.now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Refresh] panic recovered: %v", r)
			sum.LastRunFailed = true
		}
		sum.FinishedAt = s.now()
	}()

	ctx := s.ctx
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		log.Printf("[Refresh] list groups failed: %v", err)
		sum.LastRunFailed = true
		return sum
	}

	var all []string
	for _, g := range groups {
		all = append(all, g.Symbols...)
	}
	symbols := group.UniqueSymbols(all)

	end := marketdata.TruncateDay(s.now())
	start := end.AddDate(0, 0, -s.opts.LookbackDays)
	startKey, endKey := marketdata.DateKey(start), marketdata.DateKey(end)

	sum.Symbols = len(symbols)
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			sum.LastRunFailed = true
			return sum
		}
		res, err := s.bars.EnsureBars(ctx, symbol, startKey, endKey)
		if err != nil {
			log.Printf("[Refresh] symbol=%s failed: %v", symbol, err)
			sum.SymbolErrors++
			continue
		}
		sum.Fetched += res.Fetched
	}

	var scores []groupScore
	if s.opts.AnalyzeGroups && s.analyzer != nil {
		for _, g := range groups {
			if len(g.Symbols) == 0 {
				continue
			}
			out, err := s.analyzer.Execute(ctx, analysis.AnalyzeInput{
				GroupID: g.ID,
				Range:   analysisDomain.Range{Start: startKey, End: endKey},
			})
			if err != nil {
				log.Printf("[Refresh] group=%s analyze failed: %v", g.ID, err)
				sum.GroupErrors++
				continue
			}
			sum.GroupsScored++
			scores = append(scores, groupScore{name: g.Name, score: out.GroupInsights.Score, summary: out.GroupInsights.Summary})
		}
	}

	log.Printf("[Refresh] done symbols=%d fetched=%d symbolErrors=%d groupsScored=%d groupErrors=%d",
		sum.Symbols, sum.Fetched, sum.SymbolErrors, sum.GroupsScored, sum.GroupErrors)

	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.Notify(ctx, buildDigest(sum, scores)); err != nil {
			log.Printf("[Refresh] notify failed: %v", err)
		}
	}
	return sum
}

type groupScore struct {
	name    string
	score   float64
	summary string
}

// buildDigest 產生刷新摘要文字，群組依分數由高到低。
func buildDigest(sum Summary, scores []groupScore) string {
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	var b strings.Builder
	fmt.Fprintf(&b, "stonx refresh: %d symbols, %d new bars", sum.Symbols, sum.Fetched)
	if sum.SymbolErrors > 0 {
		fmt.Fprintf(&b, ", %d failed", sum.SymbolErrors)
	}
	for _, gs := range scores {
		fmt.Fprintf(&b, "\n%s: %.2f", gs.name, gs.score)
		if gs.summary != "" {
			fmt.Fprintf(&b, " (%s)", gs.summary)
		}
	}
	return b.String()
}
