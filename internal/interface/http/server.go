package httpapi

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stonx/internal/application/analysis"
	fundapp "stonx/internal/application/fundamentals"
	"stonx/internal/application/groups"
	mdapp "stonx/internal/application/marketdata"
	"stonx/internal/application/refresh"
	"stonx/internal/infra/memory"
	"stonx/internal/infrastructure/config"
	"stonx/internal/infrastructure/external"
	"stonx/internal/infrastructure/notify"
	"stonx/internal/infrastructure/persistence/postgres"
	"stonx/internal/infrastructure/recorder"
)

const (
	errCodeBadRequest  = "BAD_REQUEST"
	errCodeNotFound    = "NOT_FOUND"
	errCodeGroupExists = "GROUP_EXISTS"
	errCodeInternal    = "INTERNAL_ERROR"
	serviceName        = "stonx-server"
	seedTimeout        = 5 * time.Second
)

// Version 於建置時以 -ldflags 覆寫。
var Version = "0.1.0"

// DataStore 為 API 所需的全部儲存介面，memory.Store 與 postgres.Repo 皆實作。
type DataStore interface {
	mdapp.BarRepository
	groups.Repository
	analysis.RunRepository
	analysis.RunQueryRepository
	fundapp.Repository
	fundapp.PriceLookup
}

var (
	_ DataStore = (*memory.Store)(nil)
	_ DataStore = (*postgres.Repo)(nil)
)

// Option 調整 Server 的外部相依（主要供測試注入）。
type Option func(*serverOptions)

type serverOptions struct {
	provider     mdapp.Provider
	recorder     recorder.Recorder
	fundamentals fundapp.Source
}

// WithProvider 指定日 K 來源，取代設定檔中的 provider。
func WithProvider(p mdapp.Provider) Option {
	return func(o *serverOptions) { o.provider = p }
}

// WithRecorder 指定分數歷史紀錄器。
func WithRecorder(r recorder.Recorder) Option {
	return func(o *serverOptions) { o.recorder = r }
}

// WithFundamentalsSource 指定季報與估值來源。
func WithFundamentalsSource(src fundapp.Source) Option {
	return func(o *serverOptions) { o.fundamentals = src }
}

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	db        *sql.DB
	store     DataStore
	groupsUC  *groups.UseCase
	analyzeUC *analysis.AnalyzeUseCase
	queryUC   *analysis.QueryUseCase
	pricesUC  *mdapp.PricesUseCase
	fundSync  *fundapp.SyncUseCase
	fundQuery *fundapp.QueryUseCase
	recorder  recorder.Recorder
	scheduler *refresh.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewServer 建立 API 伺服器；db 為 nil 時使用記憶體資料存儲。
func NewServer(cfg config.Config, db *sql.DB, opts ...Option) *Server {
	o := serverOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	var store DataStore
	if db != nil {
		store = postgres.NewRepo(db)
	} else {
		store = memory.NewStore()
	}

	provider := o.provider
	if provider == nil {
		p, err := external.NewProvider(cfg.MarketData)
		if err != nil {
			log.Printf("[HTTP] %v, falling back to stooq", err)
			p, _ = external.NewProvider(config.MarketDataConfig{Provider: "stooq", Timeout: 15 * time.Second})
		}
		provider = p
	}

	rec := o.recorder
	if rec == nil {
		rec = openRecorder(cfg.History)
	}

	fundSource := o.fundamentals
	if fundSource == nil {
		fundSource = external.NewFundamentalsSource(cfg.MarketData)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cache := mdapp.NewBarCache(store, provider)
	groupsUC := groups.NewUseCase(store, store)
	analyzeUC := analysis.NewAnalyzeUseCase(cache, store, store, rec, cfg.Analysis.Concurrency)

	s := &Server{
		engine:    gin.New(),
		cfg:       cfg,
		db:        db,
		store:     store,
		groupsUC:  groupsUC,
		analyzeUC: analyzeUC,
		queryUC:   analysis.NewQueryUseCase(store),
		pricesUC:  mdapp.NewPricesUseCase(cache),
		fundSync:  fundapp.NewSyncUseCase(fundSource, store, store, groupsUC, cfg.Fundamentals.RequestDelay),
		fundQuery: fundapp.NewQueryUseCase(store, store, fundSource, !cfg.MarketData.YahooDisabled),
		recorder:  rec,
		ctx:       ctx,
		cancel:    cancel,
	}
	refreshOpts := refresh.Options{
		Spec:          cfg.Refresh.Cron,
		LookbackDays:  cfg.Refresh.LookbackDays,
		AnalyzeGroups: cfg.Refresh.AnalyzeGroups,
	}
	if cfg.Notifier.Telegram.Enabled {
		refreshOpts.Notifier = notify.NewTelegramClient(cfg.Notifier.Telegram)
	}
	s.scheduler = refresh.NewScheduler(ctx, store, cache, analyzeUC, refreshOpts)

	seedCtx, seedCancel := context.WithTimeout(ctx, seedTimeout)
	defer seedCancel()
	if err := groupsUC.Seed(seedCtx); err != nil {
		log.Printf("[HTTP] warning: seed groups failed: %v", err)
	}

	s.engine.Use(s.ginLogger(), gin.Recovery(), corsMiddleware())
	s.registerRoutes()
	return s
}

func openRecorder(cfg config.HistoryConfig) recorder.Recorder {
	if cfg.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.SQLitePath)
	if err != nil {
		log.Printf("[HTTP] warning: score history disabled: %v", err)
		return recorder.NewNoopRecorder()
	}
	return rec
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// StartBackground 依設定啟動定期刷新。
func (s *Server) StartBackground() error {
	if !s.cfg.Refresh.Enabled {
		return nil
	}
	if err := s.scheduler.Register(); err != nil {
		return err
	}
	s.scheduler.Start()
	return nil
}

// Close 停止背景工作並釋放紀錄器。
func (s *Server) Close() error {
	s.cancel()
	if s.cfg.Refresh.Enabled {
		s.scheduler.Stop()
	}
	return s.recorder.Close()
}
