package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stonx/internal/infrastructure/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Connect 建立 PostgreSQL 連線池；若未設定 DSN 則回傳 nil，呼叫端改用記憶體儲存。
func Connect(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	pingCtx, cancel := pingContext(ctx)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Status 回報資料庫狀態：memory（未啟用）、ok 或 error。
func Status(ctx context.Context, db *sql.DB) string {
	if db == nil {
		return "memory"
	}
	pingCtx, cancel := pingContext(ctx)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return "error"
	}
	return "ok"
}

func pingContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}
