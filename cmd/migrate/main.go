package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	_ "github.com/lib/pq"

	"stonx/internal/infrastructure/config"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	migrationsPath := flag.String("dir", "db/migrations", "path to migrations directory")
	status := flag.Bool("status", false, "list migrations and whether they are applied, without applying")
	flag.Parse()

	if err := run(*cfgPath, *migrationsPath, *status); err != nil {
		log.Fatalf("[Migrate] %v", err)
	}
}

func run(cfgPath, dir string, statusOnly bool) error {
	// DB_DSN 環境變數會覆寫設定檔
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return fmt.Errorf("讀取組態失敗: %w", err)
	}
	if cfg.DB.DSN == "" {
		return fmt.Errorf("db.dsn 未設定（可用 DB_DSN），無法執行 migration")
	}

	files, err := loadMigrations(dir)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("連線資料庫失敗: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := &migrator{db: db}
	if statusOnly {
		applied, err := m.appliedVersions(ctx)
		if err != nil {
			return err
		}
		for _, f := range files {
			mark := "pending"
			if _, ok := applied[f.Version]; ok {
				mark = "applied"
			}
			fmt.Printf("%-8s %s\n", mark, f.Version)
		}
		return nil
	}

	n, err := m.Apply(ctx, files)
	if err != nil {
		return err
	}
	fmt.Printf("Migration 完成，本次套用 %d 個檔案\n", n)
	return nil
}
