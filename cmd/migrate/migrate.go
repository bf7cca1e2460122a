package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	createLedgerSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	selectAppliedSQL = `SELECT version FROM schema_migrations;`
	insertAppliedSQL = `INSERT INTO schema_migrations (version) VALUES ($1);`
)

// migrationFile 為單一 SQL 檔，Version 取自檔名（不含副檔名）。
type migrationFile struct {
	Version string
	SQL     string
}

// loadMigrations 依檔名字典序讀取目錄內的 .sql 檔。
func loadMigrations(dir string) ([]migrationFile, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("解析 migrations 路徑失敗: %w", err)
	}
	if _, err := os.Stat(absDir); err != nil {
		return nil, fmt.Errorf("migrations 目錄不存在: %w", err)
	}
	paths, err := filepath.Glob(filepath.Join(absDir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("讀取 migrations 失敗: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("找不到任何 .sql migration 檔案: %s", absDir)
	}
	sort.Strings(paths)

	files := make([]migrationFile, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("讀取檔案 %s 失敗: %w", p, err)
		}
		files = append(files, migrationFile{
			Version: strings.TrimSuffix(filepath.Base(p), ".sql"),
			SQL:     string(raw),
		})
	}
	return files, nil
}

type migrator struct {
	db *sql.DB
}

func (m *migrator) appliedVersions(ctx context.Context) (map[string]struct{}, error) {
	if _, err := m.db.ExecContext(ctx, createLedgerSQL); err != nil {
		return nil, fmt.Errorf("建立 schema_migrations 失敗: %w", err)
	}
	rows, err := m.db.QueryContext(ctx, selectAppliedSQL)
	if err != nil {
		return nil, fmt.Errorf("讀取已套用版本失敗: %w", err)
	}
	defer rows.Close()

	applied := map[string]struct{}{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = struct{}{}
	}
	return applied, rows.Err()
}

// Apply 依序套用尚未紀錄的檔案，每個檔案與其紀錄在同一交易內完成。
func (m *migrator) Apply(ctx context.Context, files []migrationFile) (int, error) {
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, f := range files {
		if _, ok := applied[f.Version]; ok {
			continue
		}
		log.Printf("[Migrate] applying %s", f.Version)
		if err := m.applyOne(ctx, f); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (m *migrator) applyOne(ctx context.Context, f migrationFile) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, f.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("執行 %s 失敗: %w", f.Version, err)
	}
	if _, err := tx.ExecContext(ctx, insertAppliedSQL, f.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("紀錄 %s 失敗: %w", f.Version, err)
	}
	return tx.Commit()
}
