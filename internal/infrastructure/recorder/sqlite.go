package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	analysisDomain "stonx/internal/domain/analysis"
)

// SQLiteRecorder 將群組分數寫入 SQLite。
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder 開啟（或建立）SQLite 並建立資料表。
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[Recorder] sqlite opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS group_scores (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			group_id     TEXT NOT NULL,
			run_id       TEXT NOT NULL,
			recorded_at  INTEGER NOT NULL,
			score        REAL NOT NULL,
			avg_return   REAL NOT NULL,
			avg_vol_ann  REAL NOT NULL,
			breadth      REAL NOT NULL,
			dispersion   REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_group_scores_group ON group_scores(group_id, recorded_at)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordGroupScore(ctx context.Context, snap analysisDomain.GroupScoreSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recorded := snap.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO group_scores
		(group_id, run_id, recorded_at, score, avg_return, avg_vol_ann, breadth, dispersion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.GroupID, snap.RunID, recorded.UnixMilli(),
		snap.Score, snap.AvgReturn, snap.AvgVolAnn, snap.Breadth, snap.Dispersion,
	)
	if err != nil {
		return fmt.Errorf("insert group score: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) GroupScoreHistory(ctx context.Context, groupID string, limit int) ([]analysisDomain.GroupScoreSnapshot, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.db.QueryContext(ctx, `SELECT group_id, run_id, recorded_at, score, avg_return, avg_vol_ann, breadth, dispersion
		FROM group_scores WHERE group_id = ?
		ORDER BY recorded_at DESC, id DESC LIMIT ?`, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("query group scores: %w", err)
	}
	defer rows.Close()

	out := []analysisDomain.GroupScoreSnapshot{}
	for rows.Next() {
		var (
			s  analysisDomain.GroupScoreSnapshot
			ms int64
		)
		if err := rows.Scan(&s.GroupID, &s.RunID, &ms, &s.Score, &s.AvgReturn, &s.AvgVolAnn, &s.Breadth, &s.Dispersion); err != nil {
			return nil, err
		}
		s.RecordedAt = time.UnixMilli(ms).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
