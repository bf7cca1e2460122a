package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	analysisDomain "stonx/internal/domain/analysis"
)

// SaveRun 以單一交易寫入批次與逐檔結果。
func (r *Repo) SaveRun(ctx context.Context, run analysisDomain.Run, results []analysisDomain.SymbolResult) error {
	params, err := json.Marshal(run.Parameters)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	const runQ = `
INSERT INTO analysis_runs (id, created_at, scope, provider_used, parameters)
VALUES ($1, $2, $3, $4, $5);
`
	const resQ = `
INSERT INTO analysis_results (run_id, symbol, metrics, signals)
VALUES ($1, $2, $3, $4);
`
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, runQ, run.ID, run.CreatedAt, run.Scope, run.ProviderUsed, params); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for _, res := range results {
			metrics, err := json.Marshal(res.Metrics)
			if err != nil {
				return fmt.Errorf("encode metrics %s: %w", res.Symbol, err)
			}
			signals, err := analysisDomain.EncodeSignalPayload(res.Signals, res.Insights)
			if err != nil {
				return fmt.Errorf("encode signals %s: %w", res.Symbol, err)
			}
			if _, err := tx.ExecContext(ctx, resQ, run.ID, res.Symbol, metrics, signals); err != nil {
				return fmt.Errorf("insert result %s: %w", res.Symbol, err)
			}
		}
		return nil
	})
}

// GetRun 查詢批次；查無時回傳 ErrRunNotFound。
func (r *Repo) GetRun(ctx context.Context, id string) (analysisDomain.Run, error) {
	const q = `SELECT id, created_at, scope, provider_used, parameters FROM analysis_runs WHERE id = $1;`
	var (
		run    analysisDomain.Run
		params []byte
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&run.ID, &run.CreatedAt, &run.Scope, &run.ProviderUsed, &params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return analysisDomain.Run{}, analysisDomain.ErrRunNotFound
		}
		return analysisDomain.Run{}, err
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &run.Parameters); err != nil {
			return analysisDomain.Run{}, fmt.Errorf("decode parameters: %w", err)
		}
	}
	return run, nil
}

// ListResults 依代號排序回傳結果；舊格式 signals 標記 LegacySignals，Insights 為 nil。
func (r *Repo) ListResults(ctx context.Context, runID string) ([]analysisDomain.SymbolResult, error) {
	const q = `SELECT symbol, metrics, signals FROM analysis_results WHERE run_id = $1 ORDER BY symbol;`
	rows, err := r.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analysisDomain.SymbolResult
	for rows.Next() {
		var (
			res              analysisDomain.SymbolResult
			metrics, signals []byte
		)
		if err := rows.Scan(&res.Symbol, &metrics, &signals); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metrics, &res.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics %s: %w", res.Symbol, err)
		}
		payload, err := analysisDomain.DecodeSignalPayload(signals)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", res.Symbol, err)
		}
		res.RunID = runID
		res.Signals = payload.Signals
		res.Insights = payload.Insights
		res.LegacySignals = payload.Legacy
		out = append(out, res)
	}
	return out, rows.Err()
}
