package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	fundDomain "stonx/internal/domain/fundamentals"
	"stonx/internal/domain/marketdata"
)

const syncStateID = "global"

const quarterColumns = `period_end, fiscal_year, fiscal_quarter, currency, revenue, gross_profit,
       operating_income, net_income, eps_basic, eps_diluted, total_assets, total_liabilities,
       cash_and_equivalents, total_debt, shares_outstanding, eps_ttm, price_close, price_as_of,
       pe_ttm, source, fetched_at`

// LatestBarOnOrBefore 取指定日期（含）以前最近一筆日 K。
func (r *Repo) LatestBarOnOrBefore(ctx context.Context, symbol string, date time.Time) (marketdata.PriceBar, bool, error) {
	const q = `
SELECT date, open, high, low, close, volume
FROM price_bars_daily
WHERE symbol = $1 AND date <= $2
ORDER BY date DESC
LIMIT 1;
`
	var (
		b      marketdata.PriceBar
		d      time.Time
		volume sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, symbol, marketdata.DateKey(date)).Scan(&d, &b.Open, &b.High, &b.Low, &b.Close, &volume)
	if errors.Is(err, sql.ErrNoRows) {
		return marketdata.PriceBar{}, false, nil
	}
	if err != nil {
		return marketdata.PriceBar{}, false, err
	}
	b.Date = marketdata.DateKey(d)
	if volume.Valid {
		b.Volume = marketdata.Int64Ptr(volume.Int64)
	}
	return b, true, nil
}

// UpsertQuarters 以單一交易依 (symbol, period_end) 覆寫季報。
func (r *Repo) UpsertQuarters(ctx context.Context, symbol string, quarters []fundDomain.Quarter) error {
	const q = `
INSERT INTO fundamental_quarters (symbol, ` + quarterColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
ON CONFLICT (symbol, period_end)
DO UPDATE SET fiscal_year = EXCLUDED.fiscal_year,
              fiscal_quarter = EXCLUDED.fiscal_quarter,
              currency = EXCLUDED.currency,
              revenue = EXCLUDED.revenue,
              gross_profit = EXCLUDED.gross_profit,
              operating_income = EXCLUDED.operating_income,
              net_income = EXCLUDED.net_income,
              eps_basic = EXCLUDED.eps_basic,
              eps_diluted = EXCLUDED.eps_diluted,
              total_assets = EXCLUDED.total_assets,
              total_liabilities = EXCLUDED.total_liabilities,
              cash_and_equivalents = EXCLUDED.cash_and_equivalents,
              total_debt = EXCLUDED.total_debt,
              shares_outstanding = EXCLUDED.shares_outstanding,
              eps_ttm = EXCLUDED.eps_ttm,
              price_close = EXCLUDED.price_close,
              price_as_of = EXCLUDED.price_as_of,
              pe_ttm = EXCLUDED.pe_ttm,
              source = EXCLUDED.source,
              fetched_at = EXCLUDED.fetched_at;
`
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, qt := range quarters {
			_, err := tx.ExecContext(ctx, q, symbol, qt.PeriodEnd, qt.FiscalYear, qt.FiscalQuarter,
				nullString(qt.Currency), nullFloat64(qt.Revenue), nullFloat64(qt.GrossProfit),
				nullFloat64(qt.OperatingIncome), nullFloat64(qt.NetIncome), nullFloat64(qt.EPSBasic),
				nullFloat64(qt.EPSDiluted), nullFloat64(qt.TotalAssets), nullFloat64(qt.TotalLiabilities),
				nullFloat64(qt.Cash), nullFloat64(qt.TotalDebt), nullFloat64(qt.SharesOutstanding),
				nullFloat64(qt.EPSTTM), nullFloat64(qt.PriceClose), nullString(qt.PriceAsOf),
				nullFloat64(qt.PETTM), qt.Source, qt.FetchedAt)
			if err != nil {
				return fmt.Errorf("upsert quarter %s: %w", qt.PeriodEnd, err)
			}
		}
		return nil
	})
}

// ListQuarters 依季末日期遞減回傳最多 limit 筆。
func (r *Repo) ListQuarters(ctx context.Context, symbol string, limit int) ([]fundDomain.Quarter, error) {
	const q = `
SELECT ` + quarterColumns + `
FROM fundamental_quarters
WHERE symbol = $1
ORDER BY period_end DESC
LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []fundDomain.Quarter
	for rows.Next() {
		var (
			qt        fundDomain.Quarter
			periodEnd time.Time
			fy, fq    sql.NullInt64
			currency  sql.NullString
			priceAsOf sql.NullTime
			nums      [14]sql.NullFloat64
		)
		if err := rows.Scan(&periodEnd, &fy, &fq, &currency,
			&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &nums[5], &nums[6], &nums[7],
			&nums[8], &nums[9], &nums[10], &nums[11], &nums[12], &priceAsOf,
			&nums[13], &qt.Source, &qt.FetchedAt); err != nil {
			return nil, err
		}
		qt.Symbol = symbol
		qt.PeriodEnd = marketdata.DateKey(periodEnd)
		qt.FiscalYear, qt.FiscalQuarter = int(fy.Int64), int(fq.Int64)
		if currency.Valid {
			qt.Currency = fundDomain.StringPtr(currency.String)
		}
		if priceAsOf.Valid {
			qt.PriceAsOf = fundDomain.StringPtr(marketdata.DateKey(priceAsOf.Time))
		}
		targets := []**float64{
			&qt.Revenue, &qt.GrossProfit, &qt.OperatingIncome, &qt.NetIncome, &qt.EPSBasic,
			&qt.EPSDiluted, &qt.TotalAssets, &qt.TotalLiabilities, &qt.Cash, &qt.TotalDebt,
			&qt.SharesOutstanding, &qt.EPSTTM, &qt.PriceClose, &qt.PETTM,
		}
		for i, dst := range targets {
			if nums[i].Valid {
				*dst = fundDomain.Float64Ptr(nums[i].Float64)
			}
		}
		out = append(out, qt)
	}
	return out, rows.Err()
}

func (r *Repo) LatestFetchedAt(ctx context.Context, symbol string) (*time.Time, error) {
	const q = `SELECT MAX(fetched_at) FROM fundamental_quarters WHERE symbol = $1;`
	var t sql.NullTime
	if err := r.db.QueryRowContext(ctx, q, symbol).Scan(&t); err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}

// GetProfile 讀取 tickers 上的公司資料；未知代號回傳只有 Symbol 的零值。
func (r *Repo) GetProfile(ctx context.Context, symbol string) (fundDomain.Profile, error) {
	const q = `SELECT name, sector, industry FROM tickers WHERE symbol = $1;`
	var name, sector, industry sql.NullString
	err := r.db.QueryRowContext(ctx, q, symbol).Scan(&name, &sector, &industry)
	p := fundDomain.Profile{Symbol: symbol}
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if name.Valid {
		p.Name = fundDomain.StringPtr(name.String)
	}
	if sector.Valid {
		p.Sector = fundDomain.StringPtr(sector.String)
	}
	if industry.Valid {
		p.Industry = fundDomain.StringPtr(industry.String)
	}
	return p, nil
}

// SaveProfile 建立代號並僅覆寫非 NULL 欄位。
func (r *Repo) SaveProfile(ctx context.Context, p fundDomain.Profile) error {
	const q = `
INSERT INTO tickers (symbol, name, sector, industry)
VALUES ($1, $2, $3, $4)
ON CONFLICT (symbol)
DO UPDATE SET name = COALESCE(EXCLUDED.name, tickers.name),
              sector = COALESCE(EXCLUDED.sector, tickers.sector),
              industry = COALESCE(EXCLUDED.industry, tickers.industry);
`
	_, err := r.db.ExecContext(ctx, q, p.Symbol, nullString(p.Name), nullString(p.Sector), nullString(p.Industry))
	return err
}

func (r *Repo) GetSyncState(ctx context.Context) (fundDomain.SyncState, error) {
	const q = `SELECT status, last_run_at, last_error FROM fundamental_sync_state WHERE id = $1;`
	var (
		st        fundDomain.SyncState
		lastRunAt sql.NullTime
		lastError sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, syncStateID).Scan(&st.Status, &lastRunAt, &lastError)
	if errors.Is(err, sql.ErrNoRows) {
		return fundDomain.SyncState{}, nil
	}
	if err != nil {
		return fundDomain.SyncState{}, err
	}
	if lastRunAt.Valid {
		st.LastRunAt = &lastRunAt.Time
	}
	if lastError.Valid {
		st.LastError = fundDomain.StringPtr(lastError.String)
	}
	return st, nil
}

func (r *Repo) SaveSyncState(ctx context.Context, st fundDomain.SyncState) error {
	const q = `
INSERT INTO fundamental_sync_state (id, status, last_run_at, last_error)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id)
DO UPDATE SET status = EXCLUDED.status,
              last_run_at = EXCLUDED.last_run_at,
              last_error = EXCLUDED.last_error;
`
	var lastRunAt sql.NullTime
	if st.LastRunAt != nil {
		lastRunAt = sql.NullTime{Time: *st.LastRunAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q, syncStateID, st.Status, lastRunAt, nullString(st.LastError))
	return err
}

func nullFloat64(v *float64) interface{} {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) interface{} {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
