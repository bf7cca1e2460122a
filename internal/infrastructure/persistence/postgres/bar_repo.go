package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stonx/internal/domain/marketdata"
)

// UpsertTicker 建立代號（已存在則略過）。
func (r *Repo) UpsertTicker(ctx context.Context, symbol string) error {
	const q = `INSERT INTO tickers (symbol) VALUES ($1) ON CONFLICT (symbol) DO NOTHING;`
	_, err := r.db.ExecContext(ctx, q, symbol)
	return err
}

// BarsInRange 取單檔區間日 K（遞增日期）。
func (r *Repo) BarsInRange(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PriceBar, error) {
	const q = `
SELECT date, open, high, low, close, volume
FROM price_bars_daily
WHERE symbol = $1 AND date BETWEEN $2 AND $3
ORDER BY date;
`
	rows, err := r.db.QueryContext(ctx, q, symbol, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []marketdata.PriceBar
	for rows.Next() {
		var (
			b      marketdata.PriceBar
			date   time.Time
			volume sql.NullInt64
		)
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &volume); err != nil {
			return nil, err
		}
		b.Date = marketdata.DateKey(date)
		if volume.Valid {
			b.Volume = marketdata.Int64Ptr(volume.Int64)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ReplaceBars 以單一交易刪除區間內日 K 後重新寫入。
func (r *Repo) ReplaceBars(ctx context.Context, symbol string, start, end time.Time, bars []marketdata.PriceBar) error {
	const del = `DELETE FROM price_bars_daily WHERE symbol = $1 AND date BETWEEN $2 AND $3;`
	const ins = `
INSERT INTO price_bars_daily (symbol, date, open, high, low, close, volume)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (symbol, date)
DO UPDATE SET open = EXCLUDED.open,
              high = EXCLUDED.high,
              low = EXCLUDED.low,
              close = EXCLUDED.close,
              volume = EXCLUDED.volume;
`
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, del, symbol, start, end); err != nil {
			return fmt.Errorf("delete bars: %w", err)
		}
		for _, b := range bars {
			if _, err := tx.ExecContext(ctx, ins, symbol, b.Date, b.Open, b.High, b.Low, b.Close, nullInt64(b.Volume)); err != nil {
				return fmt.Errorf("insert bar %s: %w", b.Date, err)
			}
		}
		return nil
	})
}
