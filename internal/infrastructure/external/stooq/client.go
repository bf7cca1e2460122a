package stooq

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stonx/internal/domain/marketdata"
)

const defaultBaseURL = "https://stooq.pl/q/d/l/"

// Fallback 在 Stooq 回應流量限制時改用的來源。
type Fallback interface {
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PriceBar, error)
}

// Client 以 Stooq CSV 下載美股日 K。
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	fallback   Fallback
}

// NewClient 建立 Stooq 來源；fallback 可為 nil。
func NewClient(timeout time.Duration, userAgent string, fallback Fallback) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		fallback:   fallback,
	}
}

// WithBaseURL 覆寫下載位址（測試用）。
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

func (c *Client) Name() string { return "stooq" }

// FetchDailyBars 取得 [start,end] 日 K；404 與空內容視為無資料。
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PriceBar, error) {
	params := url.Values{}
	params.Set("s", strings.ToLower(symbol)+".us")
	params.Set("d1", start.UTC().Format("20060102"))
	params.Set("d2", end.UTC().Format("20060102"))
	params.Set("i", "d")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stooq fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stooq: provider request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stooq read body: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	if bytes.Contains(bytes.ToLower(body), []byte("limit")) {
		if c.fallback == nil {
			return nil, errors.New("stooq: daily request limit reached")
		}
		log.Printf("[Bars] stooq limit reached, falling back symbol=%s", symbol)
		return c.fallback.FetchDailyBars(ctx, symbol, start, end)
	}
	return parseCSV(body)
}

type columns struct {
	date, open, high, low, close, volume int
}

func parseCSV(body []byte) ([]marketdata.PriceBar, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("stooq header: %w", err)
	}
	cols := columns{date: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, h := range header {
		switch normalizeHeader(h) {
		case "date", "data":
			cols.date = i
		case "open", "otwarcie":
			cols.open = i
		case "high", "najwyzszy":
			cols.high = i
		case "low", "najnizszy":
			cols.low = i
		case "close", "zamkniecie":
			cols.close = i
		case "volume", "wolumen":
			cols.volume = i
		}
	}
	if cols.date < 0 || cols.open < 0 || cols.high < 0 || cols.low < 0 || cols.close < 0 {
		return nil, nil
	}

	var bars []marketdata.PriceBar
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stooq row: %w", err)
		}
		date := cell(rec, cols.date)
		if date == "" || date == "N/D" {
			continue
		}
		o, okO := parseNumber(cell(rec, cols.open))
		h, okH := parseNumber(cell(rec, cols.high))
		l, okL := parseNumber(cell(rec, cols.low))
		cl, okC := parseNumber(cell(rec, cols.close))
		if !okO || !okH || !okL || !okC {
			continue
		}
		bar := marketdata.PriceBar{Date: date, Open: o, High: h, Low: l, Close: cl}
		if v, ok := parseNumber(cell(rec, cols.volume)); ok {
			bar.Volume = marketdata.Int64Ptr(int64(math.Round(v)))
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// normalizeHeader 只保留小寫英文字母，去除 BOM、空白與符號。
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
