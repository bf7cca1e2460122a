package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"stonx/internal/domain/fundamentals"
)

const (
	timeseriesPath   = "/ws/fundamentals-timeseries/v1/finance/timeseries"
	quoteSummaryPath = "/v10/finance/quoteSummary"
	crumbPath        = "/v1/test/getcrumb"
	historyYears     = 5
)

// quarterlyTypes 為季報時間序列欄位；順序決定幣別的取用優先序。
var quarterlyTypes = []string{
	"quarterlyTotalRevenue",
	"quarterlyNetIncome",
	"quarterlyDilutedEPS",
	"quarterlyBasicEPS",
	"quarterlyCashAndCashEquivalents",
	"quarterlyTotalDebt",
}

type seriesEntry struct {
	AsOfDate      string          `json:"asOfDate"`
	ReportedValue json.RawMessage `json:"reportedValue"`
	CurrencyCode  string          `json:"currencyCode"`
}

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
	} `json:"timeseries"`
}

// FetchQuarterly 取近五年季報；429 回傳 fundamentals.ErrRateLimited，其餘非 2xx 為錯誤。
func (c *Client) FetchQuarterly(ctx context.Context, symbol string) ([]fundamentals.Quarter, error) {
	now := c.now()
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(now.AddDate(-historyYears, 0, 0).Unix(), 10))
	params.Set("period2", strconv.FormatInt(now.Unix(), 10))
	params.Set("type", strings.Join(quarterlyTypes, ","))
	params.Set("merge", "false")
	fullURL := fmt.Sprintf("%s%s/%s?%s", c.query2URL, timeseriesPath, url.PathEscape(symbol), params.Encode())

	body, status, err := c.get(ctx, fullURL, "application/json", "")
	if err != nil {
		return nil, fmt.Errorf("yahoo timeseries: %w", err)
	}
	if status == http.StatusTooManyRequests {
		return nil, fundamentals.ErrRateLimited
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("yahoo timeseries failed (%d)", status)
	}
	return parseTimeseries(symbol, body)
}

func parseTimeseries(symbol string, body []byte) ([]fundamentals.Quarter, error) {
	var payload timeseriesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("yahoo timeseries decode: %w", err)
	}
	results := payload.Timeseries.Result
	if len(results) == 0 {
		log.Printf("[Fundamentals] yahoo returned no timeseries symbol=%s", symbol)
		return nil, nil
	}

	series := make(map[string]map[string]seriesEntry, len(quarterlyTypes))
	dates := make(map[string]struct{})
	for _, key := range quarterlyTypes {
		byDate := make(map[string]seriesEntry)
		for _, e := range pickSeries(results, key) {
			if e == nil || e.AsOfDate == "" {
				continue
			}
			byDate[e.AsOfDate] = *e
			dates[e.AsOfDate] = struct{}{}
		}
		series[key] = byDate
	}

	keys := make([]string, 0, len(dates))
	for d := range dates {
		keys = append(keys, d)
	}
	sort.Strings(keys)

	out := make([]fundamentals.Quarter, 0, len(keys))
	for _, d := range keys {
		periodEnd, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		value := func(key string) *float64 {
			e, ok := series[key][d]
			if !ok {
				return nil
			}
			return rawNumber(e.ReportedValue)
		}
		q := fundamentals.Quarter{
			Symbol:        symbol,
			PeriodEnd:     d,
			FiscalYear:    periodEnd.Year(),
			FiscalQuarter: fundamentals.QuarterOf(periodEnd),
			Revenue:       value("quarterlyTotalRevenue"),
			NetIncome:     value("quarterlyNetIncome"),
			EPSDiluted:    value("quarterlyDilutedEPS"),
			EPSBasic:      value("quarterlyBasicEPS"),
			Cash:          value("quarterlyCashAndCashEquivalents"),
			TotalDebt:     value("quarterlyTotalDebt"),
		}
		for _, key := range []string{"quarterlyTotalRevenue", "quarterlyNetIncome", "quarterlyCashAndCashEquivalents", "quarterlyTotalDebt"} {
			if e, ok := series[key][d]; ok && e.CurrencyCode != "" {
				q.Currency = fundamentals.StringPtr(e.CurrencyCode)
				break
			}
		}
		out = append(out, q)
	}
	return out, nil
}

// pickSeries 先依 meta.type 找對應結果，找不到時退回任何帶有該欄位陣列的結果。
func pickSeries(results []map[string]json.RawMessage, key string) []*seriesEntry {
	decode := func(r map[string]json.RawMessage) ([]*seriesEntry, bool) {
		raw, ok := r[key]
		if !ok {
			return nil, false
		}
		var entries []*seriesEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, false
		}
		return entries, true
	}
	for _, r := range results {
		var meta struct {
			Type []string `json:"type"`
		}
		if raw, ok := r["meta"]; !ok || json.Unmarshal(raw, &meta) != nil {
			continue
		}
		for _, t := range meta.Type {
			if t == key {
				if entries, ok := decode(r); ok {
					return entries
				}
			}
		}
	}
	for _, r := range results {
		if entries, ok := decode(r); ok {
			return entries
		}
	}
	return nil
}

type rawValue = json.RawMessage

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile *struct {
				Sector              string `json:"sector"`
				Industry            string `json:"industry"`
				LongBusinessSummary string `json:"longBusinessSummary"`
			} `json:"assetProfile"`
			Price *struct {
				LongName     string   `json:"longName"`
				ShortName    string   `json:"shortName"`
				ExchangeName string   `json:"exchangeName"`
				Exchange     string   `json:"exchange"`
				MarketCap    rawValue `json:"marketCap"`
			} `json:"price"`
			DefaultKeyStatistics *struct {
				SharesOutstanding rawValue `json:"sharesOutstanding"`
				ForwardPE         rawValue `json:"forwardPE"`
			} `json:"defaultKeyStatistics"`
			FinancialData *struct {
				ForwardPE  rawValue `json:"forwardPE"`
				ForwardEps rawValue `json:"forwardEps"`
			} `json:"financialData"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// FetchOverview 取公司概況；cookie 存在時附帶 crumb。非 2xx 回傳 nil。
func (c *Client) FetchOverview(ctx context.Context, symbol string) (*fundamentals.Overview, error) {
	crumb, err := c.fetchCrumb(ctx)
	if err != nil {
		return nil, err
	}
	payload, ok, err := c.quoteSummary(ctx, symbol, "assetProfile,price,defaultKeyStatistics", crumb)
	if err != nil || !ok {
		return nil, err
	}
	ov := &fundamentals.Overview{}
	if len(payload.QuoteSummary.Result) == 0 {
		return ov, nil
	}
	r := payload.QuoteSummary.Result[0]
	if p := r.Price; p != nil {
		ov.Name = firstNonEmpty(p.LongName, p.ShortName)
		ov.Exchange = firstNonEmpty(p.ExchangeName, p.Exchange)
		ov.MarketCap = rawNumber(p.MarketCap)
	}
	if a := r.AssetProfile; a != nil {
		ov.Sector = fundamentals.StringPtr(a.Sector)
		ov.Industry = fundamentals.StringPtr(a.Industry)
		ov.Description = fundamentals.StringPtr(a.LongBusinessSummary)
	}
	if k := r.DefaultKeyStatistics; k != nil {
		ov.SharesOutstanding = rawNumber(k.SharesOutstanding)
	}
	return ov, nil
}

// FetchForwardPE 取預估本益比：優先使用 forwardPE，缺值時以 price / forwardEps 推算。
// 未設定 cookie 或取不到 crumb 時回傳 nil。
func (c *Client) FetchForwardPE(ctx context.Context, symbol string, price *float64) (*float64, error) {
	crumb, err := c.fetchCrumb(ctx)
	if err != nil {
		return nil, err
	}
	if crumb == "" {
		log.Printf("[Valuations] yahoo crumb unavailable symbol=%s", symbol)
		return nil, nil
	}
	payload, ok, err := c.quoteSummary(ctx, symbol, "defaultKeyStatistics,financialData", crumb)
	if err != nil || !ok || len(payload.QuoteSummary.Result) == 0 {
		return nil, err
	}
	r := payload.QuoteSummary.Result[0]
	var direct, forwardEps *float64
	if k := r.DefaultKeyStatistics; k != nil {
		direct = rawNumber(k.ForwardPE)
	}
	if f := r.FinancialData; f != nil {
		if direct == nil {
			direct = rawNumber(f.ForwardPE)
		}
		forwardEps = rawNumber(f.ForwardEps)
	}
	if direct != nil {
		return direct, nil
	}
	return fundamentals.PE(price, forwardEps), nil
}

func (c *Client) quoteSummary(ctx context.Context, symbol, modules, crumb string) (quoteSummaryResponse, bool, error) {
	params := url.Values{}
	params.Set("modules", modules)
	if crumb != "" {
		params.Set("crumb", crumb)
	}
	fullURL := fmt.Sprintf("%s%s/%s?%s", c.query2URL, quoteSummaryPath, url.PathEscape(symbol), params.Encode())

	var payload quoteSummaryResponse
	body, status, err := c.get(ctx, fullURL, "application/json", c.cookie)
	if err != nil {
		return payload, false, fmt.Errorf("yahoo quoteSummary: %w", err)
	}
	if status < 200 || status >= 300 {
		log.Printf("[Fundamentals] yahoo quoteSummary symbol=%s status=%d", symbol, status)
		return payload, false, nil
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, false, fmt.Errorf("yahoo quoteSummary decode: %w", err)
	}
	return payload, true, nil
}

// fetchCrumb 以 cookie 換取 crumb；未設定 cookie 或失敗時回傳空字串。
func (c *Client) fetchCrumb(ctx context.Context) (string, error) {
	if c.cookie == "" {
		return "", nil
	}
	body, status, err := c.get(ctx, c.query2URL+crumbPath, "text/plain", c.cookie)
	if err != nil {
		return "", fmt.Errorf("yahoo crumb: %w", err)
	}
	if status < 200 || status >= 300 {
		return "", nil
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Client) get(ctx context.Context, fullURL, accept, cookie string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// rawNumber 解析 Yahoo 數值：純數字、數字字串或 {"raw": n}。
func rawNumber(data json.RawMessage) *float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var f float64
	switch data[0] {
	case '{':
		var obj struct {
			Raw json.RawMessage `json:"raw"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		return rawNumber(obj.Raw)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		f = v
	default:
		if err := json.Unmarshal(data, &f); err != nil {
			return nil
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func firstNonEmpty(values ...string) *string {
	for _, v := range values {
		if v != "" {
			return fundamentals.StringPtr(v)
		}
	}
	return nil
}
