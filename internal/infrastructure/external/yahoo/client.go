package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stonx/internal/domain/marketdata"
)

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultQuery2URL = "https://query2.finance.yahoo.com"
)

// Client 以 Yahoo Finance chart API 取得日 K，並提供季報與估值查詢。
type Client struct {
	baseURL    string
	query2URL  string
	userAgent  string
	cookie     string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient 建立 Yahoo 日 K 來源。
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		query2URL:  defaultQuery2URL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// WithBaseURL 覆寫 API 位址（測試用），日 K 與季報共用。
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	c.query2URL = u
	return c
}

// WithCookie 設定取得 crumb 所需的 Yahoo cookie；空字串時不取 crumb。
func (c *Client) WithCookie(cookie string) *Client {
	c.cookie = strings.TrimSpace(cookie)
	return c
}

func (c *Client) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// FetchDailyBars 取得 [start,end] 日 K；非 2xx 視為無資料。
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PriceBar, error) {
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", start.Unix()))
	// period2 不含當下，往後推一天才能取到 end 當日。
	params.Set("period2", fmt.Sprintf("%d", end.AddDate(0, 0, 1).Unix()))
	params.Set("interval", "1d")
	params.Set("events", "div,split")
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[Bars] yahoo symbol=%s status=%d, treating as empty", symbol, resp.StatusCode)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	return parseChart(body)
}

func parseChart(body []byte) ([]marketdata.PriceBar, error) {
	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	bars := make([]marketdata.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, cl := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || cl == nil {
			continue
		}
		bar := marketdata.PriceBar{
			Date:  marketdata.DateKey(time.Unix(ts, 0)),
			Open:  *o,
			High:  *h,
			Low:   *l,
			Close: *cl,
		}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = marketdata.Int64Ptr(int64(*v))
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
