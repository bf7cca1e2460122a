package marketdata

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout 為日 K 日期字串格式（日解析度，無時區）。
const DateLayout = "2006-01-02"

// PriceBar 描述單一標的的日 K/成交量資料。
type PriceBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume *int64  `json:"volume,omitempty"`
}

// Ticker 為已知的股票代號。
type Ticker struct {
	Symbol    string    `json:"symbol"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidationError 收集多個驗證失敗原因。
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("price bar validation failed: %v", e.Reasons)
}

// Validate 檢查欄位是否符合基本完整性條件。
func (b PriceBar) Validate() error {
	var reasons []string

	if _, err := time.Parse(DateLayout, b.Date); err != nil {
		reasons = append(reasons, "date must be YYYY-MM-DD")
	}

	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		reasons = append(reasons, "price fields must be > 0")
	}

	if b.High < b.Low {
		reasons = append(reasons, "high must be >= low")
	}

	if b.Volume != nil && *b.Volume < 0 {
		reasons = append(reasons, "volume must be >= 0")
	}

	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// Time 回傳日期對應的 UTC 零點。
func (b PriceBar) Time() (time.Time, error) {
	return time.Parse(DateLayout, b.Date)
}

// IsValidationError 檢查錯誤是否為日 K 的驗證錯誤。
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NormalizeSymbol 統一代號格式（去空白、大寫）。
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// DateKey 將時間轉為 UTC 日期字串。
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate 解析 YYYY-MM-DD 為 UTC 零點。
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// TruncateDay 將時間截斷為 UTC 當日零點。
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Int64Ptr 回傳成交量指標，便於建立測試資料與轉換來源資料。
func Int64Ptr(v int64) *int64 { return &v }
