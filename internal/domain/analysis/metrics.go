package analysis

// BasicMetrics 為單一標的由日 K 序列算出的技術指標。
// 欄位為 nil 代表資料長度不足，不以 0 代替。
type BasicMetrics struct {
	Price        *float64 `json:"price"`
	Return1D     *float64 `json:"return1D"`
	Return5D     *float64 `json:"return5D"`
	Return1M     *float64 `json:"return1M"`
	Return3M     *float64 `json:"return3M"`
	VolAnn       *float64 `json:"volAnn"`
	MaxDrawdown  *float64 `json:"maxDrawdown"`
	SMA20        *float64 `json:"sma20"`
	SMA50        *float64 `json:"sma50"`
	RSI14        *float64 `json:"rsi14"`
	VolumeZScore *float64 `json:"volumeZScore"`
}

// IsEmpty 判斷是否所有欄位皆為 nil。
func (m BasicMetrics) IsEmpty() bool {
	for _, v := range []*float64{
		m.Price, m.Return1D, m.Return5D, m.Return1M, m.Return3M, m.VolAnn,
		m.MaxDrawdown, m.SMA20, m.SMA50, m.RSI14, m.VolumeZScore,
	} {
		if v != nil {
			return false
		}
	}
	return true
}
