package analysis

import (
	"math"
	"sort"

	domain "stonx/internal/domain/analysis"
	"stonx/internal/domain/marketdata"
)

const (
	tradingDaysPerYear = 252
	rsiPeriod          = 14
	volumeWindow       = 20
)

// 報酬回看天數（交易日）。
const (
	lookback1D = 1
	lookback5D = 5
	lookback1M = 21
	lookback3M = 63
)

// ComputeMetrics 將日 K 序列轉為固定欄位的技術指標。
// 輸入會先依日期排序；空序列回傳全部為 nil 的結果。
func ComputeMetrics(bars []marketdata.PriceBar) domain.BasicMetrics {
	if len(bars) == 0 {
		return domain.BasicMetrics{}
	}

	sorted := make([]marketdata.PriceBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	closes := make([]float64, len(sorted))
	for i, b := range sorted {
		closes[i] = b.Close
	}
	latest := closes[len(closes)-1]

	return domain.BasicMetrics{
		Price:        round(ptr(latest), 2),
		Return1D:     round(pctReturn(closes, lookback1D), 2),
		Return5D:     round(pctReturn(closes, lookback5D), 2),
		Return1M:     round(pctReturn(closes, lookback1M), 2),
		Return3M:     round(pctReturn(closes, lookback3M), 2),
		VolAnn:       round(annualizedVolatility(closes), 2),
		MaxDrawdown:  round(maxDrawdown(closes), 2),
		SMA20:        round(movingAverage(closes, 20), 2),
		SMA50:        round(movingAverage(closes, 50), 2),
		RSI14:        round(wilderRSI(closes, rsiPeriod), 0),
		VolumeZScore: round(volumeZScore(sorted, volumeWindow), 2),
	}
}

// pctReturn 需要至少 window+1 筆收盤價。
func pctReturn(closes []float64, window int) *float64 {
	if len(closes) < window+1 {
		return nil
	}
	current := closes[len(closes)-1]
	base := closes[len(closes)-1-window]
	if base == 0 {
		return nil
	}
	r := (current - base) / base * 100
	return &r
}

func annualizedVolatility(closes []float64) *float64 {
	if len(closes) < 3 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	sd, ok := sampleStdDev(returns)
	if !ok {
		return nil
	}
	v := sd * math.Sqrt(tradingDaysPerYear) * 100
	return &v
}

func maxDrawdown(closes []float64) *float64 {
	if len(closes) < 2 {
		return nil
	}
	peak := closes[0]
	worst := 0.0
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak == 0 {
			continue
		}
		if dd := (c - peak) / peak; dd < worst {
			worst = dd
		}
	}
	v := worst * 100
	return &v
}

func movingAverage(closes []float64, window int) *float64 {
	if len(closes) < window {
		return nil
	}
	sum := 0.0
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	avg := sum / float64(window)
	return &avg
}

// wilderRSI 以前 period 個漲跌幅的簡單平均為起點，之後套用 Wilder 平滑。
func wilderRSI(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}
	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	var rsi float64
	switch {
	case avgGain == 0 && avgLoss == 0:
		rsi = 50
	case avgLoss == 0:
		rsi = 100
	default:
		rs := avgGain / avgLoss
		rsi = 100 - 100/(1+rs)
	}
	return &rsi
}

// volumeZScore 以最近 window 筆有成交量的日 K 為基準（含最新一筆）。
func volumeZScore(bars []marketdata.PriceBar, window int) *float64 {
	volumes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.Volume != nil {
			volumes = append(volumes, float64(*b.Volume))
		}
	}
	if len(volumes) > window {
		volumes = volumes[len(volumes)-window:]
	}
	if len(volumes) < 2 {
		return nil
	}
	latest := volumes[len(volumes)-1]
	avg := mean(volumes)
	sd, _ := sampleStdDev(volumes)
	if sd == 0 {
		z := 0.0
		return &z
	}
	z := (latest - avg) / sd
	return &z
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev 為樣本標準差（除以 n-1），少於兩筆時回傳 false。
func sampleStdDev(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)-1)), true
}

// round 四捨五入至指定小數位；非有限值一律視為缺值，確保可安全序列化為 JSON。
func round(v *float64, digits int) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	r := roundTo(*v, digits)
	return &r
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0
	}
	return r
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func ptr[T any](v T) *T { return &v }
