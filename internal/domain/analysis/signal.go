package analysis

// Signal 為規則式訊號代碼。
type Signal string

// 訊號與異常代碼共用同一組字彙。
const (
	SignalRSIOverbought        Signal = "RSI_OVERBOUGHT"
	SignalRSIOversold          Signal = "RSI_OVERSOLD"
	SignalMomentumPos          Signal = "MOMENTUM_POS"
	SignalMomentumNeg          Signal = "MOMENTUM_NEG"
	SignalMomentumNegLastMonth Signal = "MOMENTUM_NEG_LAST_MONTH"
	SignalDrawdownElevated     Signal = "DRAWDOWN_ELEVATED"
	SignalVolumeSpike          Signal = "VOLUME_SPIKE"
	SignalVolumeDrop           Signal = "VOLUME_DROP"
)

// ContainsSignal 判斷清單中是否包含指定訊號。
func ContainsSignal(signals []Signal, target Signal) bool {
	for _, s := range signals {
		if s == target {
			return true
		}
	}
	return false
}

// SignalsFromStrings 轉換外部儲存的字串清單，忽略空字串。
func SignalsFromStrings(values []string) []Signal {
	out := make([]Signal, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		out = append(out, Signal(v))
	}
	return out
}
