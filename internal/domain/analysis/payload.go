package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SignalPayload 為結果列 signals 欄位的儲存格式。
// 舊資料僅存訊號代碼陣列，新資料為 {signals, insights} 物件。
type SignalPayload struct {
	Signals  []Signal        `json:"signals"`
	Insights *SymbolInsights `json:"insights,omitempty"`
	// Legacy 表示來源為舊的陣列格式，需由指標重算解讀。
	Legacy bool `json:"-"`
}

// EncodeSignalPayload 產生新格式的儲存內容。
func EncodeSignalPayload(signals []Signal, insights *SymbolInsights) ([]byte, error) {
	if signals == nil {
		signals = []Signal{}
	}
	return json.Marshal(SignalPayload{Signals: signals, Insights: insights})
}

// DecodeSignalPayload 同時接受新舊兩種格式，非字串的訊號代碼一律略過。
// 物件格式中 insights 為 null 時維持 nil，不重算。
func DecodeSignalPayload(raw []byte) (SignalPayload, error) {
	p := SignalPayload{Signals: []Signal{}}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return p, nil
	}
	switch trimmed[0] {
	case '[':
		var codes []interface{}
		if err := json.Unmarshal(trimmed, &codes); err != nil {
			return p, fmt.Errorf("decode legacy signals: %w", err)
		}
		p.Signals = stringSignals(codes)
		p.Legacy = true
	case '{':
		var obj struct {
			Signals  json.RawMessage `json:"signals"`
			Insights *SymbolInsights `json:"insights"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return p, fmt.Errorf("decode signals: %w", err)
		}
		var codes []interface{}
		if err := json.Unmarshal(obj.Signals, &codes); err == nil {
			p.Signals = stringSignals(codes)
		}
		p.Insights = obj.Insights
	}
	return p, nil
}

func stringSignals(values []interface{}) []Signal {
	out := make([]Signal, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, Signal(s))
		}
	}
	return out
}
