package analysis

import (
	"sort"
	"strings"

	domain "stonx/internal/domain/analysis"
)

// 群組分數權重：以 50 為基準，報酬 ±30、廣度 +20、波動 -20、離散 -15。
const (
	scoreAnchor      = 50.0
	returnCap        = 10.0
	returnWeight     = 3.0
	breadthWeight    = 20.0
	volCap           = 80.0
	volWeight        = 20.0
	dispersionCap    = 20.0
	dispersionWeight = 15.0
	breadthRSIPivot  = 50.0
)

// ComputeGroupInsights 彙總群組內各標的指標；缺值欄位直接略過。
func ComputeGroupInsights(perSymbol []domain.SymbolMetrics) domain.GroupInsights {
	var returns, vols, rsiValues []float64
	type ranked struct {
		symbol string
		ret    float64
	}
	var withReturn []ranked

	for _, row := range perSymbol {
		if row.Metrics == nil {
			continue
		}
		m := row.Metrics
		if m.Return1M != nil {
			returns = append(returns, *m.Return1M)
			withReturn = append(withReturn, ranked{symbol: row.Symbol, ret: *m.Return1M})
		}
		if m.VolAnn != nil {
			vols = append(vols, *m.VolAnn)
		}
		if m.RSI14 != nil {
			rsiValues = append(rsiValues, *m.RSI14)
		}
	}

	avgReturn := mean(returns)
	avgVol := mean(vols)
	dispersion, _ := sampleStdDev(returns)

	breadth := 0.0
	if len(rsiValues) > 0 {
		above := 0
		for _, rsi := range rsiValues {
			if rsi > breadthRSIPivot {
				above++
			}
		}
		breadth = float64(above) / float64(len(rsiValues)) * 100
	}

	var top, bottom *string
	if len(withReturn) > 0 {
		sort.SliceStable(withReturn, func(i, j int) bool { return withReturn[i].ret > withReturn[j].ret })
		top = ptr(withReturn[0].symbol)
		bottom = ptr(withReturn[len(withReturn)-1].symbol)
	}

	returnComponent := clamp(avgReturn, -returnCap, returnCap) * returnWeight
	breadthBonus := breadth / 100 * breadthWeight
	volPenalty := clamp(avgVol, 0, volCap) / volCap * volWeight
	dispersionPenalty := clamp(dispersion, 0, dispersionCap) / dispersionCap * dispersionWeight
	score := clamp(roundTo(scoreAnchor+returnComponent+breadthBonus-volPenalty-dispersionPenalty, 2), 0, 100)

	out := domain.GroupInsights{
		Score:              score,
		AvgReturn1M:        roundTo(avgReturn, 2),
		AvgVolAnn:          roundTo(avgVol, 2),
		DispersionReturn1M: roundTo(dispersion, 2),
		MomentumBreadth:    roundTo(breadth, 2),
		TopPerformer:       top,
		BottomPerformer:    bottom,
	}
	out.Summary = buildGroupSummary(out)
	return out
}

func buildGroupSummary(g domain.GroupInsights) string {
	phrases := make([]string, 0, 4)

	switch {
	case g.AvgReturn1M > 5:
		phrases = append(phrases, "Strong average returns")
	case g.AvgReturn1M > 0:
		phrases = append(phrases, "Modest positive returns")
	default:
		phrases = append(phrases, "Weak or negative returns")
	}

	switch {
	case g.MomentumBreadth >= 60:
		phrases = append(phrases, "broad momentum")
	case g.MomentumBreadth >= 30:
		phrases = append(phrases, "mixed momentum")
	default:
		phrases = append(phrases, "narrow momentum")
	}

	switch {
	case g.AvgVolAnn > 40:
		phrases = append(phrases, "with elevated volatility")
	case g.AvgVolAnn > 20:
		phrases = append(phrases, "with moderate volatility")
	default:
		phrases = append(phrases, "with low volatility")
	}

	switch {
	case g.DispersionReturn1M > 10:
		phrases = append(phrases, "and high dispersion")
	case g.DispersionReturn1M > 5:
		phrases = append(phrases, "and some dispersion")
	default:
		phrases = append(phrases, "and tight dispersion")
	}

	return strings.Join(phrases, ", ") + "."
}
