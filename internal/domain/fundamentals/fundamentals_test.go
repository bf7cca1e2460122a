package fundamentals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quarter(date string, diluted, basic *float64) Quarter {
	return Quarter{Symbol: "AAPL", PeriodEnd: date, EPSDiluted: diluted, EPSBasic: basic}
}

func TestFillTTM(t *testing.T) {
	in := []Quarter{
		quarter("2024-06-30", Float64Ptr(1.5), nil),
		quarter("2023-09-30", Float64Ptr(1.0), nil),
		quarter("2024-03-31", nil, Float64Ptr(1.25)),
		quarter("2023-12-31", Float64Ptr(2.0), nil),
		quarter("2024-09-30", nil, nil),
	}

	out := FillTTM(in)
	require.Len(t, out, 5)
	assert.Equal(t, "2023-09-30", out[0].PeriodEnd)
	for i := 0; i < 3; i++ {
		assert.Nil(t, out[i].EPSTTM, out[i].PeriodEnd)
	}
	require.NotNil(t, out[3].EPSTTM)
	assert.InDelta(t, 5.75, *out[3].EPSTTM, 1e-9)
	assert.Nil(t, out[4].EPSTTM, "window with a missing EPS has no TTM")

	// 輸入不被修改。
	assert.Equal(t, "2024-06-30", in[0].PeriodEnd)
}

func TestPE(t *testing.T) {
	assert.InDelta(t, 20.0, *PE(Float64Ptr(100), Float64Ptr(5)), 1e-9)
	assert.Nil(t, PE(Float64Ptr(100), Float64Ptr(0)))
	assert.Nil(t, PE(Float64Ptr(100), Float64Ptr(-2)))
	assert.Nil(t, PE(nil, Float64Ptr(5)))
	assert.Nil(t, PE(Float64Ptr(100), nil))
}

func TestQuarterHelpers(t *testing.T) {
	assert.Equal(t, 1, QuarterOf(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, QuarterOf(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))

	q := Quarter{Cash: Float64Ptr(10), TotalDebt: Float64Ptr(4), EPSBasic: Float64Ptr(1)}
	require.NotNil(t, q.NetCash())
	assert.Equal(t, 6.0, *q.NetCash())
	assert.Equal(t, 1.0, *q.EPS())
	assert.Nil(t, Quarter{Cash: Float64Ptr(10)}.NetCash())

	assert.False(t, Overview{MarketCap: Float64Ptr(1)}.HasProfile())
	assert.True(t, Overview{Sector: StringPtr("Technology")}.HasProfile())
	assert.Nil(t, StringPtr(""))
}
