package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSignalPayloadLegacyArray(t *testing.T) {
	p, err := DecodeSignalPayload([]byte(`["MOMENTUM_POS", "", "VOLUME_SPIKE"]`))
	require.NoError(t, err)
	assert.Equal(t, []Signal{SignalMomentumPos, SignalVolumeSpike}, p.Signals)
	assert.Nil(t, p.Insights)
	assert.True(t, p.Legacy)
}

func TestDecodeSignalPayloadObject(t *testing.T) {
	ins := &SymbolInsights{Trend: TrendBullish, Momentum: MomentumStrong, Risk: RiskLow, Anomalies: []Signal{}, Summary: "x"}
	raw, err := EncodeSignalPayload([]Signal{SignalMomentumPos}, ins)
	require.NoError(t, err)

	p, err := DecodeSignalPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, []Signal{SignalMomentumPos}, p.Signals)
	require.NotNil(t, p.Insights)
	assert.Equal(t, *ins, *p.Insights)
	assert.False(t, p.Legacy)
}

func TestDecodeSignalPayloadObjectWithNullInsights(t *testing.T) {
	p, err := DecodeSignalPayload([]byte(`{"signals":["RSI_OVERSOLD", 3, null],"insights":null}`))
	require.NoError(t, err)
	assert.Equal(t, []Signal{SignalRSIOversold}, p.Signals)
	assert.Nil(t, p.Insights)
	assert.False(t, p.Legacy)
}

func TestDecodeSignalPayloadEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		p, err := DecodeSignalPayload([]byte(raw))
		require.NoError(t, err)
		assert.Empty(t, p.Signals)
		assert.NotNil(t, p.Signals)
	}
}

func TestDecodeSignalPayloadFiltersNonStringCodes(t *testing.T) {
	p, err := DecodeSignalPayload([]byte(`[1, "MOMENTUM_NEG", {"x":1}, true]`))
	require.NoError(t, err)
	assert.Equal(t, []Signal{SignalMomentumNeg}, p.Signals)
	assert.True(t, p.Legacy)
}

func TestDecodeSignalPayloadScalarIsEmpty(t *testing.T) {
	p, err := DecodeSignalPayload([]byte(`"RSI_OVERBOUGHT"`))
	require.NoError(t, err)
	assert.Empty(t, p.Signals)
	assert.Nil(t, p.Insights)
}

func TestDecodeSignalPayloadMalformed(t *testing.T) {
	_, err := DecodeSignalPayload([]byte(`[1,2`))
	assert.Error(t, err)
}
