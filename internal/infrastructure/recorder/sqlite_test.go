package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysisDomain "stonx/internal/domain/analysis"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	defer rec.Close()

	ctx := context.Background()
	base := time.Date(2024, 6, 1, 22, 30, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, rec.RecordGroupScore(ctx, analysisDomain.GroupScoreSnapshot{
			GroupID:    "tech",
			RunID:      "run",
			RecordedAt: base.AddDate(0, 0, i),
			Score:      50 + float64(i),
			AvgReturn:  float64(i),
		}))
	}
	require.NoError(t, rec.RecordGroupScore(ctx, analysisDomain.GroupScoreSnapshot{GroupID: "other", RecordedAt: base, Score: 10}))

	history, err := rec.GroupScoreHistory(ctx, "tech", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 52.0, history[0].Score)
	assert.Equal(t, 54.0, history[2].Score)
	assert.True(t, history[2].RecordedAt.Equal(base.AddDate(0, 0, 4)))

	all, err := rec.GroupScoreHistory(ctx, "tech", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := rec.GroupScoreHistory(ctx, "missing", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	require.NoError(t, rec.RecordGroupScore(context.Background(), analysisDomain.GroupScoreSnapshot{GroupID: "x"}))
	history, err := rec.GroupScoreHistory(context.Background(), "x", 5)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NoError(t, rec.Close())
}
