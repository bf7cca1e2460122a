package recorder

import (
	"context"

	analysisDomain "stonx/internal/domain/analysis"
)

// NoopRecorder 在未設定 SQLite 時使用。
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordGroupScore(context.Context, analysisDomain.GroupScoreSnapshot) error {
	return nil
}

func (n *NoopRecorder) GroupScoreHistory(context.Context, string, int) ([]analysisDomain.GroupScoreSnapshot, error) {
	return []analysisDomain.GroupScoreSnapshot{}, nil
}

func (n *NoopRecorder) Close() error { return nil }
