package recorder

import (
	"context"

	analysisDomain "stonx/internal/domain/analysis"
)

// Recorder 保存群組分數歷史供趨勢圖使用。
type Recorder interface {
	RecordGroupScore(ctx context.Context, snap analysisDomain.GroupScoreSnapshot) error
	// GroupScoreHistory 依時間遞增回傳最近 limit 筆。
	GroupScoreHistory(ctx context.Context, groupID string, limit int) ([]analysisDomain.GroupScoreSnapshot, error)
	Close() error
}

const defaultHistoryLimit = 90
