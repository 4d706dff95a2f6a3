package feed

import (
	"context"
	"time"

	"siacom-console/internal/models"
)

// Source 状态数据源：远端轮询与本地模拟共用同一契约，控制器不关心具体实现
type Source interface {
	Name() string
	Interval() time.Duration
	// Seed 激活时立即展示的初始快照；返回 nil 表示激活后立刻拉取一次
	Seed(patientID string) *models.Snapshot
	// Next 产出下一份快照；prev 为当前已应用的快照（可能为 nil），不得修改
	Next(ctx context.Context, patientID string, prev *models.Snapshot) (*models.Snapshot, error)
}
