package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypePortfolioGenerate = "portfolio:generate"
	TypePortfolioPreview  = "portfolio:preview"
)

// GeneratePayload 描述一次文档生成任务。
type GeneratePayload struct {
	PortfolioID   uint   `json:"portfolio_id"`
	Format        string `json:"format"`
	CorrelationID string `json:"correlation_id"`
}

// PreviewPayload 描述作品集缩略图任务。
type PreviewPayload struct {
	PortfolioID   uint   `json:"portfolio_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewGenerateTask 构造一个作品集文档生成任务。
func NewGenerateTask(portfolioID uint, format, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(GeneratePayload{
		PortfolioID:   portfolioID,
		Format:        format,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePortfolioGenerate, payload), nil
}

// NewPreviewTask 构造一个作品集缩略图任务。
// 同一作品集在队列中只保留一个预览任务（重复入队返回 asynq.ErrTaskIDConflict）。
func NewPreviewTask(portfolioID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PreviewPayload{
		PortfolioID:   portfolioID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePortfolioPreview, payload,
		asynq.TaskID(fmt.Sprintf("preview-%d", portfolioID)),
	), nil
}

// NotifyChannel 是艺术家专属的 Redis 通知频道，worker 发布、WebSocket 订阅。
func NotifyChannel(artistID uint) string {
	return fmt.Sprintf("artist_notify:%d", artistID)
}
