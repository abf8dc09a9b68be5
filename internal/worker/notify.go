package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"artfolio/internal/tasks"
)

// 通知状态
const (
	NotifyCompleted = "completed"
	NotifyError     = "error"
	NotifyPreview   = "preview_ready"
)

// NotifyMessage 是通过 Redis Pub/Sub 转发给 WebSocket 客户端的消息。
type NotifyMessage struct {
	Status        string `json:"status"`
	PortfolioID   uint   `json:"portfolio_id"`
	Format        string `json:"format,omitempty"`
	CorrelationID string `json:"correlation_id"`
	URL           string `json:"url,omitempty"`
	Filename      string `json:"filename,omitempty"`
	SizeBytes     int64  `json:"size_bytes,omitempty"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

// Publisher 发布通知；生产环境由 Redis 实现，测试中替换为内存实现。
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher 用 go-redis 实现 Publisher。
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

func publishNotify(ctx context.Context, pub Publisher, artistID uint, msg NotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.NotifyChannel(artistID)
	if err := pub.Publish(ctx, channel, data); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
