package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"artfolio/internal/api/middleware"
)

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// redisKV 是 handler 用到的 Redis 命令子集，*redis.Client 直接满足。
type redisKV interface {
	redisRateCounter
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

func incrWithTTL(ctx context.Context, client redisRateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// rateLimit 是按客户端 IP 的固定窗口限流。limit <= 0 或 client 为 nil 时不限流；
// Redis 故障时放行。
func rateLimit(client redisRateCounter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 || window <= 0 {
			c.Next()
			return
		}

		bucket := time.Now().UTC().UnixNano() / int64(window)
		key := fmt.Sprintf("rate:%s:%s:%d", scope, c.ClientIP(), bucket)
		count, err := incrWithTTL(c.Request.Context(), client, key, window)
		if err != nil {
			middleware.LoggerFromContext(c).Warn("rate limit counter unavailable",
				slog.String("scope", scope),
				slog.Any("error", err),
			)
			c.Next()
			return
		}
		if count > int64(limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			TooManyRequests(c)
			return
		}
		c.Next()
	}
}

// noopKV 在未配置 Redis 时顶替：不锁定登录，刷新令牌黑名单为空。
type noopKV struct{}

func (noopKV) Incr(ctx context.Context, _ string) *redis.IntCmd {
	return redis.NewIntResult(0, nil)
}

func (noopKV) Expire(ctx context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(false, nil)
}

func (noopKV) Get(ctx context.Context, _ string) *redis.StringCmd {
	return redis.NewStringResult("", redis.Nil)
}

func (noopKV) Set(ctx context.Context, _ string, _ interface{}, _ time.Duration) *redis.StatusCmd {
	return redis.NewStatusResult("OK", nil)
}

func (noopKV) Del(ctx context.Context, _ ...string) *redis.IntCmd {
	return redis.NewIntResult(0, nil)
}

func (noopKV) TTL(ctx context.Context, _ string) *redis.DurationCmd {
	return redis.NewDurationResult(-2*time.Second, nil)
}
