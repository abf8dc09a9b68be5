package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"artfolio/internal/config"
)

// ErrInvalidKey 表示对象 key 为空或试图越出存储根目录。
var ErrInvalidKey = errors.New("invalid object key")

// ObjectInfo 描述已写入的对象。
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectWriter 是单个对象的流式写入端。Close 阻塞到对象落盘并返回写入或上传错误；
// Close 成功后 Size 才有效。Abort 丢弃未完成的对象。
type ObjectWriter interface {
	io.Writer
	Close() error
	Abort(err error)
	Size() int64
}

// Store 是 handler、生成服务与 worker 共用的对象存储接口。
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (ObjectInfo, error)
	NewWriter(ctx context.Context, key, contentType string) (ObjectWriter, error)
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	URL(ctx context.Context, key string) (string, error)
}

// NewFromConfig 根据 storage.driver 构造存储实现。
func NewFromConfig(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverLocal:
		return NewLocalStore(cfg.Storage.LocalRoot, cfg.Storage.PublicBaseURL)
	case config.StorageDriverMinIO, "":
		return NewClient(cfg.MinIO, cfg.Storage.PresignTTL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
