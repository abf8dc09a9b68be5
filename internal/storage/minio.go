package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"artfolio/internal/config"
)

// streamPartSize 是未知长度流式上传时的分片大小。
const streamPartSize = 5 << 20

// Client 封装 MinIO 客户端，实现 Store。
type Client struct {
	internalClient *minio.Client
	publicClient   *minio.Client
	bucketName     string
	presignTTL     time.Duration
}

var _ Store = (*Client)(nil)

// NewClient 根据配置初始化 MinIO 客户端，并确保目标 Bucket 存在。
func NewClient(cfg config.MinIOConfig, presignTTL time.Duration) (*Client, error) {
	var bucketLookup minio.BucketLookupType
	switch strings.ToLower(strings.TrimSpace(cfg.BucketLookup)) {
	case "", "auto":
		bucketLookup = minio.BucketLookupAuto
	case "dns":
		bucketLookup = minio.BucketLookupDNS
	case "path":
		bucketLookup = minio.BucketLookupPath
	default:
		return nil, fmt.Errorf("invalid minio bucket lookup %q", cfg.BucketLookup)
	}

	creds := credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	internalClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        creds,
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: bucketLookup,
	})
	if err != nil {
		return nil, fmt.Errorf("init internal minio client: %w", err)
	}

	// 预签名链接要用浏览器可达的地址签名，未配置时复用内部客户端。
	publicClient := internalClient
	if endpoint := strings.TrimSpace(cfg.PublicEndpoint); endpoint != "" {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse minio public endpoint: %w", err)
		}
		if parsed.Host == "" {
			return nil, fmt.Errorf("invalid minio public endpoint, host missing")
		}
		publicClient, err = minio.New(parsed.Host, &minio.Options{
			Creds:        creds,
			Secure:       parsed.Scheme == "https",
			Region:       cfg.Region,
			BucketLookup: bucketLookup,
		})
		if err != nil {
			return nil, fmt.Errorf("init public minio client: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := internalClient.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if !cfg.AutoCreateBucket {
			return nil, fmt.Errorf("bucket %q does not exist (auto create disabled)", cfg.Bucket)
		}
		if err := internalClient.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("make bucket %q: %w", cfg.Bucket, err)
		}
	}

	if presignTTL <= 0 {
		presignTTL = 7 * 24 * time.Hour
	}

	return &Client{
		internalClient: internalClient,
		publicClient:   publicClient,
		bucketName:     cfg.Bucket,
		presignTTL:     presignTTL,
	}, nil
}

// Put 上传已知长度的对象。
func (c *Client) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (ObjectInfo, error) {
	info, err := c.internalClient.PutObject(ctx, c.bucketName, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("put object %q: %w", key, err)
	}
	return ObjectInfo{Key: key, Size: info.Size, ContentType: contentType, LastModified: info.LastModified}, nil
}

// NewWriter 返回流式写入器：写入端通过 io.Pipe 喂给后台 PutObject。
func (c *Client) NewWriter(ctx context.Context, key, contentType string) (ObjectWriter, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrInvalidKey
	}

	pr, pw := io.Pipe()
	w := &pipeWriter{key: key, pw: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		info, err := c.internalClient.PutObject(ctx, c.bucketName, key, pr, -1, minio.PutObjectOptions{
			ContentType: contentType,
			PartSize:    streamPartSize,
		})
		w.info, w.err = info, err
		// 上传提前失败时让写入端立刻返回错误。
		_ = pr.CloseWithError(err)
	}()
	return w, nil
}

type pipeWriter struct {
	key  string
	pw   *io.PipeWriter
	done chan struct{}
	once sync.Once

	written int64
	info    minio.UploadInfo
	err     error
}

func (w *pipeWriter) Write(p []byte) (int, error) {
	n, err := w.pw.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *pipeWriter) Close() error {
	w.once.Do(func() { _ = w.pw.Close() })
	<-w.done
	if w.err != nil {
		return fmt.Errorf("put object %q: %w", w.key, w.err)
	}
	return nil
}

func (w *pipeWriter) Abort(err error) {
	if err == nil {
		err = io.ErrClosedPipe
	}
	w.once.Do(func() { _ = w.pw.CloseWithError(err) })
	<-w.done
}

func (w *pipeWriter) Size() int64 {
	if w.info.Size > 0 {
		return w.info.Size
	}
	return w.written
}

// Get 读取对象；对象不存在时返回的错误满足 IsNoSuchKey。
func (c *Client) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := c.internalClient.GetObject(ctx, c.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get object %q: %w", key, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat object %q: %w", key, err)
	}
	return obj, ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		ContentType:  stat.ContentType,
		LastModified: stat.LastModified,
	}, nil
}

// URL 生成对象的限时下载链接。
func (c *Client) URL(ctx context.Context, key string) (string, error) {
	presignedURL, err := c.publicClient.PresignedGetObject(ctx, c.bucketName, key, c.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("generate presigned url for %q: %w", key, err)
	}
	return presignedURL.String(), nil
}

// Delete 删除指定对象。
// 若对象不存在会被视为成功（幂等）。
func (c *Client) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if err := c.internalClient.RemoveObject(ctx, c.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		if IsNoSuchKey(err) {
			return nil
		}
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// DeletePrefix 删除指定前缀下的所有对象。
// 若某些对象已不存在会被忽略；其余错误会聚合返回。
func (c *Client) DeletePrefix(ctx context.Context, prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil
	}

	objCh := c.internalClient.ListObjects(ctx, c.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	keys := make([]string, 0, 32)
	for object := range objCh {
		if object.Err != nil {
			return fmt.Errorf("list objects under %q: %w", prefix, object.Err)
		}
		if strings.TrimSpace(object.Key) != "" {
			keys = append(keys, object.Key)
		}
	}

	var failed int
	var last error
	for _, key := range keys {
		if err := c.Delete(ctx, key); err != nil {
			failed++
			last = err
		}
	}
	switch failed {
	case 0:
		return nil
	case 1:
		return last
	}

	slog.Default().Error("delete minio objects under prefix failed",
		slog.String("prefix", prefix),
		slog.Int("failed_count", failed),
	)
	return fmt.Errorf("delete objects under %q: %d errors", prefix, failed)
}
