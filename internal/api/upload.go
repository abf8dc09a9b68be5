package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/dutchcoders/go-clamd"
	"github.com/google/uuid"

	"artfolio/internal/storage"
)

var (
	errFileTooLarge   = errors.New("file too large")
	errFileType       = errors.New("unsupported file type")
	errInfectedUpload = errors.New("malicious file detected")
)

// 头像只接受图片；作品媒体额外接受音视频与 PDF。
var (
	imageExtensions = map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".webp": "image/webp",
		".gif":  "image/gif",
	}
	mediaExtensions = map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".webp": "image/webp",
		".gif":  "image/gif",
		".mp3":  "audio/mpeg",
		".wav":  "audio/wav",
		".mp4":  "video/mp4",
		".mov":  "video/quicktime",
		".pdf":  "application/pdf",
	}
)

// virusScanner 扫描上传内容，发现威胁时返回 errInfectedUpload。
type virusScanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

// clamdScanner 通过 clamd 的 INSTREAM 扫描；地址为空时不扫描。
type clamdScanner struct {
	addr string
}

func newClamdScanner(addr string) virusScanner {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	return clamdScanner{addr: addr}
}

func (s clamdScanner) Scan(ctx context.Context, r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := clamd.NewClamd(s.addr).ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-results:
			if !ok {
				return nil
			}
			switch result.Status {
			case clamd.RES_OK:
			case clamd.RES_FOUND:
				return fmt.Errorf("%w: %s", errInfectedUpload, result.Description)
			default:
				return fmt.Errorf("clamd %s: %s", result.Status, result.Description)
			}
		}
	}
}

// uploader 负责上传文件的校验、扫描与落盘。
type uploader struct {
	store    storage.Store
	scanner  virusScanner
	maxBytes int64
}

// artistMediaKey 生成 artists/<id>/media/<uuid><ext>。
func artistMediaKey(artistID uint, ext string) string {
	return fmt.Sprintf("artists/%d/media/%s%s", artistID, uuid.NewString(), ext)
}

// artistProfileKey 生成 artists/<id>/profile/<uuid><ext>。
func artistProfileKey(artistID uint, ext string) string {
	return fmt.Sprintf("artists/%d/profile/%s%s", artistID, uuid.NewString(), ext)
}

func isValidArtistObjectKey(artistID uint, key string) bool {
	if key == "" || !utf8.ValidString(key) || len(key) > 200 {
		return false
	}
	if !strings.HasPrefix(key, fmt.Sprintf("artists/%d/", artistID)) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	_, ok := mediaExtensions[strings.ToLower(path.Ext(key))]
	return ok
}

// save 校验大小与扩展名，扫描后上传到 key(ext) 给出的位置。
func (u *uploader) save(ctx context.Context, fh *multipart.FileHeader, allowed map[string]string, key func(ext string) string) (string, error) {
	if u.maxBytes > 0 && fh.Size > u.maxBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", errFileTooLarge, fh.Filename, u.maxBytes)
	}
	ext := strings.ToLower(path.Ext(fh.Filename))
	contentType, ok := allowed[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", errFileType, fh.Filename)
	}

	if u.scanner != nil {
		f, err := fh.Open()
		if err != nil {
			return "", fmt.Errorf("open upload: %w", err)
		}
		err = u.scanner.Scan(ctx, f)
		_ = f.Close()
		if err != nil {
			return "", err
		}
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("reopen upload: %w", err)
	}
	defer f.Close()

	objectKey := key(ext)
	if _, err := u.store.Put(ctx, objectKey, f, fh.Size, contentType); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return objectKey, nil
}

// isClientUploadError 区分请求侧问题（400）与系统错误（500）。
func isClientUploadError(err error) bool {
	return errors.Is(err, errFileTooLarge) || errors.Is(err, errFileType) || errors.Is(err, errInfectedUpload)
}
