package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"artfolio/internal/api/middleware"
	"artfolio/internal/storage"
)

// FileHandler 直接输出对象存储中的文件（本地驱动的公开地址即指向这里）。
type FileHandler struct {
	store storage.Store
}

func NewFileHandler(store storage.Store) *FileHandler {
	return &FileHandler{store: store}
}

// GET /files/*key
func (h *FileHandler) ServeFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		NotFound(c, "file not found")
		return
	}

	rc, info, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidKey):
			BadRequest(c, "invalid file key")
		case storage.IsNoSuchKey(err):
			NotFound(c, "file not found")
		default:
			middleware.LoggerFromContext(c).Error("read stored file failed", slog.String("key", key), slog.Any("error", err))
			Internal(c, "failed to read file")
		}
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	if info.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if !info.LastModified.IsZero() {
		c.Header("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	c.Status(http.StatusOK)
	if c.Request.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(c.Writer, rc); err != nil {
		middleware.LoggerFromContext(c).Warn("stream stored file interrupted", slog.String("key", key), slog.Any("error", err))
	}
}
