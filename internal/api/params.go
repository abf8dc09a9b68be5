package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"artfolio/internal/api/middleware"
	"artfolio/internal/repository"
)

var errInvalidID = errors.New("invalid id")

func artistIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get(middleware.ArtistIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, v != 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), v != 0
	default:
		return 0, false
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

func listOptions(c *gin.Context) repository.ListOptions {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{
		Limit:    limit,
		Offset:   offset,
		Category: strings.TrimSpace(c.Query("category")),
	}
}

// respondRepoError 把仓储层错误映射为 HTTP 响应。
func respondRepoError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, what+" not found")
	case errors.Is(err, repository.ErrDuplicate):
		Conflict(c, "email already registered")
	default:
		Internal(c, "internal error")
	}
}
