// Package repository 是艺术家、作品集与生成文档的持久化接口，提供 gorm 与内存两种实现。
package repository

import (
	"context"
	"errors"

	"artfolio/internal/database"
)

var (
	// ErrNotFound 表示记录不存在（或已删除）。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 表示唯一键冲突（艺术家邮箱）。
	ErrDuplicate = errors.New("duplicate record")
)

// ListOptions 分页与过滤。Limit <= 0 时使用默认值。
type ListOptions struct {
	Limit    int
	Offset   int
	Category string
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func (o ListOptions) limit() int {
	switch {
	case o.Limit <= 0:
		return defaultListLimit
	case o.Limit > maxListLimit:
		return maxListLimit
	}
	return o.Limit
}

// PortfolioUpdate 是生成流程维护的作品集字段，nil 字段保持不变。
type PortfolioUpdate struct {
	Status           *string
	HTMLObjectKey    *string
	PDFObjectKey     *string
	PDFSizeBytes     *int64
	PreviewObjectKey *string
}

func (u PortfolioUpdate) columns() map[string]any {
	cols := make(map[string]any, 5)
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.HTMLObjectKey != nil {
		cols["html_object_key"] = *u.HTMLObjectKey
	}
	if u.PDFObjectKey != nil {
		cols["pdf_object_key"] = *u.PDFObjectKey
	}
	if u.PDFSizeBytes != nil {
		cols["pdf_size_bytes"] = *u.PDFSizeBytes
	}
	if u.PreviewObjectKey != nil {
		cols["preview_object_key"] = *u.PreviewObjectKey
	}
	return cols
}

func (u PortfolioUpdate) apply(p *database.Portfolio) {
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.HTMLObjectKey != nil {
		p.HTMLObjectKey = *u.HTMLObjectKey
	}
	if u.PDFObjectKey != nil {
		p.PDFObjectKey = *u.PDFObjectKey
	}
	if u.PDFSizeBytes != nil {
		p.PDFSizeBytes = *u.PDFSizeBytes
	}
	if u.PreviewObjectKey != nil {
		p.PreviewObjectKey = *u.PreviewObjectKey
	}
}

// Repository 由 GormRepository 与 MemoryRepository 实现。
type Repository interface {
	CreateArtist(ctx context.Context, a *database.Artist) error
	GetArtist(ctx context.Context, id uint) (*database.Artist, error)
	GetArtistByEmail(ctx context.Context, email string) (*database.Artist, error)
	ListArtists(ctx context.Context, opts ListOptions) ([]database.Artist, error)
	UpdateArtist(ctx context.Context, a *database.Artist) error
	// DeleteArtist 连同作品集与文档一起删除。
	DeleteArtist(ctx context.Context, id uint) error

	CreatePortfolio(ctx context.Context, p *database.Portfolio) error
	GetPortfolio(ctx context.Context, id uint) (*database.Portfolio, error)
	ListPortfolios(ctx context.Context, artistID uint) ([]database.Portfolio, error)
	UpdatePortfolio(ctx context.Context, p *database.Portfolio) error
	UpdatePortfolioState(ctx context.Context, id uint, u PortfolioUpdate) error
	DeletePortfolio(ctx context.Context, id uint) error

	// RecordDocument 在同一事务中插入 doc 并更新作品集。
	RecordDocument(ctx context.Context, doc *database.GeneratedDocument, u PortfolioUpdate) error
	ListDocuments(ctx context.Context, portfolioID uint) ([]database.GeneratedDocument, error)
}
