package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"artfolio/internal/database"
)

// GormRepository 基于 gorm（生产 PostgreSQL，测试 SQLite）。
type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository wraps db.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *GormRepository) CreateArtist(ctx context.Context, a *database.Artist) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&database.Artist{}).Where("email = ?", a.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("check artist email: %w", err)
		}
		if count > 0 {
			return ErrDuplicate
		}
		if err := tx.Create(a).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicate
			}
			return fmt.Errorf("create artist: %w", err)
		}
		return nil
	})
}

func (r *GormRepository) GetArtist(ctx context.Context, id uint) (*database.Artist, error) {
	var a database.Artist
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *GormRepository) GetArtistByEmail(ctx context.Context, email string) (*database.Artist, error) {
	var a database.Artist
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *GormRepository) ListArtists(ctx context.Context, opts ListOptions) ([]database.Artist, error) {
	q := r.db.WithContext(ctx).Order("id").Limit(opts.limit()).Offset(opts.Offset)
	if c := strings.TrimSpace(opts.Category); c != "" {
		q = q.Where("category = ?", c)
	}
	var out []database.Artist
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	return out, nil
}

func (r *GormRepository) UpdateArtist(ctx context.Context, a *database.Artist) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.Artist
		if err := tx.First(&existing, a.ID).Error; err != nil {
			return notFound(err)
		}
		var count int64
		if err := tx.Model(&database.Artist{}).Where("email = ? AND id <> ?", a.Email, a.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("check artist email: %w", err)
		}
		if count > 0 {
			return ErrDuplicate
		}
		a.CreatedAt = existing.CreatedAt
		if err := tx.Omit("Portfolios").Save(a).Error; err != nil {
			return fmt.Errorf("update artist: %w", err)
		}
		return nil
	})
}

func (r *GormRepository) DeleteArtist(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&database.Portfolio{}).Select("id").Where("artist_id = ?", id)
		if err := tx.Unscoped().Where("portfolio_id IN (?)", owned).Delete(&database.GeneratedDocument{}).Error; err != nil {
			return fmt.Errorf("delete artist documents: %w", err)
		}
		if err := tx.Unscoped().Where("artist_id = ?", id).Delete(&database.Portfolio{}).Error; err != nil {
			return fmt.Errorf("delete artist portfolios: %w", err)
		}
		// 硬删除，释放邮箱唯一索引
		res := tx.Unscoped().Delete(&database.Artist{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete artist: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRepository) CreatePortfolio(ctx context.Context, p *database.Portfolio) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&database.Artist{}).Where("id = ?", p.ArtistID).Count(&count).Error; err != nil {
			return fmt.Errorf("check artist: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Omit("Artist").Create(p).Error; err != nil {
			return fmt.Errorf("create portfolio: %w", err)
		}
		return nil
	})
}

func (r *GormRepository) GetPortfolio(ctx context.Context, id uint) (*database.Portfolio, error) {
	var p database.Portfolio
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *GormRepository) ListPortfolios(ctx context.Context, artistID uint) ([]database.Portfolio, error) {
	var out []database.Portfolio
	if err := r.db.WithContext(ctx).Where("artist_id = ?", artistID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	return out, nil
}

func (r *GormRepository) UpdatePortfolio(ctx context.Context, p *database.Portfolio) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.Portfolio
		if err := tx.First(&existing, p.ID).Error; err != nil {
			return notFound(err)
		}
		p.CreatedAt = existing.CreatedAt
		if err := tx.Omit("Artist").Save(p).Error; err != nil {
			return fmt.Errorf("update portfolio: %w", err)
		}
		return nil
	})
}

func (r *GormRepository) UpdatePortfolioState(ctx context.Context, id uint, u PortfolioUpdate) error {
	return updatePortfolioState(r.db.WithContext(ctx), id, u)
}

func updatePortfolioState(tx *gorm.DB, id uint, u PortfolioUpdate) error {
	cols := u.columns()
	if len(cols) == 0 {
		return nil
	}
	res := tx.Model(&database.Portfolio{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update portfolio %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) DeletePortfolio(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("portfolio_id = ?", id).Delete(&database.GeneratedDocument{}).Error; err != nil {
			return fmt.Errorf("delete portfolio documents: %w", err)
		}
		res := tx.Unscoped().Delete(&database.Portfolio{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete portfolio: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRepository) RecordDocument(ctx context.Context, doc *database.GeneratedDocument, u PortfolioUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Portfolio").Create(doc).Error; err != nil {
			return fmt.Errorf("create generated document: %w", err)
		}
		return updatePortfolioState(tx, doc.PortfolioID, u)
	})
}

func (r *GormRepository) ListDocuments(ctx context.Context, portfolioID uint) ([]database.GeneratedDocument, error) {
	var out []database.GeneratedDocument
	err := r.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}
