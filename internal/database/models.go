package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 生成文档格式
const (
	FormatHTML = "html"
	FormatPDF  = "pdf"
)

// 作品集状态
const (
	StatusDraft      = "draft"
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Artist 表示注册的艺术家账号及其资料。
type Artist struct {
	gorm.Model
	Name            string         `gorm:"size:128" json:"name"`
	Email           string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash    string         `gorm:"size:255" json:"-"`
	Phone           string         `gorm:"size:64" json:"phone,omitempty"`
	Category        string         `gorm:"size:64" json:"category,omitempty"`
	ExperienceLevel string         `gorm:"size:64" json:"experience_level,omitempty"`
	City            string         `gorm:"size:128" json:"city,omitempty"`
	Country         string         `gorm:"size:128" json:"country,omitempty"`
	Bio             string         `gorm:"type:text" json:"bio,omitempty"`
	Skills          string         `gorm:"type:text" json:"skills,omitempty"` // 逗号分隔
	SocialLinks     datatypes.JSON `gorm:"type:jsonb" json:"social_links,omitempty"`
	ProfileImageKey string         `gorm:"size:512" json:"profile_image_key,omitempty"`
	MediaKeys       datatypes.JSON `gorm:"type:jsonb" json:"media_keys,omitempty"`
	Portfolios      []Portfolio    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Portfolio 是艺术家的一份作品集：模板、配色与内容。
type Portfolio struct {
	gorm.Model
	ArtistID         uint           `gorm:"index" json:"artist_id"`
	Artist           Artist         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title            string         `gorm:"size:255" json:"title"`
	Description      string         `gorm:"type:text" json:"description,omitempty"`
	TemplateID       string         `gorm:"size:32" json:"template_id"`
	Customizations   datatypes.JSON `gorm:"type:jsonb" json:"customizations,omitempty"`
	Content          datatypes.JSON `gorm:"type:jsonb" json:"content,omitempty"`  // aboutMe/jobs/services/testimonials/skills
	Sections         datatypes.JSON `gorm:"type:jsonb" json:"sections,omitempty"` // [{type,title,content,order}]
	HTMLObjectKey    string         `gorm:"size:512" json:"html_object_key,omitempty"`
	PDFObjectKey     string         `gorm:"size:512" json:"pdf_object_key,omitempty"`
	PDFSizeBytes     int64          `json:"pdf_size_bytes,omitempty"`
	PreviewObjectKey string         `gorm:"size:512" json:"preview_object_key,omitempty"`
	Status           string         `gorm:"size:32" json:"status"`
}

// GeneratedDocument 记录一次生成的产物，创建后不再修改。
type GeneratedDocument struct {
	gorm.Model
	PortfolioID uint      `gorm:"index" json:"portfolio_id"`
	Portfolio   Portfolio `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Format      string    `gorm:"size:8" json:"format"`
	Filename    string    `gorm:"size:255" json:"filename"`
	ObjectKey   string    `gorm:"size:512" json:"object_key"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `gorm:"size:2048" json:"url"`
}

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{&Artist{}, &Portfolio{}, &GeneratedDocument{}}
}

// AutoMigrate 创建或更新全部表结构。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
