// Package generation 把已存储的艺术家与作品集生成为 HTML / PDF 文档，
// 写入对象存储并记录生成结果。
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"artfolio/internal/config"
	"artfolio/internal/database"
	"artfolio/internal/metrics"
	"artfolio/internal/portfolio"
	"artfolio/internal/render/html"
	"artfolio/internal/render/pdf"
	"artfolio/internal/repository"
	"artfolio/internal/storage"
)

// ErrUnknownFormat 表示 html、pdf 以外的格式。
var ErrUnknownFormat = errors.New("unknown document format")

// Service 负责作品集文档生成。
type Service struct {
	repo   repository.Repository
	store  storage.Store
	logger *slog.Logger

	naming   string
	sanitize bool
	now      func() time.Time
	token    func() string

	html *html.Composer
	pdf  *pdf.Composer
}

// Option 配置 Service。
type Option func(*Service)

// WithClock 替换文件名、页脚与 PDF 元数据使用的时钟。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithNaming 选择文件命名策略：config.FileNamingTimestamp（默认）或 config.FileNamingOverwrite。
func WithNaming(policy string) Option {
	return func(s *Service) { s.naming = strings.ToLower(strings.TrimSpace(policy)) }
}

// WithSanitizer 开启 HTML 用户内容清洗。
func WithSanitizer(enabled bool) Option {
	return func(s *Service) { s.sanitize = enabled }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTokenSource 替换时间戳文件名末尾的随机串。
func WithTokenSource(token func() string) Option {
	return func(s *Service) {
		if token != nil {
			s.token = token
		}
	}
}

func NewService(repo repository.Repository, store storage.Store, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		store:  store,
		logger: slog.Default(),
		naming: config.FileNamingTimestamp,
		now:    time.Now,
		token:  func() string { return uuid.NewString()[:8] },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.html = html.NewComposer(html.WithClock(s.now), html.WithSanitizer(s.sanitize))
	s.pdf = pdf.NewComposer(pdf.WithClock(s.now))
	return s
}

// NewServiceFromConfig 按渲染配置构造 Service。
func NewServiceFromConfig(cfg config.RenderConfig, repo repository.Repository, store storage.Store, logger *slog.Logger) *Service {
	return NewService(repo, store,
		WithNaming(cfg.FileNaming),
		WithSanitizer(cfg.SanitizeHTML),
		WithLogger(logger),
	)
}

type input struct {
	artist    *database.Artist
	portfolio *database.Portfolio
	content   portfolio.ContentRecord
	theme     portfolio.Theme
	template  portfolio.TemplateID
}

func (s *Service) load(ctx context.Context, portfolioID uint) (*input, error) {
	p, err := s.repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load portfolio %d: %w", portfolioID, err)
	}
	artist, err := s.repo.GetArtist(ctx, p.ArtistID)
	if err != nil {
		return nil, fmt.Errorf("load artist %d: %w", p.ArtistID, err)
	}

	content, custom, err := Normalize(*artist, *p)
	if err != nil {
		return nil, err
	}
	if key := strings.TrimSpace(artist.ProfileImageKey); key != "" {
		if u, err := s.store.URL(ctx, key); err == nil {
			content.ProfileImageURL = u
		} else {
			s.logger.Warn("resolve profile image url failed",
				slog.Uint64("artist_id", uint64(artist.ID)),
				slog.Any("error", err),
			)
		}
	}

	return &input{
		artist:    artist,
		portfolio: p,
		content:   content,
		theme:     portfolio.ResolveTheme(custom),
		template:  portfolio.SelectTemplate(p.TemplateID),
	}, nil
}

// Filename 按当前命名策略返回文档文件名。
func (s *Service) Filename(portfolioID uint, format string) string {
	if s.naming == config.FileNamingOverwrite {
		return fmt.Sprintf("portfolio-%d.%s", portfolioID, format)
	}
	return fmt.Sprintf("portfolio-%d-%d-%s.%s", portfolioID, s.now().UnixMilli(), s.token(), format)
}

// ObjectKey 是生成文档在对象存储中的位置。
func ObjectKey(portfolioID uint, filename string) string {
	return fmt.Sprintf("portfolios/%d/%s", portfolioID, filename)
}

// RenderHTML 渲染实时预览，不落盘。
func (s *Service) RenderHTML(ctx context.Context, portfolioID uint) (string, error) {
	in, err := s.load(ctx, portfolioID)
	if err != nil {
		return "", err
	}
	return s.html.Compose(in.content, in.template, in.theme)
}

// Generate 按格式（"html" 或 "pdf"）分派。
func (s *Service) Generate(ctx context.Context, portfolioID uint, format string) (*database.GeneratedDocument, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case database.FormatHTML:
		return s.GenerateHTML(ctx, portfolioID)
	case database.FormatPDF:
		return s.GeneratePDF(ctx, portfolioID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// GenerateHTML 渲染、存储并记录 HTML 文档。
func (s *Service) GenerateHTML(ctx context.Context, portfolioID uint) (doc *database.GeneratedDocument, err error) {
	start := time.Now()
	var size int64
	defer func() { metrics.ObserveGeneration(database.FormatHTML, err, time.Since(start), size) }()

	in, err := s.load(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	out, err := s.html.Compose(in.content, in.template, in.theme)
	if err != nil {
		return nil, s.fail(ctx, portfolioID, fmt.Errorf("render html: %w", err))
	}
	size = int64(len(out))

	filename := s.Filename(portfolioID, database.FormatHTML)
	key := ObjectKey(portfolioID, filename)
	if _, err := s.store.Put(ctx, key, strings.NewReader(out), size, "text/html; charset=utf-8"); err != nil {
		return nil, s.fail(ctx, portfolioID, fmt.Errorf("store html: %w", err))
	}

	return s.record(ctx, &database.GeneratedDocument{
		PortfolioID: portfolioID,
		Format:      database.FormatHTML,
		Filename:    filename,
		ObjectKey:   key,
		SizeBytes:   size,
	}, repository.PortfolioUpdate{
		HTMLObjectKey: lo.ToPtr(key),
	})
}

// GeneratePDF 把 PDF 流式写入对象存储，Close 确认落盘后才读取大小与 URL。
func (s *Service) GeneratePDF(ctx context.Context, portfolioID uint) (doc *database.GeneratedDocument, err error) {
	start := time.Now()
	var size int64
	defer func() { metrics.ObserveGeneration(database.FormatPDF, err, time.Since(start), size) }()

	in, err := s.load(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	filename := s.Filename(portfolioID, database.FormatPDF)
	key := ObjectKey(portfolioID, filename)

	w, err := s.store.NewWriter(ctx, key, "application/pdf")
	if err != nil {
		return nil, s.fail(ctx, portfolioID, fmt.Errorf("open pdf sink: %w", err))
	}
	if err := s.pdf.Compose(in.content, in.theme, w); err != nil {
		w.Abort(err)
		return nil, s.fail(ctx, portfolioID, fmt.Errorf("render pdf: %w", err))
	}
	if err := w.Close(); err != nil {
		return nil, s.fail(ctx, portfolioID, fmt.Errorf("store pdf: %w", err))
	}
	size = w.Size()

	return s.record(ctx, &database.GeneratedDocument{
		PortfolioID: portfolioID,
		Format:      database.FormatPDF,
		Filename:    filename,
		ObjectKey:   key,
		SizeBytes:   size,
	}, repository.PortfolioUpdate{
		PDFObjectKey: lo.ToPtr(key),
		PDFSizeBytes: lo.ToPtr(size),
	})
}

func (s *Service) record(ctx context.Context, doc *database.GeneratedDocument, u repository.PortfolioUpdate) (*database.GeneratedDocument, error) {
	u.Status = lo.ToPtr(database.StatusCompleted)

	url, err := s.store.URL(ctx, doc.ObjectKey)
	if err != nil {
		return nil, s.fail(ctx, doc.PortfolioID, fmt.Errorf("resolve document url: %w", err))
	}
	doc.URL = url

	if err := s.repo.RecordDocument(ctx, doc, u); err != nil {
		return nil, fmt.Errorf("record document: %w", err)
	}

	s.logger.Info("portfolio document generated",
		slog.Uint64("portfolio_id", uint64(doc.PortfolioID)),
		slog.String("format", doc.Format),
		slog.String("object_key", doc.ObjectKey),
		slog.Int64("size_bytes", doc.SizeBytes),
	)
	return doc, nil
}

// fail 尽力把作品集标记为失败，并原样返回 err。
func (s *Service) fail(ctx context.Context, portfolioID uint, err error) error {
	if uerr := s.repo.UpdatePortfolioState(ctx, portfolioID, repository.PortfolioUpdate{
		Status: lo.ToPtr(database.StatusFailed),
	}); uerr != nil {
		s.logger.Warn("mark portfolio failed",
			slog.Uint64("portfolio_id", uint64(portfolioID)),
			slog.Any("error", uerr),
		)
	}
	return err
}
