package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/samber/lo"
	"gorm.io/datatypes"

	"artfolio/internal/api/middleware"
	"artfolio/internal/database"
	"artfolio/internal/generation"
	"artfolio/internal/portfolio"
	"artfolio/internal/repository"
	"artfolio/internal/storage"
	"artfolio/internal/tasks"
)

// taskEnqueuer 由 *asynq.Client 实现。
type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PortfolioHandler 负责作品集 CRUD、实时预览与文档生成。
type PortfolioHandler struct {
	repo      repository.Repository
	store     storage.Store
	generator *generation.Service
	queue     taskEnqueuer
	maxRetry  int
	logger    *slog.Logger
}

// NewPortfolioHandler 构造 PortfolioHandler。queue 为 nil 时不支持异步生成。
func NewPortfolioHandler(
	repo repository.Repository,
	store storage.Store,
	generator *generation.Service,
	queue taskEnqueuer,
	maxRetry int,
	logger *slog.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		repo:      repo,
		store:     store,
		generator: generator,
		queue:     queue,
		maxRetry:  maxRetry,
		logger:    logger,
	}
}

type portfolioRequest struct {
	Title          *string             `json:"title" binding:"omitempty,max=255"`
	Description    *string             `json:"description"`
	TemplateID     *string             `json:"template_id"`
	Customizations json.RawMessage     `json:"customizations"`
	Content        json.RawMessage     `json:"content"`
	Sections       []portfolio.Section `json:"sections"`
}

type portfolioResponse struct {
	ID             uint           `json:"id"`
	ArtistID       uint           `json:"artist_id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	TemplateID     string         `json:"template_id"`
	Customizations datatypes.JSON `json:"customizations,omitempty"`
	Content        datatypes.JSON `json:"content,omitempty"`
	Sections       datatypes.JSON `json:"sections,omitempty"`
	Status         string         `json:"status"`
	PDFSizeBytes   int64          `json:"pdf_size_bytes,omitempty"`
	PreviewURL     string         `json:"preview_url,omitempty"`
	PDFURL         string         `json:"pdf_url,omitempty"`
	HTMLURL        string         `json:"html_url,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CreatePortfolio 为当前艺术家新建作品集。
func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	artistID, ok := artistIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		BadRequest(c, "title is required")
		return
	}

	p := &database.Portfolio{
		ArtistID:   artistID,
		TemplateID: string(portfolio.Modern),
		Status:     database.StatusDraft,
	}
	if err := applyPortfolioRequest(p, req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.CreatePortfolio(ctx, p); err != nil {
		respondRepoError(c, err, "artist")
		return
	}
	h.loggerFromContext(c).Info("portfolio created", slog.Uint64("portfolio_id", uint64(p.ID)))
	c.JSON(http.StatusCreated, newPortfolioResponse(ctx, h.store, p))
}

// GetPortfolio 返回作品集详情。
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	p, ok := h.portfolioFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newPortfolioResponse(c.Request.Context(), h.store, p))
}

// UpdatePortfolio 局部更新本人作品集。
func (h *PortfolioHandler) UpdatePortfolio(c *gin.Context) {
	p, ok := h.ownedPortfolio(c)
	if !ok {
		return
	}

	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		BadRequest(c, "title cannot be empty")
		return
	}
	if err := applyPortfolioRequest(p, req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.UpdatePortfolio(ctx, p); err != nil {
		respondRepoError(c, err, "portfolio")
		return
	}
	c.JSON(http.StatusOK, newPortfolioResponse(ctx, h.store, p))
}

// DeletePortfolio 删除作品集及其生成文档。
func (h *PortfolioHandler) DeletePortfolio(c *gin.Context) {
	p, ok := h.ownedPortfolio(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.DeletePortfolio(ctx, p.ID); err != nil {
		respondRepoError(c, err, "portfolio")
		return
	}
	for _, prefix := range portfolioPrefixes(p.ID) {
		if err := h.store.DeletePrefix(ctx, prefix); err != nil {
			h.loggerFromContext(c).Warn("delete portfolio objects failed",
				slog.String("prefix", prefix),
				slog.Any("error", err),
			)
		}
	}
	c.Status(http.StatusNoContent)
}

// PreviewPortfolio 实时渲染 HTML，不落盘。
func (h *PortfolioHandler) PreviewPortfolio(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid portfolio id")
		return
	}
	out, err := h.generator.RenderHTML(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "portfolio not found")
			return
		}
		h.loggerFromContext(c).Error("render preview failed", slog.Any("error", err))
		Internal(c, "failed to render preview")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

type documentResponse struct {
	ID        uint   `json:"id"`
	Format    string `json:"format"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	URL       string `json:"url"`
}

// GeneratePortfolio 生成 html 或 pdf。async=true 时入队并返回 202。
func (h *PortfolioHandler) GeneratePortfolio(c *gin.Context) {
	p, ok := h.ownedPortfolio(c)
	if !ok {
		return
	}

	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", database.FormatPDF)))
	if format != database.FormatHTML && format != database.FormatPDF {
		BadRequest(c, "format must be html or pdf")
		return
	}

	ctx := c.Request.Context()
	log := h.loggerFromContext(c).With(
		slog.Uint64("portfolio_id", uint64(p.ID)),
		slog.String("format", format),
	)

	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if async {
		h.enqueueGeneration(c, log, p, format)
		return
	}

	doc, err := h.generator.Generate(ctx, p.ID, format)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "portfolio not found")
			return
		}
		log.Error("generate document failed", slog.Any("error", err))
		Internal(c, "failed to generate document")
		return
	}

	c.JSON(http.StatusCreated, newDocumentResponse(*doc))
}

func (h *PortfolioHandler) enqueueGeneration(c *gin.Context, log *slog.Logger, p *database.Portfolio, format string) {
	if h.queue == nil {
		Error(c, http.StatusServiceUnavailable, "async generation unavailable")
		return
	}

	ctx := c.Request.Context()
	task, err := tasks.NewGenerateTask(p.ID, format, middleware.GetCorrelationID(c))
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	if err := h.repo.UpdatePortfolioState(ctx, p.ID, repository.PortfolioUpdate{
		Status: lo.ToPtr(database.StatusGenerating),
	}); err != nil {
		respondRepoError(c, err, "portfolio")
		return
	}

	info, err := h.queue.EnqueueContext(ctx, task, asynq.MaxRetry(h.maxRetry))
	if err != nil {
		log.Error("enqueue generation failed", slog.Any("error", err))
		// 入队失败时恢复原状态
		if rerr := h.repo.UpdatePortfolioState(ctx, p.ID, repository.PortfolioUpdate{
			Status: lo.ToPtr(p.Status),
		}); rerr != nil {
			log.Warn("restore portfolio status failed", slog.Any("error", rerr))
		}
		Internal(c, "failed to enqueue generation")
		return
	}

	log.Info("generation enqueued", slog.String("task_id", info.ID))
	c.JSON(http.StatusAccepted, gin.H{
		"message": "generation request accepted",
		"task_id": info.ID,
	})
}

// ListDocuments 返回作品集的生成历史（新的在前）。
func (h *PortfolioHandler) ListDocuments(c *gin.Context) {
	p, ok := h.portfolioFromParam(c)
	if !ok {
		return
	}
	docs, err := h.repo.ListDocuments(c.Request.Context(), p.ID)
	if err != nil {
		Internal(c, "failed to list documents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": lo.Map(docs, func(d database.GeneratedDocument, _ int) documentResponse {
		return newDocumentResponse(d)
	})})
}

func (h *PortfolioHandler) portfolioFromParam(c *gin.Context) (*database.Portfolio, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid portfolio id")
		return nil, false
	}
	p, err := h.repo.GetPortfolio(c.Request.Context(), id)
	if err != nil {
		respondRepoError(c, err, "portfolio")
		return nil, false
	}
	return p, true
}

// ownedPortfolio 额外要求作品集属于当前艺术家。
func (h *PortfolioHandler) ownedPortfolio(c *gin.Context) (*database.Portfolio, bool) {
	artistID, ok := artistIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}
	p, ok := h.portfolioFromParam(c)
	if !ok {
		return nil, false
	}
	if p.ArtistID != artistID {
		Forbidden(c, "access denied")
		return nil, false
	}
	return p, true
}

func newPortfolioResponse(ctx context.Context, store storage.Store, p *database.Portfolio) portfolioResponse {
	resp := portfolioResponse{
		ID:             p.ID,
		ArtistID:       p.ArtistID,
		Title:          p.Title,
		Description:    p.Description,
		TemplateID:     p.TemplateID,
		Customizations: p.Customizations,
		Content:        p.Content,
		Sections:       p.Sections,
		Status:         p.Status,
		PDFSizeBytes:   p.PDFSizeBytes,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	url := func(key string) string {
		if key == "" {
			return ""
		}
		u, err := store.URL(ctx, key)
		if err != nil {
			return ""
		}
		return u
	}
	resp.PreviewURL = url(p.PreviewObjectKey)
	resp.PDFURL = url(p.PDFObjectKey)
	resp.HTMLURL = url(p.HTMLObjectKey)
	return resp
}

func (h *PortfolioHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func newDocumentResponse(d database.GeneratedDocument) documentResponse {
	return documentResponse{
		ID:        d.ID,
		Format:    d.Format,
		Filename:  d.Filename,
		SizeBytes: d.SizeBytes,
		URL:       d.URL,
	}
}

// portfolioPrefixes 是作品集在对象存储中的全部位置。
func portfolioPrefixes(portfolioID uint) []string {
	return []string{
		fmt.Sprintf("portfolios/%d", portfolioID),
		fmt.Sprintf("thumbnails/portfolio/%d", portfolioID),
	}
}

// applyPortfolioRequest 合并请求字段；JSON 字段必须是对象（sections 为数组）。
func applyPortfolioRequest(p *database.Portfolio, req portfolioRequest) error {
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.TemplateID != nil {
		p.TemplateID = string(portfolio.SelectTemplate(*req.TemplateID))
	}
	if len(req.Customizations) > 0 && string(req.Customizations) != "null" {
		if !isJSONObject(req.Customizations) {
			return errors.New("customizations must be an object")
		}
		p.Customizations = datatypes.JSON(req.Customizations)
	}
	if len(req.Content) > 0 && string(req.Content) != "null" {
		if !isJSONObject(req.Content) {
			return errors.New("content must be an object")
		}
		p.Content = datatypes.JSON(req.Content)
	}
	if req.Sections != nil {
		b, err := json.Marshal(req.Sections)
		if err != nil {
			return fmt.Errorf("encode sections: %w", err)
		}
		p.Sections = datatypes.JSON(b)
	}
	return nil
}

func isJSONObject(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil
}
