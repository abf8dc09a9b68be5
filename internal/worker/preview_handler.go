package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/samber/lo"

	"artfolio/internal/errcode"
	"artfolio/internal/repository"
	"artfolio/internal/storage"
	"artfolio/internal/tasks"
)

const previewQuality = 80

// HTMLRenderer 返回作品集的实时 HTML。
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, portfolioID uint) (string, error)
}

// PreviewObjectKey 是作品集缩略图的固定位置，重新生成会覆盖。
func PreviewObjectKey(portfolioID uint) string {
	return fmt.Sprintf("thumbnails/portfolio/%d/preview.jpg", portfolioID)
}

// PreviewTaskHandler 负责作品集缩略图任务。
type PreviewTaskHandler struct {
	renderer  HTMLRenderer
	shooter   Screenshotter
	repo      repository.Repository
	store     storage.Store
	publisher Publisher
	logger    *slog.Logger
}

func NewPreviewTaskHandler(
	renderer HTMLRenderer,
	shooter Screenshotter,
	repo repository.Repository,
	store storage.Store,
	publisher Publisher,
	logger *slog.Logger,
) *PreviewTaskHandler {
	return &PreviewTaskHandler{
		renderer:  renderer,
		shooter:   shooter,
		repo:      repo,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *PreviewTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	var payload tasks.PreviewPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal preview payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.Uint64("portfolio_id", uint64(payload.PortfolioID)),
		slog.String("correlation_id", payload.CorrelationID),
	)
	log.Info("starting portfolio preview task")

	p, err := h.repo.GetPortfolio(ctx, payload.PortfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("portfolio not found, skipping task")
			return nil
		}
		return err
	}

	html, err := h.renderer.RenderHTML(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("portfolio disappeared before preview, skipping task")
			return nil
		}
		log.Error("render portfolio html failed", slog.Any("error", err))
		return err
	}

	shot, err := h.shooter.Screenshot(ctx, html, previewQuality)
	if err != nil {
		log.Error("capture portfolio screenshot failed", slog.Any("error", err))
		return err
	}

	key := PreviewObjectKey(p.ID)
	if _, err := h.store.Put(ctx, key, bytes.NewReader(shot), int64(len(shot)), "image/jpeg"); err != nil {
		log.Error("upload portfolio preview failed", slog.Any("error", err))
		return err
	}

	if err := h.repo.UpdatePortfolioState(ctx, p.ID, repository.PortfolioUpdate{
		PreviewObjectKey: lo.ToPtr(key),
	}); err != nil {
		log.Error("update portfolio preview key failed", slog.Any("error", err))
		return err
	}

	url, err := h.store.URL(ctx, key)
	if err != nil {
		log.Warn("resolve preview url failed", slog.Any("error", err))
	}
	if err := publishNotify(ctx, h.publisher, p.ArtistID, NotifyMessage{
		Status:        NotifyPreview,
		PortfolioID:   p.ID,
		CorrelationID: payload.CorrelationID,
		URL:           url,
		SizeBytes:     int64(len(shot)),
		ErrorCode:     errcode.OK,
	}); err != nil {
		log.Warn("publish preview notification failed", slog.Any("error", err))
	}

	log.Info("portfolio preview completed", slog.String("object_key", key))
	return nil
}
