package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"artfolio/internal/database"
	"artfolio/internal/errcode"
	"artfolio/internal/generation"
	"artfolio/internal/repository"
	"artfolio/internal/tasks"
)

// Generator 是生成服务中 worker 用到的部分。
type Generator interface {
	Generate(ctx context.Context, portfolioID uint, format string) (*database.GeneratedDocument, error)
}

// Enqueuer 用于在 HTML 生成后追加预览任务。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// GenerateTaskHandler 负责消费作品集文档生成任务。
type GenerateTaskHandler struct {
	generator Generator
	repo      repository.Repository
	publisher Publisher
	enqueuer  Enqueuer
	logger    *slog.Logger

	finalAttempt func(context.Context) bool
}

// NewGenerateTaskHandler 创建任务处理器。enqueuer 为 nil 时不生成预览。
func NewGenerateTaskHandler(
	generator Generator,
	repo repository.Repository,
	publisher Publisher,
	enqueuer Enqueuer,
	logger *slog.Logger,
) *GenerateTaskHandler {
	return &GenerateTaskHandler{
		generator:    generator,
		repo:         repo,
		publisher:    publisher,
		enqueuer:     enqueuer,
		logger:       logger,
		finalAttempt: isFinalAsynqAttempt,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *GenerateTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.GeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("portfolio_id", uint64(payload.PortfolioID)),
		slog.String("format", payload.Format),
	)
	log.Info("starting portfolio generation task")

	p, err := h.repo.GetPortfolio(ctx, payload.PortfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("portfolio not found, skipping task")
			return nil
		}
		log.Error("query portfolio failed", slog.Any("error", err))
		return err
	}
	log = log.With(slog.Uint64("artist_id", uint64(p.ArtistID)))

	defer func() {
		if retErr == nil {
			return
		}
		skip := errors.Is(retErr, asynq.SkipRetry)
		if !skip && !h.finalAttempt(ctx) {
			return
		}
		notify := NotifyMessage{
			Status:        NotifyError,
			PortfolioID:   p.ID,
			Format:        payload.Format,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if errors.Is(retErr, generation.ErrUnknownFormat) {
			notify.ErrorCode = errcode.UnknownFormat
		}
		if err := publishNotify(ctx, h.publisher, p.ArtistID, notify); err != nil {
			log.Error("publish generation error notification failed", slog.Any("error", err))
		}
	}()

	doc, err := h.generator.Generate(ctx, p.ID, payload.Format)
	if err != nil {
		if errors.Is(err, generation.ErrUnknownFormat) {
			log.Warn("unsupported format, dropping task")
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("portfolio disappeared during generation, skipping task")
			return nil
		}
		log.Error("generate document failed", slog.Any("error", err))
		return err
	}

	if err := publishNotify(ctx, h.publisher, p.ArtistID, NotifyMessage{
		Status:        NotifyCompleted,
		PortfolioID:   p.ID,
		Format:        doc.Format,
		CorrelationID: payload.CorrelationID,
		URL:           doc.URL,
		Filename:      doc.Filename,
		SizeBytes:     doc.SizeBytes,
		ErrorCode:     errcode.OK,
	}); err != nil {
		// 文档已落盘，通知失败不重试，否则会重复生成。
		log.Error("publish redis notification failed", slog.Any("error", err))
	}

	if doc.Format == database.FormatHTML && h.enqueuer != nil {
		h.enqueuePreview(ctx, log, p.ID, payload.CorrelationID)
	}

	log.Info("portfolio generation task completed",
		slog.String("object_key", doc.ObjectKey),
		slog.Int64("size_bytes", doc.SizeBytes),
	)
	return nil
}

func (h *GenerateTaskHandler) enqueuePreview(ctx context.Context, log *slog.Logger, portfolioID uint, correlationID string) {
	task, err := tasks.NewPreviewTask(portfolioID, correlationID)
	if err != nil {
		log.Warn("build preview task failed", slog.Any("error", err))
		return
	}
	if _, err := h.enqueuer.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return
		}
		log.Warn("enqueue preview task failed", slog.Any("error", err))
	}
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
