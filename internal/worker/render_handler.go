package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/errcode"
	"resumeforge/internal/pdf"
	"resumeforge/internal/resume"
	"resumeforge/internal/tasks"
)

// renderer runs the pipeline for a loaded resume record.
// *resume.Generator satisfies it.
type renderer interface {
	Render(ctx context.Context, rec *database.CustomResume) (*resume.RenderResult, error)
}

// notifyPublisher is the slice of go-redis the handler publishes on.
type notifyPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RenderTaskHandler consumes resume:render tasks.
type RenderTaskHandler struct {
	db          *gorm.DB
	generator   renderer
	redisClient notifyPublisher
	logger      *slog.Logger
}

// NewRenderTaskHandler builds the task handler.
func NewRenderTaskHandler(db *gorm.DB, generator renderer, redisClient notifyPublisher, logger *slog.Logger) *RenderTaskHandler {
	return &RenderTaskHandler{
		db:          db,
		generator:   generator,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask implements asynq.Handler. A vanished resume consumes the
// task without error; anything else is retried by asynq, and only the
// final failed attempt notifies the client.
func (h *RenderTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ResumeRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("resume_id", payload.ResumeID.String()),
		slog.String("user_id", payload.UserID.String()),
	)
	log.Info("starting resume render task")

	var rec database.CustomResume
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", payload.ResumeID, payload.UserID).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		notify := RenderNotifyMessage{
			Status:        "error",
			ResumeID:      rec.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     renderErrorCode(retErr),
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishNotify(ctx, payload.UserID, notify); err != nil {
			log.Error("publish render error notification failed", slog.Any("error", err))
		}
	}()

	result, err := h.generator.Render(ctx, &rec)
	if err != nil {
		var compileErr *pdf.CompileError
		if errors.As(err, &compileErr) {
			log.Error("render failed", slog.Any("error", err), slog.String("output", compileErr.Tail(40)))
		} else {
			log.Error("render failed", slog.Any("error", err))
		}
		return err
	}

	notify := RenderNotifyMessage{
		Status:        "completed",
		ResumeID:      rec.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
		PdfURL:        result.Document.URL,
		ThumbnailURL:  result.Thumbnail.URL,
		Warnings:      result.Warnings,
	}
	if len(result.Warnings) > 0 {
		log.Warn("render completed with warnings", slog.Int("warning_count", len(result.Warnings)))
	}
	if err := h.publishNotify(ctx, payload.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("resume render task completed")
	return nil
}

func (h *RenderTaskHandler) publishNotify(ctx context.Context, userID uuid.UUID, notify RenderNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.NotifyChannel(userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

// renderErrorCode maps a pipeline failure to the wire error code.
func renderErrorCode(err error) int {
	var compileErr *pdf.CompileError
	if errors.As(err, &compileErr) {
		return errcode.CompileFailed
	}
	return errcode.SystemError
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
