package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reel/internal/logging"
	"reel/internal/queue"
	"reel/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger, closeLog := m.stageLoggerForLane(ctx, base, item)
	defer closeLog()
	logger = logger.With(logging.String(logging.FieldComponent, "workflow-manager"))

	message := m.classifyStageFailure(stageName, stageErr)
	resolved := services.FailureStatus(stageErr)
	m.setItemFailureState(item, resolved, message)

	logger.Error("stage failed",
		logging.Error(stageErr),
		logging.String("resolved_status", string(resolved)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.String(logging.FieldEventType, "stage_failure"),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastItem(item)
	if resolved == queue.StatusReview {
		m.notifyReviewRequired(ctx, item, message)
	} else {
		m.notifyStageError(ctx, stageName, item, stageErr)
	}
	m.checkQueueCompletion(ctx)
}

func (m *Manager) classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return m.stageFailureMessage(stageName, "failed without error detail")
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = m.stageFailureMessage(stageName, "failed")
	}
	return message
}

func (m *Manager) stageFailureMessage(stageName, defaultMsg string) string {
	if stageName != "" {
		return fmt.Sprintf("%s %s", stageName, defaultMsg)
	}
	return fmt.Sprintf("workflow %s", defaultMsg)
}

func (m *Manager) setItemFailureState(item *queue.Item, resolved queue.Status, message string) {
	if resolved == queue.StatusReview {
		item.Status = queue.StatusReview
		item.NeedsReview = true
		item.ReviewReason = message
		item.ErrorMessage = message
		item.ProgressStage = "Review"
		item.ProgressMessage = message
		item.ProgressPercent = 0
		item.LastHeartbeat = nil
		return
	}
	item.SetFailed(message)
}
