package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"reel/internal/logging"
	"reel/internal/queue"
	"reel/internal/services"
)

func (m *Manager) laneLogger(lane *laneState) *slog.Logger {
	if m.logger == nil {
		return logging.NewNop()
	}
	name := lane.name
	if name == "" {
		name = string(lane.kind)
	}
	return m.logger.With(
		logging.String(logging.FieldComponent, fmt.Sprintf("workflow-%s-runner", name)),
		logging.String(logging.FieldLane, name),
	)
}

// stageLoggerForLane returns the logger stage handlers should use plus a
// cleanup func. Item processing logs only to the per-item log file so the
// daemon log stays readable; when the item log cannot be opened the lane
// logger is used instead.
func (m *Manager) stageLoggerForLane(ctx context.Context, laneLogger *slog.Logger, item *queue.Item) (*slog.Logger, func()) {
	base := laneLogger
	if base == nil {
		base = m.logger
	}
	if base == nil {
		base = logging.NewNop()
	}
	closeLog := func() {}

	if item != nil && m.itemLogs != nil {
		itemLogger, closer, err := m.itemLogs.Logger(item)
		if err != nil {
			base.Warn("item log unavailable", logging.Error(err))
		} else {
			base = itemLogger
			closeLog = func() { _ = closer.Close() }
		}
	}

	return logging.WithContext(ctx, base), closeLog
}

func withStageContext(ctx context.Context, lane *laneState, stageName string, item *queue.Item, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if item != nil {
		ctx = services.WithItemID(ctx, item.ID)
	}
	if stageName != "" {
		ctx = services.WithStage(ctx, stageName)
	}
	if lane != nil {
		laneLabel := strings.TrimSpace(lane.name)
		if laneLabel == "" {
			laneLabel = string(lane.kind)
		}
		ctx = services.WithLane(ctx, laneLabel)
	}
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}

func deriveStageLabel(status queue.Status) string {
	if status == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
