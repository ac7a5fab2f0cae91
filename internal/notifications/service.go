package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reel/internal/config"
)

const userAgent = "Reel-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyItemQueued(ctx context.Context, title, kind string) error
	NotifyTranscriptionCompleted(ctx context.Context, title string, words int) error
	NotifyEditingCompleted(ctx context.Context, title string, removedSeconds float64) error
	NotifyRenderCompleted(ctx context.Context, title string) error
	NotifyPublished(ctx context.Context, title, finalFile string) error
	NotifyQueueStarted(ctx context.Context, count int) error
	NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	NotifyReviewRequired(ctx context.Context, title, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		toggles:  cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	toggles  config.Notifications
}

func (n *ntfyService) NotifyItemQueued(ctx context.Context, title, kind string) error {
	if !n.toggles.Queue {
		return nil
	}
	title = strings.TrimSpace(title)
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "unknown"
	}
	data := payload{
		title:   "Reel - Queued",
		message: fmt.Sprintf("Queued: %s (%s)", title, kind),
		tags:    []string{"reel", "queue", "added"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTranscriptionCompleted(ctx context.Context, title string, words int) error {
	if !n.toggles.Transcription {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Reel - Transcribed",
		message: fmt.Sprintf("Transcription complete: %s (%d words)", title, words),
		tags:    []string{"reel", "transcribe", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEditingCompleted(ctx context.Context, title string, removedSeconds float64) error {
	if !n.toggles.Editing {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Reel - Edited",
		message: fmt.Sprintf("Pause removal complete: %s (%.1fs removed)", title, removedSeconds),
		tags:    []string{"reel", "edit", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRenderCompleted(ctx context.Context, title string) error {
	if !n.toggles.Render {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Reel - Rendered",
		message: fmt.Sprintf("Render complete: %s", title),
		tags:    []string{"reel", "render", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPublished(ctx context.Context, title, finalFile string) error {
	if !n.toggles.Publish {
		return nil
	}
	title = strings.TrimSpace(title)
	finalFile = strings.TrimSpace(finalFile)
	message := fmt.Sprintf("Ready to publish: %s", title)
	if finalFile != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, finalFile)
	}
	data := payload{
		title:    "Reel - Complete",
		message:  message,
		tags:     []string{"reel", "publish", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueStarted(ctx context.Context, count int) error {
	if !n.toggles.Queue {
		return nil
	}
	data := payload{
		title:   "Reel - Queue Started",
		message: fmt.Sprintf("Started processing queue with %d items", count),
		tags:    []string{"reel", "queue", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	if !n.toggles.Queue {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var message string
	var title string
	if failed == 0 {
		title = "Reel - Queue Complete"
		message = fmt.Sprintf("Queue processing complete: %d items processed in %s", processed, durationText)
	} else {
		title = "Reel - Queue Complete (with errors)"
		message = fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"reel", "queue", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.toggles.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reel - Error",
		message:  builder.String(),
		tags:     []string{"reel", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReviewRequired(ctx context.Context, title, reason string) error {
	if !n.toggles.Errors {
		return nil
	}
	title = strings.TrimSpace(title)
	reason = strings.TrimSpace(reason)
	message := fmt.Sprintf("Needs review: %s", title)
	if reason != "" {
		message = fmt.Sprintf("%s\nReason: %s", message, reason)
	}
	data := payload{
		title:   "Reel - Review Required",
		message: message,
		tags:    []string{"reel", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reel - Test",
		message:  "Notification system test",
		tags:     []string{"reel", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyItemQueued(context.Context, string, string) error                  { return nil }
func (noopService) NotifyTranscriptionCompleted(context.Context, string, int) error         { return nil }
func (noopService) NotifyEditingCompleted(context.Context, string, float64) error           { return nil }
func (noopService) NotifyRenderCompleted(context.Context, string) error                     { return nil }
func (noopService) NotifyPublished(context.Context, string, string) error                   { return nil }
func (noopService) NotifyQueueStarted(context.Context, int) error                           { return nil }
func (noopService) NotifyQueueCompleted(context.Context, int, int, time.Duration) error     { return nil }
func (noopService) NotifyError(context.Context, error, string) error                        { return nil }
func (noopService) NotifyReviewRequired(context.Context, string, string) error              { return nil }
func (noopService) TestNotification(context.Context) error                                  { return nil }
