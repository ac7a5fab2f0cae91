package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"reel/internal/config"
	"reel/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
	calls    int
}

func newCaptureServer(t *testing.T, captured *capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		captured.calls++
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func notifyingConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.RequestTimeout = 5
	cfg.Notifications.Transcription = true
	cfg.Notifications.Editing = true
	cfg.Notifications.Render = true
	cfg.Notifications.Publish = true
	cfg.Notifications.Queue = true
	cfg.Notifications.Errors = true
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPublished(context.Background(), "Example", ""); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	var captured capturedRequest
	server := newCaptureServer(t, &captured)
	svc := notifications.NewService(notifyingConfig(server.URL))

	if err := svc.NotifyTranscriptionCompleted(context.Background(), "Intro to Go", 1200); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if captured.title != "Reel - Transcribed" {
		t.Fatalf("unexpected title %q", captured.title)
	}
	if captured.body != "Transcription complete: Intro to Go (1200 words)" {
		t.Fatalf("unexpected message %q", captured.body)
	}
	if captured.tags != "reel,transcribe,completed" {
		t.Fatalf("unexpected tags %q", captured.tags)
	}

	if err := svc.NotifyPublished(context.Background(), "Intro to Go", "/library/intro-to-go/final.mp4"); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if captured.priority != "high" {
		t.Fatalf("expected high priority for publish, got %q", captured.priority)
	}
	if captured.body != "Ready to publish: Intro to Go\nFile: /library/intro-to-go/final.mp4" {
		t.Fatalf("unexpected message %q", captured.body)
	}

	if err := svc.NotifyError(context.Background(), io.ErrUnexpectedEOF, "transcribing"); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if captured.title != "Reel - Error" || captured.priority != "high" {
		t.Fatalf("unexpected error notification: title=%q priority=%q", captured.title, captured.priority)
	}
}

func TestNtfyServiceHonorsToggles(t *testing.T) {
	var captured capturedRequest
	server := newCaptureServer(t, &captured)

	cfg := notifyingConfig(server.URL)
	cfg.Notifications.Transcription = false
	cfg.Notifications.Queue = false
	svc := notifications.NewService(cfg)

	if err := svc.NotifyTranscriptionCompleted(context.Background(), "Muted", 10); err != nil {
		t.Fatalf("suppressed notification returned error: %v", err)
	}
	if err := svc.NotifyQueueStarted(context.Background(), 3); err != nil {
		t.Fatalf("suppressed notification returned error: %v", err)
	}
	if captured.calls != 0 {
		t.Fatalf("expected no requests for suppressed events, got %d", captured.calls)
	}

	if err := svc.NotifyRenderCompleted(context.Background(), "Still On"); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if captured.calls != 1 {
		t.Fatalf("expected enabled event to send, got %d calls", captured.calls)
	}
}

func TestNtfyServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	svc := notifications.NewService(notifyingConfig(server.URL))
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
