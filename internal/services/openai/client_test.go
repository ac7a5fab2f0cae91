package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"reel/internal/services/openai"
	"reel/internal/testsupport"
)

func newTestClient(t *testing.T, handler http.Handler) (*openai.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := openai.NewClient(openai.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	},
		openai.WithRetryMaxAttempts(3),
		openai.WithSleeper(func(time.Duration) {}),
	)
	return client, server
}

func TestTranscribeParsesVerboseJSON(t *testing.T) {
	var gotAuth, gotContentType string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("unexpected response_format %q", got)
		}
		if got := r.MultipartForm.Value["timestamp_granularities[]"]; len(got) != 2 {
			t.Errorf("expected word and segment granularities, got %v", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"text":     "hello world",
			"language": "en",
			"duration": 1.5,
			"words": []map[string]any{
				{"word": "hello", "start": 0.0, "end": 0.6},
				{"word": "world", "start": 0.7, "end": 1.2},
			},
			"segments": []map[string]any{
				{"id": 0, "start": 0.0, "end": 1.5, "text": "hello world"},
			},
		})
	}))

	audio := filepath.Join(t.TempDir(), "chunk_000.m4a")
	testsupport.WriteText(t, audio, "fake audio")

	tr, err := client.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotContentType == "" {
		t.Fatal("expected multipart content type")
	}
	if tr.WordCount() != 2 || tr.Words[1].Text != "world" {
		t.Fatalf("unexpected words: %+v", tr.Words)
	}
	if tr.Duration != 1.5 || tr.Language != "en" {
		t.Fatalf("unexpected transcript metadata: %+v", tr)
	}
}

func TestTranscribeRejectsWordlessResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"text": "hello", "duration": 1.0})
	}))
	audio := filepath.Join(t.TempDir(), "a.m4a")
	testsupport.WriteText(t, audio, "fake audio")

	if _, err := client.Transcribe(context.Background(), audio); err == nil {
		t.Fatal("expected error for response without word timestamps")
	}
}

func TestTranscribeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"text":     "ok",
			"duration": 0.5,
			"words":    []map[string]any{{"word": "ok", "start": 0.0, "end": 0.4}},
		})
	}))
	audio := filepath.Join(t.TempDir(), "a.m4a")
	testsupport.WriteText(t, audio, "fake audio")

	if _, err := client.Transcribe(context.Background(), audio); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestTranscribeDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad file", http.StatusBadRequest)
	}))
	audio := filepath.Join(t.TempDir(), "a.m4a")
	testsupport.WriteText(t, audio, "fake audio")

	if _, err := client.Transcribe(context.Background(), audio); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt for 400, got %d", calls.Load())
	}
}

func TestSynthesizeWritesAudio(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["voice"] != "nova" || payload["response_format"] != "mp3" {
			t.Errorf("unexpected payload: %v", payload)
		}
		_, _ = w.Write([]byte("mp3 bytes"))
	}))

	outPath := filepath.Join(t.TempDir(), "narration", "slide_000.mp3")
	if err := client.Synthesize(context.Background(), "Welcome to the talk.", "", outPath); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "mp3 bytes" {
		t.Fatalf("unexpected audio content %q", data)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	client := openai.NewClient(openai.Config{APIKey: "k"})
	if err := client.Synthesize(context.Background(), "  ", "", "out.mp3"); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestCostEstimates(t *testing.T) {
	if got := openai.EstimateTranscriptionCost(600).String(); got != "0.06" {
		t.Fatalf("unexpected transcription cost for 10 minutes: %s", got)
	}
	if got := openai.EstimateTranscriptionCost(0); !got.IsZero() {
		t.Fatalf("expected zero cost for zero duration, got %s", got)
	}
	if got := openai.EstimateSpeechCost("hello"); got.IsZero() {
		t.Fatal("expected non-zero speech cost")
	}
	if got := openai.EstimateSpeechCost(""); !got.IsZero() {
		t.Fatalf("expected zero cost for empty text, got %s", got)
	}
}
