package transcribing_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"reel/internal/logging"
	"reel/internal/media/ffmpeg"
	"reel/internal/notifications"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/testsupport"
	"reel/internal/transcribing"
	"reel/internal/transcript"
)

type stubProvider struct {
	name    string
	results []*transcript.Transcript
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Transcribe(_ context.Context, _ string, _ string) (*transcript.Transcript, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := s.results[s.calls%len(s.results)]
	s.calls++
	return result, nil
}

func (s *stubProvider) HealthCheck(context.Context) error { return nil }

type stubToolset struct {
	duration float64
	chunks   int
}

func (s *stubToolset) Duration(context.Context, string) (float64, error) {
	return s.duration, nil
}

func (s *stubToolset) ExtractAudioChunks(_ context.Context, _, outDir string, _ float64, chunkSeconds int) ([]ffmpeg.AudioChunk, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	chunks := make([]ffmpeg.AudioChunk, 0, s.chunks)
	for i := 0; i < s.chunks; i++ {
		chunk := ffmpeg.AudioChunk{
			Path:   filepath.Join(outDir, fmt.Sprintf("chunk_%03d.m4a", i)),
			Index:  i,
			Offset: float64(i * chunkSeconds),
		}
		if err := os.WriteFile(chunk.Path, []byte(fmt.Sprintf("audio-%d", i)), 0o644); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func chunkTranscript(words ...transcript.Word) *transcript.Transcript {
	tr := &transcript.Transcript{Words: words}
	for _, w := range words {
		tr.Text += w.Text + " "
		if w.End > tr.Duration {
			tr.Duration = w.End
		}
	}
	return tr
}

func TestTranscriberMergesChunksWithOffsets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcription.ChunkSeconds = 10
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(t.TempDir(), "talk.mkv")
	testsupport.WriteText(t, source, "video")

	provider := &stubProvider{
		name: transcribing.ProviderOpenAI,
		results: []*transcript.Transcript{
			chunkTranscript(
				transcript.Word{Text: "hello", Start: 0.5, End: 1.0},
				transcript.Word{Text: "world", Start: 1.2, End: 1.6},
			),
			chunkTranscript(
				transcript.Word{Text: "again", Start: 0.3, End: 0.8},
			),
		},
	}
	toolset := &stubToolset{duration: 15, chunks: 2}
	handler := transcribing.NewTranscriberWithDependencies(cfg, store, logging.NewNop(), provider, toolset, notifications.NewService(cfg))

	ctx := context.Background()
	item := testsupport.NewScreencast(t, store, source, "Talk", "hash-merge")
	if err := handler.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if item.TranscriptFile == "" {
		t.Fatal("expected transcript file to be recorded")
	}
	merged, err := transcript.Load(item.TranscriptFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if merged.WordCount() != 3 {
		t.Fatalf("expected 3 merged words, got %d", merged.WordCount())
	}
	last := merged.Words[2]
	if last.Start != 10.3 || last.End != 10.8 {
		t.Fatalf("expected second chunk shifted by 10s, got %+v", last)
	}
	if merged.Duration != 15 {
		t.Fatalf("expected probed duration to win, got %.3f", merged.Duration)
	}
}

func TestTranscriberSkipsSlideshows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	provider := &stubProvider{name: transcribing.ProviderOpenAI}
	handler := transcribing.NewTranscriberWithDependencies(cfg, store, logging.NewNop(), provider, &stubToolset{duration: 10, chunks: 1}, notifications.NewService(cfg))

	item := testsupport.NewSlideshow(t, store, "/tmp/deck.md", "Deck", "hash-deck")
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("expected provider untouched for slideshow, got %d calls", provider.calls)
	}
	if item.TranscriptFile != "" {
		t.Fatal("expected no transcript for slideshow")
	}
}

func TestTranscriberProviderFailureIsExternal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcription.ChunkSeconds = 10
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(t.TempDir(), "talk.mkv")
	testsupport.WriteText(t, source, "video")

	provider := &stubProvider{name: transcribing.ProviderOpenAI, err: errors.New("rate limited")}
	handler := transcribing.NewTranscriberWithDependencies(cfg, store, logging.NewNop(), provider, &stubToolset{duration: 5, chunks: 1}, notifications.NewService(cfg))

	item := testsupport.NewScreencast(t, store, source, "Talk", "hash-fail")
	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected provider failure to surface")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", services.FailureStatus(err))
	}
}

func TestTranscriberMissingSourceRoutesToReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	provider := &stubProvider{name: transcribing.ProviderOpenAI}
	handler := transcribing.NewTranscriberWithDependencies(cfg, store, logging.NewNop(), provider, &stubToolset{duration: 5, chunks: 1}, notifications.NewService(cfg))

	item := testsupport.NewScreencast(t, store, filepath.Join(t.TempDir(), "missing.mkv"), "Missing", "hash-missing")
	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected missing source to fail")
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review status, got %s", services.FailureStatus(err))
	}
}
