package publish_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/logging"
	"reel/internal/notifications"
	"reel/internal/publish"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/testsupport"
	"reel/internal/transcript"
)

type stubUploader struct {
	uploads []string
	err     error
}

func (s *stubUploader) Upload(_ context.Context, itemFolder, filePath string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	key := itemFolder + "/" + filepath.Base(filePath)
	s.uploads = append(s.uploads, key)
	return key, nil
}

func TestPublisherMovesVideoAndCompanions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewScreencast(t, store, "/tmp/talk.mkv", "Talk", "hash-pub-1")
	staging := item.StagingRoot(cfg.Paths.StagingDir)
	item.RenderedFile = filepath.Join(staging, "Talk - rendered.mp4")
	testsupport.WriteText(t, item.RenderedFile, "final-video")
	item.ChaptersFile = filepath.Join(staging, "Talk - chapters.json")
	testsupport.WriteText(t, item.ChaptersFile, "{}")
	testsupport.WriteText(t, filepath.Join(staging, "Talk - youtube.txt"), "00:00 Intro")
	item.TranscriptFile = filepath.Join(staging, "Talk - transcript.json")
	if err := transcript.Save(item.TranscriptFile, &transcript.Transcript{
		Text:     "Um, hello everyone and, uh, welcome",
		Duration: 5,
		Words:    []transcript.Word{{Text: "hello", Start: 0.5, End: 0.9}},
	}); err != nil {
		t.Fatalf("Save transcript failed: %v", err)
	}

	handler := publish.NewPublisherWithDependencies(cfg, store, logging.NewNop(), nil, notifications.NewService(cfg))

	ctx := context.Background()
	if err := handler.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := filepath.Join(cfg.Paths.LibraryDir, "Talk", "Talk.mp4")
	if item.FinalFile != want {
		t.Fatalf("expected final file %s, got %s", want, item.FinalFile)
	}
	data, err := os.ReadFile(item.FinalFile)
	if err != nil {
		t.Fatalf("expected published video: %v", err)
	}
	if string(data) != "final-video" {
		t.Fatalf("unexpected published content %q", data)
	}
	for _, name := range []string{"Talk - chapters.json", "Talk - youtube.txt", "Talk - transcript.json"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.LibraryDir, "Talk", name)); err != nil {
			t.Fatalf("expected companion %s: %v", name, err)
		}
	}
	cleaned, err := os.ReadFile(filepath.Join(cfg.Paths.LibraryDir, "Talk", "Talk - transcript.txt"))
	if err != nil {
		t.Fatalf("expected cleaned transcript: %v", err)
	}
	if strings.Contains(strings.ToLower(string(cleaned)), "um") {
		t.Fatalf("expected fillers removed from cleaned transcript, got %q", cleaned)
	}
	if _, err := os.Stat(staging); !os.IsNotExist(err) {
		t.Fatalf("expected staging directory to be cleared, got %v", err)
	}
}

func TestPublisherUploadsToArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewScreencast(t, store, "/tmp/talk.mkv", "Talk", "hash-pub-2")
	item.RenderedFile = filepath.Join(item.StagingRoot(cfg.Paths.StagingDir), "Talk - rendered.mp4")
	testsupport.WriteText(t, item.RenderedFile, "final-video")

	uploader := &stubUploader{}
	handler := publish.NewPublisherWithDependencies(cfg, store, logging.NewNop(), uploader, notifications.NewService(cfg))

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(uploader.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(uploader.uploads))
	}
	if uploader.uploads[0] != "Talk/Talk.mp4" {
		t.Fatalf("unexpected object key %q", uploader.uploads[0])
	}
}

func TestPublisherMissingRenderRoutesToReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewScreencast(t, store, "/tmp/talk.mkv", "Talk", "hash-pub-3")
	handler := publish.NewPublisherWithDependencies(cfg, store, logging.NewNop(), nil, notifications.NewService(cfg))

	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected missing rendered file to fail")
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review status, got %s", services.FailureStatus(err))
	}
}
