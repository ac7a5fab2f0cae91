package render_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/chapters"
	"reel/internal/chaptering"
	"reel/internal/logging"
	"reel/internal/media/ffmpeg"
	"reel/internal/narration"
	"reel/internal/notifications"
	"reel/internal/queue"
	"reel/internal/render"
	"reel/internal/services"
	"reel/internal/testsupport"
)

type slideClipCall struct {
	image string
	audio string
	opts  ffmpeg.SlideClipOptions
}

type stubAssembler struct {
	clips   []slideClipCall
	concats int
	embeds  []struct{ input, metadata, output string }
}

func (s *stubAssembler) SlideClip(_ context.Context, image, audio, output string, opts ffmpeg.SlideClipOptions) error {
	s.clips = append(s.clips, slideClipCall{image: image, audio: audio, opts: opts})
	return os.WriteFile(output, []byte("clip"), 0o644)
}

func (s *stubAssembler) ConcatCopy(_ context.Context, _, output string) error {
	s.concats++
	return os.WriteFile(output, []byte("assembled"), 0o644)
}

func (s *stubAssembler) EmbedChapters(_ context.Context, input, metadataPath, output string) error {
	s.embeds = append(s.embeds, struct{ input, metadata, output string }{input, metadataPath, output})
	return os.WriteFile(output, []byte("final"), 0o644)
}

func TestRendererEmbedsScreencastChapters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewScreencast(t, store, "/tmp/talk.mkv", "Talk", "hash-render-1")
	staging := item.StagingRoot(cfg.Paths.StagingDir)
	item.EditedFile = filepath.Join(staging, "Talk - edited.mp4")
	testsupport.WriteText(t, item.EditedFile, "edited")
	testsupport.WriteText(t, filepath.Join(staging, chaptering.FFMetadataFileName), ";FFMETADATA1\n[CHAPTER]\n")

	assembler := &stubAssembler{}
	handler := render.NewRendererWithDependencies(cfg, store, logging.NewNop(), assembler, notifications.NewService(cfg))

	ctx := context.Background()
	if err := handler.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(assembler.embeds) != 1 {
		t.Fatalf("expected one embed invocation, got %d", len(assembler.embeds))
	}
	if assembler.embeds[0].input != item.EditedFile {
		t.Fatalf("expected embed input %s, got %s", item.EditedFile, assembler.embeds[0].input)
	}
	if item.RenderedFile == "" || !strings.HasSuffix(item.RenderedFile, " - rendered.mp4") {
		t.Fatalf("unexpected rendered file %q", item.RenderedFile)
	}
}

func TestRendererCopiesScreencastWithoutChapterMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewScreencast(t, store, "/tmp/talk.mkv", "Talk", "hash-render-2")
	item.EditedFile = filepath.Join(t.TempDir(), "Talk - edited.mp4")
	testsupport.WriteText(t, item.EditedFile, "edited-bytes")

	assembler := &stubAssembler{}
	handler := render.NewRendererWithDependencies(cfg, store, logging.NewNop(), assembler, notifications.NewService(cfg))

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(assembler.embeds) != 0 {
		t.Fatal("expected no embed invocation without metadata")
	}
	data, err := os.ReadFile(item.RenderedFile)
	if err != nil {
		t.Fatalf("expected rendered copy: %v", err)
	}
	if string(data) != "edited-bytes" {
		t.Fatalf("expected pass-through copy, got %q", data)
	}
}

func TestRendererAssemblesSlideshow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewSlideshow(t, store, "/tmp/deck.md", "Deck", "hash-render-3")
	staging := item.StagingRoot(cfg.Paths.StagingDir)

	item.NarrationDir = filepath.Join(staging, "narration")
	item.ImageDir = filepath.Join(staging, "images")
	audio := filepath.Join(item.NarrationDir, "slide_000.mp3")
	testsupport.WriteText(t, audio, "audio")
	for i := 0; i < 2; i++ {
		testsupport.WriteText(t, filepath.Join(item.ImageDir, fmt.Sprintf("slide_%03d.png", i)), "png")
	}
	manifest := &narration.Manifest{
		Voice: "nova",
		Slides: []narration.SlideAudio{
			{Index: 0, Title: "Intro", Audio: audio, Duration: 2.5},
			{Index: 1, Title: "Architecture"},
		},
	}
	if err := narration.SaveManifest(filepath.Join(item.NarrationDir, narration.ManifestFileName), manifest); err != nil {
		t.Fatalf("SaveManifest failed: %v", err)
	}

	assembler := &stubAssembler{}
	handler := render.NewRendererWithDependencies(cfg, store, logging.NewNop(), assembler, notifications.NewService(cfg))

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(assembler.clips) != 2 {
		t.Fatalf("expected two slide clips, got %d", len(assembler.clips))
	}
	if assembler.clips[0].audio != audio {
		t.Fatalf("expected first clip to use narration audio, got %q", assembler.clips[0].audio)
	}
	if assembler.clips[1].audio != "" || assembler.clips[1].opts.Duration != 4.0 {
		t.Fatalf("expected silent second clip held for 4s, got %+v", assembler.clips[1])
	}
	if assembler.concats != 1 {
		t.Fatalf("expected one concat, got %d", assembler.concats)
	}
	if len(assembler.embeds) != 1 {
		t.Fatalf("expected one embed invocation, got %d", len(assembler.embeds))
	}

	set, err := chapters.Load(item.ChaptersFile)
	if err != nil {
		t.Fatalf("Load chapters failed: %v", err)
	}
	if len(set.Markers) != 2 {
		t.Fatalf("expected two markers, got %d", len(set.Markers))
	}
	if set.Markers[1].Start != 2.5 {
		t.Fatalf("expected second chapter at the first slide boundary, got %v", set.Markers[1].Start)
	}
	if set.Duration != 6.5 {
		t.Fatalf("expected 6.5s total duration, got %v", set.Duration)
	}
	if item.RenderedFile == "" {
		t.Fatal("expected rendered file to be recorded")
	}
}

func TestRendererMissingNarrationRoutesToReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewSlideshow(t, store, "/tmp/deck.md", "Deck", "hash-render-4")
	handler := render.NewRendererWithDependencies(cfg, store, logging.NewNop(), &stubAssembler{}, notifications.NewService(cfg))

	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected missing narration to fail")
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review status, got %s", services.FailureStatus(err))
	}
}
