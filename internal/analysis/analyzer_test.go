package analysis_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/analysis"
	"reel/internal/logging"
	"reel/internal/pauses"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/testsupport"
	"reel/internal/transcript"
)

func writeTranscript(t *testing.T, words []transcript.Word, duration float64) string {
	t.Helper()
	tr := &transcript.Transcript{Duration: duration, Words: words}
	path := filepath.Join(t.TempDir(), "talk - transcript.json")
	if err := transcript.Save(path, tr); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return path
}

func TestAnalyzerBuildsEditPlan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Editing.PauseThreshold = 2.0
	store := testsupport.MustOpenStore(t, cfg)

	words := []transcript.Word{
		{Text: "welcome", Start: 0.0, End: 0.5},
		{Text: "um", Start: 0.6, End: 1.0},
		{Text: "everyone", Start: 1.1, End: 1.6},
		{Text: "next", Start: 6.0, End: 6.4},
		{Text: "topic", Start: 6.5, End: 7.0},
	}
	transcriptPath := writeTranscript(t, words, 7.5)

	item := testsupport.NewScreencast(t, store, "/tmp/talk.mkv", "Talk", "hash-analysis")
	item.TranscriptFile = transcriptPath
	handler := analysis.NewAnalyzer(cfg, store, logging.NewNop())

	ctx := context.Background()
	if err := handler.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if item.PausesFile == "" {
		t.Fatal("expected pauses file to be recorded")
	}
	plan, err := pauses.Load(item.PausesFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if plan.SourceDuration != 7.5 {
		t.Fatalf("expected source duration 7.5, got %.3f", plan.SourceDuration)
	}

	var sawPause, sawFiller bool
	for _, removal := range plan.Removals {
		switch removal.Kind {
		case pauses.KindPause:
			sawPause = true
			if removal.Start != 1.6 || removal.End != 6.0 {
				t.Fatalf("unexpected pause interval %+v", removal)
			}
		case pauses.KindFiller:
			sawFiller = true
			if !strings.EqualFold(removal.Word, "um") {
				t.Fatalf("unexpected filler word %q", removal.Word)
			}
		}
	}
	if !sawPause || !sawFiller {
		t.Fatalf("expected both pause and filler removals, got %+v", plan.Removals)
	}
	if plan.EditedDuration() >= plan.SourceDuration {
		t.Fatal("expected edit plan to shorten the recording")
	}
}

func TestAnalyzerFillersDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Editing.RemoveFillers = false
	store := testsupport.MustOpenStore(t, cfg)

	words := []transcript.Word{
		{Text: "um", Start: 0.0, End: 0.4},
		{Text: "hello", Start: 0.5, End: 1.0},
	}
	item := testsupport.NewScreencast(t, store, "/tmp/talk.mkv", "Talk", "hash-nofill")
	item.TranscriptFile = writeTranscript(t, words, 1.5)

	handler := analysis.NewAnalyzer(cfg, store, logging.NewNop())
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	plan, err := pauses.Load(item.PausesFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, removal := range plan.Removals {
		if removal.Kind == pauses.KindFiller {
			t.Fatalf("expected no filler removals, got %+v", removal)
		}
	}
}

func TestAnalyzerMissingTranscriptRoutesToReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewScreencast(t, store, "/tmp/talk.mkv", "Talk", "hash-missing")
	handler := analysis.NewAnalyzer(cfg, store, logging.NewNop())

	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected missing transcript to fail")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review status, got %s", services.FailureStatus(err))
	}
}
