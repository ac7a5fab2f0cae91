package transcript_test

import (
	"path/filepath"
	"testing"

	"reel/internal/transcript"
)

func TestMergeChunksShiftsTimestamps(t *testing.T) {
	chunks := []transcript.Transcript{
		{
			Text:     "hello world",
			Duration: 10,
			Words: []transcript.Word{
				{Text: "hello", Start: 0.5, End: 1.0},
				{Text: "world", Start: 1.2, End: 1.8},
			},
			Segments: []transcript.Segment{{ID: 0, Start: 0.5, End: 1.8, Text: "hello world"}},
		},
		{
			Text:     "second chunk",
			Duration: 8,
			Words: []transcript.Word{
				{Text: "second", Start: 0.3, End: 0.9},
				{Text: "chunk", Start: 1.0, End: 1.4},
			},
			Segments: []transcript.Segment{{ID: 0, Start: 0.3, End: 1.4, Text: "second chunk"}},
		},
	}

	merged, err := transcript.MergeChunks(chunks, []float64{0, 10})
	if err != nil {
		t.Fatalf("MergeChunks failed: %v", err)
	}
	if merged.Text != "hello world second chunk" {
		t.Fatalf("unexpected merged text: %q", merged.Text)
	}
	if len(merged.Words) != 4 {
		t.Fatalf("expected 4 words, got %d", len(merged.Words))
	}
	if merged.Words[2].Start != 10.3 {
		t.Fatalf("expected offset word start 10.3, got %v", merged.Words[2].Start)
	}
	if merged.Duration != 18 {
		t.Fatalf("expected duration 18, got %v", merged.Duration)
	}
	if merged.Segments[1].ID != 1 {
		t.Fatalf("expected renumbered segment IDs, got %d", merged.Segments[1].ID)
	}
	if err := merged.Validate(); err != nil {
		t.Fatalf("expected merged transcript to validate: %v", err)
	}
}

func TestMergeChunksRejectsMismatchedOffsets(t *testing.T) {
	if _, err := transcript.MergeChunks([]transcript.Transcript{{}}, nil); err == nil {
		t.Fatal("expected error for mismatched offsets")
	}
}

func TestValidateRejectsMissingWords(t *testing.T) {
	tr := &transcript.Transcript{Text: "no timestamps"}
	if err := tr.Validate(); err == nil {
		t.Fatal("expected validation error for missing words")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "transcript.json")
	original := &transcript.Transcript{
		Text:     "hello",
		Duration: 2,
		Words:    []transcript.Word{{Text: "hello", Start: 0.1, End: 0.6}},
	}
	if err := transcript.Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := transcript.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Text != "hello" || len(loaded.Words) != 1 {
		t.Fatalf("unexpected round trip result: %#v", loaded)
	}
}

func TestCleanRemovesFillers(t *testing.T) {
	fillers := []string{"um", "uh"}
	got := transcript.Clean("So um, this is uh the demo", fillers)
	if got != "So this is the demo" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestIsFillerTrimsPunctuation(t *testing.T) {
	fillers := []string{"um", "uh"}
	if !transcript.IsFiller(" Um,", fillers) {
		t.Fatal("expected punctuated filler to match")
	}
	if transcript.IsFiller("umbrella", fillers) {
		t.Fatal("expected non-filler to be rejected")
	}
}
