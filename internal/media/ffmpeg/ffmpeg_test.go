package ffmpeg

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"reel/internal/pauses"
)

func TestCutSegmentArgsWithoutOverlay(t *testing.T) {
	segment := pauses.Segment{Start: 12.5, End: 20, SkippedBefore: 2}
	args := cutSegmentArgs("in.mp4", "seg.mp4", segment, CutOptions{SkipIndicator: 5})
	want := []string{
		"-y",
		"-ss", "12.500",
		"-i", "in.mp4",
		"-t", "7.500",
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-avoid_negative_ts", "make_zero",
		"seg.mp4",
	}
	if !slices.Equal(args, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", args, want)
	}
}

func TestCutSegmentArgsAddsSkipOverlay(t *testing.T) {
	segment := pauses.Segment{Start: 30, End: 45, SkippedBefore: 8.7}
	args := cutSegmentArgs("in.mp4", "seg.mp4", segment, CutOptions{SkipIndicator: 5})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-vf drawtext=") {
		t.Fatalf("expected drawtext filter in args: %v", args)
	}
	if !strings.Contains(joined, "[Skipping 8 secs...]") {
		t.Fatalf("expected skip text with whole seconds: %v", joined)
	}
	if !strings.Contains(joined, "enable='lt(t,2.000)'") {
		t.Fatalf("expected 2s overlay window: %v", joined)
	}
}

func TestSkipIndicatorFilterClampsToShortSegments(t *testing.T) {
	filter := skipIndicatorFilter(10, 1.2)
	if !strings.Contains(filter, "lt(t,1.200)") {
		t.Fatalf("expected overlay window clamped to segment length: %s", filter)
	}
}

func TestEscapeDrawtext(t *testing.T) {
	escaped := escapeDrawtext(`it's 50%: a\b`)
	if escaped != `it\'s 50\%\: a\\b` {
		t.Fatalf("unexpected escaping: %s", escaped)
	}
}

func TestExtractChunkArgs(t *testing.T) {
	args := extractChunkArgs("talk.mp4", "chunk_001.m4a", 600, 600)
	want := []string{
		"-y",
		"-i", "talk.mp4",
		"-ss", "600.000",
		"-t", "600",
		"-vn",
		"-acodec", "aac",
		"-b:a", "128k",
		"chunk_001.m4a",
	}
	if !slices.Equal(args, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", args, want)
	}
}

func TestWriteConcatListEscapesQuotes(t *testing.T) {
	listPath := filepath.Join(t.TempDir(), "list.txt")
	if err := WriteConcatList(listPath, []string{"/tmp/a.mp4", "/tmp/bob's clip.mp4"}); err != nil {
		t.Fatalf("WriteConcatList: %v", err)
	}
	data, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "file '/tmp/a.mp4'\n") {
		t.Fatalf("missing plain entry: %q", content)
	}
	if !strings.Contains(content, `file '/tmp/bob'\''s clip.mp4'`) {
		t.Fatalf("missing escaped entry: %q", content)
	}
}

func TestConcatFilterArgs(t *testing.T) {
	args := concatFilterArgs([]string{"a.mp4", "b.mp4", "c.mp4"}, "deck.mp4")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "[0:v][0:a][1:v][1:a][2:v][2:a]concat=n=3:v=1:a=1[vout][aout]") {
		t.Fatalf("unexpected filter graph: %s", joined)
	}
	if !strings.Contains(joined, "-map [vout] -map [aout]") {
		t.Fatalf("expected output mapping: %s", joined)
	}
}

func TestSlideClipArgsWithNarration(t *testing.T) {
	args := slideClipArgs("slide.png", "slide.mp3", "clip.mp4", SlideClipOptions{})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-loop 1 -i slide.png -i slide.mp3") {
		t.Fatalf("unexpected input order: %s", joined)
	}
	if !strings.Contains(joined, "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2") {
		t.Fatalf("expected default scale/pad chain: %s", joined)
	}
	if !strings.Contains(joined, "-shortest clip.mp4") {
		t.Fatalf("expected -shortest before output: %s", joined)
	}
}

func TestSlideClipArgsSilentSynthesizesAudio(t *testing.T) {
	args := slideClipArgs("slide.png", "", "clip.mp4", SlideClipOptions{Duration: 5})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-t 5.000 -i slide.png") {
		t.Fatalf("expected loop bounded before image input: %s", joined)
	}
	if !strings.Contains(joined, "anullsrc=channel_layout=stereo:sample_rate=44100") {
		t.Fatalf("expected silent audio source: %s", joined)
	}
}

func TestEmbedChaptersArgs(t *testing.T) {
	args := embedChaptersArgs("in.mp4", "chapters.ffmeta", "out.mp4")
	want := []string{
		"-y",
		"-i", "in.mp4",
		"-i", "chapters.ffmeta",
		"-map_metadata", "1",
		"-map_chapters", "1",
		"-codec", "copy",
		"out.mp4",
	}
	if !slices.Equal(args, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", args, want)
	}
}

func TestHighlightReelArgsBuildsTrimConcatGraph(t *testing.T) {
	segments := []HighlightSegment{
		{Start: 10, End: 22},
		{Start: 40, End: 55.5, Title: "The Setup"},
	}
	args := highlightReelArgs("talk.mp4", segments, "reel.mp4", HighlightOptions{})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "[0:v]trim=start=10.000:end=22.000,setpts=PTS-STARTPTS[v0]") {
		t.Fatalf("missing first video trim: %s", joined)
	}
	if !strings.Contains(joined, "[0:a]atrim=start=40.000:end=55.500,asetpts=PTS-STARTPTS[a1]") {
		t.Fatalf("missing second audio trim: %s", joined)
	}
	if !strings.Contains(joined, "[v0][a0][v1][a1]concat=n=2:v=1:a=1[outv][outa]") {
		t.Fatalf("missing concat stage: %s", joined)
	}
	if !strings.Contains(joined, "-map [outv] -map [outa]") {
		t.Fatalf("missing output mapping: %s", joined)
	}
	if !strings.Contains(joined, "-preset medium -crf 23") {
		t.Fatalf("missing encoder settings: %s", joined)
	}
}

func TestHighlightReelArgsOverlaysTitleOnItsSegmentOnly(t *testing.T) {
	segments := []HighlightSegment{
		{Start: 0, End: 8, Title: "It's Showtime"},
		{Start: 20, End: 30},
	}
	args := highlightReelArgs("talk.mp4", segments, "reel.mp4", HighlightOptions{TitleDuration: 4})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, `drawtext=text='It\'s Showtime'`) {
		t.Fatalf("expected escaped title overlay: %s", joined)
	}
	if !strings.Contains(joined, "enable='lt(t,4.000)'[v0]") {
		t.Fatalf("expected overlay window on first segment: %s", joined)
	}
	if strings.Count(joined, "drawtext") != 1 {
		t.Fatalf("expected exactly one overlay: %s", joined)
	}
}

func TestTitleOverlayFilterClampsToShortSegments(t *testing.T) {
	filter := titleOverlayFilter("Quick", 3, 1.5)
	if !strings.Contains(filter, "lt(t,1.500)") {
		t.Fatalf("expected overlay clamped to segment length: %s", filter)
	}
}

func TestNewRunnerDefaultsBinary(t *testing.T) {
	if NewRunner("  ").Binary() != "ffmpeg" {
		t.Fatal("expected default binary")
	}
	if NewRunner("/usr/local/bin/ffmpeg").Binary() != "/usr/local/bin/ffmpeg" {
		t.Fatal("expected configured binary")
	}
}
