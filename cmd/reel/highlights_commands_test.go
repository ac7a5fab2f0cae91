package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/transcript"
)

func TestHighlightsExportWritesEditableScript(t *testing.T) {
	env := setupCLITestEnv(t)

	dir := t.TempDir()
	videoPath := filepath.Join(dir, "demo talk.mp4")
	if err := os.WriteFile(videoPath, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	tr := &transcript.Transcript{
		Duration: 90,
		Words:    []transcript.Word{{Text: "welcome", Start: 0, End: 0.4}},
		Segments: []transcript.Segment{
			{ID: 0, Start: 0, End: 6, Text: "welcome to the demo"},
			{ID: 1, Start: 10, End: 20, Text: "the main event"},
		},
	}
	transcriptPath := filepath.Join(dir, "demo talk - transcript.json")
	if err := transcript.Save(transcriptPath, tr); err != nil {
		t.Fatalf("save transcript: %v", err)
	}

	out, _, err := runCLI(t, []string{"highlights", "export", videoPath}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("highlights export: %v", err)
	}
	requireContains(t, out, "Wrote 2 segments")

	scriptPath := filepath.Join(dir, "demo talk - highlight script.md")
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "**Source Video**: "+videoPath) {
		t.Fatalf("expected source header in script: %q", content)
	}
	if !strings.Contains(content, "[00:00-00:10] welcome to the demo") {
		t.Fatalf("expected first segment to run to the next start: %q", content)
	}
	if !strings.Contains(content, "[00:10-01:30] the main event") {
		t.Fatalf("expected last segment to run to the video end: %q", content)
	}
}

func TestHighlightsExportFailsWithoutTranscript(t *testing.T) {
	env := setupCLITestEnv(t)

	dir := t.TempDir()
	videoPath := filepath.Join(dir, "lonely.mp4")
	if err := os.WriteFile(videoPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	_, _, err := runCLI(t, []string{"highlights", "export", videoPath}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--transcript") {
		t.Fatalf("expected transcript hint, got %v", err)
	}
}

func TestHighlightsAnnotateExtractsMarkedPassages(t *testing.T) {
	env := setupCLITestEnv(t)

	dir := t.TempDir()
	videoPath := filepath.Join(dir, "talk.mp4")
	if err := os.WriteFile(videoPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	docPath := filepath.Join(dir, "talk notes.md")
	doc := strings.Join([]string{
		"**[00:10]** warm up chatter",
		"**[00:30]** ==the demo moment everyone asks about==",
		"**[01:10]** closing remarks",
	}, "\n")
	if err := os.WriteFile(docPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	out, _, err := runCLI(t, []string{"highlights", "annotate", docPath, "--source", videoPath}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("highlights annotate: %v", err)
	}
	requireContains(t, out, "Extracted 1 highlighted segments")

	data, err := os.ReadFile(filepath.Join(dir, "talk - highlight script.md"))
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	if !strings.Contains(string(data), "[00:30-01:10] {the demo moment...} the demo moment everyone asks about") {
		t.Fatalf("expected extracted segment line: %q", string(data))
	}
}

func TestHighlightsBuildRejectsMissingSource(t *testing.T) {
	env := setupCLITestEnv(t)

	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "script.md")
	script := "**Source Video**: gone.mp4\n\n[00:00-00:05] opening\n"
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	_, _, err := runCLI(t, []string{"highlights", "build", scriptPath}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "inspect source video") {
		t.Fatalf("expected missing-source error, got %v", err)
	}
}
