package main

import (
	"testing"

	"reel/internal/ipc"
)

func TestFormatStatusLabel(t *testing.T) {
	cases := map[string]string{
		"pending":      "Pending",
		"transcribing": "Transcribing",
		"":             "",
	}
	for input, expected := range cases {
		if got := formatStatusLabel(input); got != expected {
			t.Errorf("formatStatusLabel(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestFormatHash(t *testing.T) {
	if got := formatHash(""); got != "-" {
		t.Fatalf("empty hash: got %q", got)
	}
	if got := formatHash("abcdef0123456789"); got != "abcdef012345" {
		t.Fatalf("long hash: got %q", got)
	}
	if got := formatHash("short"); got != "short" {
		t.Fatalf("short hash: got %q", got)
	}
}

func TestBuildQueueListRowsOrdersNewestFirst(t *testing.T) {
	items := []ipc.QueueItem{
		{ID: 1, Title: "Older", Kind: "screencast", Status: "pending", CreatedAt: "2026-08-01T10:00:00Z"},
		{ID: 2, Title: "Newer", Kind: "slideshow", Status: "pending", CreatedAt: "2026-08-02T10:00:00Z"},
	}
	rows := buildQueueListRows(items)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Newer" {
		t.Fatalf("expected newest first, got %q", rows[0][1])
	}
	if rows[1][2] != "Screencast" {
		t.Fatalf("expected kind label Screencast, got %q", rows[1][2])
	}
}

func TestBuildQueueListRowsFallsBackToSourceBasename(t *testing.T) {
	items := []ipc.QueueItem{
		{ID: 1, SourcePath: "/inbox/demo.mp4", Kind: "screencast", Status: "pending", CreatedAt: "2026-08-01T10:00:00Z"},
	}
	rows := buildQueueListRows(items)
	if rows[0][1] != "demo.mp4" {
		t.Fatalf("expected source basename title, got %q", rows[0][1])
	}
}
