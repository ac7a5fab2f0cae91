package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	payload := []byte("edited cut passthrough")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := Copy(src, dst); err != nil {
		t.Fatalf("copy: %v", err)
	}

	copied, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(copied) != string(payload) {
		t.Fatalf("copied content mismatch: %q", copied)
	}
}

func TestCopyMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Copy(filepath.Join(dir, "missing.bin"), filepath.Join(dir, "dst.bin"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCopyVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "video.mp4")
	dst := filepath.Join(dir, "library.mp4")

	payload := make([]byte, 1<<16)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := CopyVerified(src, dst); err != nil {
		t.Fatalf("copy verified: %v", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat copy: %v", err)
	}
	if info.Size() != int64(len(payload)) {
		t.Fatalf("copied size mismatch: got %d, want %d", info.Size(), len(payload))
	}
}

func TestCopyVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyVerified(filepath.Join(dir, "missing.mp4"), filepath.Join(dir, "dst.mp4"))
	if err == nil || !strings.Contains(err.Error(), "stat source") {
		t.Fatalf("expected stat source error, got %v", err)
	}
}
