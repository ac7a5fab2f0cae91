package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reel/internal/logging"
)

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	oldDir := filepath.Join(tmpDir, "queue-41")
	if err := os.Mkdir(oldDir, 0o755); err != nil {
		t.Fatalf("create old dir: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldDir, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	recentDir := filepath.Join(tmpDir, "9f2ab3cd44ee5102")
	if err := os.Mkdir(recentDir, 0o755); err != nil {
		t.Fatalf("create recent dir: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 1 {
		t.Fatalf("expected 1 removed, got %d", len(result.Removed))
	}
	if result.Removed[0] != oldDir {
		t.Errorf("expected %s to be removed, got %s", oldDir, result.Removed[0])
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old directory should have been removed")
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent directory should still exist")
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	tmpDir := t.TempDir()

	oldFile := filepath.Join(tmpDir, "leftover.log")
	if err := os.WriteFile(oldFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldFile, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 0 {
		t.Errorf("expected no removals for files, got %d", len(result.Removed))
	}
	if _, err := os.Stat(oldFile); err != nil {
		t.Error("file should not have been removed")
	}
}

func TestCleanOrphanedEmptyDir(t *testing.T) {
	for _, dir := range []string{"", "   "} {
		result := CleanOrphaned(context.Background(), dir, nil, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanOrphanedRemovesUnclaimedRoots(t *testing.T) {
	tmpDir := t.TempDir()

	claimedDir := filepath.Join(tmpDir, "9f2ab3cd44ee5102")
	if err := os.Mkdir(claimedDir, 0o755); err != nil {
		t.Fatalf("create claimed dir: %v", err)
	}

	orphanDir := filepath.Join(tmpDir, "0011aabbccddeeff")
	if err := os.Mkdir(orphanDir, 0o755); err != nil {
		t.Fatalf("create orphan dir: %v", err)
	}

	activeRoots := map[string]struct{}{
		"9f2ab3cd44ee5102": {},
	}

	result := CleanOrphaned(context.Background(), tmpDir, activeRoots, logging.NewNop())

	if len(result.Removed) != 1 {
		t.Fatalf("expected 1 removed, got %d", len(result.Removed))
	}
	if result.Removed[0] != orphanDir {
		t.Errorf("expected %s to be removed, got %s", orphanDir, result.Removed[0])
	}
	if _, err := os.Stat(orphanDir); !os.IsNotExist(err) {
		t.Error("orphan directory should have been removed")
	}
	if _, err := os.Stat(claimedDir); err != nil {
		t.Error("claimed directory should still exist")
	}
}

func TestCleanOrphanedCaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()

	// Directory created before the hash prefix was lowercased.
	dir := filepath.Join(tmpDir, "9F2AB3CD44EE5102")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}

	activeRoots := map[string]struct{}{
		"9f2ab3cd44ee5102": {},
	}

	result := CleanOrphaned(context.Background(), tmpDir, activeRoots, logging.NewNop())

	if len(result.Removed) != 0 {
		t.Errorf("expected no removals for active root, got %d", len(result.Removed))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Error("directory should still exist")
	}
}

func TestCleanOrphanedSkipsQueueDirs(t *testing.T) {
	tmpDir := t.TempDir()

	queueDir := filepath.Join(tmpDir, "queue-123")
	if err := os.Mkdir(queueDir, 0o755); err != nil {
		t.Fatalf("create queue dir: %v", err)
	}

	orphanDir := filepath.Join(tmpDir, "feedfacecafe0123")
	if err := os.Mkdir(orphanDir, 0o755); err != nil {
		t.Fatalf("create orphan dir: %v", err)
	}

	result := CleanOrphaned(context.Background(), tmpDir, map[string]struct{}{}, logging.NewNop())

	if len(result.Removed) != 1 {
		t.Fatalf("expected 1 removed, got %d: %v", len(result.Removed), result.Removed)
	}
	if result.Removed[0] != orphanDir {
		t.Errorf("expected orphan dir removed, got %s", result.Removed[0])
	}
	if _, err := os.Stat(queueDir); err != nil {
		t.Error("queue directory should still exist")
	}
}

func TestListDirectoriesInvalidPaths(t *testing.T) {
	for _, path := range []string{"", "/nonexistent/path/12345"} {
		dirs, err := ListDirectories(path)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", path, err)
		}
		if dirs != nil {
			t.Errorf("expected nil for path %q, got %v", path, dirs)
		}
	}
}

func TestListDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	dir1 := filepath.Join(tmpDir, "9f2ab3cd44ee5102")
	if err := os.Mkdir(dir1, 0o755); err != nil {
		t.Fatalf("create dir1: %v", err)
	}

	dir2 := filepath.Join(tmpDir, "queue-7")
	if err := os.Mkdir(dir2, 0o755); err != nil {
		t.Fatalf("create dir2: %v", err)
	}

	file := filepath.Join(tmpDir, "not-a-dir.txt")
	if err := os.WriteFile(file, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}

	innerFile := filepath.Join(dir1, "transcript.json")
	if err := os.WriteFile(innerFile, []byte("12345"), 0o644); err != nil {
		t.Fatalf("create inner file: %v", err)
	}

	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 directories, got %d", len(dirs))
	}

	var foundDir1 bool
	for _, d := range dirs {
		if d.Name == "9f2ab3cd44ee5102" {
			foundDir1 = true
			if d.Size != 5 {
				t.Errorf("dir1 size = %d, want 5", d.Size)
			}
		}
	}
	if !foundDir1 {
		t.Error("did not find hash-named directory in results")
	}
}

func TestDirInfo(t *testing.T) {
	tmpDir := t.TempDir()

	dir := filepath.Join(tmpDir, "queue-9")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}

	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("expected 1 directory, got %d", len(dirs))
	}

	info := dirs[0]
	if info.Name != "queue-9" {
		t.Errorf("Name = %q, want queue-9", info.Name)
	}
	if info.Path != dir {
		t.Errorf("Path = %q, want %q", info.Path, dir)
	}
	if info.ModTime.IsZero() {
		t.Error("ModTime should not be zero")
	}
}
