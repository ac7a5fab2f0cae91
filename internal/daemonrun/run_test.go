package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reel/internal/logging"
	"reel/internal/testsupport"
)

func TestSweepStagingRemovesOrphansKeepsActive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewScreencast(t, store, "/tmp/talk.mp4", "Talk", "9f2ab3cd44ee5102deadbeef")
	activeDir := item.StagingRoot(cfg.Paths.StagingDir)
	if err := os.MkdirAll(activeDir, 0o755); err != nil {
		t.Fatalf("create active dir: %v", err)
	}

	orphanDir := filepath.Join(cfg.Paths.StagingDir, "0011aabbccddeeff")
	if err := os.MkdirAll(orphanDir, 0o755); err != nil {
		t.Fatalf("create orphan dir: %v", err)
	}

	staleDir := filepath.Join(cfg.Paths.StagingDir, "queue-999")
	if err := os.MkdirAll(staleDir, 0o755); err != nil {
		t.Fatalf("create stale dir: %v", err)
	}
	old := time.Now().Add(-2 * stagingMaxAge)
	if err := os.Chtimes(staleDir, old, old); err != nil {
		t.Fatalf("age stale dir: %v", err)
	}

	sweepStaging(ctx, cfg, store, logging.NewNop())

	if _, err := os.Stat(activeDir); err != nil {
		t.Errorf("active staging dir should survive: %v", err)
	}
	if _, err := os.Stat(orphanDir); !os.IsNotExist(err) {
		t.Error("orphan staging dir should have been removed")
	}
	if _, err := os.Stat(staleDir); !os.IsNotExist(err) {
		t.Error("stale queue dir should have been removed")
	}
}
