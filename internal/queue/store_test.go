package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"reel/internal/queue"
	"reel/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewScreencast(ctx, "/videos/raw/demo.mov", "Demo", "hash-1")
	if err != nil {
		t.Fatalf("NewScreencast failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Kind != queue.KindScreencast {
		t.Fatalf("expected screencast kind, got %s", item.Kind)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Demo" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}

	found, err := store.FindByContentHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("FindByContentHash failed: %v", err)
	}
	if found == nil || found.ID != item.ID {
		t.Fatalf("expected to find inserted item, got %#v", found)
	}
}

func TestNewScreencastRequiresContentHash(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.NewScreencast(ctx, "/videos/raw/demo.mov", "No Hash", ""); err == nil {
		t.Fatal("expected error when content hash missing")
	}
}

func TestNewSlideshowStartsAtChaptered(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewSlideshow(ctx, "/decks/intro.md", "", "deck-hash")
	if err != nil {
		t.Fatalf("NewSlideshow failed: %v", err)
	}
	if item.Kind != queue.KindSlideshow {
		t.Fatalf("expected slideshow kind, got %s", item.Kind)
	}
	if item.Status != queue.StatusChaptered {
		t.Fatalf("expected chaptered status, got %s", item.Status)
	}
	if item.Title != "intro" {
		t.Fatalf("expected title inferred from path, got %q", item.Title)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		name          string
		initialStatus queue.Status
		expected      queue.Status
	}{
		{"transcribing", queue.StatusTranscribing, queue.StatusPending},
		{"analyzing", queue.StatusAnalyzing, queue.StatusTranscribed},
		{"editing", queue.StatusEditing, queue.StatusAnalyzed},
		{"chaptering", queue.StatusChaptering, queue.StatusEdited},
		{"narrating", queue.StatusNarrating, queue.StatusChaptered},
		{"rendering", queue.StatusRendering, queue.StatusIllustrated},
	}
	var ids []int64
	for i, tc := range cases {
		item, err := store.NewScreencast(ctx, fmt.Sprintf("/videos/%s.mov", tc.name), tc.name, fmt.Sprintf("hash-reset-%d", i))
		if err != nil {
			t.Fatalf("NewScreencast failed: %v", err)
		}
		item.Status = tc.initialStatus
		item.ProgressStage = tc.name
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if int(count) != len(cases) {
		t.Fatalf("expected %d items reset, got %d", len(cases), count)
	}

	for idx, tc := range cases {
		updated, err := store.GetByID(ctx, ids[idx])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != tc.expected {
			t.Fatalf("%s: expected status %s, got %s", tc.name, tc.expected, updated.Status)
		}
		if updated.LastHeartbeat != nil {
			t.Fatalf("%s: expected heartbeat cleared", tc.name)
		}
	}
}

func TestListSupportsStatusFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a, err := store.NewScreencast(ctx, "/videos/a.mov", "A", "fp-a")
	if err != nil {
		t.Fatalf("NewScreencast failed: %v", err)
	}
	b, err := store.NewScreencast(ctx, "/videos/b.mov", "B", "fp-b")
	if err != nil {
		t.Fatalf("NewScreencast failed: %v", err)
	}
	b.Status = queue.StatusTranscribed
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	c, err := store.NewScreencast(ctx, "/videos/c.mov", "C", "fp-c")
	if err != nil {
		t.Fatalf("NewScreencast failed: %v", err)
	}
	c.Status = queue.StatusFailed
	c.ErrorMessage = "boom"
	if err := store.Update(ctx, c); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ID != a.ID || items[1].ID != b.ID || items[2].ID != c.ID {
		t.Fatalf("expected order A,B,C, got IDs %d,%d,%d", items[0].ID, items[1].ID, items[2].ID)
	}

	filtered, err := store.List(ctx, queue.StatusTranscribed, queue.StatusFailed)
	if err != nil {
		t.Fatalf("Filtered list failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 items, got %d", len(filtered))
	}
	if filtered[0].ID != b.ID || filtered[1].ID != c.ID {
		t.Fatalf("unexpected filtered order: got %d,%d", filtered[0].ID, filtered[1].ID)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a, err := store.NewScreencast(ctx, "/videos/a.mov", "ItemA", "fp-a")
	if err != nil {
		t.Fatalf("NewScreencast: %v", err)
	}
	b, err := store.NewScreencast(ctx, "/videos/b.mov", "ItemB", "fp-b")
	if err != nil {
		t.Fatalf("NewScreencast: %v", err)
	}
	for _, item := range []*queue.Item{a, b} {
		item.Status = queue.StatusFailed
		item.ErrorMessage = "boom"
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	updated, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed all: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 items retried, got %d", updated)
	}

	item, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected item A pending, got %s", item.Status)
	}

	// Mark B failed again and retry targeted selection.
	b.Status = queue.StatusFailed
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, err = store.RetryFailed(ctx, b.ID)
	if err != nil {
		t.Fatalf("RetryFailed targeted: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 item retried, got %d", updated)
	}
}

func TestUpdateHeartbeat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewScreencast(ctx, "/videos/hb.mov", "Heartbeat", "hb")
	if err != nil {
		t.Fatalf("NewScreencast: %v", err)
	}
	item.Status = queue.StatusTranscribing
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := store.UpdateHeartbeat(ctx, item.ID); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}

	updated, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.LastHeartbeat == nil {
		t.Fatal("expected last heartbeat to be set")
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	t.Run("all statuses", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		store := testsupport.MustOpenStore(t, cfg)

		ctx := context.Background()
		past := time.Now().Add(-2 * time.Hour).UTC()
		cases := []struct {
			name       string
			processing queue.Status
			expected   queue.Status
		}{
			{"transcribing", queue.StatusTranscribing, queue.StatusPending},
			{"analyzing", queue.StatusAnalyzing, queue.StatusTranscribed},
			{"editing", queue.StatusEditing, queue.StatusAnalyzed},
			{"chaptering", queue.StatusChaptering, queue.StatusEdited},
			{"narrating", queue.StatusNarrating, queue.StatusChaptered},
			{"illustrating", queue.StatusIllustrating, queue.StatusNarrated},
			{"rendering", queue.StatusRendering, queue.StatusIllustrated},
			{"publishing", queue.StatusPublishing, queue.StatusRendered},
		}
		var ids []int64
		for i, tc := range cases {
			item, err := store.NewScreencast(ctx, fmt.Sprintf("/videos/%s.mov", tc.name), tc.name, fmt.Sprintf("stale-%d", i))
			if err != nil {
				t.Fatalf("NewScreencast: %v", err)
			}
			item.Status = tc.processing
			item.LastHeartbeat = &past
			if err := store.Update(ctx, item); err != nil {
				t.Fatalf("Update: %v", err)
			}
			ids = append(ids, item.ID)
		}

		count, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-1*time.Hour))
		if err != nil {
			t.Fatalf("ReclaimStaleProcessing: %v", err)
		}
		if int(count) != len(cases) {
			t.Fatalf("expected %d items reclaimed, got %d", len(cases), count)
		}

		for idx, tc := range cases {
			updated, err := store.GetByID(ctx, ids[idx])
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if updated.Status != tc.expected {
				t.Fatalf("%s: expected status %s after reclaim, got %s", tc.name, tc.expected, updated.Status)
			}
			if updated.LastHeartbeat != nil {
				t.Fatalf("%s: expected heartbeat cleared, got %v", tc.name, updated.LastHeartbeat)
			}
		}
	})

	t.Run("filtered statuses", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		store := testsupport.MustOpenStore(t, cfg)

		ctx := context.Background()
		past := time.Now().Add(-2 * time.Hour).UTC()

		transcribing, err := store.NewScreencast(ctx, "/videos/t.mov", "Stale-Transcribing", "stale-transcribing")
		if err != nil {
			t.Fatalf("NewScreencast transcribing: %v", err)
		}
		transcribing.Status = queue.StatusTranscribing
		transcribing.LastHeartbeat = &past
		if err := store.Update(ctx, transcribing); err != nil {
			t.Fatalf("Update transcribing: %v", err)
		}

		editing, err := store.NewScreencast(ctx, "/videos/e.mov", "Stale-Editing", "stale-editing")
		if err != nil {
			t.Fatalf("NewScreencast editing: %v", err)
		}
		editing.Status = queue.StatusEditing
		editing.LastHeartbeat = &past
		if err := store.Update(ctx, editing); err != nil {
			t.Fatalf("Update editing: %v", err)
		}

		count, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-1*time.Hour), queue.StatusEditing)
		if err != nil {
			t.Fatalf("ReclaimStaleProcessing filtered: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 item reclaimed, got %d", count)
		}

		reclaimed, err := store.GetByID(ctx, editing.ID)
		if err != nil {
			t.Fatalf("GetByID editing: %v", err)
		}
		if reclaimed.Status != queue.StatusAnalyzed {
			t.Fatalf("expected editing item rolled back to analyzed, got %s", reclaimed.Status)
		}
		if reclaimed.LastHeartbeat != nil {
			t.Fatalf("expected editing heartbeat cleared, got %v", reclaimed.LastHeartbeat)
		}

		unchanged, err := store.GetByID(ctx, transcribing.ID)
		if err != nil {
			t.Fatalf("GetByID transcribing: %v", err)
		}
		if unchanged.Status != queue.StatusTranscribing {
			t.Fatalf("expected transcribing item untouched, got %s", unchanged.Status)
		}
		if unchanged.LastHeartbeat == nil || !unchanged.LastHeartbeat.Equal(past) {
			t.Fatalf("expected transcribing heartbeat unchanged, got %v", unchanged.LastHeartbeat)
		}
	})
}

func TestUpdateProgressPreservesHeartbeat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewScreencast(ctx, "/videos/p.mov", "Heartbeat Progress", "hb-progress")
	if err != nil {
		t.Fatalf("NewScreencast: %v", err)
	}
	item.Status = queue.StatusTranscribing
	past := time.Now().Add(-5 * time.Minute).UTC()
	item.LastHeartbeat = &past
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := store.UpdateHeartbeat(ctx, item.ID); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}

	before, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID before progress: %v", err)
	}
	if before.LastHeartbeat == nil {
		t.Fatal("expected heartbeat set before progress update")
	}
	origHeartbeat := *before.LastHeartbeat

	before.ProgressStage = "Transcribe"
	before.ProgressPercent = 42.5
	before.ProgressMessage = "Uploading chunk 2 of 4"
	if err := store.UpdateProgress(ctx, before); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	after, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID after progress: %v", err)
	}
	if after.LastHeartbeat == nil {
		t.Fatal("expected heartbeat preserved after progress update")
	}
	if !after.LastHeartbeat.Equal(origHeartbeat) {
		t.Fatalf("expected heartbeat unchanged, before %v after %v", origHeartbeat, after.LastHeartbeat)
	}
	if after.ProgressStage != "Transcribe" || after.ProgressMessage != "Uploading chunk 2 of 4" {
		t.Fatalf("expected progress fields persisted, got stage=%q message=%q", after.ProgressStage, after.ProgressMessage)
	}
	if after.ProgressPercent != 42.5 {
		t.Fatalf("expected progress percent 42.5, got %f", after.ProgressPercent)
	}
}

func TestLaneForItem(t *testing.T) {
	foreground := &queue.Item{Status: queue.StatusAnalyzing}
	if lane := queue.LaneForItem(foreground); lane != queue.LaneForeground {
		t.Fatalf("expected foreground lane, got %s", lane)
	}
	background := &queue.Item{Status: queue.StatusNarrating}
	if lane := queue.LaneForItem(background); lane != queue.LaneBackground {
		t.Fatalf("expected background lane, got %s", lane)
	}
}
