package workflow_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/stage"
	"reel/internal/testsupport"
	"reel/internal/workflow"
)

type stubStage struct {
	name        string
	prepareHook func(*queue.Item)
	executeHook func(*queue.Item)
	prepareErr  error
	executeErr  error
	health      stage.Health

	mu       sync.Mutex
	executed int
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, item *queue.Item) error {
	if s.prepareHook != nil {
		s.prepareHook(item)
	}
	return s.prepareErr
}

func (s *stubStage) Execute(_ context.Context, item *queue.Item) error {
	s.mu.Lock()
	s.executed++
	s.mu.Unlock()
	if s.executeHook != nil {
		s.executeHook(item)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

func (s *stubStage) executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executed
}

func fullStageSet() (workflow.StageSet, map[string]*stubStage) {
	stages := map[string]*stubStage{
		"transcriber": newStubStage("transcriber"),
		"analyzer":    newStubStage("analyzer"),
		"editor":      newStubStage("editor"),
		"chapterer":   newStubStage("chapterer"),
		"narrator":    newStubStage("narrator"),
		"illustrator": newStubStage("illustrator"),
		"renderer":    newStubStage("renderer"),
		"publisher":   newStubStage("publisher"),
	}
	set := workflow.StageSet{
		Transcriber: stages["transcriber"],
		Analyzer:    stages["analyzer"],
		Editor:      stages["editor"],
		Chapterer:   stages["chapterer"],
		Narrator:    stages["narrator"],
		Illustrator: stages["illustrator"],
		Renderer:    stages["renderer"],
		Publisher:   stages["publisher"],
	}
	return set, stages
}

func fastConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	return cfg
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status, timeout time.Duration) *queue.Item {
	t.Helper()
	ctx := context.Background()
	deadline := time.After(timeout)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		default:
		}
		updated, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status == want {
			return updated
		}
		if want != queue.StatusFailed && updated.Status == queue.StatusFailed {
			t.Fatalf("item failed: %s", updated.ErrorMessage)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestManagerProcessesScreencastThroughAllStages(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, stages := fullStageSet()
	notifier := &managerNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(set)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { mgr.Stop() })

	item := testsupport.NewScreencast(t, store, "/tmp/talk.mkv", "Talk", "hash-success")
	waitForStatus(t, store, item.ID, queue.StatusCompleted, 60*time.Second)

	for name, stg := range stages {
		if stg.executions() != 1 {
			t.Fatalf("expected stage %s to run once, ran %d times", name, stg.executions())
		}
	}

	if notifier.queueStartCount() != 1 {
		t.Fatalf("expected one queue start notification, got %d", notifier.queueStartCount())
	}
	deadline := time.After(10 * time.Second)
	for notifier.queueCompleteCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected queue completion notification")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestManagerSlideshowSkipsForegroundStages(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, stages := fullStageSet()
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &managerNotifier{})
	mgr.ConfigureStages(set)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { mgr.Stop() })

	item := testsupport.NewSlideshow(t, store, "/tmp/deck.md", "Deck", "hash-deck")
	waitForStatus(t, store, item.ID, queue.StatusCompleted, 60*time.Second)

	for _, name := range []string{"transcriber", "analyzer", "editor", "chapterer"} {
		if stages[name].executions() != 0 {
			t.Fatalf("expected foreground stage %s to be skipped for slideshow", name)
		}
	}
	for _, name := range []string{"narrator", "illustrator", "renderer", "publisher"} {
		if stages[name].executions() != 1 {
			t.Fatalf("expected background stage %s to run once for slideshow", name)
		}
	}
}

func TestManagerStatusIncludesStageHealth(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler := newStubStage("transcriber")
	handler.health = stage.Unhealthy(handler.name, "dependency missing")

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &managerNotifier{})
	mgr.ConfigureStages(workflow.StageSet{Transcriber: handler})

	status := mgr.Status(context.Background())
	health, ok := status.StageHealth[handler.name]
	if !ok {
		t.Fatalf("expected stage health entry for %s", handler.name)
	}
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
	if health.Detail != handler.health.Detail {
		t.Fatalf("expected detail %q, got %q", handler.health.Detail, health.Detail)
	}
}

func TestManagerValidationFailureRoutesToReview(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	failing := newStubStage("transcriber")
	failing.executeErr = services.Wrap(services.ErrValidation, "transcriber", "execute", "no speech detected", nil)

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &managerNotifier{})
	mgr.ConfigureStages(workflow.StageSet{Transcriber: failing})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { mgr.Stop() })

	item := testsupport.NewScreencast(t, store, "/tmp/silent.mkv", "Silent", "hash-review")

	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for review status")
		default:
		}
		updated, err := store.GetByID(context.Background(), item.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status == queue.StatusReview {
			if !updated.NeedsReview {
				t.Fatal("expected needs review flag")
			}
			if updated.ReviewReason == "" {
				t.Fatal("expected review reason to be populated")
			}
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestManagerFailureDefaultsToFailed(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	failing := newStubStage("transcriber")
	failing.executeErr = fmt.Errorf("boom")

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &managerNotifier{})
	mgr.ConfigureStages(workflow.StageSet{Transcriber: failing})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { mgr.Stop() })

	item := testsupport.NewScreencast(t, store, "/tmp/broken.mkv", "Broken", "hash-failed")
	updated := waitForStatus(t, store, item.ID, queue.StatusFailed, 30*time.Second)
	if updated.ProgressStage != "Failed" {
		t.Fatalf("expected progress stage 'Failed', got %s", updated.ProgressStage)
	}
	if updated.ErrorMessage == "" {
		t.Fatal("expected error message to be populated")
	}
}

type managerNotifier struct {
	mu             sync.Mutex
	queueStarts    []int
	queueCompletes []struct{ processed, failed int }
}

func (m *managerNotifier) NotifyItemQueued(context.Context, string, string) error { return nil }
func (m *managerNotifier) NotifyTranscriptionCompleted(context.Context, string, int) error {
	return nil
}
func (m *managerNotifier) NotifyEditingCompleted(context.Context, string, float64) error { return nil }
func (m *managerNotifier) NotifyRenderCompleted(context.Context, string) error           { return nil }
func (m *managerNotifier) NotifyPublished(context.Context, string, string) error         { return nil }

func (m *managerNotifier) NotifyQueueStarted(ctx context.Context, count int) error {
	m.mu.Lock()
	m.queueStarts = append(m.queueStarts, count)
	m.mu.Unlock()
	return nil
}

func (m *managerNotifier) NotifyQueueCompleted(ctx context.Context, processed, failed int, _ time.Duration) error {
	m.mu.Lock()
	m.queueCompletes = append(m.queueCompletes, struct{ processed, failed int }{processed: processed, failed: failed})
	m.mu.Unlock()
	return nil
}

func (m *managerNotifier) NotifyError(context.Context, error, string) error           { return nil }
func (m *managerNotifier) NotifyReviewRequired(context.Context, string, string) error { return nil }
func (m *managerNotifier) TestNotification(context.Context) error                     { return nil }

func (m *managerNotifier) queueStartCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queueStarts)
}

func (m *managerNotifier) queueCompleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queueCompletes)
}
