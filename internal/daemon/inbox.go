package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"log/slog"

	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/queue"
)

// settleWindow is how long a file must sit unmodified in the inbox before it
// is picked up. Recordings are often copied in over the network; enqueueing a
// half-written file would hash and transcribe garbage.
const settleWindow = 5 * time.Second

type enqueueFunc func(ctx context.Context, sourcePath string) (*queue.Item, bool, error)

// inboxWatcher polls the inbox directory and enqueues new recordings and decks.
type inboxWatcher struct {
	dir          string
	logger       *slog.Logger
	enqueue      enqueueFunc
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	skipped map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newInboxWatcher(cfg *config.Config, logger *slog.Logger, enqueue enqueueFunc) *inboxWatcher {
	if cfg == nil || enqueue == nil {
		return nil
	}
	dir := strings.TrimSpace(cfg.Paths.InboxDir)
	if dir == "" {
		return nil
	}

	poll := time.Duration(cfg.Workflow.WatchInterval) * time.Second
	if poll <= 0 {
		poll = 10 * time.Second
	}

	return &inboxWatcher{
		dir:          dir,
		logger:       logging.NewComponentLogger(logger, "inbox-watcher"),
		enqueue:      enqueue,
		pollInterval: poll,
		skipped:      make(map[string]struct{}),
	}
}

func (w *inboxWatcher) Start(ctx context.Context) error {
	if w == nil {
		return errors.New("inbox watcher unavailable")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("inbox watcher already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.ctx = runCtx
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop()
	return nil
}

func (w *inboxWatcher) Stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *inboxWatcher) loop() {
	defer w.wg.Done()

	w.scan(w.ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.scan(w.ctx)
		}
	}
}

func (w *inboxWatcher) scan(ctx context.Context) {
	if ctx == nil {
		return
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("inbox scan failed; will retry",
			logging.Error(err),
			logging.String("dir", w.dir),
			logging.String(logging.FieldEventType, "inbox_scan_failed"),
		)
		return
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !watchableExtension(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) < settleWindow {
			continue
		}

		path := filepath.Join(w.dir, name)
		if w.isSkipped(path) {
			continue
		}

		item, existed, err := w.enqueue(ctx, path)
		if err != nil {
			w.logger.Warn("inbox enqueue failed; file will be retried next scan",
				logging.Error(err),
				logging.String("source", path),
				logging.String(logging.FieldEventType, "inbox_enqueue_failed"),
			)
			continue
		}
		if existed {
			// Hash already queued. Remember the path so unchanged files do
			// not get re-hashed on every poll.
			w.markSkipped(path)
			continue
		}
		w.markSkipped(path)
		w.logger.Info("inbox file queued",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldKind, string(item.Kind)),
			logging.String("source", path),
			logging.String(logging.FieldEventType, "inbox_file_queued"),
		)
	}
}

func (w *inboxWatcher) isSkipped(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.skipped[path]
	return ok
}

func (w *inboxWatcher) markSkipped(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.skipped[path] = struct{}{}
}

func watchableExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == deckExtension {
		return true
	}
	_, ok := videoExtensions[ext]
	return ok
}
