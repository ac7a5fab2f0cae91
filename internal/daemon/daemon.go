package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"reel/internal/assetcache"
	"reel/internal/config"
	"reel/internal/deps"
	"reel/internal/logging"
	"reel/internal/notifications"
	"reel/internal/preflight"
	"reel/internal/queue"
	"reel/internal/textutil"
	"reel/internal/workflow"
)

// videoExtensions lists the screencast container formats accepted from the
// inbox and the add command.
var videoExtensions = map[string]struct{}{
	".mp4": {},
	".mkv": {},
	".mov": {},
}

const deckExtension = ".md"

// Daemon coordinates background processing and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	notifier notifications.Service
	inbox    *inboxWatcher
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, notifier notifications.Service, logPath string) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	if strings.TrimSpace(logPath) == "" {
		logPath = cfg.DaemonLogPath()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		notifier: notifier,
		logPath:  logPath,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.inbox = newInboxWatcher(cfg, logger, d.AddSource)
	return d, nil
}

// Start launches the workflow manager, the inbox watcher, and acquires the
// daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reel daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if d.inbox != nil {
		if err := d.inbox.Start(d.ctx); err != nil {
			d.logger.Warn("inbox watcher failed to start; queue items must be added manually",
				logging.Error(err),
				logging.String(logging.FieldEventType, "inbox_watch_failed"),
			)
		}
	}

	d.running.Store(true)
	d.logger.Info("reel daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.inbox != nil {
		d.inbox.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("reel daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// AddSource enqueues a screencast recording or a markdown slideshow deck.
// Sources already in the queue (matched by content hash) are returned with
// existed=true instead of being enqueued twice.
func (d *Daemon) AddSource(ctx context.Context, sourcePath string) (*queue.Item, bool, error) {
	if d.store == nil {
		return nil, false, errors.New("queue store unavailable")
	}
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, false, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, false, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, false, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, false, fmt.Errorf("source path %q is a directory", absPath)
	}

	ext := strings.ToLower(filepath.Ext(info.Name()))
	kind := queue.KindScreencast
	if ext == deckExtension {
		kind = queue.KindSlideshow
	} else if _, ok := videoExtensions[ext]; !ok {
		return nil, false, fmt.Errorf("unsupported file extension %q", ext)
	}

	hash, err := assetcache.HashFile(absPath)
	if err != nil {
		return nil, false, fmt.Errorf("hash source file: %w", err)
	}
	existing, err := d.store.FindByContentHash(ctx, hash)
	if err != nil {
		return nil, false, fmt.Errorf("check for duplicate: %w", err)
	}
	if existing != nil {
		return existing, true, nil
	}

	title := textutil.DeriveTitle(absPath)
	var item *queue.Item
	switch kind {
	case queue.KindSlideshow:
		item, err = d.store.NewSlideshow(ctx, absPath, title, hash)
	default:
		item, err = d.store.NewScreencast(ctx, absPath, title, hash)
	}
	if err != nil {
		return nil, false, fmt.Errorf("enqueue source: %w", err)
	}

	d.logger.Info("source queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldKind, string(kind)),
		logging.String("title", title),
		logging.String("source", absPath),
	)
	if err := d.notifier.NotifyItemQueued(ctx, title, string(kind)); err != nil {
		d.logger.Warn("queued notification failed", logging.Error(err))
	}
	return item, false, nil
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	return d.store.List(ctx, statuses...)
}

// GetQueueItem returns a single queue item by id.
func (d *Daemon) GetQueueItem(ctx context.Context, id int64) (*queue.Item, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	return d.store.GetByID(ctx, id)
}

// ClearQueue removes all queue items.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed queue items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed queue items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearFailed(ctx)
}

// RemoveItems removes specific queue items by id.
func (d *Daemon) RemoveItems(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	var removed int64
	for _, id := range ids {
		ok, err := d.store.Remove(ctx, id)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// ResetStuck transitions in-flight items back to their stage start for retry.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ResetStuckProcessing(ctx)
}

// RetryFailed resets failed items (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.RetryFailed(ctx, ids...)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	if d.store == nil {
		return queue.HealthSummary{}, errors.New("queue store unavailable")
	}
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	if d.store == nil {
		return queue.DatabaseHealth{}, errors.New("queue store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     summary,
		QueueDBPath:  d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		Dependencies: preflight.CheckSystemDeps(ctx, d.cfg),
	}
}
