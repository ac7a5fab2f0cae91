package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"reel/internal/analysis"
	"reel/internal/chaptering"
	"reel/internal/config"
	"reel/internal/daemon"
	"reel/internal/editing"
	"reel/internal/illustration"
	"reel/internal/ipc"
	"reel/internal/logging"
	"reel/internal/narration"
	"reel/internal/notifications"
	"reel/internal/publish"
	"reel/internal/queue"
	"reel/internal/render"
	"reel/internal/staging"
	"reel/internal/transcribing"
	"reel/internal/workflow"
)

// stagingMaxAge bounds how long an abandoned staging directory survives
// before the startup sweep reclaims it.
const stagingMaxAge = 7 * 24 * time.Hour

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the reel daemon runtime loop and blocks until the process
// receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("reel-%s.log", runID))

	logger, err := logging.New(logging.Options{
		Level:            opts.LogLevel,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.DaemonLogPath(), logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update reel.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "reel-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "reel.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	sweepStaging(signalCtx, cfg, store, logger)

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	registerStages(manager, cfg, store, logger)

	d, err := daemon.New(cfg, store, logger, manager, notifier, logPath)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	// A failed preflight leaves the daemon idle but reachable: the operator
	// can inspect status over IPC, fix configuration, and retry start.
	if err := manager.RunPreflight(signalCtx, logger); err != nil {
		logger.Error("preflight failed; processing not started",
			logging.Error(err),
			logging.String(logging.FieldEventType, "preflight_failed"),
		)
	} else if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
		)
	}

	<-signalCtx.Done()
	logger.Info("reel daemon shutting down")
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *queue.Store, logger *slog.Logger) {
	if mgr == nil || cfg == nil {
		return
	}

	mgr.ConfigureStages(workflow.StageSet{
		Transcriber: transcribing.NewTranscriber(cfg, store, logger),
		Analyzer:    analysis.NewAnalyzer(cfg, store, logger),
		Editor:      editing.NewEditor(cfg, store, logger),
		Chapterer:   chaptering.NewChapterer(cfg, store, logger),
		Narrator:    narration.NewNarrator(cfg, store, logger),
		Illustrator: illustration.NewIllustrator(cfg, store, logger),
		Renderer:    render.NewRenderer(cfg, store, logger),
		Publisher:   publish.NewPublisher(cfg, store, logger),
	})
}

// sweepStaging reclaims scratch directories left behind by removed or long
// abandoned items. Runs once at startup, before processing begins.
func sweepStaging(ctx context.Context, cfg *config.Config, store *queue.Store, logger *slog.Logger) {
	stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
	if stagingDir == "" {
		return
	}

	items, err := store.List(ctx)
	if err != nil {
		logger.Warn("staging sweep skipped; queue list failed", logging.Error(err))
		return
	}
	activeRoots := make(map[string]struct{}, len(items))
	for _, item := range items {
		root := item.StagingRoot(stagingDir)
		if root == "" {
			continue
		}
		activeRoots[strings.ToLower(filepath.Base(root))] = struct{}{}
	}

	orphaned := staging.CleanOrphaned(ctx, stagingDir, activeRoots, logger)
	stale := staging.CleanStale(ctx, stagingDir, stagingMaxAge, logger)
	if removed := len(orphaned.Removed) + len(stale.Removed); removed > 0 {
		logger.Info("staging sweep complete",
			logging.Int("removed", removed),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
}

func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffmpeg := cfg.FFmpegBinary()
	ffprobe := cfg.FFprobeBinary()
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("transcription_provider", strings.TrimSpace(cfg.Transcription.Provider)),
		logging.Bool("openai_key_present", strings.TrimSpace(cfg.OpenAI.APIKey) != ""),
		logging.Bool("gemini_key_present", strings.TrimSpace(cfg.Gemini.APIKey) != ""),
		logging.Bool("ffmpeg_available", binaryAvailable(ffmpeg)),
		logging.String("ffmpeg_binary", ffmpeg),
		logging.Bool("ffprobe_available", binaryAvailable(ffprobe)),
		logging.String("ffprobe_binary", ffprobe),
		logging.Bool("archive_enabled", cfg.Archive.Enabled),
		logging.Bool("asset_cache_enabled", cfg.AssetCache.Enabled),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
