package editing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/media/ffmpeg"
	"reel/internal/notifications"
	"reel/internal/pauses"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/stage"
	"reel/internal/textutil"
)

const progressStage = "Editing"

// Cutter abstracts the ffmpeg segment cut so tests can run without the binary.
type Cutter interface {
	CutSegments(ctx context.Context, input string, segments []pauses.Segment, workDir, output string, opts ffmpeg.CutOptions) error
}

// Editor applies the analysis stage's edit plan to the source recording.
type Editor struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	cutter   Cutter
	notifier notifications.Service
}

// NewEditor constructs the video editing stage handler.
func NewEditor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Editor {
	return NewEditorWithDependencies(cfg, store, logger, ffmpeg.NewRunner(cfg.FFmpegBinary()), notifications.NewService(cfg))
}

// NewEditorWithDependencies allows injecting collaborators (used in tests).
func NewEditorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, cutter Cutter, notifier notifications.Service) *Editor {
	return &Editor{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "editor"),
		cutter:   cutter,
		notifier: notifier,
	}
}

// SetLogger routes stage logs into the item-scoped log.
func (e *Editor) SetLogger(logger *slog.Logger) {
	if e == nil {
		return
	}
	e.logger = logging.NewComponentLogger(logger, "editor")
}

func (e *Editor) Prepare(ctx context.Context, item *queue.Item) error {
	if e == nil || e.cfg == nil || e.store == nil {
		return services.Wrap(services.ErrConfiguration, "editing", "prepare", "Editing stage is not configured", nil)
	}
	item.InitProgress(progressStage, "Loading edit plan")
	return e.store.UpdateProgress(ctx, item)
}

func (e *Editor) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	logger := logging.WithContext(ctx, e.logger)

	if item.Kind != queue.KindScreencast {
		logger.Info("skipping editing",
			logging.Args(logging.DecisionAttrs("stage_skip", "skipped", fmt.Sprintf("%s items have no recording to cut", item.Kind))...)...,
		)
		return nil
	}
	if strings.TrimSpace(item.PausesFile) == "" {
		return services.Wrap(services.ErrValidation, "editing", "validate inputs", "No edit plan present; run analysis before editing", nil)
	}
	if _, err := os.Stat(item.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "editing", "validate inputs", "Source recording not found", err)
	}

	plan, err := pauses.Load(item.PausesFile)
	if err != nil {
		return services.Wrap(services.ErrValidation, "editing", "load plan", "Failed to read edit plan", err)
	}

	staging := item.StagingRoot(e.cfg.Paths.StagingDir)
	output := filepath.Join(staging, editedFileName(item.Title))

	if len(plan.Cuts) == 0 {
		logger.Info("no cuts in edit plan; copying source",
			logging.Args(logging.DecisionAttrs("edit_skip", "copied", "analysis found nothing to remove")...)...,
		)
		if err := copyFile(item.SourcePath, output); err != nil {
			return services.Wrap(services.ErrTransient, "editing", "copy source", "Failed to copy source recording", err)
		}
	} else {
		segments := plan.Segments()
		if len(segments) == 0 {
			return services.Wrap(services.ErrValidation, "editing", "build segments", "Edit plan removes the entire recording", nil)
		}
		if err := e.updateProgress(ctx, item, fmt.Sprintf("Cutting %d segments", len(segments)), 10); err != nil {
			return err
		}
		workDir := filepath.Join(staging, "segments")
		opts := ffmpeg.CutOptions{SkipIndicator: e.cfg.Editing.SkipIndicator}
		if err := e.cutter.CutSegments(ctx, item.SourcePath, segments, workDir, output, opts); err != nil {
			return services.Wrap(services.ErrExternalTool, "editing", "cut segments", "Failed to cut and concatenate segments with ffmpeg", err)
		}
	}
	item.EditedFile = output

	removed := plan.TotalCut()
	item.SetProgressComplete(progressStage, fmt.Sprintf("Removed %.1fs (%.1fs remain)", removed, plan.EditedDuration()))
	if err := e.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "editing", "persist progress", "Failed to persist editing progress", err)
	}

	if e.notifier != nil {
		if err := e.notifier.NotifyEditingCompleted(ctx, item.Title, removed); err != nil {
			logger.Warn("editing notification failed", logging.Error(err))
		}
	}

	logger.Info("editing stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.Int("cuts", len(plan.Cuts)),
		logging.Float64("removed_seconds", removed),
		logging.String("edited_file", output),
	)
	return nil
}

// HealthCheck reports readiness for the editing stage.
func (e *Editor) HealthCheck(ctx context.Context) stage.Health {
	const name = "editor"
	if e == nil || e.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if e.store == nil {
		return stage.Unhealthy(name, "queue store unavailable")
	}
	if e.cutter == nil {
		return stage.Unhealthy(name, "ffmpeg runner unavailable")
	}
	return stage.Healthy(name)
}

func (e *Editor) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) error {
	item.SetProgress(progressStage, message, percent)
	if err := e.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "editing", "persist progress", "Failed to persist editing progress", err)
	}
	return nil
}

func editedFileName(title string) string {
	title = strings.TrimSpace(textutil.SanitizeFileName(title))
	if title == "" {
		title = "recording"
	}
	return title + " - edited.mp4"
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
