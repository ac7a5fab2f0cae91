package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/pauses"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/stage"
	"reel/internal/textutil"
	"reel/internal/transcript"
)

const progressStage = "Analyzing"

// Analyzer turns a transcript into an edit plan: which stretches of the
// recording are pauses or fillers, and which segments survive the cut.
type Analyzer struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewAnalyzer constructs the pause and filler analysis stage handler.
func NewAnalyzer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "analyzer"),
	}
}

// SetLogger routes stage logs into the item-scoped log.
func (a *Analyzer) SetLogger(logger *slog.Logger) {
	if a == nil {
		return
	}
	a.logger = logging.NewComponentLogger(logger, "analyzer")
}

func (a *Analyzer) Prepare(ctx context.Context, item *queue.Item) error {
	if a == nil || a.cfg == nil || a.store == nil {
		return services.Wrap(services.ErrConfiguration, "analysis", "prepare", "Analysis stage is not configured", nil)
	}
	item.InitProgress(progressStage, "Loading transcript")
	return a.store.UpdateProgress(ctx, item)
}

func (a *Analyzer) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	logger := logging.WithContext(ctx, a.logger)

	if item.Kind != queue.KindScreencast {
		logger.Info("skipping analysis",
			logging.Args(logging.DecisionAttrs("stage_skip", "skipped", fmt.Sprintf("%s items have no recording to analyze", item.Kind))...)...,
		)
		return nil
	}
	if strings.TrimSpace(item.TranscriptFile) == "" {
		return services.Wrap(services.ErrValidation, "analysis", "validate inputs", "No transcript present; run transcription before analysis", nil)
	}

	tr, err := transcript.Load(item.TranscriptFile)
	if err != nil {
		return services.Wrap(services.ErrValidation, "analysis", "load transcript", "Failed to read transcript file", err)
	}
	if err := tr.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "analysis", "validate transcript", "Transcript is unusable for analysis", err)
	}

	editing := a.cfg.Editing
	removals := pauses.Detect(tr, editing.PauseThreshold)
	pauseCount := len(removals)
	fillerCount := 0
	if editing.RemoveFillers {
		fillers := pauses.DetectFillers(tr, editing.FillerWords)
		fillerCount = len(fillers)
		removals = append(removals, fillers...)
	}

	plan, err := pauses.BuildPlan(removals, tr.Duration, pauses.Options{
		Padding:    editing.Padding,
		TailBuffer: editing.TailBuffer,
		MinSegment: editing.MinSegmentSeconds,
	})
	if err != nil {
		return services.Wrap(services.ErrValidation, "analysis", "build plan", "Failed to build edit plan from detected removals", err)
	}

	staging := item.StagingRoot(a.cfg.Paths.StagingDir)
	planPath := filepath.Join(staging, pausesFileName(item.Title))
	if err := pauses.Save(planPath, &plan); err != nil {
		return services.Wrap(services.ErrTransient, "analysis", "write plan", "Failed to write edit plan", err)
	}
	item.PausesFile = planPath

	reportPath := filepath.Join(staging, reportFileName(item.Title))
	if err := os.WriteFile(reportPath, []byte(buildReport(item.Title, &plan, pauseCount, fillerCount)), 0o644); err != nil {
		logger.Warn("failed to write edit report", logging.Error(err))
	}

	item.SetProgressComplete(progressStage, fmt.Sprintf("Found %d pauses and %d fillers (%.1fs removable)", pauseCount, fillerCount, plan.TotalCut()))
	if err := a.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "analysis", "persist progress", "Failed to persist analysis progress", err)
	}

	logger.Info("analysis stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.Int("pauses", pauseCount),
		logging.Int("fillers", fillerCount),
		logging.Float64("removable_seconds", plan.TotalCut()),
		logging.Float64("edited_duration", plan.EditedDuration()),
	)
	return nil
}

// HealthCheck reports readiness for the analysis stage.
func (a *Analyzer) HealthCheck(ctx context.Context) stage.Health {
	const name = "analyzer"
	if a == nil || a.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if a.store == nil {
		return stage.Unhealthy(name, "queue store unavailable")
	}
	if a.cfg.Editing.PauseThreshold <= 0 {
		return stage.Unhealthy(name, "pause threshold not configured")
	}
	return stage.Healthy(name)
}

func buildReport(title string, plan *pauses.Plan, pauseCount, fillerCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Edit report for %s\n", strings.TrimSpace(title))
	fmt.Fprintf(&b, "Source duration: %.1fs\n", plan.SourceDuration)
	fmt.Fprintf(&b, "Edited duration: %.1fs (%.1fs removed)\n", plan.EditedDuration(), plan.TotalCut())
	fmt.Fprintf(&b, "Pauses: %d, fillers: %d\n\n", pauseCount, fillerCount)
	for _, removal := range plan.Removals {
		switch removal.Kind {
		case pauses.KindFiller:
			fmt.Fprintf(&b, "%8.2f  filler %q\n", removal.Start, removal.Word)
		default:
			fmt.Fprintf(&b, "%8.2f  pause  %.2fs\n", removal.Start, removal.Duration())
		}
	}
	return b.String()
}

func pausesFileName(title string) string {
	return sanitizedTitle(title) + " - pauses.json"
}

func reportFileName(title string) string {
	return sanitizedTitle(title) + " - edit report.txt"
}

func sanitizedTitle(title string) string {
	title = strings.TrimSpace(textutil.SanitizeFileName(title))
	if title == "" {
		title = "recording"
	}
	return title
}
