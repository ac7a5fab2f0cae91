package chaptering

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"reel/internal/chapters"
	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/pauses"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/stage"
	"reel/internal/textutil"
	"reel/internal/transcript"
)

const progressStage = "Chaptering"

// FFMetadataFileName is the chapter metadata file the render stage embeds.
const FFMetadataFileName = "chapters.ffmetadata"

// Chapterer suggests chapter boundaries from the transcript and remaps them
// onto the edited timeline.
type Chapterer struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewChapterer constructs the chapter suggestion stage handler.
func NewChapterer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Chapterer {
	return &Chapterer{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "chapterer"),
	}
}

// SetLogger routes stage logs into the item-scoped log.
func (c *Chapterer) SetLogger(logger *slog.Logger) {
	if c == nil {
		return
	}
	c.logger = logging.NewComponentLogger(logger, "chapterer")
}

func (c *Chapterer) Prepare(ctx context.Context, item *queue.Item) error {
	if c == nil || c.cfg == nil || c.store == nil {
		return services.Wrap(services.ErrConfiguration, "chaptering", "prepare", "Chaptering stage is not configured", nil)
	}
	item.InitProgress(progressStage, "Suggesting chapters")
	return c.store.UpdateProgress(ctx, item)
}

func (c *Chapterer) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	logger := logging.WithContext(ctx, c.logger)

	if item.Kind != queue.KindScreencast {
		logger.Info("skipping chaptering",
			logging.Args(logging.DecisionAttrs("stage_skip", "skipped", fmt.Sprintf("%s items derive chapters from slide boundaries", item.Kind))...)...,
		)
		return nil
	}
	if strings.TrimSpace(item.TranscriptFile) == "" {
		return services.Wrap(services.ErrValidation, "chaptering", "validate inputs", "No transcript present; run transcription before chaptering", nil)
	}
	if strings.TrimSpace(item.PausesFile) == "" {
		return services.Wrap(services.ErrValidation, "chaptering", "validate inputs", "No edit plan present; run analysis before chaptering", nil)
	}

	tr, err := transcript.Load(item.TranscriptFile)
	if err != nil {
		return services.Wrap(services.ErrValidation, "chaptering", "load transcript", "Failed to read transcript file", err)
	}
	plan, err := pauses.Load(item.PausesFile)
	if err != nil {
		return services.Wrap(services.ErrValidation, "chaptering", "load plan", "Failed to read edit plan", err)
	}

	set, manual, err := c.sourceChapters(item, tr)
	if err != nil {
		return err
	}
	if manual {
		logger.Info("using manual chapter markers",
			logging.Args(logging.DecisionAttrs("chapter_source", "manual", "chapters JSON found next to the source recording")...)...,
		)
	} else {
		logger.Info("suggested chapter markers",
			logging.Args(append(
				logging.DecisionAttrs("chapter_source", "suggested", "no manual chapters JSON present"),
				logging.Int("markers", len(set.Markers)),
			)...)...,
		)
	}

	remapped := chapters.Remap(set, plan)
	if err := remapped.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "chaptering", "remap markers", "Remapped chapter markers are invalid", err)
	}

	staging := item.StagingRoot(c.cfg.Paths.StagingDir)
	chaptersPath := filepath.Join(staging, chaptersFileName(item.Title))
	if err := chapters.Save(chaptersPath, remapped); err != nil {
		return services.Wrap(services.ErrTransient, "chaptering", "write chapters", "Failed to write chapters file", err)
	}
	item.ChaptersFile = chaptersPath

	metadataPath := filepath.Join(staging, FFMetadataFileName)
	if err := os.WriteFile(metadataPath, []byte(chapters.FFMetadata(remapped)), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "chaptering", "write metadata", "Failed to write chapter metadata", err)
	}

	if c.cfg.Chapters.GenerateYouTube {
		youtubePath := filepath.Join(staging, youtubeFileName(item.Title))
		if err := os.WriteFile(youtubePath, []byte(chapters.YouTubeMarkers(remapped)), 0o644); err != nil {
			logger.Warn("failed to write youtube markers", logging.Error(err))
		}
	}

	item.SetProgressComplete(progressStage, fmt.Sprintf("%d chapters", len(remapped.Markers)))
	if err := c.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "chaptering", "persist progress", "Failed to persist chaptering progress", err)
	}

	logger.Info("chaptering stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.Int("markers", len(remapped.Markers)),
		logging.Bool("manual", manual),
		logging.String("chapters_file", chaptersPath),
	)
	return nil
}

// sourceChapters loads manual markers from next to the source recording when
// present, otherwise suggests markers from the transcript. Manual markers are
// authored against the unedited timeline, same as suggestions.
func (c *Chapterer) sourceChapters(item *queue.Item, tr *transcript.Transcript) (*chapters.Set, bool, error) {
	manualPath := manualChaptersPath(item.SourcePath, item.Title)
	if _, err := os.Stat(manualPath); err == nil {
		set, err := chapters.Load(manualPath)
		if err != nil {
			return nil, false, services.Wrap(services.ErrValidation, "chaptering", "load manual chapters", "Failed to read manual chapters file", err)
		}
		if set.Duration <= 0 {
			set.Duration = tr.Duration
		}
		chapters.SortMarkers(set.Markers)
		if err := set.Validate(); err != nil {
			return nil, false, services.Wrap(services.ErrValidation, "chaptering", "validate manual chapters", "Manual chapter markers are invalid", err)
		}
		return set, true, nil
	}

	set := chapters.Suggest(tr, chapters.SuggestOptions{
		PauseThreshold: c.cfg.Chapters.PauseThreshold,
		MinConfidence:  c.cfg.Chapters.MinConfidence,
		Fillers:        c.cfg.Editing.FillerWords,
	})
	return set, false, nil
}

// HealthCheck reports readiness for the chaptering stage.
func (c *Chapterer) HealthCheck(ctx context.Context) stage.Health {
	const name = "chapterer"
	if c == nil || c.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if c.store == nil {
		return stage.Unhealthy(name, "queue store unavailable")
	}
	return stage.Healthy(name)
}

func manualChaptersPath(sourcePath, title string) string {
	dir := filepath.Dir(sourcePath)
	return filepath.Join(dir, sanitizedTitle(title)+" - chapters.json")
}

func chaptersFileName(title string) string {
	return sanitizedTitle(title) + " - chapters.json"
}

func youtubeFileName(title string) string {
	return sanitizedTitle(title) + " - youtube.txt"
}

func sanitizedTitle(title string) string {
	title = strings.TrimSpace(textutil.SanitizeFileName(title))
	if title == "" {
		title = "recording"
	}
	return title
}
