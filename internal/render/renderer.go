package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"reel/internal/chapters"
	"reel/internal/chaptering"
	"reel/internal/config"
	"reel/internal/fileutil"
	"reel/internal/logging"
	"reel/internal/media/ffmpeg"
	"reel/internal/narration"
	"reel/internal/notifications"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/stage"
	"reel/internal/textutil"
)

const progressStage = "Rendering"

// silentSlideSeconds is how long a slide with no narration stays on screen.
const silentSlideSeconds = 4.0

// Assembler abstracts the ffmpeg operations the renderer needs so tests can
// run without the binary.
type Assembler interface {
	SlideClip(ctx context.Context, image, audio, output string, opts ffmpeg.SlideClipOptions) error
	ConcatCopy(ctx context.Context, listPath, output string) error
	EmbedChapters(ctx context.Context, input, metadataPath, output string) error
}

// Renderer produces the final video file. Screencasts get their chapter
// metadata embedded into the edited cut; slideshows are assembled from the
// generated images and narration clips, with chapters at slide boundaries.
type Renderer struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	ffmpeg   Assembler
	notifier notifications.Service
}

// NewRenderer constructs the render stage handler.
func NewRenderer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Renderer {
	return NewRendererWithDependencies(cfg, store, logger, ffmpeg.NewRunner(cfg.FFmpegBinary()), notifications.NewService(cfg))
}

// NewRendererWithDependencies allows injecting collaborators (used in tests).
func NewRendererWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, assembler Assembler, notifier notifications.Service) *Renderer {
	return &Renderer{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "renderer"),
		ffmpeg:   assembler,
		notifier: notifier,
	}
}

// SetLogger routes stage logs into the item-scoped log.
func (r *Renderer) SetLogger(logger *slog.Logger) {
	if r == nil {
		return
	}
	r.logger = logging.NewComponentLogger(logger, "renderer")
}

func (r *Renderer) Prepare(ctx context.Context, item *queue.Item) error {
	if r == nil || r.cfg == nil || r.store == nil {
		return services.Wrap(services.ErrConfiguration, "render", "prepare", "Render stage is not configured", nil)
	}
	item.InitProgress(progressStage, "Rendering final video")
	return r.store.UpdateProgress(ctx, item)
}

func (r *Renderer) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	logger := logging.WithContext(ctx, r.logger)

	if r.ffmpeg == nil {
		return services.Wrap(services.ErrConfiguration, "render", "validate configuration", "No ffmpeg runner configured", nil)
	}

	staging := item.StagingRoot(r.cfg.Paths.StagingDir)
	output := filepath.Join(staging, renderedFileName(item.Title))

	var err error
	switch item.Kind {
	case queue.KindScreencast:
		err = r.renderScreencast(ctx, logger, item, staging, output)
	case queue.KindSlideshow:
		err = r.renderSlideshow(ctx, logger, item, staging, output)
	default:
		return services.Wrap(services.ErrValidation, "render", "validate inputs",
			fmt.Sprintf("Unknown item kind %q", item.Kind), nil)
	}
	if err != nil {
		return err
	}
	item.RenderedFile = output

	item.SetProgressComplete(progressStage, "Final video rendered")
	if err := r.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "render", "persist progress", "Failed to persist render progress", err)
	}

	if r.notifier != nil {
		if err := r.notifier.NotifyRenderCompleted(ctx, item.Title); err != nil {
			logger.Warn("render notification failed", logging.Error(err))
		}
	}

	logger.Info("render stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.String(logging.FieldKind, string(item.Kind)),
		logging.String("rendered_file", output),
	)
	return nil
}

// renderScreencast embeds the chapter metadata into the edited cut. Without
// chapter metadata the edited cut already is the final video, so it is copied
// through unchanged.
func (r *Renderer) renderScreencast(ctx context.Context, logger *slog.Logger, item *queue.Item, staging, output string) error {
	if strings.TrimSpace(item.EditedFile) == "" {
		return services.Wrap(services.ErrValidation, "render", "validate inputs", "No edited video present; run editing before rendering", nil)
	}
	if _, err := os.Stat(item.EditedFile); err != nil {
		return services.Wrap(services.ErrValidation, "render", "validate inputs", "Edited video not found", err)
	}

	metadataPath := filepath.Join(staging, chaptering.FFMetadataFileName)
	if _, err := os.Stat(metadataPath); err != nil {
		logger.Info("no chapter metadata; passing edited video through",
			logging.Args(logging.DecisionAttrs("render_mode", "copy", "chaptering produced no metadata")...)...,
		)
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return services.Wrap(services.ErrTransient, "render", "copy edited video", "Failed to create output directory", err)
		}
		if err := fileutil.Copy(item.EditedFile, output); err != nil {
			return services.Wrap(services.ErrTransient, "render", "copy edited video", "Failed to copy edited video", err)
		}
		return nil
	}

	if err := r.updateProgress(ctx, item, "Embedding chapters", 50); err != nil {
		return err
	}
	if err := r.ffmpeg.EmbedChapters(ctx, item.EditedFile, metadataPath, output); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "embed chapters", "Failed to embed chapter metadata with ffmpeg", err)
	}
	return nil
}

// renderSlideshow turns each slide image plus its narration clip into a short
// video, concatenates them, and embeds chapters at the slide boundaries.
func (r *Renderer) renderSlideshow(ctx context.Context, logger *slog.Logger, item *queue.Item, staging, output string) error {
	if strings.TrimSpace(item.NarrationDir) == "" {
		return services.Wrap(services.ErrValidation, "render", "validate inputs", "No narration present; run narration before rendering", nil)
	}
	if strings.TrimSpace(item.ImageDir) == "" {
		return services.Wrap(services.ErrValidation, "render", "validate inputs", "No slide images present; run illustration before rendering", nil)
	}
	manifest, err := narration.LoadManifest(filepath.Join(item.NarrationDir, narration.ManifestFileName))
	if err != nil {
		return services.Wrap(services.ErrValidation, "render", "load narration", "Failed to read narration manifest", err)
	}
	if len(manifest.Slides) == 0 {
		return services.Wrap(services.ErrValidation, "render", "load narration", "Narration manifest has no slides", nil)
	}

	clipsDir := filepath.Join(staging, "clips")
	if err := os.MkdirAll(clipsDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "render", "prepare output", "Failed to create clips directory", err)
	}

	set := &chapters.Set{}
	clips := make([]string, 0, len(manifest.Slides))
	elapsed := 0.0
	for i, slide := range manifest.Slides {
		if err := r.updateProgress(ctx, item, fmt.Sprintf("Rendering slide %d of %d", i+1, len(manifest.Slides)), 5+80*float64(i)/float64(len(manifest.Slides))); err != nil {
			return err
		}

		image := filepath.Join(item.ImageDir, fmt.Sprintf("slide_%03d.png", slide.Index))
		if _, err := os.Stat(image); err != nil {
			return services.Wrap(services.ErrValidation, "render", "collect images",
				fmt.Sprintf("Missing image for slide %d", slide.Index+1), err)
		}

		duration := slide.Duration
		opts := ffmpeg.SlideClipOptions{Resolution: ffmpeg.DefaultResolution}
		if slide.Audio == "" {
			duration = silentSlideSeconds
			opts.Duration = duration
		}
		clip := filepath.Join(clipsDir, fmt.Sprintf("clip_%03d.mp4", slide.Index))
		if err := r.ffmpeg.SlideClip(ctx, image, slide.Audio, clip, opts); err != nil {
			return services.Wrap(services.ErrExternalTool, "render", "render slide clip",
				fmt.Sprintf("Failed to render clip for slide %d", slide.Index+1), err)
		}
		clips = append(clips, clip)

		set.Markers = append(set.Markers, chapters.Marker{
			Title:      slideTitle(slide, i),
			Start:      elapsed,
			Confidence: 1,
		})
		elapsed += duration
	}
	set.Duration = elapsed

	if err := r.updateProgress(ctx, item, "Concatenating slides", 90); err != nil {
		return err
	}
	listPath := filepath.Join(clipsDir, "concat.txt")
	if err := ffmpeg.WriteConcatList(listPath, clips); err != nil {
		return services.Wrap(services.ErrTransient, "render", "write concat list", "Failed to write concat list", err)
	}
	assembled := filepath.Join(clipsDir, "assembled.mp4")
	if err := r.ffmpeg.ConcatCopy(ctx, listPath, assembled); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "concatenate clips", "Failed to concatenate slide clips with ffmpeg", err)
	}

	chaptersPath := filepath.Join(staging, slideshowChaptersFileName(item.Title))
	if err := chapters.Save(chaptersPath, set); err != nil {
		return services.Wrap(services.ErrTransient, "render", "write chapters", "Failed to write chapters file", err)
	}
	item.ChaptersFile = chaptersPath

	metadataPath := filepath.Join(staging, chaptering.FFMetadataFileName)
	if err := os.WriteFile(metadataPath, []byte(chapters.FFMetadata(set)), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "render", "write metadata", "Failed to write chapter metadata", err)
	}
	if r.cfg.Chapters.GenerateYouTube {
		youtubePath := filepath.Join(staging, sanitizedTitle(item.Title)+" - youtube.txt")
		if err := os.WriteFile(youtubePath, []byte(chapters.YouTubeMarkers(set)), 0o644); err != nil {
			logger.Warn("failed to write youtube markers", logging.Error(err))
		}
	}

	if err := r.ffmpeg.EmbedChapters(ctx, assembled, metadataPath, output); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "embed chapters", "Failed to embed chapter metadata with ffmpeg", err)
	}

	logger.Info("assembled slideshow",
		logging.Int("slides", len(manifest.Slides)),
		logging.Float64("duration_seconds", elapsed),
		logging.Int("markers", len(set.Markers)),
	)
	return nil
}

// HealthCheck reports readiness for the render stage.
func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	const name = "renderer"
	if r == nil || r.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if r.store == nil {
		return stage.Unhealthy(name, "queue store unavailable")
	}
	if r.ffmpeg == nil {
		return stage.Unhealthy(name, "ffmpeg runner unavailable")
	}
	return stage.Healthy(name)
}

func (r *Renderer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) error {
	item.SetProgress(progressStage, message, percent)
	if err := r.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "render", "persist progress", "Failed to persist render progress", err)
	}
	return nil
}

func slideTitle(slide narration.SlideAudio, position int) string {
	if strings.TrimSpace(slide.Title) != "" {
		return slide.Title
	}
	return fmt.Sprintf("Slide %d", position+1)
}

func renderedFileName(title string) string {
	return sanitizedTitle(title) + " - rendered.mp4"
}

func slideshowChaptersFileName(title string) string {
	return sanitizedTitle(title) + " - chapters.json"
}

func sanitizedTitle(title string) string {
	title = strings.TrimSpace(textutil.SanitizeFileName(title))
	if title == "" {
		title = "recording"
	}
	return title
}
