package illustration

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"reel/internal/assetcache"
	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/services/gemini"
	"reel/internal/slides"
	"reel/internal/stage"
)

const progressStage = "Illustrating"

// ImageGenerator abstracts the image generation client so tests can run
// offline.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, outPath string) error
	HealthCheck(ctx context.Context) error
}

// Illustrator generates one image per slide for slideshow items, reusing
// cached images for slides whose prompt has not changed.
type Illustrator struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	generator ImageGenerator
	cache     *assetcache.Cache
	cacheErr  error
}

// NewIllustrator constructs the illustration stage handler.
func NewIllustrator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Illustrator {
	generator := gemini.NewClient(gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		Model:          cfg.Gemini.Model,
		AspectRatio:    cfg.Gemini.AspectRatio,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
	})
	cache, cacheErr := assetcache.New(cfg.AssetCache.Dir, cfg.AssetCache.Enabled)
	return &Illustrator{
		store:     store,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "illustrator"),
		generator: generator,
		cache:     cache,
		cacheErr:  cacheErr,
	}
}

// NewIllustratorWithDependencies allows injecting collaborators (used in tests).
func NewIllustratorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, generator ImageGenerator, cache *assetcache.Cache) *Illustrator {
	return &Illustrator{
		store:     store,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "illustrator"),
		generator: generator,
		cache:     cache,
	}
}

// SetLogger routes stage logs into the item-scoped log.
func (il *Illustrator) SetLogger(logger *slog.Logger) {
	if il == nil {
		return
	}
	il.logger = logging.NewComponentLogger(logger, "illustrator")
}

func (il *Illustrator) Prepare(ctx context.Context, item *queue.Item) error {
	if il == nil || il.cfg == nil || il.store == nil {
		return services.Wrap(services.ErrConfiguration, "illustration", "prepare", "Illustration stage is not configured", nil)
	}
	if il.cacheErr != nil {
		return services.Wrap(services.ErrConfiguration, "illustration", "prepare", "Asset cache is unavailable", il.cacheErr)
	}
	item.InitProgress(progressStage, "Generating slide images")
	return il.store.UpdateProgress(ctx, item)
}

func (il *Illustrator) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	logger := logging.WithContext(ctx, il.logger)

	if item.Kind != queue.KindSlideshow {
		logger.Info("skipping illustration",
			logging.Args(logging.DecisionAttrs("stage_skip", "skipped", fmt.Sprintf("%s items already have visuals", item.Kind))...)...,
		)
		return nil
	}
	if il.generator == nil {
		return services.Wrap(services.ErrConfiguration, "illustration", "validate configuration", "No image generation client configured", nil)
	}
	if _, err := os.Stat(item.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "illustration", "validate inputs", "Slide deck not found", err)
	}

	deck, err := slides.ParseFile(item.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "illustration", "parse deck", "Failed to parse the slide deck", err)
	}
	if len(deck.Slides) == 0 {
		return services.Wrap(services.ErrValidation, "illustration", "parse deck", "Slide deck has no slides", nil)
	}

	outDir := filepath.Join(item.StagingRoot(il.cfg.Paths.StagingDir), "images")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "illustration", "prepare output", "Failed to create image directory", err)
	}

	var generated, cacheHits int
	for i, slide := range deck.Slides {
		if err := il.updateProgress(ctx, item, fmt.Sprintf("Illustrating slide %d of %d", i+1, len(deck.Slides)), 5+90*float64(i)/float64(len(deck.Slides))); err != nil {
			return err
		}

		prompt := gemini.SlidePrompt(slide.Title, slide.PromptText(), il.cfg.Gemini.Style)
		outPath := filepath.Join(outDir, imageFileName(slide.Index))
		hash := il.imageHash(prompt)
		key := "img:" + hash

		if cached, ok, err := il.cache.Lookup(key, hash); err != nil {
			logger.Warn("image cache lookup failed", logging.Error(err))
		} else if ok {
			if err := copyFile(cached, outPath); err != nil {
				return services.Wrap(services.ErrTransient, "illustration", "restore cached image", "Failed to copy cached slide image", err)
			}
			cacheHits++
			continue
		}

		if err := il.generator.GenerateImage(ctx, prompt, outPath); err != nil {
			return services.Wrap(services.ErrExternalTool, "illustration", "generate image",
				fmt.Sprintf("Image generation failed on slide %d", slide.Index+1), err)
		}
		generated++
		if _, err := il.cache.Store(key, hash, outPath); err != nil {
			logger.Warn("image cache store failed", logging.Error(err))
		}
	}
	item.ImageDir = outDir

	item.SetProgressComplete(progressStage, fmt.Sprintf("%d images (%d from cache)", len(deck.Slides), cacheHits))
	if err := il.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "illustration", "persist progress", "Failed to persist illustration progress", err)
	}

	logger.Info("illustration stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.Int("slides", len(deck.Slides)),
		logging.Int("generated", generated),
		logging.Int("cache_hits", cacheHits),
		logging.String("style", il.cfg.Gemini.Style),
	)
	return nil
}

// HealthCheck reports readiness for the illustration stage.
func (il *Illustrator) HealthCheck(ctx context.Context) stage.Health {
	const name = "illustrator"
	if il == nil || il.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if il.cacheErr != nil {
		return stage.Unhealthy(name, fmt.Sprintf("asset cache unavailable: %v", il.cacheErr))
	}
	if il.generator == nil {
		return stage.Unhealthy(name, "image generation client unavailable")
	}
	if err := il.generator.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}

func (il *Illustrator) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) error {
	item.SetProgress(progressStage, message, percent)
	if err := il.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "illustration", "persist progress", "Failed to persist illustration progress", err)
	}
	return nil
}

// imageHash keys the cache by everything that shapes the picture: model,
// aspect ratio, and the full prompt (which already bakes in the style).
func (il *Illustrator) imageHash(prompt string) string {
	return assetcache.HashText(strings.Join([]string{
		il.cfg.Gemini.Model,
		il.cfg.Gemini.AspectRatio,
		prompt,
	}, "\x00"))
}

func imageFileName(index int) string {
	return fmt.Sprintf("slide_%03d.png", index)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

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
