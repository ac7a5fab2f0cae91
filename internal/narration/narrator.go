package narration

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/shopspring/decimal"

	"reel/internal/assetcache"
	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/media/ffprobe"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/services/openai"
	"reel/internal/slides"
	"reel/internal/stage"
)

const progressStage = "Narrating"

const speechInstructions = "Speak as a presenter walking an audience through a slide. Steady pace, no theatrics."

// Synthesizer abstracts the text-to-speech client so tests can run offline.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, instructions, outPath string) error
	HealthCheck(ctx context.Context) error
}

// AudioProber measures the duration of a synthesized clip.
type AudioProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Narrator synthesizes per-slide narration audio for slideshow items.
// Unchanged slides are served from the asset cache instead of re-synthesized.
type Narrator struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	tts      Synthesizer
	prober   AudioProber
	cache    *assetcache.Cache
	cacheErr error
}

// NewNarrator constructs the narration stage handler.
func NewNarrator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Narrator {
	tts := openai.NewClient(openai.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		TTSModel:       cfg.OpenAI.TTSModel,
		TTSVoice:       cfg.OpenAI.TTSVoice,
		TTSFormat:      cfg.OpenAI.TTSFormat,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
	})
	cache, cacheErr := assetcache.New(cfg.AssetCache.Dir, cfg.AssetCache.Enabled)
	return &Narrator{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "narrator"),
		tts:      tts,
		prober:   ffprobeProber{binary: cfg.FFprobeBinary()},
		cache:    cache,
		cacheErr: cacheErr,
	}
}

// NewNarratorWithDependencies allows injecting collaborators (used in tests).
func NewNarratorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, tts Synthesizer, prober AudioProber, cache *assetcache.Cache) *Narrator {
	return &Narrator{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "narrator"),
		tts:    tts,
		prober: prober,
		cache:  cache,
	}
}

// SetLogger routes stage logs into the item-scoped log.
func (n *Narrator) SetLogger(logger *slog.Logger) {
	if n == nil {
		return
	}
	n.logger = logging.NewComponentLogger(logger, "narrator")
}

func (n *Narrator) Prepare(ctx context.Context, item *queue.Item) error {
	if n == nil || n.cfg == nil || n.store == nil {
		return services.Wrap(services.ErrConfiguration, "narration", "prepare", "Narration stage is not configured", nil)
	}
	if n.cacheErr != nil {
		return services.Wrap(services.ErrConfiguration, "narration", "prepare", "Asset cache is unavailable", n.cacheErr)
	}
	item.InitProgress(progressStage, "Synthesizing narration")
	return n.store.UpdateProgress(ctx, item)
}

func (n *Narrator) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	logger := logging.WithContext(ctx, n.logger)

	if item.Kind != queue.KindSlideshow {
		logger.Info("skipping narration",
			logging.Args(logging.DecisionAttrs("stage_skip", "skipped", fmt.Sprintf("%s items carry their own voice track", item.Kind))...)...,
		)
		return nil
	}
	if n.tts == nil {
		return services.Wrap(services.ErrConfiguration, "narration", "validate configuration", "No text-to-speech client configured", nil)
	}
	if _, err := os.Stat(item.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "narration", "validate inputs", "Slide deck not found", err)
	}

	deck, err := slides.ParseFile(item.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "narration", "parse deck", "Failed to parse the slide deck", err)
	}
	if len(deck.Slides) == 0 {
		return services.Wrap(services.ErrValidation, "narration", "parse deck", "Slide deck has no slides", nil)
	}

	outDir := filepath.Join(item.StagingRoot(n.cfg.Paths.StagingDir), "narration")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "narration", "prepare output", "Failed to create narration directory", err)
	}

	manifest := &Manifest{
		Voice: n.cfg.OpenAI.TTSVoice,
		Model: n.cfg.OpenAI.TTSModel,
	}
	var (
		synthesized int
		cacheHits   int
		cost        = decimal.Zero
	)
	for i, slide := range deck.Slides {
		if err := n.updateProgress(ctx, item, fmt.Sprintf("Narrating slide %d of %d", i+1, len(deck.Slides)), 5+90*float64(i)/float64(len(deck.Slides))); err != nil {
			return err
		}

		text := strings.TrimSpace(slide.NarrationText())
		entry := SlideAudio{Index: slide.Index, Title: slide.Title}
		if text == "" {
			manifest.Slides = append(manifest.Slides, entry)
			continue
		}

		outPath := filepath.Join(outDir, clipFileName(slide.Index, n.cfg.OpenAI.TTSFormat))
		hash := n.clipHash(text)
		key := "tts:" + hash

		if cached, ok, err := n.cache.Lookup(key, hash); err != nil {
			logger.Warn("narration cache lookup failed", logging.Error(err))
		} else if ok {
			if err := copyFile(cached, outPath); err != nil {
				return services.Wrap(services.ErrTransient, "narration", "restore cached clip", "Failed to copy cached narration clip", err)
			}
			entry.Cached = true
			cacheHits++
		}
		if !entry.Cached {
			if err := n.tts.Synthesize(ctx, text, speechInstructions, outPath); err != nil {
				return services.Wrap(services.ErrExternalTool, "narration", "synthesize speech",
					fmt.Sprintf("Text-to-speech failed on slide %d", slide.Index+1), err)
			}
			synthesized++
			cost = cost.Add(openai.EstimateSpeechCost(text))
			if _, err := n.cache.Store(key, hash, outPath); err != nil {
				logger.Warn("narration cache store failed", logging.Error(err))
			}
		}

		duration, err := n.prober.Duration(ctx, outPath)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "narration", "probe clip",
				fmt.Sprintf("Failed to measure narration clip for slide %d", slide.Index+1), err)
		}
		entry.Audio = outPath
		entry.Duration = duration
		manifest.Slides = append(manifest.Slides, entry)
	}

	if err := SaveManifest(filepath.Join(outDir, ManifestFileName), manifest); err != nil {
		return services.Wrap(services.ErrTransient, "narration", "write manifest", "Failed to write narration manifest", err)
	}
	item.NarrationDir = outDir

	item.SetProgressComplete(progressStage, fmt.Sprintf("%d clips (%d from cache)", len(manifest.Slides), cacheHits))
	if err := n.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "narration", "persist progress", "Failed to persist narration progress", err)
	}

	logger.Info("narration stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.Int("slides", len(deck.Slides)),
		logging.Int("synthesized", synthesized),
		logging.Int("cache_hits", cacheHits),
		logging.Float64("spoken_seconds", manifest.TotalDuration()),
		logging.String("estimated_cost_usd", cost.StringFixed(4)),
	)
	return nil
}

// HealthCheck reports readiness for the narration stage.
func (n *Narrator) HealthCheck(ctx context.Context) stage.Health {
	const name = "narrator"
	if n == nil || n.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if n.cacheErr != nil {
		return stage.Unhealthy(name, fmt.Sprintf("asset cache unavailable: %v", n.cacheErr))
	}
	if n.tts == nil {
		return stage.Unhealthy(name, "text-to-speech client unavailable")
	}
	if err := n.tts.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}

func (n *Narrator) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) error {
	item.SetProgress(progressStage, message, percent)
	if err := n.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "narration", "persist progress", "Failed to persist narration progress", err)
	}
	return nil
}

// clipHash keys the cache by everything that shapes the audio: model, voice,
// format, and the narration text itself.
func (n *Narrator) clipHash(text string) string {
	return assetcache.HashText(strings.Join([]string{
		n.cfg.OpenAI.TTSModel,
		n.cfg.OpenAI.TTSVoice,
		n.cfg.OpenAI.TTSFormat,
		text,
	}, "\x00"))
}

func clipFileName(index int, format string) string {
	if strings.TrimSpace(format) == "" {
		format = "mp3"
	}
	return fmt.Sprintf("slide_%03d.%s", index, format)
}

type ffprobeProber struct {
	binary string
}

func (p ffprobeProber) Duration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, p.binary, path)
	if err != nil {
		return 0, err
	}
	return result.DurationSeconds(), nil
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
