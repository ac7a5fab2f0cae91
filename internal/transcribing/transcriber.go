package transcribing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"reel/internal/assetcache"
	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/media/ffmpeg"
	"reel/internal/media/ffprobe"
	"reel/internal/notifications"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/services/openai"
	"reel/internal/stage"
	"reel/internal/textutil"
	"reel/internal/transcript"
)

const progressStage = "Transcribing"

// MediaToolset abstracts the ffmpeg/ffprobe calls the transcriber needs.
type MediaToolset interface {
	Duration(ctx context.Context, path string) (float64, error)
	ExtractAudioChunks(ctx context.Context, input, outDir string, duration float64, chunkSeconds int) ([]ffmpeg.AudioChunk, error)
}

// Transcriber produces a word-timestamped transcript for screencast recordings.
type Transcriber struct {
	store       *queue.Store
	cfg         *config.Config
	logger      *slog.Logger
	provider    Provider
	providerErr error
	media       MediaToolset
	notifier    notifications.Service
}

// NewTranscriber constructs the transcription stage handler using the
// configured provider. Provider construction errors surface through
// HealthCheck and Execute rather than here so the daemon can start and
// report the problem.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Transcriber {
	provider, err := NewProvider(context.Background(), cfg)
	t := NewTranscriberWithDependencies(cfg, store, logger, provider, newMediaToolset(cfg), notifications.NewService(cfg))
	t.providerErr = err
	return t
}

// NewTranscriberWithDependencies allows injecting collaborators (used in tests).
func NewTranscriberWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, provider Provider, media MediaToolset, notifier notifications.Service) *Transcriber {
	return &Transcriber{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "transcriber"),
		provider: provider,
		media:    media,
		notifier: notifier,
	}
}

// SetLogger routes stage logs into the item-scoped log.
func (t *Transcriber) SetLogger(logger *slog.Logger) {
	if t == nil {
		return
	}
	t.logger = logging.NewComponentLogger(logger, "transcriber")
}

func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	if t == nil || t.cfg == nil || t.store == nil {
		return services.Wrap(services.ErrConfiguration, "transcribing", "prepare", "Transcription stage is not configured", nil)
	}
	item.InitProgress(progressStage, "Preparing audio extraction")
	return t.store.UpdateProgress(ctx, item)
}

func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	logger := logging.WithContext(ctx, t.logger)

	if item.Kind != queue.KindScreencast {
		logger.Info("skipping transcription",
			logging.Args(logging.DecisionAttrs("stage_skip", "skipped", fmt.Sprintf("%s items carry no recorded speech", item.Kind))...)...,
		)
		return nil
	}
	if t.provider == nil {
		if t.providerErr != nil {
			return services.Wrap(services.ErrConfiguration, "transcribing", "select provider", "Transcription provider unavailable", t.providerErr)
		}
		return services.Wrap(services.ErrConfiguration, "transcribing", "select provider", "No transcription provider configured", nil)
	}
	if _, err := os.Stat(item.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "transcribing", "validate inputs", "Source recording not found; check the queued file path", err)
	}

	duration, err := t.media.Duration(ctx, item.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribing", "probe duration", "Failed to inspect recording with ffprobe", err)
	}
	if duration <= 0 {
		return services.Wrap(services.ErrValidation, "transcribing", "probe duration", "Recording has no measurable duration", nil)
	}

	staging := item.StagingRoot(t.cfg.Paths.StagingDir)
	audioDir := filepath.Join(staging, "audio")
	if err := t.updateProgress(ctx, item, "Extracting audio", 5); err != nil {
		return err
	}
	chunkSeconds := t.cfg.Transcription.ChunkSeconds
	chunks, err := t.media.ExtractAudioChunks(ctx, item.SourcePath, audioDir, duration, chunkSeconds)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribing", "extract audio", "Failed to extract audio chunks with ffmpeg", err)
	}
	if len(chunks) == 0 {
		return services.Wrap(services.ErrValidation, "transcribing", "extract audio", "Recording produced no audio chunks", nil)
	}
	logger.Info("audio extracted",
		logging.Int("chunks", len(chunks)),
		logging.Float64("duration_seconds", duration),
		logging.String("provider", t.provider.Name()),
	)

	results := make([]transcript.Transcript, 0, len(chunks))
	offsets := make([]float64, 0, len(chunks))
	for i, chunk := range chunks {
		message := fmt.Sprintf("Transcribing chunk %d/%d", i+1, len(chunks))
		percent := 10 + 80*float64(i)/float64(len(chunks))
		if err := t.updateProgress(ctx, item, message, percent); err != nil {
			return err
		}
		hash, err := assetcache.HashFile(chunk.Path)
		if err != nil {
			return services.Wrap(services.ErrTransient, "transcribing", "hash chunk", "Failed to hash audio chunk", err)
		}
		tr, err := t.provider.Transcribe(ctx, chunk.Path, hash)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "transcribing", "transcribe chunk",
				fmt.Sprintf("Transcription provider %s failed on chunk %d", t.provider.Name(), i+1), err)
		}
		results = append(results, *tr)
		offsets = append(offsets, chunk.Offset)
	}

	merged, err := transcript.MergeChunks(results, offsets)
	if err != nil {
		return services.Wrap(services.ErrValidation, "transcribing", "merge chunks", "Failed to merge chunk transcripts", err)
	}
	if merged.Duration < duration {
		merged.Duration = duration
	}
	if err := merged.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "transcribing", "validate transcript", "Provider returned an unusable transcript", err)
	}

	outPath := filepath.Join(staging, transcriptFileName(item.Title))
	if err := transcript.Save(outPath, &merged); err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "write transcript", "Failed to write transcript file", err)
	}
	item.TranscriptFile = outPath

	if t.provider.Name() == ProviderOpenAI {
		cost := openai.EstimateTranscriptionCost(duration)
		logger.Info("transcription cost estimate", logging.String("estimated_usd", cost.String()))
	}

	item.SetProgressComplete(progressStage, fmt.Sprintf("Transcribed %d words", merged.WordCount()))
	if err := t.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "persist progress", "Failed to persist transcription progress", err)
	}

	if t.notifier != nil {
		if err := t.notifier.NotifyTranscriptionCompleted(ctx, item.Title, merged.WordCount()); err != nil {
			logger.Warn("transcription notification failed", logging.Error(err))
		}
	}

	logger.Info("transcription stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.Int("words", merged.WordCount()),
		logging.Int("chunks", len(chunks)),
		logging.String("transcript_file", outPath),
	)
	return nil
}

// HealthCheck reports readiness of the configured transcription provider.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcriber"
	if t == nil || t.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if t.store == nil {
		return stage.Unhealthy(name, "queue store unavailable")
	}
	if t.provider == nil {
		detail := "transcription provider unavailable"
		if t.providerErr != nil {
			detail = t.providerErr.Error()
		}
		return stage.Unhealthy(name, detail)
	}
	if err := t.provider.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}

func (t *Transcriber) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) error {
	item.SetProgress(progressStage, message, percent)
	if err := t.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "persist progress", "Failed to persist transcription progress", err)
	}
	return nil
}

func transcriptFileName(title string) string {
	title = strings.TrimSpace(textutil.SanitizeFileName(title))
	if title == "" {
		title = "recording"
	}
	return title + " - transcript.json"
}

type mediaToolset struct {
	ffprobeBinary string
	runner        *ffmpeg.Runner
}

func newMediaToolset(cfg *config.Config) MediaToolset {
	return &mediaToolset{
		ffprobeBinary: cfg.FFprobeBinary(),
		runner:        ffmpeg.NewRunner(cfg.FFmpegBinary()),
	}
}

func (m *mediaToolset) Duration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, m.ffprobeBinary, path)
	if err != nil {
		return 0, err
	}
	return result.DurationSeconds(), nil
}

func (m *mediaToolset) ExtractAudioChunks(ctx context.Context, input, outDir string, duration float64, chunkSeconds int) ([]ffmpeg.AudioChunk, error) {
	return m.runner.ExtractAudioChunks(ctx, input, outDir, duration, chunkSeconds)
}
