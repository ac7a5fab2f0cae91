package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"reel/internal/config"
	"reel/internal/fileutil"
	"reel/internal/logging"
	"reel/internal/notifications"
	"reel/internal/queue"
	"reel/internal/services"
	"reel/internal/services/archive"
	"reel/internal/stage"
	"reel/internal/textutil"
	"reel/internal/transcript"
)

const progressStage = "Publishing"

// Uploader abstracts the S3 archive client so tests can run offline.
type Uploader interface {
	Upload(ctx context.Context, itemFolder, filePath string) (string, error)
}

// Publisher moves the rendered video and its companion artifacts into the
// library, optionally uploads them to the archive bucket, and clears the
// item's staging directory.
type Publisher struct {
	store       *queue.Store
	cfg         *config.Config
	logger      *slog.Logger
	uploader    Uploader
	uploaderErr error
	notifier    notifications.Service
}

// NewPublisher constructs the publishing stage handler. The archive client is
// only built when archiving is enabled; credential problems surface when the
// stage runs, not at wiring time.
func NewPublisher(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Publisher {
	p := &Publisher{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "publisher"),
		notifier: notifications.NewService(cfg),
	}
	if cfg.Archive.Enabled {
		uploader, err := archive.New(context.Background(), archive.Config{
			Region: cfg.Archive.Region,
			Bucket: cfg.Archive.Bucket,
			Prefix: cfg.Archive.Prefix,
		})
		p.uploader = uploader
		p.uploaderErr = err
	}
	return p
}

// NewPublisherWithDependencies allows injecting collaborators (used in tests).
func NewPublisherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, uploader Uploader, notifier notifications.Service) *Publisher {
	return &Publisher{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "publisher"),
		uploader: uploader,
		notifier: notifier,
	}
}

// SetLogger routes stage logs into the item-scoped log.
func (p *Publisher) SetLogger(logger *slog.Logger) {
	if p == nil {
		return
	}
	p.logger = logging.NewComponentLogger(logger, "publisher")
}

func (p *Publisher) Prepare(ctx context.Context, item *queue.Item) error {
	if p == nil || p.cfg == nil || p.store == nil {
		return services.Wrap(services.ErrConfiguration, "publish", "prepare", "Publishing stage is not configured", nil)
	}
	if p.uploaderErr != nil {
		return services.Wrap(services.ErrConfiguration, "publish", "prepare", "Archive upload is enabled but unavailable", p.uploaderErr)
	}
	item.InitProgress(progressStage, "Publishing to library")
	return p.store.UpdateProgress(ctx, item)
}

func (p *Publisher) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	logger := logging.WithContext(ctx, p.logger)

	if strings.TrimSpace(item.RenderedFile) == "" {
		return services.Wrap(services.ErrValidation, "publish", "validate inputs", "No rendered video present; run rendering before publishing", nil)
	}
	if _, err := os.Stat(item.RenderedFile); err != nil {
		return services.Wrap(services.ErrValidation, "publish", "validate inputs", "Rendered video not found", err)
	}

	title := sanitizedTitle(item.Title)
	libraryDir := filepath.Join(p.cfg.Paths.LibraryDir, title)
	if err := os.MkdirAll(libraryDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "publish", "prepare library", "Failed to create library directory", err)
	}

	finalFile := filepath.Join(libraryDir, title+".mp4")
	if err := fileutil.CopyVerified(item.RenderedFile, finalFile); err != nil {
		return services.Wrap(services.ErrTransient, "publish", "copy video", "Failed to copy rendered video into the library", err)
	}
	item.FinalFile = finalFile

	published := []string{finalFile}
	if cleaned := p.writeCleanTranscript(logger, item, libraryDir, title); cleaned != "" {
		published = append(published, cleaned)
	}
	for _, companion := range p.companionFiles(item) {
		dest := filepath.Join(libraryDir, filepath.Base(companion))
		if err := fileutil.Copy(companion, dest); err != nil {
			logger.Warn("failed to copy companion artifact",
				logging.String("file", companion), logging.Error(err))
			continue
		}
		published = append(published, dest)
	}

	if p.uploader != nil {
		if err := p.updateProgress(ctx, item, "Uploading to archive", 60); err != nil {
			return err
		}
		for _, file := range published {
			key, err := p.uploader.Upload(ctx, title, file)
			if err != nil {
				return services.Wrap(services.ErrExternalTool, "publish", "archive upload",
					fmt.Sprintf("Failed to upload %s to the archive bucket", filepath.Base(file)), err)
			}
			logger.Info("archived artifact", logging.String("object_key", key))
		}
	}

	staging := item.StagingRoot(p.cfg.Paths.StagingDir)
	if err := os.RemoveAll(staging); err != nil {
		logger.Warn("failed to clear staging directory",
			logging.String("directory", staging), logging.Error(err))
	}

	item.SetProgressComplete(progressStage, fmt.Sprintf("Published %d files", len(published)))
	if err := p.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "publish", "persist progress", "Failed to persist publishing progress", err)
	}

	if p.notifier != nil {
		if err := p.notifier.NotifyPublished(ctx, item.Title, finalFile); err != nil {
			logger.Warn("publish notification failed", logging.Error(err))
		}
	}

	logger.Info("publish stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.Int("files", len(published)),
		logging.Bool("archived", p.uploader != nil),
		logging.String("final_file", finalFile),
	)
	return nil
}

// writeCleanTranscript renders the transcript as readable prose, with filler
// words and stray whitespace removed. Failures only cost the companion file.
func (p *Publisher) writeCleanTranscript(logger *slog.Logger, item *queue.Item, libraryDir, title string) string {
	if strings.TrimSpace(item.TranscriptFile) == "" {
		return ""
	}
	tr, err := transcript.Load(item.TranscriptFile)
	if err != nil {
		logger.Warn("failed to load transcript for cleaning", logging.Error(err))
		return ""
	}
	cleaned := transcript.Clean(tr.Text, p.cfg.Editing.FillerWords)
	if cleaned == "" {
		return ""
	}
	dest := filepath.Join(libraryDir, title+" - transcript.txt")
	if err := os.WriteFile(dest, []byte(cleaned+"\n"), 0o644); err != nil {
		logger.Warn("failed to write cleaned transcript", logging.Error(err))
		return ""
	}
	return dest
}

// companionFiles lists the artifacts that ship alongside the video when they
// exist: chapters, YouTube markers, transcript, and the edit report.
func (p *Publisher) companionFiles(item *queue.Item) []string {
	staging := item.StagingRoot(p.cfg.Paths.StagingDir)
	title := sanitizedTitle(item.Title)
	candidates := []string{
		item.ChaptersFile,
		item.TranscriptFile,
		filepath.Join(staging, title+" - youtube.txt"),
		filepath.Join(staging, title+" - edit report.txt"),
	}
	var files []string
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		files = append(files, candidate)
	}
	return files
}

// HealthCheck reports readiness for the publishing stage.
func (p *Publisher) HealthCheck(ctx context.Context) stage.Health {
	const name = "publisher"
	if p == nil || p.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if p.store == nil {
		return stage.Unhealthy(name, "queue store unavailable")
	}
	if p.uploaderErr != nil {
		return stage.Unhealthy(name, fmt.Sprintf("archive unavailable: %v", p.uploaderErr))
	}
	return stage.Healthy(name)
}

func (p *Publisher) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) error {
	item.SetProgress(progressStage, message, percent)
	if err := p.store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(services.ErrTransient, "publish", "persist progress", "Failed to persist publishing progress", err)
	}
	return nil
}

func sanitizedTitle(title string) string {
	title = strings.TrimSpace(textutil.SanitizeFileName(title))
	if title == "" {
		title = "recording"
	}
	return title
}
