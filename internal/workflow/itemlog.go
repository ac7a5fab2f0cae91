package workflow

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"

	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/queue"
)

// ItemLogger opens per-item log files under each item's staging directory so
// stage output for one recording never interleaves with another's.
type ItemLogger struct {
	cfg *config.Config
}

func NewItemLogger(cfg *config.Config) *ItemLogger {
	return &ItemLogger{cfg: cfg}
}

// Logger opens the item's log file and returns a logger writing to it. The
// caller must close the returned closer when the stage finishes. The item's
// ItemLogPath field is updated so status displays can point at the file.
func (l *ItemLogger) Logger(item *queue.Item) (*slog.Logger, io.Closer, error) {
	if l == nil || l.cfg == nil {
		return nil, nil, errors.New("item logger not configured")
	}
	if item == nil {
		return nil, nil, errors.New("item required")
	}
	root := item.StagingRoot(l.cfg.Paths.StagingDir)
	if root == "" {
		return nil, nil, errors.New("staging directory not configured")
	}
	path := filepath.Join(root, "item.log")
	handler, closer, err := logging.NewFileHandler(path, l.cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	item.ItemLogPath = path
	logger := slog.New(handler).With(logging.Int64(logging.FieldItemID, item.ID))
	return logger, closer, nil
}
