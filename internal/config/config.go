package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InboxDir   string `toml:"inbox_dir"`
	StagingDir string `toml:"staging_dir"`
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
	ReviewDir  string `toml:"review_dir"`
}

// Transcription selects and tunes the speech-to-text provider.
type Transcription struct {
	Provider     string `toml:"provider"`
	Language     string `toml:"language"`
	ChunkSeconds int    `toml:"chunk_seconds"`
}

// OpenAI contains connection settings for the OpenAI audio APIs.
type OpenAI struct {
	APIKey             string `toml:"api_key"`
	BaseURL            string `toml:"base_url"`
	TranscriptionModel string `toml:"transcription_model"`
	TTSModel           string `toml:"tts_model"`
	TTSVoice           string `toml:"tts_voice"`
	TTSFormat          string `toml:"tts_format"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
}

// AWS contains settings for the AWS Transcribe provider.
type AWS struct {
	Region      string `toml:"region"`
	Bucket      string `toml:"bucket"`
	PollSeconds int    `toml:"poll_seconds"`
}

// Gemini contains settings for Gemini image generation.
type Gemini struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Style          string `toml:"style"`
	AspectRatio    string `toml:"aspect_ratio"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Editing tunes pause and filler removal.
type Editing struct {
	PauseThreshold    float64  `toml:"pause_threshold"`
	Padding           float64  `toml:"padding"`
	TailBuffer        float64  `toml:"tail_buffer"`
	MinSegmentSeconds float64  `toml:"min_segment_seconds"`
	SkipIndicator     float64  `toml:"skip_indicator"`
	RemoveFillers     bool     `toml:"remove_fillers"`
	FillerWords       []string `toml:"filler_words"`
}

// Chapters tunes chapter suggestion and export.
type Chapters struct {
	PauseThreshold  float64 `toml:"pause_threshold"`
	MinConfidence   float64 `toml:"min_confidence"`
	GenerateYouTube bool    `toml:"generate_youtube"`
}

// AssetCache configures the content-hash cache for generated audio and images.
type AssetCache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Archive configures optional S3 upload of published videos.
type Archive struct {
	Enabled bool   `toml:"enabled"`
	Bucket  string `toml:"bucket"`
	Region  string `toml:"region"`
	Prefix  string `toml:"prefix"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Transcription  bool   `toml:"transcription"`
	Editing        bool   `toml:"editing"`
	Render         bool   `toml:"render"`
	Publish        bool   `toml:"publish"`
	Queue          bool   `toml:"queue"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
	WatchInterval      int `toml:"watch_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Reel.
//
// Configuration sections by subsystem:
//   - Paths: inbox, staging, library, review, and log directories
//   - Transcription: provider selection, language, audio chunking
//   - OpenAI: Whisper transcription and TTS narration settings
//   - AWS: AWS Transcribe provider settings (S3 bucket, region)
//   - Gemini: slide image generation settings
//   - Editing: pause/filler removal thresholds
//   - Chapters: chapter suggestion thresholds and export toggles
//   - AssetCache: content-hash delta-update cache
//   - Archive: optional S3 upload of published videos
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals and timeouts
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	OpenAI        OpenAI        `toml:"openai"`
	AWS           AWS           `toml:"aws"`
	Gemini        Gemini        `toml:"gemini"`
	Editing       Editing       `toml:"editing"`
	Chapters      Chapters      `toml:"chapters"`
	AssetCache    AssetCache    `toml:"asset_cache"`
	Archive       Archive       `toml:"archive"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// LibraryDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.InboxDir, c.Paths.StagingDir, c.Paths.LogDir, c.Paths.ReviewDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		// Best-effort to avoid failing config load when storage is offline.
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	if c.AssetCache.Enabled && strings.TrimSpace(c.AssetCache.Dir) != "" {
		if err := os.MkdirAll(c.AssetCache.Dir, 0o755); err != nil {
			return fmt.Errorf("create asset cache directory %q: %w", c.AssetCache.Dir, err)
		}
	}
	return nil
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "reel.sock")
}

// LockPath returns the daemon singleton lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "reel.lock")
}

// DaemonLogPath returns the daemon's primary log file.
func (c *Config) DaemonLogPath() string {
	return filepath.Join(c.Paths.LogDir, "reel.log")
}

// DatabasePath returns the queue database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.LogDir, "queue.db")
}

// FFmpegBinary returns the ffmpeg executable name used for cutting and rendering.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
