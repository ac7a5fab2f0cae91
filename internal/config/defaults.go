package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultInboxDir              = "~/videos/inbox"
	defaultStagingDir            = "~/.local/share/reel/staging"
	defaultLibraryDir            = "~/videos/published"
	defaultLogDir                = "~/.local/share/reel/logs"
	defaultReviewDir             = "~/videos/review"
	defaultLogRetentionDays      = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultTranscriptionProvider = "openai"
	defaultTranscriptionLanguage = "en"
	defaultChunkSeconds          = 900
	defaultOpenAIBaseURL         = "https://api.openai.com/v1"
	defaultTranscriptionModel    = "whisper-1"
	defaultTTSModel              = "tts-1"
	defaultTTSVoice              = "nova"
	defaultTTSFormat             = "mp3"
	defaultOpenAITimeoutSeconds  = 300
	defaultAWSRegion             = "us-east-1"
	defaultAWSPollSeconds        = 10
	defaultGeminiBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel           = "gemini-3-pro-image-preview"
	defaultGeminiStyle           = "infographic"
	defaultGeminiAspectRatio     = "16:9"
	defaultGeminiTimeoutSeconds  = 180
	defaultPauseThreshold        = 1.0
	defaultPadding               = 0.1
	defaultTailBuffer            = 0.15
	defaultMinSegmentSeconds     = 0.1
	defaultSkipIndicator         = 5.0
	defaultChapterPauseThreshold = 3.0
	defaultChapterMinConfidence  = 0.6
)

// defaultFillerWords are single words removed when filler removal is enabled.
// Context-dependent words stay untouched; only unambiguous fillers belong here.
var defaultFillerWords = []string{"um", "uh", "erm", "hmm"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:   defaultInboxDir,
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			ReviewDir:  defaultReviewDir,
		},
		Transcription: Transcription{
			Provider:     defaultTranscriptionProvider,
			Language:     defaultTranscriptionLanguage,
			ChunkSeconds: defaultChunkSeconds,
		},
		OpenAI: OpenAI{
			BaseURL:            defaultOpenAIBaseURL,
			TranscriptionModel: defaultTranscriptionModel,
			TTSModel:           defaultTTSModel,
			TTSVoice:           defaultTTSVoice,
			TTSFormat:          defaultTTSFormat,
			TimeoutSeconds:     defaultOpenAITimeoutSeconds,
		},
		AWS: AWS{
			Region:      defaultAWSRegion,
			PollSeconds: defaultAWSPollSeconds,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Model:          defaultGeminiModel,
			Style:          defaultGeminiStyle,
			AspectRatio:    defaultGeminiAspectRatio,
			TimeoutSeconds: defaultGeminiTimeoutSeconds,
		},
		Editing: Editing{
			PauseThreshold:    defaultPauseThreshold,
			Padding:           defaultPadding,
			TailBuffer:        defaultTailBuffer,
			MinSegmentSeconds: defaultMinSegmentSeconds,
			SkipIndicator:     defaultSkipIndicator,
			RemoveFillers:     true,
			FillerWords:       append([]string(nil), defaultFillerWords...),
		},
		Chapters: Chapters{
			PauseThreshold:  defaultChapterPauseThreshold,
			MinConfidence:   defaultChapterMinConfidence,
			GenerateYouTube: true,
		},
		AssetCache: AssetCache{
			Enabled: true,
			Dir:     defaultAssetCacheDir(),
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Transcription:  true,
			Editing:        true,
			Render:         true,
			Publish:        true,
			Queue:          true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  15,
			HeartbeatTimeout:   120,
			WatchInterval:      10,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

func defaultAssetCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "reel", "assets")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/reel/assets"
	}
	return filepath.Join(home, ".cache", "reel", "assets")
}
