package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeOpenAI()
	c.normalizeGemini()
	if err := c.normalizeAssetCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ReviewDir, err = expandPath(c.Paths.ReviewDir); err != nil {
		return fmt.Errorf("paths.review_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = defaultTranscriptionProvider
	}
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if c.Transcription.ChunkSeconds <= 0 {
		c.Transcription.ChunkSeconds = defaultChunkSeconds
	}
}

func (c *Config) normalizeOpenAI() {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		if env, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(env)
		}
	}
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	if strings.TrimSpace(c.OpenAI.TranscriptionModel) == "" {
		c.OpenAI.TranscriptionModel = defaultTranscriptionModel
	}
	if strings.TrimSpace(c.OpenAI.TTSModel) == "" {
		c.OpenAI.TTSModel = defaultTTSModel
	}
	if strings.TrimSpace(c.OpenAI.TTSVoice) == "" {
		c.OpenAI.TTSVoice = defaultTTSVoice
	}
	if strings.TrimSpace(c.OpenAI.TTSFormat) == "" {
		c.OpenAI.TTSFormat = defaultTTSFormat
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeoutSeconds
	}
}

func (c *Config) normalizeGemini() {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		if env, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(env)
		}
	}
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	if strings.TrimSpace(c.Gemini.Model) == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if strings.TrimSpace(c.Gemini.Style) == "" {
		c.Gemini.Style = defaultGeminiStyle
	}
	if strings.TrimSpace(c.Gemini.AspectRatio) == "" {
		c.Gemini.AspectRatio = defaultGeminiAspectRatio
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeoutSeconds
	}
}

func (c *Config) normalizeAssetCache() error {
	if strings.TrimSpace(c.AssetCache.Dir) == "" {
		c.AssetCache.Dir = defaultAssetCacheDir()
	}
	expanded, err := expandPath(c.AssetCache.Dir)
	if err != nil {
		return fmt.Errorf("asset_cache.dir: %w", err)
	}
	c.AssetCache.Dir = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}
