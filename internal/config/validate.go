package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateEditing(); err != nil {
		return err
	}
	if err := c.validateChapters(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Provider {
	case "openai", "aws":
	default:
		return fmt.Errorf("transcription.provider must be %q or %q, got %q", "openai", "aws", c.Transcription.Provider)
	}
	if c.Transcription.Provider == "aws" {
		if strings.TrimSpace(c.AWS.Bucket) == "" {
			return errors.New("aws.bucket must be set when transcription.provider is \"aws\"")
		}
		if strings.TrimSpace(c.AWS.Region) == "" {
			return errors.New("aws.region must be set when transcription.provider is \"aws\"")
		}
	}
	return nil
}

func (c *Config) validateEditing() error {
	if c.Editing.PauseThreshold <= 0 {
		return errors.New("editing.pause_threshold must be positive")
	}
	if c.Editing.Padding < 0 {
		return errors.New("editing.padding must not be negative")
	}
	if c.Editing.TailBuffer < 0 {
		return errors.New("editing.tail_buffer must not be negative")
	}
	if c.Editing.MinSegmentSeconds <= 0 {
		return errors.New("editing.min_segment_seconds must be positive")
	}
	if c.Editing.SkipIndicator < 0 {
		return errors.New("editing.skip_indicator must not be negative")
	}
	return nil
}

func (c *Config) validateChapters() error {
	if c.Chapters.PauseThreshold <= 0 {
		return errors.New("chapters.pause_threshold must be positive")
	}
	if c.Chapters.MinConfidence < 0 || c.Chapters.MinConfidence > 1 {
		return errors.New("chapters.min_confidence must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if !c.Archive.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Archive.Bucket) == "" {
		return errors.New("archive.bucket must be set when archive.enabled is true")
	}
	if strings.TrimSpace(c.Archive.Region) == "" {
		return errors.New("archive.region must be set when archive.enabled is true")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.heartbeat_interval":   c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":    c.Workflow.HeartbeatTimeout,
		"workflow.watch_interval":       c.Workflow.WatchInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
