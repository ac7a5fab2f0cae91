package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
	Instructions   string `json:"instructions,omitempty"`
}

// Synthesize converts text to speech and writes the audio to outPath.
// Instructions steer tone and pacing; only gpt-4o-mini-tts honors them.
func (c *Client) Synthesize(ctx context.Context, text, instructions, outPath string) error {
	if c.cfg.APIKey == "" {
		return errors.New("openai speech: api key required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("openai speech: empty input text")
	}
	if outPath == "" {
		return errors.New("openai speech: output path required")
	}

	payload := speechRequest{
		Model:          c.cfg.TTSModel,
		Input:          text,
		Voice:          c.cfg.TTSVoice,
		ResponseFormat: c.cfg.TTSFormat,
	}
	if strings.HasPrefix(c.cfg.TTSModel, "gpt-4o-mini-tts") {
		payload.Instructions = strings.TrimSpace(instructions)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("openai speech: encode body: %w", err)
	}

	audio, err := c.doWithRetry(ctx, "openai speech", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/speech", bytes.NewReader(encoded))
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	if len(audio) == 0 {
		return errors.New("openai speech: empty audio response")
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("openai speech: ensure output dir: %w", err)
	}
	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		return fmt.Errorf("openai speech: write audio: %w", err)
	}
	return nil
}
