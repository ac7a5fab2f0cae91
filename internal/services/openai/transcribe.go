package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"reel/internal/transcript"
)

type verboseTranscription struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// Transcribe uploads an audio file and returns the transcription with word
// level timestamps.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("openai transcribe: api key required")
	}
	if audioPath == "" {
		return nil, errors.New("openai transcribe: audio path required")
	}

	body, err := c.doWithRetry(ctx, "openai transcribe", func() (*http.Request, error) {
		return c.buildTranscribeRequest(ctx, audioPath)
	})
	if err != nil {
		return nil, err
	}

	var parsed verboseTranscription
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openai transcribe: decode response: %w", err)
	}

	tr := &transcript.Transcript{
		Text:     parsed.Text,
		Language: parsed.Language,
		Duration: parsed.Duration,
	}
	for _, segment := range parsed.Segments {
		tr.Segments = append(tr.Segments, transcript.Segment{
			ID:    segment.ID,
			Start: segment.Start,
			End:   segment.End,
			Text:  segment.Text,
		})
	}
	for _, word := range parsed.Words {
		tr.Words = append(tr.Words, transcript.Word{
			Text:  word.Word,
			Start: word.Start,
			End:   word.End,
		})
	}
	if err := tr.Validate(); err != nil {
		return nil, fmt.Errorf("openai transcribe: %w", err)
	}
	return tr, nil
}

// buildTranscribeRequest assembles the multipart upload. The whole body is
// buffered so retries can rebuild it from the source file.
func (c *Client) buildTranscribeRequest(ctx context.Context, audioPath string) (*http.Request, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	if err := writer.WriteField("model", c.cfg.TranscriptionModel); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	for _, granularity := range []string{"word", "segment"} {
		if err := writer.WriteField("timestamp_granularities[]", granularity); err != nil {
			return nil, fmt.Errorf("build upload: %w", err)
		}
	}
	if c.cfg.Language != "" {
		if err := writer.WriteField("language", c.cfg.Language); err != nil {
			return nil, fmt.Errorf("build upload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}
