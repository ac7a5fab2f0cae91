package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Word is a single spoken word with its position on the recording timeline.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a contiguous run of speech as grouped by the provider.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the provider-independent transcription result.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments,omitempty"`
	Words    []Word    `json:"words"`
}

// WordCount returns the number of timestamped words.
func (t *Transcript) WordCount() int {
	if t == nil {
		return 0
	}
	return len(t.Words)
}

// Validate reports whether the transcript carries usable word timestamps.
func (t *Transcript) Validate() error {
	if t == nil {
		return errors.New("transcript is nil")
	}
	if len(t.Words) == 0 {
		return errors.New("transcript has no word timestamps")
	}
	prevEnd := 0.0
	for i, word := range t.Words {
		if word.End < word.Start {
			return fmt.Errorf("word %d (%q) ends before it starts", i, word.Text)
		}
		if word.Start < prevEnd-0.5 {
			return fmt.Errorf("word %d (%q) overlaps previous word by more than 500ms", i, word.Text)
		}
		prevEnd = word.End
	}
	return nil
}

// MergeChunks splices chunked transcription results into one transcript.
// offsets[i] is the start time of chunk i on the original recording; every
// timestamp in that chunk is shifted by it.
func MergeChunks(chunks []Transcript, offsets []float64) (Transcript, error) {
	if len(chunks) == 0 {
		return Transcript{}, errors.New("no chunks to merge")
	}
	if len(chunks) != len(offsets) {
		return Transcript{}, fmt.Errorf("chunk count %d does not match offset count %d", len(chunks), len(offsets))
	}

	merged := Transcript{Language: chunks[0].Language}
	var text strings.Builder
	segmentID := 0
	for i, chunk := range chunks {
		offset := offsets[i]
		if text.Len() > 0 && strings.TrimSpace(chunk.Text) != "" {
			text.WriteByte(' ')
		}
		text.WriteString(strings.TrimSpace(chunk.Text))

		for _, segment := range chunk.Segments {
			merged.Segments = append(merged.Segments, Segment{
				ID:    segmentID,
				Start: segment.Start + offset,
				End:   segment.End + offset,
				Text:  segment.Text,
			})
			segmentID++
		}
		for _, word := range chunk.Words {
			merged.Words = append(merged.Words, Word{
				Text:  word.Text,
				Start: word.Start + offset,
				End:   word.End + offset,
			})
		}
		chunkEnd := offset + chunk.Duration
		if chunkEnd > merged.Duration {
			merged.Duration = chunkEnd
		}
	}
	merged.Text = text.String()
	if len(merged.Words) > 0 {
		if lastEnd := merged.Words[len(merged.Words)-1].End; lastEnd > merged.Duration {
			merged.Duration = lastEnd
		}
	}
	return merged, nil
}

// Load reads a transcript JSON file.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var tr Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &tr, nil
}

// Save writes the transcript as indented JSON, creating parent directories.
func Save(path string, tr *Transcript) error {
	if tr == nil {
		return errors.New("transcript is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure transcript dir: %w", err)
	}
	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
