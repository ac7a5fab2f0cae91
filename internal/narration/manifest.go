package narration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFileName is the narration manifest written into the narration dir.
const ManifestFileName = "narration.json"

// SlideAudio records the synthesized narration for one slide. Audio is empty
// when the slide has nothing to speak; the renderer holds such slides for a
// default duration instead.
type SlideAudio struct {
	Index    int     `json:"index"`
	Title    string  `json:"title,omitempty"`
	Audio    string  `json:"audio,omitempty"`
	Duration float64 `json:"duration"`
	Cached   bool    `json:"cached"`
}

// Manifest describes every narration clip produced for a deck.
type Manifest struct {
	Voice  string       `json:"voice"`
	Model  string       `json:"model"`
	Slides []SlideAudio `json:"slides"`
}

// TotalDuration sums the spoken duration across all slides.
func (m *Manifest) TotalDuration() float64 {
	if m == nil {
		return 0
	}
	total := 0.0
	for _, slide := range m.Slides {
		total += slide.Duration
	}
	return total
}

// SaveManifest writes the manifest as indented JSON, creating parent
// directories.
func SaveManifest(path string, m *Manifest) error {
	if m == nil {
		return errors.New("narration manifest is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure narration dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode narration manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write narration manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a narration manifest JSON file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read narration manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode narration manifest: %w", err)
	}
	return &m, nil
}
