package chapters

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Marker is a single chapter boundary on the video timeline.
type Marker struct {
	Title string  `json:"title"`
	Start float64 `json:"start"`
	// Confidence records how strongly the suggestion heuristics believed in
	// this boundary. Remapped markers keep their original confidence.
	Confidence float64 `json:"confidence,omitempty"`
}

// Set is the chapter list for one video plus the duration the markers are
// relative to.
type Set struct {
	Duration float64  `json:"duration"`
	Markers  []Marker `json:"markers"`
}

// Validate checks marker ordering and bounds.
func (s *Set) Validate() error {
	if s == nil {
		return errors.New("chapter set is nil")
	}
	prev := -1.0
	for i, marker := range s.Markers {
		if marker.Start < 0 {
			return fmt.Errorf("marker %d (%q) starts before zero", i, marker.Title)
		}
		if marker.Start <= prev && i > 0 {
			return fmt.Errorf("marker %d (%q) does not advance past previous marker", i, marker.Title)
		}
		if s.Duration > 0 && marker.Start >= s.Duration {
			return fmt.Errorf("marker %d (%q) starts past video end %.3f", i, marker.Title, s.Duration)
		}
		prev = marker.Start
	}
	return nil
}

// SortMarkers orders markers by start time.
func SortMarkers(markers []Marker) {
	sort.Slice(markers, func(a, b int) bool {
		return markers[a].Start < markers[b].Start
	})
}

// Load reads a chapter set JSON file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chapters: %w", err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode chapters: %w", err)
	}
	return &set, nil
}

// Save writes the chapter set as indented JSON, creating parent directories.
func Save(path string, set *Set) error {
	if set == nil {
		return errors.New("chapter set is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure chapters dir: %w", err)
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chapters: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write chapters: %w", err)
	}
	return nil
}
