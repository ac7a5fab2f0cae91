package highlights

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"reel/internal/transcript"
)

// Segment is one stretch of the source video selected for the highlight reel.
type Segment struct {
	Start float64
	End   float64
	// Title, when set, is overlaid on the opening moments of the segment.
	Title string
	Text  string
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Script is an editable highlight script tied to its source video.
type Script struct {
	Source   string
	Duration float64
	Segments []Segment
}

// FromTranscript converts provider segments into script segments. Each
// segment runs until the next one begins so deleting a line never leaves a
// silent gap inside a kept stretch.
func FromTranscript(tr *transcript.Transcript) ([]Segment, error) {
	if tr == nil || len(tr.Segments) == 0 {
		return nil, errors.New("transcript has no segments to script")
	}
	segments := make([]Segment, 0, len(tr.Segments))
	for i, seg := range tr.Segments {
		end := tr.Duration
		if i+1 < len(tr.Segments) {
			end = tr.Segments[i+1].Start
		}
		if end <= seg.Start {
			end = seg.End
		}
		segments = append(segments, Segment{
			Start: seg.Start,
			End:   end,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return segments, nil
}

// RenderScript writes the script as editable markdown. The header records the
// source video so building the reel later needs only the script file.
func RenderScript(s *Script) string {
	var b strings.Builder
	name := strings.TrimSuffix(filepath.Base(s.Source), filepath.Ext(s.Source))
	fmt.Fprintf(&b, "# Highlight Script: %s\n\n", name)
	fmt.Fprintf(&b, "**Source Video**: %s\n", s.Source)
	fmt.Fprintf(&b, "**Total Duration**: %s\n\n", FormatTimestamp(s.Duration))
	b.WriteString("---\n\n")
	b.WriteString("<!--\n")
	b.WriteString("Edit this script into a highlight reel:\n")
	b.WriteString("  - Delete the lines you do not want in the reel.\n")
	b.WriteString("  - Adjust timestamps to tighten or widen a segment.\n")
	b.WriteString("  - Prefix a line's text with {Title} to overlay a title on that segment.\n")
	b.WriteString("Then run: reel highlights build <this file>\n")
	b.WriteString("-->\n\n")
	for _, seg := range s.Segments {
		fmt.Fprintf(&b, "[%s-%s]", FormatTimestamp(seg.Start), FormatTimestamp(seg.End))
		if seg.Title != "" {
			fmt.Fprintf(&b, " {%s}", seg.Title)
		}
		if seg.Text != "" {
			fmt.Fprintf(&b, " %s", seg.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

var (
	sourceLinePattern  = regexp.MustCompile(`^\*\*Source Video\*\*:\s*(.+)$`)
	segmentLinePattern = regexp.MustCompile(`^\[(\d{1,2}:\d{2}(?::\d{2})?)-(\d{1,2}:\d{2}(?::\d{2})?)\]\s*(?:\{([^}]+)\})?\s*(.*)$`)
)

// ParseScript reads an edited highlight script back into segments, in the
// order they appear in the file.
func ParseScript(content string) (*Script, error) {
	script := &Script{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if m := sourceLinePattern.FindStringSubmatch(line); m != nil {
			script.Source = strings.TrimSpace(m[1])
			continue
		}
		m := segmentLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, err := ParseTimestamp(m[1])
		if err != nil {
			return nil, fmt.Errorf("segment line %q: %w", line, err)
		}
		end, err := ParseTimestamp(m[2])
		if err != nil {
			return nil, fmt.Errorf("segment line %q: %w", line, err)
		}
		if end <= start {
			return nil, fmt.Errorf("segment line %q: end is not after start", line)
		}
		script.Segments = append(script.Segments, Segment{
			Start: start,
			End:   end,
			Title: strings.TrimSpace(m[3]),
			Text:  strings.TrimSpace(m[4]),
		})
	}
	if len(script.Segments) == 0 {
		return nil, errors.New("no segment lines found in script")
	}
	return script, nil
}

// ApplyPadding widens every segment by padding seconds on both sides so cuts
// never clip a word mid-syllable. Starts clamp to zero; when duration is
// positive, ends clamp to it.
func ApplyPadding(segments []Segment, padding, duration float64) []Segment {
	if padding <= 0 {
		return segments
	}
	out := make([]Segment, len(segments))
	for i, seg := range segments {
		seg.Start -= padding
		if seg.Start < 0 {
			seg.Start = 0
		}
		seg.End += padding
		if duration > 0 && seg.End > duration {
			seg.End = duration
		}
		out[i] = seg
	}
	return out
}

// FormatTimestamp renders seconds as MM:SS, or H:MM:SS past an hour.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// ParseTimestamp reads MM:SS or HH:MM:SS into seconds.
func ParseTimestamp(value string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		total = total*60 + n
	}
	return float64(total), nil
}
