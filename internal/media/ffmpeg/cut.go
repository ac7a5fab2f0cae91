package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reel/internal/pauses"
)

// CutOptions tunes how keep segments are rendered and rejoined.
type CutOptions struct {
	// SkipIndicator overlays "[Skipping N secs...]" on the first moments of
	// any segment that follows a removed pause of at least this many seconds.
	// Zero disables the overlay.
	SkipIndicator float64
	// Preset is the libx264 encoding preset for segment re-encoding.
	Preset string
}

// CutSegments renders each keep segment to its own file under workDir and
// joins them into output with a stream copy. Segments following a long pause
// optionally carry a skip indicator overlay.
func (r *Runner) CutSegments(ctx context.Context, input string, segments []pauses.Segment, workDir, output string, opts CutOptions) error {
	if err := requirePath("input", input); err != nil {
		return err
	}
	if err := requirePath("output", output); err != nil {
		return err
	}
	if len(segments) == 0 {
		return fmt.Errorf("edit plan keeps nothing from %s", input)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("ensure segment dir: %w", err)
	}

	segmentFiles := make([]string, 0, len(segments))
	for i, segment := range segments {
		segmentFile := filepath.Join(workDir, fmt.Sprintf("segment_%04d.mp4", i))
		args := cutSegmentArgs(input, segmentFile, segment, opts)
		if err := r.run(ctx, "cut segment", args); err != nil {
			return err
		}
		segmentFiles = append(segmentFiles, segmentFile)
	}

	listPath := filepath.Join(workDir, "concat_list.txt")
	if err := WriteConcatList(listPath, segmentFiles); err != nil {
		return err
	}
	return r.ConcatCopy(ctx, listPath, output)
}

func cutSegmentArgs(input, output string, segment pauses.Segment, opts CutOptions) []string {
	args := []string{
		"-y",
		"-ss", formatSeconds(segment.Start),
		"-i", input,
		"-t", formatSeconds(segment.Duration()),
	}
	if opts.SkipIndicator > 0 && segment.SkippedBefore >= opts.SkipIndicator {
		args = append(args, "-vf", skipIndicatorFilter(segment.SkippedBefore, segment.Duration()))
	}
	preset := opts.Preset
	if preset == "" {
		preset = "fast"
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", preset,
		"-c:a", "aac",
		"-avoid_negative_ts", "make_zero",
		output,
	)
	return args
}

// skipIndicatorFilter draws a yellow banner in the bottom-right corner for
// the first moments of a segment that resumes after a long silence.
func skipIndicatorFilter(skipped, segmentDuration float64) string {
	visible := 2.0
	if segmentDuration < visible {
		visible = segmentDuration
	}
	text := fmt.Sprintf("[Skipping %d secs...]", int(skipped))
	return fmt.Sprintf(
		"drawtext=text='%s':fontsize=48:fontcolor=yellow:borderw=2:bordercolor=black:x=w-tw-20:y=h-th-20:enable='lt(t,%s)'",
		escapeDrawtext(text), formatSeconds(visible),
	)
}

// escapeDrawtext escapes characters with meaning inside a drawtext text value.
func escapeDrawtext(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return replacer.Replace(text)
}
