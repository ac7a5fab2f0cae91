package ffmpeg

import (
	"context"
	"fmt"
	"strings"
)

// HighlightSegment is one source stretch of a highlight reel, with an
// optional title overlaid on its opening moments.
type HighlightSegment struct {
	Start float64
	End   float64
	Title string
}

// Duration returns the segment length in seconds.
func (s HighlightSegment) Duration() float64 {
	return s.End - s.Start
}

// HighlightOptions tunes highlight reel assembly.
type HighlightOptions struct {
	// TitleDuration is how long a segment title stays on screen. Zero uses
	// three seconds; the overlay never outlasts its segment.
	TitleDuration float64
	// Preset is the libx264 encoding preset. Empty uses "medium".
	Preset string
}

// HighlightReel cuts the selected segments out of input and joins them into
// output in a single pass. Unlike CutSegments this trims inside one
// filter graph instead of rendering intermediate files, since highlight reels
// are short and re-encode anyway for the title overlays.
func (r *Runner) HighlightReel(ctx context.Context, input string, segments []HighlightSegment, output string, opts HighlightOptions) error {
	if err := requirePath("input", input); err != nil {
		return err
	}
	if err := requirePath("output", output); err != nil {
		return err
	}
	if len(segments) == 0 {
		return fmt.Errorf("highlight reel for %s has no segments", input)
	}
	for _, segment := range segments {
		if segment.End <= segment.Start {
			return fmt.Errorf("highlight segment %v-%v ends before it starts", segment.Start, segment.End)
		}
	}
	return r.run(ctx, "highlight reel", highlightReelArgs(input, segments, output, opts))
}

func highlightReelArgs(input string, segments []HighlightSegment, output string, opts HighlightOptions) []string {
	preset := opts.Preset
	if preset == "" {
		preset = "medium"
	}
	return []string{
		"-y",
		"-i", input,
		"-filter_complex", highlightFilterGraph(segments, opts.TitleDuration),
		"-map", "[outv]",
		"-map", "[outa]",
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		output,
	}
}

// highlightFilterGraph trims every segment from the single input, resets its
// timestamps, optionally stamps a title over its opening, and concatenates
// the pieces.
func highlightFilterGraph(segments []HighlightSegment, titleDuration float64) string {
	if titleDuration <= 0 {
		titleDuration = 3
	}
	var graph strings.Builder
	for i, segment := range segments {
		fmt.Fprintf(&graph, "[0:v]trim=start=%s:end=%s,setpts=PTS-STARTPTS",
			formatSeconds(segment.Start), formatSeconds(segment.End))
		if segment.Title != "" {
			graph.WriteString("," + titleOverlayFilter(segment.Title, titleDuration, segment.Duration()))
		}
		fmt.Fprintf(&graph, "[v%d];", i)
		fmt.Fprintf(&graph, "[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[a%d];",
			formatSeconds(segment.Start), formatSeconds(segment.End), i)
	}
	for i := range segments {
		fmt.Fprintf(&graph, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=1:a=1[outv][outa]", len(segments))
	return graph.String()
}

// titleOverlayFilter centers a large yellow title over the opening moments of
// a highlight segment.
func titleOverlayFilter(title string, visible, segmentDuration float64) string {
	if segmentDuration < visible {
		visible = segmentDuration
	}
	return fmt.Sprintf(
		"drawtext=text='%s':fontsize=108:fontcolor=yellow:borderw=4:bordercolor=black:x=(w-tw)/2:y=(h-th)/2:enable='lt(t,%s)'",
		escapeDrawtext(title), formatSeconds(visible),
	)
}
