package pauses

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Span is a half-open stretch of the source timeline.
type Span struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the span length in seconds.
func (s Span) Duration() float64 {
	return s.End - s.Start
}

// Options tunes how removal intervals become cuts.
type Options struct {
	// Padding shrinks each cut so a sliver of the original silence remains
	// on both sides of the splice.
	Padding float64
	// TailBuffer additionally preserves the resume after a pause. It does
	// not apply to filler cuts.
	TailBuffer float64
	// MinSegment drops keep spans shorter than this by widening the
	// surrounding cut.
	MinSegment float64
}

// Plan is the computed edit: what gets cut, what remains, and the arithmetic
// needed to remap timestamps from the source timeline to the edited one.
type Plan struct {
	SourceDuration float64    `json:"source_duration"`
	Removals       []Interval `json:"removals"`
	Cuts           []Span     `json:"cuts"`
	Keeps          []Span     `json:"keeps"`
}

// BuildPlan converts removal intervals into merged cuts and keep spans over a
// recording of the given duration.
func BuildPlan(removals []Interval, duration float64, opts Options) (Plan, error) {
	if duration <= 0 {
		return Plan{}, errors.New("recording duration must be positive")
	}
	if err := Validate(removals, duration); err != nil {
		return Plan{}, err
	}

	sorted := make([]Interval, len(removals))
	copy(sorted, removals)
	Sort(sorted)

	var cuts []Span
	for _, removal := range sorted {
		cut := Span{
			Start: removal.Start + opts.Padding,
			End:   removal.End - opts.Padding,
		}
		if removal.Kind == KindPause {
			cut.End -= opts.TailBuffer
		}
		if cut.Start < 0 {
			cut.Start = 0
		}
		if cut.End > duration {
			cut.End = duration
		}
		if cut.End <= cut.Start {
			continue
		}
		cuts = append(cuts, cut)
	}

	cuts = mergeSpans(cuts)
	cuts = absorbShortKeeps(cuts, duration, opts.MinSegment)

	plan := Plan{
		SourceDuration: duration,
		Removals:       sorted,
		Cuts:           cuts,
		Keeps:          complement(cuts, duration),
	}
	return plan, nil
}

// mergeSpans collapses overlapping or touching spans into one.
func mergeSpans(spans []Span) []Span {
	if len(spans) <= 1 {
		return spans
	}
	merged := []Span{spans[0]}
	for _, span := range spans[1:] {
		last := &merged[len(merged)-1]
		if span.Start <= last.End {
			if span.End > last.End {
				last.End = span.End
			}
			continue
		}
		merged = append(merged, span)
	}
	return merged
}

// absorbShortKeeps widens cuts across keep spans shorter than minSegment so
// the edit never produces unplayable slivers. Short keeps at the recording
// edges are absorbed too, by stretching the first cut back to zero or the
// last cut out to the end; dropping them any other way would leave removed
// time the remap arithmetic cannot see.
func absorbShortKeeps(cuts []Span, duration, minSegment float64) []Span {
	if minSegment <= 0 || len(cuts) == 0 {
		return cuts
	}
	out := []Span{cuts[0]}
	for _, cut := range cuts[1:] {
		last := &out[len(out)-1]
		if cut.Start-last.End < minSegment {
			last.End = cut.End
			continue
		}
		out = append(out, cut)
	}
	if out[0].Start > 0 && out[0].Start < minSegment {
		out[0].Start = 0
	}
	if last := &out[len(out)-1]; last.End < duration && duration-last.End < minSegment {
		last.End = duration
	}
	return out
}

// complement returns the keep spans between cuts. Cuts and keeps are exact
// complements of each other over [0, duration]; every second of the source
// is in exactly one of the two.
func complement(cuts []Span, duration float64) []Span {
	if len(cuts) == 0 {
		return []Span{{Start: 0, End: duration}}
	}
	var keeps []Span
	cursor := 0.0
	for _, cut := range cuts {
		if cut.Start > cursor {
			keeps = append(keeps, Span{Start: cursor, End: cut.Start})
		}
		cursor = cut.End
	}
	if cursor < duration {
		keeps = append(keeps, Span{Start: cursor, End: duration})
	}
	return keeps
}

// Segment is a keep span annotated with the pause time removed immediately
// before it. SkippedBefore is 0 when the preceding cut removed only fillers.
type Segment struct {
	Start         float64
	End           float64
	SkippedBefore float64
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Segments returns the keep spans with each one carrying the longest pause
// removed between it and the previous keep. Renderers use this to show a
// skip indicator after long silences.
func (p Plan) Segments() []Segment {
	segments := make([]Segment, 0, len(p.Keeps))
	cursor := 0.0
	for _, keep := range p.Keeps {
		seg := Segment{Start: keep.Start, End: keep.End}
		for _, removal := range p.Removals {
			if removal.Kind != KindPause {
				continue
			}
			if removal.End <= cursor || removal.Start >= keep.Start+1e-6 {
				continue
			}
			if d := removal.Duration(); d > seg.SkippedBefore {
				seg.SkippedBefore = d
			}
		}
		segments = append(segments, seg)
		cursor = keep.End
	}
	return segments
}

// RemovedBefore returns how much source time the cuts drop before timestamp t.
// For t inside a cut, only the removed time before that cut's start counts;
// the caller decides how to snap timestamps that land inside cuts.
func (p Plan) RemovedBefore(t float64) float64 {
	var removed float64
	for _, cut := range p.Cuts {
		if cut.End <= t {
			removed += cut.Duration()
			continue
		}
		break
	}
	return removed
}

// CutContaining returns the cut span that contains t, if any.
func (p Plan) CutContaining(t float64) (Span, bool) {
	for _, cut := range p.Cuts {
		if t >= cut.Start && t < cut.End {
			return cut, true
		}
		if cut.Start > t {
			break
		}
	}
	return Span{}, false
}

// EditedDuration is the length of the recording after the cuts are applied.
func (p Plan) EditedDuration() float64 {
	var kept float64
	for _, keep := range p.Keeps {
		kept += keep.Duration()
	}
	return kept
}

// TotalCut is the length of source time the plan removes.
func (p Plan) TotalCut() float64 {
	var cut float64
	for _, span := range p.Cuts {
		cut += span.Duration()
	}
	return cut
}

// Load reads a previously saved edit plan.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edit plan: %w", err)
	}
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decode edit plan: %w", err)
	}
	return &plan, nil
}

// Save writes the edit plan as indented JSON, creating parent directories.
func Save(path string, plan *Plan) error {
	if plan == nil {
		return errors.New("plan is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure plan dir: %w", err)
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("encode edit plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write edit plan: %w", err)
	}
	return nil
}
