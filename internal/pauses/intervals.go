package pauses

import (
	"fmt"
	"sort"

	"reel/internal/transcript"
)

// IntervalKind distinguishes why a stretch of the recording is being removed.
type IntervalKind string

const (
	KindPause  IntervalKind = "pause"
	KindFiller IntervalKind = "filler"
)

// Interval is a stretch of the source recording marked for removal.
type Interval struct {
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Kind  IntervalKind `json:"kind"`
	// Word holds the spoken filler for filler intervals.
	Word string `json:"word,omitempty"`
}

// Duration returns the interval length in seconds.
func (i Interval) Duration() float64 {
	return i.End - i.Start
}

// Detect finds gaps between consecutive words at or above threshold seconds.
func Detect(tr *transcript.Transcript, threshold float64) []Interval {
	if tr == nil || threshold <= 0 {
		return nil
	}
	var intervals []Interval
	for i := 1; i < len(tr.Words); i++ {
		prev := tr.Words[i-1]
		next := tr.Words[i]
		gap := next.Start - prev.End
		if gap >= threshold {
			intervals = append(intervals, Interval{
				Start: prev.End,
				End:   next.Start,
				Kind:  KindPause,
			})
		}
	}
	return intervals
}

// DetectFillers marks configured filler words for removal.
func DetectFillers(tr *transcript.Transcript, fillers []string) []Interval {
	if tr == nil || len(fillers) == 0 {
		return nil
	}
	var intervals []Interval
	for _, word := range tr.Words {
		if !transcript.IsFiller(word.Text, fillers) {
			continue
		}
		if word.End <= word.Start {
			continue
		}
		intervals = append(intervals, Interval{
			Start: word.Start,
			End:   word.End,
			Kind:  KindFiller,
			Word:  word.Text,
		})
	}
	return intervals
}

// Sort orders intervals by start time, breaking ties by end time.
func Sort(intervals []Interval) {
	sort.Slice(intervals, func(a, b int) bool {
		if intervals[a].Start == intervals[b].Start {
			return intervals[a].End < intervals[b].End
		}
		return intervals[a].Start < intervals[b].Start
	})
}

// TotalRemoved sums interval durations.
func TotalRemoved(intervals []Interval) float64 {
	var total float64
	for _, interval := range intervals {
		total += interval.Duration()
	}
	return total
}

// Validate rejects intervals that are inverted or out of the recording bounds.
func Validate(intervals []Interval, duration float64) error {
	for i, interval := range intervals {
		if interval.End < interval.Start {
			return fmt.Errorf("interval %d is inverted: %.3f > %.3f", i, interval.Start, interval.End)
		}
		if interval.Start < 0 {
			return fmt.Errorf("interval %d starts before zero: %.3f", i, interval.Start)
		}
		if duration > 0 && interval.End > duration+0.001 {
			return fmt.Errorf("interval %d ends past recording duration %.3f: %.3f", i, duration, interval.End)
		}
	}
	return nil
}
