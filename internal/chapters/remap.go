package chapters

import (
	"reel/internal/pauses"
)

// MapTimestamp translates a source-timeline timestamp onto the edited
// timeline described by plan. Timestamps inside a cut snap to the cut start,
// since that instant survives the edit while the rest of the cut does not.
// Results never go below zero.
func MapTimestamp(t float64, plan *pauses.Plan) float64 {
	if plan == nil {
		return clampZero(t)
	}
	if cut, ok := plan.CutContaining(t); ok {
		t = cut.Start
	}
	return clampZero(t - plan.RemovedBefore(t))
}

// Remap moves every marker from the source timeline to the edited timeline.
// Markers that collapse onto an earlier marker after remapping are dropped.
// A marker at the first kept instant maps to zero on its own; suggestion
// already opens every set with a marker at zero, so nothing is forced here.
func Remap(set *Set, plan *pauses.Plan) *Set {
	if set == nil {
		return nil
	}
	out := &Set{Duration: set.Duration}
	if plan != nil {
		out.Duration = plan.EditedDuration()
	}

	prev := -1.0
	for _, marker := range set.Markers {
		mapped := MapTimestamp(marker.Start, plan)
		if out.Duration > 0 && mapped >= out.Duration {
			continue
		}
		if mapped <= prev {
			continue
		}
		out.Markers = append(out.Markers, Marker{
			Title:      marker.Title,
			Start:      mapped,
			Confidence: marker.Confidence,
		})
		prev = mapped
	}
	return out
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
