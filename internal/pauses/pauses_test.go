package pauses_test

import (
	"math"
	"path/filepath"
	"testing"

	"reel/internal/pauses"
	"reel/internal/transcript"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetectFindsGapsAtThreshold(t *testing.T) {
	tr := &transcript.Transcript{
		Duration: 20,
		Words: []transcript.Word{
			{Text: "first", Start: 0.0, End: 0.5},
			{Text: "second", Start: 0.7, End: 1.2},  // 0.2s gap, below threshold
			{Text: "third", Start: 2.2, End: 2.8},   // exactly 1.0s gap
			{Text: "fourth", Start: 6.0, End: 6.5},  // 3.2s gap
			{Text: "fifth", Start: 6.55, End: 7.05}, // tiny gap
		},
	}

	intervals := pauses.Detect(tr, 1.0)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 pauses, got %d: %#v", len(intervals), intervals)
	}
	if !approx(intervals[0].Start, 1.2) || !approx(intervals[0].End, 2.2) {
		t.Fatalf("unexpected first pause: %#v", intervals[0])
	}
	if !approx(intervals[1].Start, 2.8) || !approx(intervals[1].End, 6.0) {
		t.Fatalf("unexpected second pause: %#v", intervals[1])
	}
}

func TestDetectFillersMatchesConfiguredWords(t *testing.T) {
	tr := &transcript.Transcript{
		Words: []transcript.Word{
			{Text: "So", Start: 0.0, End: 0.2},
			{Text: "um,", Start: 0.3, End: 0.6},
			{Text: "today", Start: 0.7, End: 1.1},
			{Text: "Uh", Start: 1.2, End: 1.4},
		},
	}
	intervals := pauses.DetectFillers(tr, []string{"um", "uh"})
	if len(intervals) != 2 {
		t.Fatalf("expected 2 fillers, got %d", len(intervals))
	}
	if intervals[0].Word != "um," || intervals[0].Kind != pauses.KindFiller {
		t.Fatalf("unexpected filler interval: %#v", intervals[0])
	}
}

func TestBuildPlanAppliesPaddingAndTailBuffer(t *testing.T) {
	removals := []pauses.Interval{
		{Start: 5.0, End: 8.0, Kind: pauses.KindPause},
		{Start: 12.0, End: 12.4, Kind: pauses.KindFiller},
	}
	plan, err := pauses.BuildPlan(removals, 20, pauses.Options{
		Padding:    0.1,
		TailBuffer: 0.15,
		MinSegment: 0.1,
	})
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}

	if len(plan.Cuts) != 2 {
		t.Fatalf("expected 2 cuts, got %d: %#v", len(plan.Cuts), plan.Cuts)
	}
	// Pause cut: padded both sides plus tail buffer at the end.
	if !approx(plan.Cuts[0].Start, 5.1) || !approx(plan.Cuts[0].End, 7.75) {
		t.Fatalf("unexpected pause cut: %#v", plan.Cuts[0])
	}
	// Filler cut: padded only.
	if !approx(plan.Cuts[1].Start, 12.1) || !approx(plan.Cuts[1].End, 12.3) {
		t.Fatalf("unexpected filler cut: %#v", plan.Cuts[1])
	}

	wantEdited := 20.0 - plan.TotalCut()
	if !approx(plan.EditedDuration(), wantEdited) {
		t.Fatalf("edited duration %v does not match duration minus cuts %v", plan.EditedDuration(), wantEdited)
	}
}

func TestBuildPlanMergesOverlappingCuts(t *testing.T) {
	removals := []pauses.Interval{
		{Start: 3.0, End: 5.0, Kind: pauses.KindPause},
		{Start: 4.5, End: 7.0, Kind: pauses.KindPause},
	}
	plan, err := pauses.BuildPlan(removals, 10, pauses.Options{MinSegment: 0.1})
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	if len(plan.Cuts) != 1 {
		t.Fatalf("expected merged cut, got %#v", plan.Cuts)
	}
	if !approx(plan.Cuts[0].Start, 3.0) || !approx(plan.Cuts[0].End, 7.0) {
		t.Fatalf("unexpected merged cut: %#v", plan.Cuts[0])
	}
}

func TestBuildPlanKeepsAreDisjointAndOrdered(t *testing.T) {
	removals := []pauses.Interval{
		{Start: 2.0, End: 3.0, Kind: pauses.KindPause},
		{Start: 6.0, End: 6.3, Kind: pauses.KindFiller},
		{Start: 8.0, End: 9.5, Kind: pauses.KindPause},
	}
	plan, err := pauses.BuildPlan(removals, 15, pauses.Options{Padding: 0.05, MinSegment: 0.1})
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}

	prevEnd := -1.0
	for i, keep := range plan.Keeps {
		if keep.End <= keep.Start {
			t.Fatalf("keep %d is empty: %#v", i, keep)
		}
		if keep.Start <= prevEnd {
			t.Fatalf("keep %d overlaps previous (prev end %v): %#v", i, prevEnd, keep)
		}
		prevEnd = keep.End
	}
}

func TestBuildPlanAbsorbsShortKeeps(t *testing.T) {
	// Two cuts 0.05s apart with a 0.1s minimum keep: the sliver between
	// them should be swallowed by a single wider cut.
	removals := []pauses.Interval{
		{Start: 2.0, End: 3.0, Kind: pauses.KindFiller},
		{Start: 3.05, End: 4.0, Kind: pauses.KindFiller},
	}
	plan, err := pauses.BuildPlan(removals, 10, pauses.Options{MinSegment: 0.1})
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	if len(plan.Cuts) != 1 {
		t.Fatalf("expected sliver absorbed into one cut, got %#v", plan.Cuts)
	}
	if !approx(plan.Cuts[0].Start, 2.0) || !approx(plan.Cuts[0].End, 4.0) {
		t.Fatalf("unexpected widened cut: %#v", plan.Cuts[0])
	}
}

func TestBuildPlanAbsorbsShortBoundaryKeeps(t *testing.T) {
	// A cut near the start leaves a 0.3s leading keep, below the 1s minimum.
	// The cut must widen back to zero so the removed time stays visible to
	// RemovedBefore; silently dropping the keep would make every remapped
	// timestamp after it late by 0.3s.
	plan, err := pauses.BuildPlan([]pauses.Interval{
		{Start: 0.3, End: 3.3, Kind: pauses.KindPause},
	}, 60, pauses.Options{MinSegment: 1.0})
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	if len(plan.Cuts) != 1 || !approx(plan.Cuts[0].Start, 0) || !approx(plan.Cuts[0].End, 3.3) {
		t.Fatalf("expected cut widened to [0, 3.3], got %#v", plan.Cuts)
	}
	if len(plan.Keeps) != 1 || !approx(plan.Keeps[0].Start, 3.3) || !approx(plan.Keeps[0].End, 60) {
		t.Fatalf("expected single keep [3.3, 60], got %#v", plan.Keeps)
	}
	if got := plan.RemovedBefore(3.3); !approx(got, 3.3) {
		t.Fatalf("expected 3.3s removed before first keep, got %v", got)
	}

	// Same at the tail: a cut ending 0.4s before the end widens out to it.
	plan, err = pauses.BuildPlan([]pauses.Interval{
		{Start: 55, End: 59.6, Kind: pauses.KindPause},
	}, 60, pauses.Options{MinSegment: 1.0})
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	if len(plan.Cuts) != 1 || !approx(plan.Cuts[0].End, 60) {
		t.Fatalf("expected cut widened to the recording end, got %#v", plan.Cuts)
	}
	if len(plan.Keeps) != 1 || !approx(plan.Keeps[0].End, 55) {
		t.Fatalf("expected single keep ending at the cut, got %#v", plan.Keeps)
	}
}

func TestBuildPlanCutsAndKeepsTileTheSource(t *testing.T) {
	plan, err := pauses.BuildPlan([]pauses.Interval{
		{Start: 0.2, End: 2.5, Kind: pauses.KindPause},
		{Start: 10, End: 12, Kind: pauses.KindPause},
		{Start: 12.3, End: 14, Kind: pauses.KindFiller},
		{Start: 58.8, End: 59.9, Kind: pauses.KindPause},
	}, 60, pauses.Options{MinSegment: 0.5})
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	var covered float64
	for _, cut := range plan.Cuts {
		covered += cut.Duration()
	}
	for _, keep := range plan.Keeps {
		covered += keep.Duration()
	}
	if !approx(covered, plan.SourceDuration) {
		t.Fatalf("cuts and keeps cover %v of %v seconds", covered, plan.SourceDuration)
	}
	if !approx(plan.EditedDuration()+plan.TotalCut(), plan.SourceDuration) {
		t.Fatalf("edited %v + cut %v does not equal source %v",
			plan.EditedDuration(), plan.TotalCut(), plan.SourceDuration)
	}
}

func TestRemovedBefore(t *testing.T) {
	plan, err := pauses.BuildPlan([]pauses.Interval{
		{Start: 2.0, End: 4.0, Kind: pauses.KindPause},
		{Start: 8.0, End: 9.0, Kind: pauses.KindPause},
	}, 20, pauses.Options{})
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}

	if got := plan.RemovedBefore(1.0); !approx(got, 0) {
		t.Fatalf("expected nothing removed before first cut, got %v", got)
	}
	if got := plan.RemovedBefore(5.0); !approx(got, 2.0) {
		t.Fatalf("expected 2s removed after first cut, got %v", got)
	}
	if got := plan.RemovedBefore(15.0); !approx(got, 3.0) {
		t.Fatalf("expected 3s removed after both cuts, got %v", got)
	}

	if cut, ok := plan.CutContaining(3.0); !ok || !approx(cut.Start, 2.0) {
		t.Fatalf("expected timestamp inside first cut, got %v %v", cut, ok)
	}
	if _, ok := plan.CutContaining(5.0); ok {
		t.Fatal("expected timestamp outside cuts")
	}
}

func TestBuildPlanRejectsInvertedInterval(t *testing.T) {
	_, err := pauses.BuildPlan([]pauses.Interval{{Start: 5, End: 4}}, 10, pauses.Options{})
	if err == nil {
		t.Fatal("expected error for inverted interval")
	}
}

func TestPlanSaveLoadRoundTrip(t *testing.T) {
	plan, err := pauses.BuildPlan([]pauses.Interval{
		{Start: 1, End: 2, Kind: pauses.KindPause},
	}, 10, pauses.Options{})
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := pauses.Save(path, &plan); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := pauses.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Cuts) != 1 || !approx(loaded.SourceDuration, 10) {
		t.Fatalf("unexpected loaded plan: %#v", loaded)
	}
}

func TestSegmentsCarryPrecedingPauseDuration(t *testing.T) {
	plan, err := pauses.BuildPlan([]pauses.Interval{
		{Start: 10, End: 18, Kind: pauses.KindPause},
		{Start: 30, End: 30.6, Kind: pauses.KindFiller, Word: "um"},
	}, 60, pauses.Options{Padding: 0.1, TailBuffer: 0.15})
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	segments := plan.Segments()
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if segments[0].SkippedBefore != 0 {
		t.Fatalf("first segment should have no preceding pause, got %v", segments[0].SkippedBefore)
	}
	if !approx(segments[1].SkippedBefore, 8) {
		t.Fatalf("expected 8s pause before second segment, got %v", segments[1].SkippedBefore)
	}
	if segments[2].SkippedBefore != 0 {
		t.Fatalf("filler cut should not set SkippedBefore, got %v", segments[2].SkippedBefore)
	}
	for i, seg := range segments {
		if keep := plan.Keeps[i]; !approx(seg.Start, keep.Start) || !approx(seg.End, keep.End) {
			t.Fatalf("segment %d does not match keep span: %+v vs %+v", i, seg, keep)
		}
	}
}
