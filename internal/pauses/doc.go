// Package pauses detects dead air and filler words in a transcript and turns
// them into an edit plan.
//
// Detection walks word-level timestamps: a gap between consecutive words at or
// above the configured threshold becomes a pause interval, and configured
// filler words become filler intervals. BuildPlan converts those removal
// intervals into the list of cuts ffmpeg will drop and the complementary keep
// spans, applying padding so cuts never clip speech, a tail buffer that
// preserves the natural resume after a pause, and a minimum keep length that
// avoids single-frame slivers.
//
// The plan also answers how much source time was removed before any given
// timestamp, which is what chapter remapping is built on.
package pauses
