// Package editing applies the computed edit plan to the source recording:
// each keep segment is cut with ffmpeg, long removed pauses get a brief
// on-screen skip indicator, and the segments are concatenated into the
// edited video.
package editing
