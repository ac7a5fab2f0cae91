package chapters

import (
	"fmt"
	"strings"
)

// YouTubeMarkers renders the chapter list in the format YouTube parses from
// video descriptions: one "M:SS Title" line per chapter, first line at 0:00.
// YouTube requires at least three chapters; fewer than that returns an empty
// string so callers skip the description block entirely.
func YouTubeMarkers(set *Set) string {
	if set == nil || len(set.Markers) < 3 {
		return ""
	}
	var b strings.Builder
	for i, marker := range set.Markers {
		start := marker.Start
		if i == 0 {
			start = 0
		}
		fmt.Fprintf(&b, "%s %s\n", formatYouTubeTimestamp(start), marker.Title)
	}
	return b.String()
}

// formatYouTubeTimestamp renders seconds as M:SS or H:MM:SS.
func formatYouTubeTimestamp(seconds float64) string {
	total := int64(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
