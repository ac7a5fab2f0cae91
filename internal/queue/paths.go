package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"reel/internal/textutil"
)

// StagingRoot returns the per-item staging directory rooted at base.
// If a content hash is available its prefix is used; otherwise it falls
// back to queue-{ID} to avoid collisions.
func (i Item) StagingRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	segment := strings.TrimSpace(i.ContentHash)
	if segment != "" {
		if len(segment) > 16 {
			segment = segment[:16]
		}
		segment = strings.ToLower(segment)
	} else {
		segment = fmt.Sprintf("queue-%d", i.ID)
	}
	segment = sanitizeSegment(segment)
	return filepath.Join(base, segment)
}

func sanitizeSegment(value string) string {
	value = textutil.SanitizeFileName(value)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, " ", "-")
	value = strings.Trim(value, "-_")
	if value == "" {
		return "queue"
	}
	return value
}
