// Package narration synthesizes per-slide narration audio for markdown
// slideshows: speaker notes (or the visible text) go through text-to-speech,
// clips for unchanged slides come from the asset cache, and a manifest records
// every clip with its measured duration for the render stage.
package narration
