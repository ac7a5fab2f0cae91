// Package slides parses Deckset-style markdown decks into the per-slide
// records the narration, illustration, and render stages work from.
//
// Slides are separated by "---" lines. Lines starting with "^" are speaker
// notes and drive narration; the visible body drives image generation. A
// slide's title comes from its first markdown heading.
package slides
