// Package chaptering turns long pauses and topic shifts in the transcript
// into chapter markers, remaps them onto the edited timeline, and writes the
// chapter artifacts: a chapters JSON, an ffmetadata file for embedding, and
// optional YouTube description markers. A chapters JSON placed next to the
// source recording overrides the suggestions.
package chaptering
