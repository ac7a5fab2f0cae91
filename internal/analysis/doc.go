// Package analysis detects removable pauses and filler words in a transcript
// and computes the edit plan the editing stage applies: merged cut spans plus
// the keep segments that survive, with a human-readable report alongside.
package analysis
