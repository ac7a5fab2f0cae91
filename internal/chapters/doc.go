// Package chapters suggests chapter markers from a transcript and keeps them
// accurate after pause removal re-times the video.
//
// Suggestion is heuristic: long pauses are candidate boundaries, scored by how
// much the spoken topic shifts across them (cosine similarity of TF-IDF
// weighted transcript windows). Remap is exact arithmetic: each marker moves
// left by the total cut time before it, markers that land inside a cut snap to
// the cut start, and results stay clamped to zero and strictly increasing.
//
// The package also renders the two formats publishing needs: an FFMETADATA1
// document for embedding into the container and the timestamp list YouTube
// expects in a video description.
package chapters
