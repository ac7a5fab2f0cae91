// Package transcript models word-level speech transcripts and the helpers
// that load, merge, and clean them.
//
// Transcripts come back from the transcription providers as JSON with
// word-level timestamps. Long recordings are transcribed in chunks; MergeChunks
// shifts each chunk's timestamps by its offset and splices the results into a
// single timeline so downstream pause detection sees one continuous recording.
package transcript
