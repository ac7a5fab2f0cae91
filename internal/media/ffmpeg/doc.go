// Package ffmpeg builds and executes the ffmpeg commands behind the media
// pipeline: audio chunk extraction for transcription, keep-segment cutting
// with optional skip overlays, chapter embedding, slide clip rendering, and
// segment concatenation.
//
// Command argument construction is kept separate from execution so the exact
// invocations stay testable without an ffmpeg binary.
package ffmpeg
