// Package transcribing turns a queued screencast recording into a
// word-timestamped transcript. Audio is extracted in chunks with ffmpeg,
// sent to the configured speech-to-text provider (OpenAI Whisper or AWS
// Transcribe), and the chunk results are merged with shifted timestamps.
package transcribing
