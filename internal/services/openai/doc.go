// Package openai wraps the OpenAI audio APIs used by the pipeline: Whisper
// transcription with word-level timestamps and text-to-speech narration.
//
// Requests rebuild their bodies per attempt so transient failures (429, 5xx,
// network timeouts) retry safely with exponential backoff.
package openai
