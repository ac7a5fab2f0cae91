package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// AudioChunk is one extracted piece of a recording's audio track.
type AudioChunk struct {
	Path  string
	Index int
	// Offset is where this chunk begins on the source timeline, in seconds.
	Offset float64
}

// ExtractAudioChunks splits the input's audio into AAC chunks of at most
// chunkSeconds each, written under outDir. Speech-to-text providers cap
// upload sizes, so long recordings are transcribed chunk by chunk and the
// results merged with shifted timestamps.
func (r *Runner) ExtractAudioChunks(ctx context.Context, input, outDir string, duration float64, chunkSeconds int) ([]AudioChunk, error) {
	if err := requirePath("input", input); err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, fmt.Errorf("invalid recording duration %.3f", duration)
	}
	if chunkSeconds <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", chunkSeconds)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure chunk dir: %w", err)
	}

	count := int(math.Ceil(duration / float64(chunkSeconds)))
	chunks := make([]AudioChunk, 0, count)
	for i := 0; i < count; i++ {
		offset := float64(i * chunkSeconds)
		chunk := AudioChunk{
			Path:   filepath.Join(outDir, fmt.Sprintf("chunk_%03d.m4a", i)),
			Index:  i,
			Offset: offset,
		}
		args := extractChunkArgs(input, chunk.Path, offset, chunkSeconds)
		if err := r.run(ctx, "extract audio", args); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func extractChunkArgs(input, output string, offset float64, chunkSeconds int) []string {
	return []string{
		"-y",
		"-i", input,
		"-ss", formatSeconds(offset),
		"-t", fmt.Sprintf("%d", chunkSeconds),
		"-vn",
		"-acodec", "aac",
		"-b:a", "128k",
		output,
	}
}
