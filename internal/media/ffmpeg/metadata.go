package ffmpeg

import (
	"context"
)

// EmbedChapters copies input to output with the chapter list from an
// FFMETADATA1 file attached. Streams are copied, not re-encoded.
func (r *Runner) EmbedChapters(ctx context.Context, input, metadataPath, output string) error {
	if err := requirePath("input", input); err != nil {
		return err
	}
	if err := requirePath("metadata", metadataPath); err != nil {
		return err
	}
	if err := requirePath("output", output); err != nil {
		return err
	}
	return r.run(ctx, "embed chapters", embedChaptersArgs(input, metadataPath, output))
}

func embedChaptersArgs(input, metadataPath, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-i", metadataPath,
		"-map_metadata", "1",
		"-map_chapters", "1",
		"-codec", "copy",
		output,
	}
}
