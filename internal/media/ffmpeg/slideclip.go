package ffmpeg

import (
	"context"
	"fmt"
	"strings"
)

// SlideClipOptions tunes how a still image and narration become a clip.
type SlideClipOptions struct {
	// Resolution is the output frame size as "width:height".
	Resolution string
	// Duration caps the clip length in seconds. Required when Audio is empty;
	// otherwise it defaults to the narration length via -shortest.
	Duration float64
}

// DefaultResolution is the output frame size used when none is configured.
const DefaultResolution = "1920:1080"

// SlideClip renders a still image with narration audio into a video clip.
// When audio is empty a silent track is synthesized so every clip carries
// both streams and concatenation stays uniform.
func (r *Runner) SlideClip(ctx context.Context, image, audio, output string, opts SlideClipOptions) error {
	if err := requirePath("image", image); err != nil {
		return err
	}
	if err := requirePath("output", output); err != nil {
		return err
	}
	if audio == "" && opts.Duration <= 0 {
		return fmt.Errorf("silent slide clip needs an explicit duration")
	}
	return r.run(ctx, "slide clip", slideClipArgs(image, audio, output, opts))
}

func slideClipArgs(image, audio, output string, opts SlideClipOptions) []string {
	resolution := strings.TrimSpace(opts.Resolution)
	if resolution == "" {
		resolution = DefaultResolution
	}
	scale := fmt.Sprintf("scale=%s:force_original_aspect_ratio=decrease,pad=%s:(ow-iw)/2:(oh-ih)/2", resolution, resolution)

	args := []string{"-y", "-loop", "1"}
	if opts.Duration > 0 {
		// -t must precede -i to bound the image loop.
		args = append(args, "-t", formatSeconds(opts.Duration))
	}
	args = append(args, "-i", image)
	if audio != "" {
		args = append(args, "-i", audio)
	} else {
		args = append(args,
			"-f", "lavfi",
			"-t", formatSeconds(opts.Duration),
			"-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
		)
	}
	args = append(args,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-pix_fmt", "yuv420p",
		"-vf", scale,
		"-c:a", "aac",
		"-b:a", "192k",
		"-map", "0:v",
		"-map", "1:a",
		"-shortest",
		output,
	)
	return args
}
