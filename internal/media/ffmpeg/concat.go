package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// WriteConcatList writes an ffmpeg concat demuxer list referencing the given
// files in order.
func WriteConcatList(listPath string, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("concat list has no entries")
	}
	var builder strings.Builder
	for _, file := range files {
		builder.WriteString("file '")
		builder.WriteString(strings.ReplaceAll(file, "'", `'\''`))
		builder.WriteString("'\n")
	}
	if err := os.WriteFile(listPath, []byte(builder.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

// ConcatCopy joins the files in a concat list with a stream copy. All inputs
// must share codecs and parameters, which holds for segments this package
// produced itself.
func (r *Runner) ConcatCopy(ctx context.Context, listPath, output string) error {
	if err := requirePath("concat list", listPath); err != nil {
		return err
	}
	if err := requirePath("output", output); err != nil {
		return err
	}
	return r.run(ctx, "concat", concatCopyArgs(listPath, output))
}

func concatCopyArgs(listPath, output string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		output,
	}
}

// ConcatFilter joins inputs through the concat filter with a re-encode. Use
// this when inputs may differ in timing or parameters and audio/video sync
// must survive the join.
func (r *Runner) ConcatFilter(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("concat filter has no inputs")
	}
	if err := requirePath("output", output); err != nil {
		return err
	}
	return r.run(ctx, "concat", concatFilterArgs(inputs, output))
}

func concatFilterArgs(inputs []string, output string) []string {
	args := []string{"-y"}
	var filter strings.Builder
	for i, input := range inputs {
		args = append(args, "-i", input)
		fmt.Fprintf(&filter, "[%d:v][%d:a]", i, i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=1[vout][aout]", len(inputs))
	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:a", "192k",
		output,
	)
	return args
}
