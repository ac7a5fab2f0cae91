package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reel/internal/highlights"
	"reel/internal/media/ffmpeg"
	"reel/internal/media/ffprobe"
	"reel/internal/transcript"
)

func newHighlightsCommand(ctx *commandContext) *cobra.Command {
	highlightsCmd := &cobra.Command{
		Use:   "highlights",
		Short: "Build highlight reels from edited transcript scripts",
	}

	highlightsCmd.AddCommand(newHighlightsExportCommand(ctx))
	highlightsCmd.AddCommand(newHighlightsAnnotateCommand(ctx))
	highlightsCmd.AddCommand(newHighlightsBuildCommand(ctx))

	return highlightsCmd
}

func newHighlightsExportCommand(ctx *commandContext) *cobra.Command {
	var transcriptPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export <video>",
		Short: "Export the transcript as an editable highlight script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoPath, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			if _, err := os.Stat(videoPath); err != nil {
				return fmt.Errorf("inspect video: %w", err)
			}

			source := strings.TrimSpace(transcriptPath)
			if source == "" {
				source = companionPath(videoPath, " - transcript.json")
			}
			tr, err := transcript.Load(source)
			if err != nil {
				return fmt.Errorf("load transcript (pass --transcript if it lives elsewhere): %w", err)
			}

			segments, err := highlights.FromTranscript(tr)
			if err != nil {
				return err
			}

			duration := tr.Duration
			if duration <= 0 {
				duration = probeDuration(cmd, ctx, videoPath)
			}

			script := &highlights.Script{
				Source:   videoPath,
				Duration: duration,
				Segments: segments,
			}
			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = companionPath(videoPath, " - highlight script.md")
			}
			if err := os.WriteFile(target, []byte(highlights.RenderScript(script)), 0o644); err != nil {
				return fmt.Errorf("write highlight script: %w", err)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"script": target, "segments": len(segments)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d segments to %s\n", len(segments), target)
			fmt.Fprintln(out, "Edit the script, then run: reel highlights build "+target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "Transcript JSON path (default: \"<video> - transcript.json\")")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Highlight script destination")
	return cmd
}

func newHighlightsAnnotateCommand(ctx *commandContext) *cobra.Command {
	var sourceVideo string
	var outputPath string
	var mergeGap float64
	var blockLength float64

	cmd := &cobra.Command{
		Use:   "annotate <markdown>",
		Short: "Convert ==highlighted== transcript annotations into a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docPath, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve document path: %w", err)
			}
			data, err := os.ReadFile(docPath)
			if err != nil {
				return fmt.Errorf("read annotated document: %w", err)
			}

			segments := highlights.ExtractAnnotations(string(data), highlights.AnnotationOptions{
				MergeGap:    mergeGap,
				BlockLength: blockLength,
			})
			if len(segments) == 0 {
				return errors.New("no ==highlighted== or <u>underlined</u> passages found")
			}

			videoPath, err := filepath.Abs(strings.TrimSpace(sourceVideo))
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			script := &highlights.Script{
				Source:   videoPath,
				Duration: probeDuration(cmd, ctx, videoPath),
				Segments: segments,
			}
			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = companionPath(videoPath, " - highlight script.md")
			}
			if err := os.WriteFile(target, []byte(highlights.RenderScript(script)), 0o644); err != nil {
				return fmt.Errorf("write highlight script: %w", err)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"script": target, "segments": len(segments)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d highlighted segments to %s\n", len(segments), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceVideo, "source", "s", "", "Source video the annotations refer to")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Highlight script destination")
	cmd.Flags().Float64Var(&mergeGap, "merge-gap", highlights.DefaultMergeGap, "Merge highlights at most this many seconds apart")
	cmd.Flags().Float64Var(&blockLength, "block-length", highlights.DefaultBlockLength, "Assumed length in seconds of the final highlighted block")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func newHighlightsBuildCommand(ctx *commandContext) *cobra.Command {
	var sourceVideo string
	var outputPath string
	var padding float64
	var titleDuration float64
	var preset string

	cmd := &cobra.Command{
		Use:   "build <script>",
		Short: "Cut and join the segments of an edited highlight script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scriptPath, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve script path: %w", err)
			}
			data, err := os.ReadFile(scriptPath)
			if err != nil {
				return fmt.Errorf("read highlight script: %w", err)
			}
			script, err := highlights.ParseScript(string(data))
			if err != nil {
				return fmt.Errorf("parse highlight script: %w", err)
			}

			videoPath := strings.TrimSpace(sourceVideo)
			if videoPath == "" {
				videoPath = script.Source
			}
			if videoPath == "" {
				return errors.New("script has no Source Video line; pass --source")
			}
			if !filepath.IsAbs(videoPath) {
				videoPath = filepath.Join(filepath.Dir(scriptPath), videoPath)
			}
			if _, err := os.Stat(videoPath); err != nil {
				return fmt.Errorf("inspect source video: %w", err)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Clamp padded ends to the real file length, not the script header,
			// in case the author edited or re-exported the video since.
			duration := probeDuration(cmd, ctx, videoPath)
			if duration <= 0 {
				duration = script.Duration
			}
			padded := highlights.ApplyPadding(script.Segments, padding, duration)

			segments := make([]ffmpeg.HighlightSegment, len(padded))
			for i, seg := range padded {
				segments[i] = ffmpeg.HighlightSegment{Start: seg.Start, End: seg.End, Title: seg.Title}
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = companionPath(videoPath, " - highlights.mp4")
			}

			runner := ffmpeg.NewRunner(cfg.FFmpegBinary())
			if err := runner.HighlightReel(cmd.Context(), videoPath, segments, target, ffmpeg.HighlightOptions{
				TitleDuration: titleDuration,
				Preset:        preset,
			}); err != nil {
				return err
			}

			var total float64
			for _, seg := range padded {
				total += seg.Duration()
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"output":   target,
					"segments": len(segments),
					"duration": total,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Built %s from %d segments (%s)\n",
				target, len(segments), highlights.FormatTimestamp(total))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceVideo, "source", "s", "", "Source video (default: the script's Source Video line)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Highlight reel destination")
	cmd.Flags().Float64Var(&padding, "padding", 0.5, "Seconds added to both sides of every segment")
	cmd.Flags().Float64Var(&titleDuration, "title-duration", 3, "Seconds a segment title stays on screen")
	cmd.Flags().StringVar(&preset, "preset", "", "libx264 preset for the reel encode")
	return cmd
}

// companionPath names an artifact next to the video the way published
// companion files are named: "<title> - <artifact>".
func companionPath(videoPath, suffix string) string {
	stem := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	return stem + suffix
}

// probeDuration asks ffprobe for the video length, falling back to zero when
// the probe fails so callers can degrade to script-declared durations.
func probeDuration(cmd *cobra.Command, ctx *commandContext, videoPath string) float64 {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return 0
	}
	result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), videoPath)
	if err != nil {
		return 0
	}
	return result.DurationSeconds()
}
