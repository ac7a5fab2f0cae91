package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes ffmpeg commands against a configured binary.
type Runner struct {
	binary string
}

// NewRunner returns a Runner for the given ffmpeg binary. An empty binary
// falls back to "ffmpeg" on PATH.
func NewRunner(binary string) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Runner{binary: binary}
}

// Binary returns the configured ffmpeg executable.
func (r *Runner) Binary() string {
	return r.binary
}

func (r *Runner) run(ctx context.Context, operation string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("ffmpeg %s: empty argument list", operation)
	}
	cmd := exec.CommandContext(ctx, r.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg %s: %w", operation, ctx.Err())
		}
		return fmt.Errorf("ffmpeg %s: %w: %s", operation, err, tailOf(output))
	}
	return nil
}

// tailOf keeps the last part of ffmpeg's output, where the actual error lives.
func tailOf(output []byte) string {
	const keep = 512
	text := strings.TrimSpace(string(output))
	if len(text) > keep {
		text = "..." + text[len(text)-keep:]
	}
	return text
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

func requirePath(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(name + " path is empty")
	}
	return nil
}
