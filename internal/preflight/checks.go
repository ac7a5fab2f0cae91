package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"reel/internal/config"
	"reel/internal/deps"
	"reel/internal/services/archive"
	"reel/internal/services/awstranscribe"
	"reel/internal/services/gemini"
	"reel/internal/services/openai"
)

// minStagingBytes is the free space below which the disk check fails.
// A long screencast plus its extracted audio and cut segments can run to a
// few gigabytes.
const minStagingBytes = 2 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the filesystem holding path has room for staging
// intermediates.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%.1f GiB free", float64(free)/float64(1<<30))
	if free < minStagingBytes {
		return Result{Name: name, Detail: detail + " (need at least 2 GiB)"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckOpenAI verifies the OpenAI API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt.
func CheckOpenAI(ctx context.Context, cfg *config.Config) Result {
	const name = "OpenAI API"
	if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := openai.NewClient(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
	}, openai.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckGemini verifies the Gemini API is reachable and the key is valid.
func CheckGemini(ctx context.Context, cfg *config.Config) Result {
	const name = "Gemini API"
	if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
	}, gemini.WithRetry(1, 0))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckAWSTranscribe verifies AWS credentials and the transcription bucket.
func CheckAWSTranscribe(ctx context.Context, cfg *config.Config) Result {
	const name = "AWS Transcribe"
	if strings.TrimSpace(cfg.AWS.Bucket) == "" {
		return Result{Name: name, Detail: "bucket not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	svc, err := awstranscribe.New(checkCtx, awstranscribe.Config{
		Region:      cfg.AWS.Region,
		Bucket:      cfg.AWS.Bucket,
		Language:    cfg.Transcription.Language,
		PollSeconds: cfg.AWS.PollSeconds,
	})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := svc.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "bucket reachable"}
}

// CheckArchive verifies the archive bucket is reachable.
func CheckArchive(ctx context.Context, cfg *config.Config) Result {
	const name = "Archive bucket"
	if strings.TrimSpace(cfg.Archive.Bucket) == "" {
		return Result{Name: name, Detail: "bucket not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	svc, err := archive.New(checkCtx, archive.Config{
		Region: cfg.Archive.Region,
		Bucket: cfg.Archive.Bucket,
		Prefix: cfg.Archive.Prefix,
	})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := svc.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "bucket reachable"}
}

// CheckSystemDeps evaluates the external binaries the pipeline shells out to.
// Both the daemon and the CLI status command use this to avoid duplicating
// the requirements list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for cutting, slide clips, and chapter embedding",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
	}
	return deps.CheckBinaries(requirements)
}

// summarizeAPIError produces a human-readable summary for API health check
// failures.
func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
