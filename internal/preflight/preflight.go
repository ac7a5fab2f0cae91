package preflight

import (
	"context"

	"reel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunFeatureChecks executes all applicable preflight checks for the given
// config. Checks are only run when the corresponding feature is enabled.
func RunFeatureChecks(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir))
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	if cfg.Paths.LibraryDir != "" {
		results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	}
	results = append(results, CheckDiskSpace("Staging disk space", cfg.Paths.StagingDir))

	// OpenAI serves TTS narration regardless of the transcription provider.
	results = append(results, CheckOpenAI(ctx, cfg))
	if cfg.Transcription.Provider == "aws" {
		results = append(results, CheckAWSTranscribe(ctx, cfg))
	}
	results = append(results, CheckGemini(ctx, cfg))

	if cfg.Archive.Enabled {
		results = append(results, CheckArchive(ctx, cfg))
	}

	return results
}
