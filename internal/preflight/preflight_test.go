package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"reel/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	result := CheckDiskSpace("test", t.TempDir())
	if result.Detail == "" {
		t.Fatal("expected free-space detail")
	}
}

func TestCheckOpenAI_MissingKey(t *testing.T) {
	cfg := config.Default()
	cfg.OpenAI.APIKey = ""
	result := CheckOpenAI(context.Background(), &cfg)
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckOpenAI_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.OpenAI.APIKey = "good-key"
	cfg.OpenAI.BaseURL = srv.URL
	result := CheckOpenAI(context.Background(), &cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckGemini_MissingKey(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.APIKey = ""
	result := CheckGemini(context.Background(), &cfg)
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckAWSTranscribe_MissingBucket(t *testing.T) {
	cfg := config.Default()
	cfg.AWS.Bucket = ""
	result := CheckAWSTranscribe(context.Background(), &cfg)
	if result.Passed {
		t.Fatal("expected failure for missing bucket")
	}
}

func TestRunFeatureChecks_NilConfig(t *testing.T) {
	results := RunFeatureChecks(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunFeatureChecks_CoversDirectoriesAndProviders(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.InboxDir = t.TempDir()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.LibraryDir = t.TempDir()
	cfg.OpenAI.APIKey = ""
	cfg.Gemini.APIKey = ""

	results := RunFeatureChecks(context.Background(), &cfg)
	names := make(map[string]bool, len(results))
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"Inbox directory", "Staging directory", "Library directory", "Staging disk space", "OpenAI API", "Gemini API"} {
		if !names[want] {
			t.Fatalf("expected check %q in results (%v)", want, names)
		}
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := config.Default()
	statuses := CheckSystemDeps(context.Background(), &cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe statuses, got %d", len(statuses))
	}
	if statuses[0].Name != "FFmpeg" || statuses[1].Name != "FFprobe" {
		t.Fatalf("unexpected dependency order: %+v", statuses)
	}
}
