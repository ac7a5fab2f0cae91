package awstranscribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/aws/smithy-go"

	"reel/internal/textutil"
	"reel/internal/transcript"
)

const (
	uploadPrefix        = "reel-uploads/"
	defaultPollInterval = 10 * time.Second
)

// Config captures the runtime settings for the AWS Transcribe provider.
type Config struct {
	Region      string
	Bucket      string
	Language    string
	PollSeconds int
}

// Service runs transcription jobs through S3 and AWS Transcribe.
type Service struct {
	s3Client         *s3.Client
	transcribeClient *transcribe.Client
	bucket           string
	language         string
	pollInterval     time.Duration
}

// New constructs a Service from the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("aws transcribe: bucket required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("aws transcribe: load credentials: %w", err)
	}
	pollInterval := defaultPollInterval
	if cfg.PollSeconds > 0 {
		pollInterval = time.Duration(cfg.PollSeconds) * time.Second
	}
	return &Service{
		s3Client:         s3.NewFromConfig(awsCfg),
		transcribeClient: transcribe.NewFromConfig(awsCfg),
		bucket:           cfg.Bucket,
		language:         strings.TrimSpace(cfg.Language),
		pollInterval:     pollInterval,
	}, nil
}

// Transcribe uploads the audio file, runs a transcription job named after the
// content hash, and converts the result. Jobs are idempotent per content hash
// so a reprocessed item reuses the finished job instead of paying twice.
func (s *Service) Transcribe(ctx context.Context, audioPath, contentHash string) (*transcript.Transcript, error) {
	if contentHash == "" {
		return nil, errors.New("aws transcribe: content hash required")
	}
	key := objectKey(audioPath, contentHash)
	jobName := jobNameFor(contentHash)

	if err := s.ensureUploaded(ctx, key, audioPath); err != nil {
		return nil, err
	}
	if err := s.ensureJob(ctx, jobName, key, audioPath); err != nil {
		return nil, err
	}
	if err := s.waitForJob(ctx, jobName); err != nil {
		return nil, err
	}
	return s.fetchResult(ctx, jobName)
}

// HealthCheck verifies the configured bucket is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	_, err := s.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket})
	if err != nil {
		return fmt.Errorf("aws transcribe: bucket %s unreachable: %w", s.bucket, err)
	}
	return nil
}

func (s *Service) ensureUploaded(ctx context.Context, key, audioPath string) error {
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("aws transcribe: check upload: %w", err)
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return fmt.Errorf("aws transcribe: open audio: %w", err)
	}
	defer file.Close()

	if _, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   file,
	}); err != nil {
		return fmt.Errorf("aws transcribe: upload audio: %w", err)
	}
	return nil
}

func (s *Service) ensureJob(ctx context.Context, jobName, key, audioPath string) error {
	_, err := s.transcribeClient.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: &jobName,
	})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("aws transcribe: check job: %w", err)
	}

	mediaURI := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	input := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: &jobName,
		MediaFormat:          mediaFormat(audioPath),
		Media:                &transcribetypes.Media{MediaFileUri: &mediaURI},
		OutputBucketName:     &s.bucket,
	}
	if s.language != "" {
		input.LanguageCode = transcribetypes.LanguageCode(s.language)
	} else {
		input.IdentifyLanguage = boolPtr(true)
	}
	if _, err := s.transcribeClient.StartTranscriptionJob(ctx, input); err != nil {
		return fmt.Errorf("aws transcribe: start job: %w", err)
	}
	return nil
}

func (s *Service) waitForJob(ctx context.Context, jobName string) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		out, err := s.transcribeClient.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: &jobName,
		})
		if err != nil {
			return fmt.Errorf("aws transcribe: poll job: %w", err)
		}
		switch out.TranscriptionJob.TranscriptionJobStatus {
		case transcribetypes.TranscriptionJobStatusCompleted:
			return nil
		case transcribetypes.TranscriptionJobStatusFailed:
			reason := ""
			if out.TranscriptionJob.FailureReason != nil {
				reason = *out.TranscriptionJob.FailureReason
			}
			return fmt.Errorf("aws transcribe: job %s failed: %s", jobName, reason)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) fetchResult(ctx context.Context, jobName string) (*transcript.Transcript, error) {
	key := jobName + ".json"
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("aws transcribe: fetch result: %w", err)
	}
	defer out.Body.Close()

	var result jobResult
	if err := json.NewDecoder(out.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("aws transcribe: decode result: %w", err)
	}
	tr, err := toTranscript(result, s.language)
	if err != nil {
		return nil, fmt.Errorf("aws transcribe: %w", err)
	}
	return tr, nil
}

func objectKey(audioPath, contentHash string) string {
	ext := filepath.Ext(audioPath)
	if ext == "" {
		ext = ".m4a"
	}
	return uploadPrefix + contentHash + ext
}

func jobNameFor(contentHash string) string {
	return "reel-" + textutil.SanitizeToken(contentHash)
}

func mediaFormat(audioPath string) transcribetypes.MediaFormat {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(audioPath), ".")) {
	case "mp3":
		return transcribetypes.MediaFormatMp3
	case "wav":
		return transcribetypes.MediaFormatWav
	case "flac":
		return transcribetypes.MediaFormatFlac
	case "mp4":
		return transcribetypes.MediaFormatMp4
	case "ogg":
		return transcribetypes.MediaFormatOgg
	default:
		return transcribetypes.MediaFormatM4a
	}
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NotFoundException", "NoSuchKey", "404":
			return true
		}
	}
	// Transcribe reports missing jobs as a BadRequestException with this text.
	return strings.Contains(err.Error(), "couldn't be found")
}

func boolPtr(v bool) *bool {
	return &v
}
