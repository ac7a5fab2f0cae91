package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config captures the runtime settings for published-video archival.
type Config struct {
	Region string
	Bucket string
	Prefix string
}

// Service uploads published videos and their sidecar files to S3.
type Service struct {
	client *s3.Client
	bucket string
	prefix string
}

// New constructs a Service from the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("archive: bucket required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("archive: load credentials: %w", err)
	}
	return &Service{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Upload stores a local file under the item's archive folder and returns the
// object key.
func (s *Service) Upload(ctx context.Context, itemFolder, filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("archive: open %s: %w", filePath, err)
	}
	defer file.Close()

	key := s.objectKey(itemFolder, path.Base(filePath))
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   file,
	}); err != nil {
		return "", fmt.Errorf("archive: upload %s: %w", key, err)
	}
	return key, nil
}

// HealthCheck verifies the configured bucket is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket}); err != nil {
		return fmt.Errorf("archive: bucket %s unreachable: %w", s.bucket, err)
	}
	return nil
}

func (s *Service) objectKey(itemFolder, fileName string) string {
	parts := make([]string, 0, 3)
	if s.prefix != "" {
		parts = append(parts, s.prefix)
	}
	if itemFolder = strings.Trim(itemFolder, "/"); itemFolder != "" {
		parts = append(parts, itemFolder)
	}
	parts = append(parts, fileName)
	return path.Join(parts...)
}
