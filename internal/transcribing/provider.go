package transcribing

import (
	"context"
	"fmt"
	"strings"

	"reel/internal/config"
	"reel/internal/services/awstranscribe"
	"reel/internal/services/openai"
	"reel/internal/transcript"
)

// Provider is a speech-to-text backend. The content hash identifies the audio
// so backends that stage uploads remotely can reuse finished work.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, audioPath, contentHash string) (*transcript.Transcript, error)
	HealthCheck(ctx context.Context) error
}

const (
	ProviderOpenAI = "openai"
	ProviderAWS    = "aws"
)

// NewProvider builds the transcription backend named in the configuration.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Transcription.Provider))
	switch name {
	case "", ProviderOpenAI:
		client := openai.NewClient(openai.Config{
			APIKey:             cfg.OpenAI.APIKey,
			BaseURL:            cfg.OpenAI.BaseURL,
			TranscriptionModel: cfg.OpenAI.TranscriptionModel,
			Language:           cfg.Transcription.Language,
			TimeoutSeconds:     cfg.OpenAI.TimeoutSeconds,
		})
		return &openaiProvider{client: client}, nil
	case ProviderAWS:
		svc, err := awstranscribe.New(ctx, awstranscribe.Config{
			Region:      cfg.AWS.Region,
			Bucket:      cfg.AWS.Bucket,
			Language:    cfg.Transcription.Language,
			PollSeconds: cfg.AWS.PollSeconds,
		})
		if err != nil {
			return nil, fmt.Errorf("configure aws transcribe: %w", err)
		}
		return &awsProvider{svc: svc}, nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", name)
	}
}

type openaiProvider struct {
	client *openai.Client
}

func (p *openaiProvider) Name() string { return ProviderOpenAI }

func (p *openaiProvider) Transcribe(ctx context.Context, audioPath, _ string) (*transcript.Transcript, error) {
	return p.client.Transcribe(ctx, audioPath)
}

func (p *openaiProvider) HealthCheck(ctx context.Context) error {
	return p.client.HealthCheck(ctx)
}

type awsProvider struct {
	svc *awstranscribe.Service
}

func (p *awsProvider) Name() string { return ProviderAWS }

func (p *awsProvider) Transcribe(ctx context.Context, audioPath, contentHash string) (*transcript.Transcript, error) {
	return p.svc.Transcribe(ctx, audioPath, contentHash)
}

func (p *awsProvider) HealthCheck(ctx context.Context) error {
	return p.svc.HealthCheck(ctx)
}
