package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/koscakluka/ema-kiosk/core/audio"
	"github.com/koscakluka/ema-kiosk/core/speechtotext"
)

const DefaultModel = "gpt-4o-transcribe"

type TranscriptionClient struct {
	client *openai.Client
	model  string
}

type ClientOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

type ClientOption func(*ClientOptions)

// WithAPIKey overrides the OPENAI_API_KEY environment variable.
func WithAPIKey(apiKey string) ClientOption {
	return func(o *ClientOptions) { o.APIKey = apiKey }
}

func WithBaseURL(baseURL string) ClientOption {
	return func(o *ClientOptions) { o.BaseURL = baseURL }
}

func WithModel(model string) ClientOption {
	return func(o *ClientOptions) { o.Model = model }
}

func NewTranscriptionClient(opts ...ClientOption) (*TranscriptionClient, error) {
	options := ClientOptions{
		APIKey: os.Getenv("OPENAI_API_KEY"),
		Model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.APIKey == "" {
		return nil, fmt.Errorf("openai api key not found")
	}

	config := openai.DefaultConfig(options.APIKey)
	if options.BaseURL != "" {
		config.BaseURL = options.BaseURL
	}
	config.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	return &TranscriptionClient{
		client: openai.NewClientWithConfig(config),
		model:  options.Model,
	}, nil
}

// Transcribe uploads the recording as a WAV file.
func (c *TranscriptionClient) Transcribe(ctx context.Context, pcm []byte, opts ...speechtotext.TranscriptionOption) (string, error) {
	ctx, span := tracer.Start(ctx, "transcribe recording")
	defer span.End()

	options := speechtotext.NewTranscriptionOptions(opts...)
	span.SetAttributes(
		attribute.String("request.model", c.model),
		attribute.Int("audio.bytes", len(pcm)),
	)

	if len(pcm) == 0 {
		return "", speechtotext.ErrEmptyTranscript
	}

	wav, err := audio.WAV(pcm, options.EncodingInfo)
	if err != nil {
		err = fmt.Errorf("failed to encode recording: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: "speech.wav",
		Reader:   bytes.NewReader(wav),
		Language: options.Language,
		Prompt:   options.Prompt,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		err = fmt.Errorf("failed to transcribe recording: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	transcript := strings.TrimSpace(resp.Text)
	if transcript == "" {
		return "", speechtotext.ErrEmptyTranscript
	}
	return transcript, nil
}

var _ speechtotext.Transcriber = (*TranscriptionClient)(nil)
