package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/koscakluka/ema-kiosk/core/audio"
	"github.com/koscakluka/ema-kiosk/core/texttospeech"
)

const (
	DefaultModel = "gpt-4o-mini-tts"
	DefaultVoice = "sage"
)

// pcm responses are always 24kHz mono linear16.
var pcmEncoding = audio.NewEncodingInfo(24000, string(audio.EncodingLinear16))

const readChunkSize = 4800 // 100ms of pcm

type TextToSpeechClient struct {
	client *openai.Client
	model  string
	voice  string
}

type ClientOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
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

func WithVoice(voice string) ClientOption {
	return func(o *ClientOptions) { o.Voice = voice }
}

func NewTextToSpeechClient(opts ...ClientOption) (*TextToSpeechClient, error) {
	options := ClientOptions{
		APIKey: os.Getenv("OPENAI_API_KEY"),
		Model:  DefaultModel,
		Voice:  DefaultVoice,
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

	return &TextToSpeechClient{
		client: openai.NewClientWithConfig(config),
		model:  options.Model,
		voice:  options.Voice,
	}, nil
}

// Synthesize streams the raw pcm response body to onAudio as it arrives.
// Only 24kHz linear16 output is supported.
func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string, onAudio func([]byte), opts ...texttospeech.TextToSpeechOption) error {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	options := texttospeech.NewTextToSpeechOptions(pcmEncoding, opts...)
	voice := c.voice
	if options.Voice != "" {
		voice = options.Voice
	}
	span.SetAttributes(
		attribute.String("request.model", c.model),
		attribute.String("request.voice", voice),
		attribute.Int("request.text_length", len(text)),
	)

	if err := c.synthesize(ctx, text, voice, options.EncodingInfo, onAudio); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *TextToSpeechClient) synthesize(ctx context.Context, text, voice string, encoding audio.EncodingInfo, onAudio func([]byte)) error {
	if encoding != pcmEncoding {
		return fmt.Errorf("unsupported output encoding %s at %d Hz", encoding.Format.Name(), encoding.SampleRate)
	}

	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return fmt.Errorf("failed to request speech: %w", err)
	}
	defer resp.Close()

	buf := make([]byte, readChunkSize)
	// carry keeps sample alignment across reads
	var carry []byte
	for {
		n, err := resp.Read(buf)
		if n > 0 {
			chunk := append(carry, buf[:n]...)
			aligned := len(chunk) - len(chunk)%2
			if aligned > 0 {
				onAudio(append([]byte(nil), chunk[:aligned]...))
			}
			carry = append([]byte(nil), chunk[aligned:]...)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read speech: %w", err)
		}
	}
}

var _ texttospeech.Synthesizer = (*TextToSpeechClient)(nil)
