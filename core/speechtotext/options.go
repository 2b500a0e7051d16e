package speechtotext

import (
	"context"
	"errors"

	"github.com/koscakluka/ema-kiosk/core/audio"
)

// ErrEmptyTranscript is returned when the audio contained no recognisable
// speech.
var ErrEmptyTranscript = errors.New("empty transcript")

// Transcriber turns one bounded recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, opts ...TranscriptionOption) (string, error)
}

type TranscriptionOptions struct {
	EncodingInfo audio.EncodingInfo
	// Language is a BCP-47 hint; empty lets the provider detect it.
	Language string
	// Prompt biases recognition towards domain vocabulary such as menu names.
	Prompt string
}

type TranscriptionOption func(*TranscriptionOptions)

func NewTranscriptionOptions(opts ...TranscriptionOption) TranscriptionOptions {
	options := TranscriptionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if encodingInfo.IsZero() {
			return
		}
		o.EncodingInfo = encodingInfo
	}
}

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Language = language
	}
}

func WithPrompt(prompt string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Prompt = prompt
	}
}
