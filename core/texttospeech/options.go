package texttospeech

import (
	"context"

	"github.com/koscakluka/ema-kiosk/core/audio"
)

// Synthesizer renders text to raw audio. Synthesize blocks until all audio
// was handed to onAudio or ctx is cancelled.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, onAudio func(audio []byte), opts ...TextToSpeechOption) error
}

type TextToSpeechOptions struct {
	EncodingInfo audio.EncodingInfo
	// Voice overrides the client's default voice when set.
	Voice string
}

type TextToSpeechOption func(*TextToSpeechOptions)

func NewTextToSpeechOptions(defaultEncoding audio.EncodingInfo, opts ...TextToSpeechOption) TextToSpeechOptions {
	options := TextToSpeechOptions{EncodingInfo: defaultEncoding}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}
		o.EncodingInfo = encodingInfo
	}
}

func WithVoice(voice string) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		o.Voice = voice
	}
}
