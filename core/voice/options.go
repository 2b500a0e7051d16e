package voice

import (
	"time"

	"github.com/koscakluka/ema-kiosk/core/speechtotext"
)

const DefaultCaptureDuration = 3 * time.Second

type CoordinatorOptions struct {
	CaptureDuration      time.Duration
	TranscriptionOptions []speechtotext.TranscriptionOption

	// Callbacks run on coordinator goroutines and must not call back into
	// the coordinator synchronously.
	OnSpeechStarted  func(text string)
	OnSpeechEnded    func(text string, cancelled bool)
	OnCaptureStarted func()
	OnCaptureEnded   func(err error)
}

type CoordinatorOption func(*CoordinatorOptions)

func WithCaptureDuration(duration time.Duration) CoordinatorOption {
	return func(o *CoordinatorOptions) {
		if duration > 0 {
			o.CaptureDuration = duration
		}
	}
}

func WithTranscriptionOptions(opts ...speechtotext.TranscriptionOption) CoordinatorOption {
	return func(o *CoordinatorOptions) {
		o.TranscriptionOptions = append(o.TranscriptionOptions, opts...)
	}
}

func WithSpeechCallbacks(onStarted func(string), onEnded func(string, bool)) CoordinatorOption {
	return func(o *CoordinatorOptions) {
		if onStarted != nil {
			o.OnSpeechStarted = onStarted
		}
		if onEnded != nil {
			o.OnSpeechEnded = onEnded
		}
	}
}

func WithCaptureCallbacks(onStarted func(), onEnded func(error)) CoordinatorOption {
	return func(o *CoordinatorOptions) {
		if onStarted != nil {
			o.OnCaptureStarted = onStarted
		}
		if onEnded != nil {
			o.OnCaptureEnded = onEnded
		}
	}
}
