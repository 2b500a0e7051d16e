package voice

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/koscakluka/ema-kiosk/core/audio"
	"github.com/koscakluka/ema-kiosk/core/texttospeech"
)

// PlaybackSpeaker synthesises text and plays it on an audio output.
type PlaybackSpeaker struct {
	synthesizer texttospeech.Synthesizer
	output      audio.Output
	options     []texttospeech.TextToSpeechOption

	marks atomic.Uint64
}

func NewPlaybackSpeaker(synthesizer texttospeech.Synthesizer, output audio.Output, opts ...texttospeech.TextToSpeechOption) *PlaybackSpeaker {
	return &PlaybackSpeaker{synthesizer: synthesizer, output: output, options: opts}
}

// Speak returns once the output played everything or ctx is cancelled, in
// which case the output buffer is cleared.
func (s *PlaybackSpeaker) Speak(ctx context.Context, text string) error {
	opts := append([]texttospeech.TextToSpeechOption{texttospeech.WithEncodingInfo(s.output.EncodingInfo())}, s.options...)

	var sendErr error
	err := s.synthesizer.Synthesize(ctx, text, func(chunk []byte) {
		if ctx.Err() != nil || sendErr != nil {
			return
		}
		if err := s.output.SendAudio(chunk); err != nil {
			sendErr = err
		}
	}, opts...)
	if ctx.Err() != nil {
		s.output.ClearBuffer()
		return ctx.Err()
	}
	if err != nil {
		s.output.ClearBuffer()
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	if sendErr != nil {
		s.output.ClearBuffer()
		return fmt.Errorf("failed to play speech: %w", sendErr)
	}

	played := make(chan struct{})
	var once sync.Once
	name := fmt.Sprintf("utterance-%d", s.marks.Add(1))
	if err := s.output.Mark(name, func(string) { once.Do(func() { close(played) }) }); err != nil {
		return fmt.Errorf("failed to mark end of speech: %w", err)
	}

	span := trace.SpanFromContext(ctx)
	span.AddEvent("awaiting mark", trace.WithAttributes(attribute.String("mark", name)))

	select {
	case <-played:
		span.AddEvent("mark played", trace.WithAttributes(attribute.String("mark", name)))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	case <-ctx.Done():
		s.output.ClearBuffer()
		return ctx.Err()
	}
}
