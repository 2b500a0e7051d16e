package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/koscakluka/ema-kiosk/core/audio"
	"github.com/koscakluka/ema-kiosk/core/flow"
	"github.com/koscakluka/ema-kiosk/core/speechtotext"
)

var (
	ErrNoSpeech          = errors.New("no speech recognised")
	ErrVoiceUnavailable  = errors.New("voice input is not configured")
	ErrCaptureInProgress = errors.New("capture already in progress")
)

// Speaker plays one utterance, blocking until it finished or ctx was
// cancelled. Cancellation must release the playback resource.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Recorder records for at most d and returns what was captured.
type Recorder interface {
	Record(ctx context.Context, d time.Duration) ([]byte, audio.EncodingInfo, error)
}

type utterance struct {
	text   string
	cancel context.CancelFunc
	done   chan struct{}
}

// Coordinator keeps at most one utterance audible and runs bounded voice
// captures. A nil Coordinator is a valid no-op.
type Coordinator struct {
	speaker     Speaker
	recorder    Recorder
	transcriber speechtotext.Transcriber
	options     CoordinatorOptions

	mu            sync.Mutex
	active        *utterance
	captureCancel context.CancelFunc
	lastReplySeq  uint64
	lastQuestion  string

	// observeMu serialises Observe so transitions are handled in seq order.
	observeMu   sync.Mutex
	observedSeq uint64
}

func NewCoordinator(speaker Speaker, recorder Recorder, transcriber speechtotext.Transcriber, opts ...CoordinatorOption) *Coordinator {
	options := CoordinatorOptions{
		CaptureDuration:  DefaultCaptureDuration,
		OnSpeechStarted:  func(string) {},
		OnSpeechEnded:    func(string, bool) {},
		OnCaptureStarted: func() {},
		OnCaptureEnded:   func(error) {},
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Coordinator{
		speaker:     speaker,
		recorder:    recorder,
		transcriber: transcriber,
		options:     options,
	}
}

// Speak cancels the active utterance, waits for it to stop and then starts
// text. onDone runs only if text played to completion.
func (c *Coordinator) Speak(text string, onDone func()) {
	if c == nil || c.speaker == nil || text == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	next := &utterance{text: text, cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	previous := c.active
	c.active = next
	c.mu.Unlock()

	if previous != nil {
		previous.cancel()
		<-previous.done
	}

	go c.play(ctx, next, onDone)
}

func (c *Coordinator) play(ctx context.Context, u *utterance, onDone func()) {
	ctx, span := tracer.Start(ctx, "speak utterance")
	span.SetAttributes(attribute.Int("utterance.length", len(u.text)))

	c.options.OnSpeechStarted(u.text)
	err := c.speaker.Speak(ctx, u.text)
	cancelled := ctx.Err() != nil
	if err != nil && !cancelled {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("failed to speak", "error", err)
	}
	span.SetAttributes(attribute.Bool("utterance.cancelled", cancelled))
	span.End()
	c.options.OnSpeechEnded(u.text, cancelled)

	c.mu.Lock()
	if c.active == u {
		c.active = nil
	}
	c.mu.Unlock()
	close(u.done)
	u.cancel()

	if onDone != nil && err == nil && !cancelled {
		onDone()
	}
}

// CancelSpeech stops the active utterance and waits until it is silent.
func (c *Coordinator) CancelSpeech() {
	if c == nil {
		return
	}

	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if active != nil {
		active.cancel()
		<-active.done
	}
}

// Speaking reports whether an utterance is active.
func (c *Coordinator) Speaking() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Observe reacts to a flow transition: any step change silences playback,
// and each new reply or new question text is spoken once. seq orders
// transitions; one older than the last observed is ignored.
func (c *Coordinator) Observe(seq uint64, previous, next flow.State) {
	if c == nil {
		return
	}

	c.observeMu.Lock()
	defer c.observeMu.Unlock()
	if seq <= c.observedSeq {
		return
	}
	c.observedSeq = seq

	if previous.Step != next.Step {
		c.CancelSpeech()
	}

	var text string
	c.mu.Lock()
	if next.Exchange != nil && next.Exchange.Seq != c.lastReplySeq {
		c.lastReplySeq = next.Exchange.Seq
		text = next.Exchange.Reply
	}
	if next.Question == nil {
		c.lastQuestion = ""
	} else if next.Question.Text != c.lastQuestion {
		c.lastQuestion = next.Question.Text
		text = next.Question.Text
	}
	c.mu.Unlock()

	c.Speak(text, nil)
}

// Reset forgets what was already spoken, for a fresh session.
func (c *Coordinator) Reset() {
	if c == nil {
		return
	}
	c.Stop()

	c.mu.Lock()
	c.lastReplySeq = 0
	c.lastQuestion = ""
	c.mu.Unlock()
}

// Capture records for the configured duration and transcribes the result.
// Any playback is silenced first. A failed recording or an empty or failed
// transcription returns ErrNoSpeech; Stop ends the capture early with a
// context error.
func (c *Coordinator) Capture(ctx context.Context) (string, error) {
	if c == nil || c.recorder == nil || c.transcriber == nil {
		return "", ErrVoiceUnavailable
	}
	c.CancelSpeech()

	c.mu.Lock()
	if c.captureCancel != nil {
		c.mu.Unlock()
		return "", ErrCaptureInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	c.captureCancel = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.captureCancel = nil
		c.mu.Unlock()
		cancel()
	}()

	ctx, span := tracer.Start(ctx, "capture voice")
	defer span.End()

	c.options.OnCaptureStarted()
	transcript, err := c.capture(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	c.options.OnCaptureEnded(err)
	return transcript, err
}

func (c *Coordinator) capture(ctx context.Context) (string, error) {
	pcm, encoding, err := c.recorder.Record(ctx, c.options.CaptureDuration)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		logger.Warn("recording failed", "error", err)
		return "", fmt.Errorf("%w: failed to record: %w", ErrNoSpeech, err)
	}
	if len(pcm) == 0 {
		return "", ErrNoSpeech
	}

	opts := append([]speechtotext.TranscriptionOption{speechtotext.WithEncodingInfo(encoding)}, c.options.TranscriptionOptions...)
	transcript, err := c.transcriber.Transcribe(ctx, pcm, opts...)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		logger.Warn("transcription failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrNoSpeech, err)
	}
	if transcript == "" {
		return "", ErrNoSpeech
	}
	return transcript, nil
}

// Stop cancels playback and any running capture.
func (c *Coordinator) Stop() {
	if c == nil {
		return
	}

	c.mu.Lock()
	cancelCapture := c.captureCancel
	c.mu.Unlock()
	if cancelCapture != nil {
		cancelCapture()
	}
	c.CancelSpeech()
}
