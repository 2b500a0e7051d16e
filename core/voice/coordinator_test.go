package voice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-kiosk/core/audio"
	"github.com/koscakluka/ema-kiosk/core/flow"
	"github.com/koscakluka/ema-kiosk/core/protocol"
	"github.com/koscakluka/ema-kiosk/core/speechtotext"
)

type fakeSpeaker struct {
	active    atomic.Int32
	maxActive atomic.Int32

	mu     sync.Mutex
	spoken []string
	// finish releases utterances that should complete
	finish chan struct{}
}

func newFakeSpeaker() *fakeSpeaker {
	return &fakeSpeaker{finish: make(chan struct{}, 16)}
}

func (s *fakeSpeaker) Speak(ctx context.Context, text string) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		max := s.maxActive.Load()
		if n <= max || s.maxActive.CompareAndSwap(max, n) {
			break
		}
	}

	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.finish:
		return nil
	}
}

func (s *fakeSpeaker) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

type fakeRecorder struct {
	pcm []byte
	err error
}

func (r *fakeRecorder) Record(ctx context.Context, d time.Duration) ([]byte, audio.EncodingInfo, error) {
	if r.pcm == nil && r.err == nil {
		<-ctx.Done()
		return nil, audio.GetDefaultEncodingInfo(), ctx.Err()
	}
	return r.pcm, audio.GetDefaultEncodingInfo(), r.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, pcm []byte, opts ...speechtotext.TranscriptionOption) (string, error) {
	return f.text, f.err
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSpeakNeverOverlaps(t *testing.T) {
	speaker := newFakeSpeaker()
	var cancelled atomic.Int32
	c := NewCoordinator(speaker, nil, nil, WithSpeechCallbacks(nil, func(_ string, wasCancelled bool) {
		if wasCancelled {
			cancelled.Add(1)
		}
	}))

	for _, text := range []string{"one", "two", "three", "four"} {
		c.Speak(text, nil)
	}
	waitFor(t, "last utterance", func() bool { return len(speaker.texts()) == 4 })

	if speaker.maxActive.Load() != 1 {
		t.Fatalf("expected at most one active utterance, got %d", speaker.maxActive.Load())
	}
	if cancelled.Load() != 3 {
		t.Fatalf("expected three cancelled utterances, got %d", cancelled.Load())
	}

	speaker.finish <- struct{}{}
	waitFor(t, "speech to end", func() bool { return !c.Speaking() })
}

func TestSpeakCallsOnDoneOnlyWhenCompleted(t *testing.T) {
	speaker := newFakeSpeaker()
	c := NewCoordinator(speaker, nil, nil)

	var firstDone, secondDone atomic.Bool
	c.Speak("first", func() { firstDone.Store(true) })
	c.Speak("second", func() { secondDone.Store(true) })
	speaker.finish <- struct{}{}

	waitFor(t, "second to finish", secondDone.Load)
	if firstDone.Load() {
		t.Fatalf("expected cancelled utterance not to report done")
	}
}

func TestObserveSpeaksEachReplyAndQuestionOnce(t *testing.T) {
	speaker := newFakeSpeaker()
	c := NewCoordinator(speaker, nil, nil)

	s0 := flow.Initial()
	s1, _ := flow.Transition(s0, protocol.Converse{Reply: "What would you like?"})
	c.Observe(1, s0, s1)
	waitFor(t, "reply", func() bool { return len(speaker.texts()) == 1 })

	// re-rendering the same state does not speak again
	c.Observe(2, s1, s1)

	s2, _ := flow.Transition(s1, protocol.AskTemperature{Question: "ICE or HOT?", Choices: []string{"ICE", "HOT"}})
	c.Observe(3, s1, s2)
	waitFor(t, "question", func() bool { return len(speaker.texts()) == 2 })

	s3, _ := flow.Transition(s2, protocol.AskTemperature{Question: "ICE or HOT?", Choices: []string{"ICE", "HOT"}})
	c.Observe(4, s2, s3)

	s4, _ := flow.Transition(s3, protocol.Converse{Reply: "What would you like?"})
	c.Observe(5, s3, s4)
	waitFor(t, "repeated reply text", func() bool { return len(speaker.texts()) == 3 })

	time.Sleep(20 * time.Millisecond)
	texts := speaker.texts()
	want := []string{"What would you like?", "ICE or HOT?", "What would you like?"}
	if len(texts) != len(want) {
		t.Fatalf("expected %v, got %v", want, texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, texts)
		}
	}
	c.Stop()
}

func TestObserveCancelsSpeechOnStepChange(t *testing.T) {
	speaker := newFakeSpeaker()
	c := NewCoordinator(speaker, nil, nil)

	s0 := flow.Initial()
	s1, _ := flow.Transition(s0, protocol.Converse{Reply: "hello"})
	c.Observe(1, s0, s1)
	waitFor(t, "speech", c.Speaking)

	s2, _ := flow.Transition(s1, protocol.Cart{})
	c.Observe(2, s1, s2)
	if c.Speaking() {
		t.Fatalf("expected speech cancelled on step change")
	}
}

func TestObserveIgnoresOlderTransitions(t *testing.T) {
	speaker := newFakeSpeaker()
	c := NewCoordinator(speaker, nil, nil)

	s0 := flow.Initial()
	older, _ := flow.Transition(s0, protocol.AskTemperature{Question: "ICE or HOT?", Choices: []string{"ICE", "HOT"}})
	newer, _ := flow.Transition(older, protocol.AskSize{Question: "Which size?", Choices: []string{"S", "L"}})

	c.Observe(8, older, newer)
	waitFor(t, "newer question", func() bool { return len(speaker.texts()) == 1 })
	c.Observe(7, s0, older)

	time.Sleep(20 * time.Millisecond)
	if texts := speaker.texts(); len(texts) != 1 || texts[0] != "Which size?" {
		t.Fatalf("expected only the newer question, got %v", texts)
	}
	c.Stop()
}

func TestCaptureReturnsTranscript(t *testing.T) {
	var started, ended atomic.Int32
	c := NewCoordinator(newFakeSpeaker(), &fakeRecorder{pcm: []byte{1, 2}}, &fakeTranscriber{text: "iced latte"},
		WithCaptureCallbacks(func() { started.Add(1) }, func(error) { ended.Add(1) }))

	text, err := c.Capture(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "iced latte" {
		t.Fatalf("expected transcript, got %q", text)
	}
	if started.Load() != 1 || ended.Load() != 1 {
		t.Fatalf("expected one start and one end callback, got %d and %d", started.Load(), ended.Load())
	}
}

func TestCaptureReportsNoSpeech(t *testing.T) {
	cases := []struct {
		name        string
		recorder    *fakeRecorder
		transcriber *fakeTranscriber
	}{
		{"empty recording", &fakeRecorder{pcm: []byte{}}, &fakeTranscriber{text: "ignored"}},
		{"empty transcript", &fakeRecorder{pcm: []byte{1}}, &fakeTranscriber{}},
		{"failed transcription", &fakeRecorder{pcm: []byte{1}}, &fakeTranscriber{err: errors.New("503")}},
		{"failed recording", &fakeRecorder{err: errors.New("device busy")}, &fakeTranscriber{text: "ignored"}},
	}

	for _, tc := range cases {
		c := NewCoordinator(nil, tc.recorder, tc.transcriber)
		if _, err := c.Capture(context.Background()); !errors.Is(err, ErrNoSpeech) {
			t.Fatalf("%s: expected ErrNoSpeech, got %v", tc.name, err)
		}
	}
}

func TestCaptureSilencesPlaybackAndStopEndsIt(t *testing.T) {
	speaker := newFakeSpeaker()
	captureStarted := make(chan struct{})
	c := NewCoordinator(speaker, &fakeRecorder{}, &fakeTranscriber{text: "x"},
		WithCaptureCallbacks(func() { close(captureStarted) }, func(error) {}))

	c.Speak("please say your order", nil)
	waitFor(t, "speech", c.Speaking)

	done := make(chan error, 1)
	go func() {
		_, err := c.Capture(context.Background())
		done <- err
	}()
	select {
	case <-captureStarted:
	case <-time.After(time.Second):
		t.Fatalf("expected capture to start")
	}
	if c.Speaking() {
		t.Fatalf("expected playback cancelled before capture")
	}

	if _, err := c.Capture(context.Background()); !errors.Is(err, ErrCaptureInProgress) {
		t.Fatalf("expected ErrCaptureInProgress, got %v", err)
	}

	c.Stop()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected capture to stop")
	}
}

func TestNilCoordinatorIsNoop(t *testing.T) {
	var c *Coordinator
	c.Speak("hello", nil)
	c.Observe(1, flow.Initial(), flow.Initial())
	c.Stop()
	if _, err := c.Capture(context.Background()); !errors.Is(err, ErrVoiceUnavailable) {
		t.Fatalf("expected ErrVoiceUnavailable, got %v", err)
	}
}
