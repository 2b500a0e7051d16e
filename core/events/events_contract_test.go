package events

import (
	"errors"
	"testing"
	"time"

	"github.com/koscakluka/ema-kiosk/core/flow"
	"github.com/koscakluka/ema-kiosk/core/protocol"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "connection opened", event: NewConnectionOpened(1), expected: KindConnectionOpened},
		{name: "connection lost", event: NewConnectionLost(1, errors.New("eof")), expected: KindConnectionLost},
		{name: "session assigned", event: NewSessionAssigned("s1"), expected: KindSessionAssigned},
		{name: "state changed", event: NewStateChanged(flow.Initial(), flow.Initial()), expected: KindStateChanged},
		{name: "message discarded", event: NewMessageDiscarded(1, "stale"), expected: KindMessageDiscarded},
		{name: "system message", event: NewSystemMessage("retry"), expected: KindSystemMessage},
		{name: "request sent", event: NewRequestSent(protocol.RequestGetCart), expected: KindRequestSent},
		{name: "request dropped", event: NewRequestDropped(protocol.RequestGetCart, nil), expected: KindRequestDropped},
		{name: "speech started", event: NewSpeechStarted("hi"), expected: KindSpeechStarted},
		{name: "speech ended", event: NewSpeechEnded("hi", true), expected: KindSpeechEnded},
		{name: "capture started", event: NewCaptureStarted(), expected: KindCaptureStarted},
		{name: "capture ended", event: NewCaptureEnded(nil), expected: KindCaptureEnded},
		{name: "user transcript", event: NewUserTranscript("latte"), expected: KindUserTranscript},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestBaseIsTimestamped(t *testing.T) {
	before := time.Now()
	event := NewCaptureStarted()

	if event.Timestamp().Before(before) {
		t.Fatalf("expected timestamp after %v, got %v", before, event.Timestamp())
	}
}

func TestSeqFollowsCreationOrder(t *testing.T) {
	first := NewSystemMessage("a")
	second := NewSystemMessage("b")

	if second.Seq() <= first.Seq() {
		t.Fatalf("expected increasing seq, got %d then %d", first.Seq(), second.Seq())
	}
}
