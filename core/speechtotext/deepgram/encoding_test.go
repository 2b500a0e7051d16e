package deepgram

import (
	"net/url"
	"testing"

	"github.com/koscakluka/ema-kiosk/core/audio"
)

func TestListenParamsURL(t *testing.T) {
	params, err := newListenParams(audio.NewEncodingInfo(16000, "linear16"), "nova-3", "ko")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	raw, err := params.url("wss://api.deepgram.com/v1/listen?tier=base")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	u, _ := url.Parse(raw)
	q := u.Query()
	for key, want := range map[string]string{
		"encoding": "linear16", "sample_rate": "16000", "channels": "1",
		"model": "nova-3", "language": "ko", "tier": "base",
	} {
		if got := q.Get(key); got != want {
			t.Fatalf("expected %s=%s, got %q", key, want, got)
		}
	}
}

func TestListenParamsRejectsUnsupportedAudio(t *testing.T) {
	cases := []audio.EncodingInfo{
		audio.NewEncodingInfo(44100, "linear16"),
		audio.NewEncodingInfo(16000, "mulaw"),
		audio.NewEncodingInfo(16000, "opus"),
	}
	for _, encoding := range cases {
		if _, err := newListenParams(encoding, "nova-3", ""); err == nil {
			t.Fatalf("expected an error for %+v", encoding)
		}
	}

	if _, err := newListenParams(audio.NewEncodingInfo(8000, "mulaw"), "nova-3", ""); err != nil {
		t.Fatalf("expected 8kHz mulaw to be accepted, got %v", err)
	}
}
