package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

func TestEncodingInfoDurationForLinear16(t *testing.T) {
	info := GetDefaultEncodingInfo()

	if got := info.BytesPerSecond(); got != 32000 {
		t.Fatalf("expected 32000 bytes per second, got %d", got)
	}
	if got := info.Duration(16000); got != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %s", got)
	}
}

func TestEncodingInfoDurationUnknownFormat(t *testing.T) {
	info := NewEncodingInfo(16000, "opus")

	if got := info.Duration(1000); got != 0 {
		t.Fatalf("expected zero duration for unknown format, got %s", got)
	}
}

func TestWAVHeader(t *testing.T) {
	pcm := make([]byte, 320)
	wav, err := WAV(pcm, GetDefaultEncodingInfo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("unexpected wav header %q", wav[:44])
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("expected data size %d, got %d", len(pcm), got)
	}
}

func TestWAVRejectsCompandedAudio(t *testing.T) {
	if _, err := WAV([]byte{0xFF}, NewEncodingInfo(8000, "mulaw")); err == nil {
		t.Fatalf("expected error for mulaw input")
	}
}
