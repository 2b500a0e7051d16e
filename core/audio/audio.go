package audio

import "context"

// Input is a capture device that pushes raw audio chunks while capturing.
type Input interface {
	EncodingInfo() EncodingInfo
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

// Output is a playback device fed with raw audio chunks.
type Output interface {
	EncodingInfo() EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
	// Mark calls callback once all audio sent before the mark has been played.
	Mark(name string, callback func(string)) error
}
