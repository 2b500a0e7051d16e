package voice

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/koscakluka/ema-kiosk/core/audio"
)

// InputRecorder records bounded clips from an audio input.
type InputRecorder struct {
	input audio.Input
}

func NewInputRecorder(input audio.Input) *InputRecorder {
	return &InputRecorder{input: input}
}

// Record captures for d, or until ctx is cancelled in which case nothing is
// returned.
func (r *InputRecorder) Record(ctx context.Context, d time.Duration) ([]byte, audio.EncodingInfo, error) {
	encoding := r.input.EncodingInfo()

	recordCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	var (
		mu  sync.Mutex
		buf bytes.Buffer
	)
	if err := r.input.StartCapture(recordCtx, func(chunk []byte) {
		mu.Lock()
		defer mu.Unlock()
		buf.Write(chunk)
	}); err != nil {
		return nil, encoding, fmt.Errorf("failed to start capture: %w", err)
	}

	<-recordCtx.Done()
	if err := r.input.StopCapture(); err != nil {
		logger.Warn("failed to stop capture", "error", err)
	}
	if ctx.Err() != nil {
		return nil, encoding, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	return bytes.Clone(buf.Bytes()), encoding, nil
}
