package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-kiosk/core/audio"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playback     playbackClient
	capture      captureClient
}

type ClientOption func(*clientOptions)

type clientOptions struct {
	captureSampleRate  int
	playbackSampleRate int
}

func WithCaptureSampleRate(sampleRate int) ClientOption {
	return func(o *clientOptions) {
		if sampleRate > 0 {
			o.captureSampleRate = sampleRate
		}
	}
}

func WithPlaybackSampleRate(sampleRate int) ClientOption {
	return func(o *clientOptions) {
		if sampleRate > 0 {
			o.playbackSampleRate = sampleRate
		}
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	options := clientOptions{
		captureSampleRate:  audio.DefaultSampleRate,
		playbackSampleRate: audio.DefaultPlaybackSampleRate,
	}
	for _, opt := range opts {
		opt(&options)
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{audioContext: audioCtx}

	if err := client.playback.Init(audioCtx, options.playbackSampleRate); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.playback.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.capture.Init(audioCtx, options.captureSampleRate); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

// Input exposes the capture half of the device pair.
func (c *Client) Input() audio.Input { return &c.capture }

// Output exposes the playback half of the device pair.
func (c *Client) Output() audio.Output { return &c.playback }

func (c *Client) Close() {
	_ = c.capture.Uninit()
	_ = c.playback.Uninit()
	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
		c.audioContext = nil
	}
}
