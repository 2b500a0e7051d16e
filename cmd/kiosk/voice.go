package main

import (
	"fmt"
	"time"

	kiosk "github.com/koscakluka/ema-kiosk/core"
	"github.com/koscakluka/ema-kiosk/core/audio"
	"github.com/koscakluka/ema-kiosk/core/audio/miniaudio"
	"github.com/koscakluka/ema-kiosk/core/audio/portaudio"
	"github.com/koscakluka/ema-kiosk/core/speechtotext"
	deepgramstt "github.com/koscakluka/ema-kiosk/core/speechtotext/deepgram"
	openaistt "github.com/koscakluka/ema-kiosk/core/speechtotext/openai"
	"github.com/koscakluka/ema-kiosk/core/texttospeech"
	deepgramtts "github.com/koscakluka/ema-kiosk/core/texttospeech/deepgram"
	openaitts "github.com/koscakluka/ema-kiosk/core/texttospeech/openai"
	"github.com/koscakluka/ema-kiosk/core/voice"
	"github.com/koscakluka/ema-kiosk/internal/config"
)

const portaudioBufferSize = 1024

type audioDevice interface {
	Input() audio.Input
	Output() audio.Output
	Close()
}

// buildVoice opens the audio device and the speech vendors. The returned
// close function releases the device.
func buildVoice(cfg config.Voice) (kiosk.ClientOption, func(), error) {
	device, err := openAudio(cfg)
	if err != nil {
		return nil, nil, err
	}

	transcriber, err := newTranscriber(cfg)
	if err != nil {
		device.Close()
		return nil, nil, err
	}
	synthesizer, err := newSynthesizer(cfg)
	if err != nil {
		device.Close()
		return nil, nil, err
	}

	speaker := voice.NewPlaybackSpeaker(synthesizer, device.Output())
	recorder := voice.NewInputRecorder(device.Input())
	option := kiosk.WithVoice(speaker, recorder, transcriber,
		voice.WithCaptureDuration(time.Duration(cfg.CaptureDuration)),
		voice.WithTranscriptionOptions(speechtotext.WithLanguage(cfg.Language)),
	)
	return option, device.Close, nil
}

func openAudio(cfg config.Voice) (audioDevice, error) {
	switch cfg.AudioBackend {
	case config.BackendPortaudio:
		// portaudio streams share one rate; playback decides it
		device, err := portaudio.NewClient(portaudioBufferSize, cfg.PlaybackRate)
		if err != nil {
			return nil, fmt.Errorf("failed to open portaudio: %w", err)
		}
		return device, nil
	default:
		device, err := miniaudio.NewClient(
			miniaudio.WithCaptureSampleRate(cfg.CaptureRate),
			miniaudio.WithPlaybackSampleRate(cfg.PlaybackRate),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open miniaudio: %w", err)
		}
		return device, nil
	}
}

func newTranscriber(cfg config.Voice) (speechtotext.Transcriber, error) {
	p := cfg.STT
	switch p.Name {
	case config.ProviderDeepgram:
		opts := []deepgramstt.ClientOption{deepgramstt.WithLanguage(cfg.Language)}
		if p.APIKey != "" {
			opts = append(opts, deepgramstt.WithAPIKey(p.APIKey))
		}
		if p.Model != "" {
			opts = append(opts, deepgramstt.WithModel(p.Model))
		}
		return deepgramstt.NewTranscriptionClient(opts...), nil
	default:
		var opts []openaistt.ClientOption
		if p.APIKey != "" {
			opts = append(opts, openaistt.WithAPIKey(p.APIKey))
		}
		if p.Model != "" {
			opts = append(opts, openaistt.WithModel(p.Model))
		}
		client, err := openaistt.NewTranscriptionClient(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai transcription client: %w", err)
		}
		return client, nil
	}
}

func newSynthesizer(cfg config.Voice) (texttospeech.Synthesizer, error) {
	p := cfg.TTS
	switch p.Name {
	case config.ProviderDeepgram:
		var opts []deepgramtts.ClientOption
		if p.APIKey != "" {
			opts = append(opts, deepgramtts.WithAPIKey(p.APIKey))
		}
		voiceName := deepgramtts.VoiceThalia
		if p.Voice != "" {
			found := false
			for _, v := range deepgramtts.GetAvailableVoices() {
				if string(v) == p.Voice {
					voiceName, found = v, true
				}
			}
			if !found {
				return nil, fmt.Errorf("unknown deepgram voice %q", p.Voice)
			}
		}
		client, err := deepgramtts.NewTextToSpeechClient(voiceName, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepgram speech client: %w", err)
		}
		return client, nil
	default:
		var opts []openaitts.ClientOption
		if p.APIKey != "" {
			opts = append(opts, openaitts.WithAPIKey(p.APIKey))
		}
		if p.Model != "" {
			opts = append(opts, openaitts.WithModel(p.Model))
		}
		if p.Voice != "" {
			opts = append(opts, openaitts.WithVoice(p.Voice))
		}
		client, err := openaitts.NewTextToSpeechClient(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai speech client: %w", err)
		}
		return client, nil
	}
}
