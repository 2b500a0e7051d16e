// Package config loads the kiosk runtime configuration from an optional
// YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI   = "openai"
	ProviderDeepgram = "deepgram"

	BackendMiniaudio = "miniaudio"
	BackendPortaudio = "portaudio"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Server Server `yaml:"server"`
	Flow   Flow   `yaml:"flow"`
	Voice  Voice  `yaml:"voice"`
}

type Server struct {
	URL            string   `yaml:"url"`
	StoreID        string   `yaml:"store_id"`
	MenuVersion    int      `yaml:"menu_version"`
	ReconnectDelay Duration `yaml:"reconnect_delay"`
}

type Flow struct {
	ReturnToIdleAfter Duration `yaml:"return_to_idle_after"`
}

type Voice struct {
	Enabled         bool     `yaml:"enabled"`
	AudioBackend    string   `yaml:"audio_backend"`
	CaptureDuration Duration `yaml:"capture_duration"`
	CaptureRate     int      `yaml:"capture_sample_rate"`
	PlaybackRate    int      `yaml:"playback_sample_rate"`
	Language        string   `yaml:"language"`

	STT Provider `yaml:"stt"`
	TTS Provider `yaml:"tts"`
}

// Provider selects a speech vendor. Empty Model and Voice mean the vendor
// client's defaults.
type Provider struct {
	Name   string `yaml:"provider"`
	Model  string `yaml:"model"`
	Voice  string `yaml:"voice,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
}

// Duration reads YAML strings such as "2s" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("failed to parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func Default() Config {
	return Config{
		Server: Server{
			URL:            "ws://localhost:8080/ws/kiosk",
			StoreID:        "001",
			MenuVersion:    1,
			ReconnectDelay: Duration(2 * time.Second),
		},
		Flow: Flow{ReturnToIdleAfter: Duration(30 * time.Second)},
		Voice: Voice{
			Enabled:         true,
			AudioBackend:    BackendMiniaudio,
			CaptureDuration: Duration(3 * time.Second),
			CaptureRate:     16000,
			PlaybackRate:    24000,
			Language:        "ko",
			STT:             Provider{Name: ProviderOpenAI},
			TTS:             Provider{Name: ProviderOpenAI},
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
// Override adjusts a loaded configuration before it is validated.
type Override func(*Config)

// WithServerURL replaces the server url. An empty url keeps the loaded one.
func WithServerURL(url string) Override {
	return func(c *Config) {
		if url != "" {
			c.Server.URL = url
		}
	}
}

// WithoutVoice disables voice, so the voice section is not validated.
func WithoutVoice() Override {
	return func(c *Config) { c.Voice.Enabled = false }
}

func Load(path string, overrides ...Override) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("KIOSK_SERVER_URL", &c.Server.URL)
	set("KIOSK_STORE_ID", &c.Server.StoreID)
	set("KIOSK_STT_PROVIDER", &c.Voice.STT.Name)
	set("KIOSK_TTS_PROVIDER", &c.Voice.TTS.Name)
	set("KIOSK_AUDIO_BACKEND", &c.Voice.AudioBackend)

	if v, ok := lookup("KIOSK_MENU_VERSION"); ok && v != "" {
		version, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: KIOSK_MENU_VERSION: %w", ErrInvalid, err)
		}
		c.Server.MenuVersion = version
	}

	openAIKey, _ := lookup("OPENAI_API_KEY")
	deepgramKey, _ := lookup("DEEPGRAM_API_KEY")
	for _, p := range []*Provider{&c.Voice.STT, &c.Voice.TTS} {
		if p.APIKey != "" {
			continue
		}
		switch p.Name {
		case ProviderOpenAI:
			p.APIKey = openAIKey
		case ProviderDeepgram:
			p.APIKey = deepgramKey
		}
	}
	return nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return fmt.Errorf("%w: server url %q must be ws:// or wss://", ErrInvalid, c.Server.URL)
	}
	if c.Server.StoreID == "" {
		return fmt.Errorf("%w: store id is empty", ErrInvalid)
	}
	if c.Server.ReconnectDelay <= 0 {
		return fmt.Errorf("%w: reconnect delay must be positive", ErrInvalid)
	}
	if c.Flow.ReturnToIdleAfter < 0 {
		return fmt.Errorf("%w: return to idle delay is negative", ErrInvalid)
	}

	if !c.Voice.Enabled {
		return nil
	}
	switch c.Voice.AudioBackend {
	case BackendMiniaudio, BackendPortaudio:
	default:
		return fmt.Errorf("%w: unknown audio backend %q", ErrInvalid, c.Voice.AudioBackend)
	}
	if c.Voice.CaptureDuration <= 0 {
		return fmt.Errorf("%w: capture duration must be positive", ErrInvalid)
	}
	for kind, p := range map[string]Provider{"stt": c.Voice.STT, "tts": c.Voice.TTS} {
		if p.Name != ProviderOpenAI && p.Name != ProviderDeepgram {
			return fmt.Errorf("%w: unknown %s provider %q", ErrInvalid, kind, p.Name)
		}
	}
	return nil
}
