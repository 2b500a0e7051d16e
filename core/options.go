package kiosk

import (
	"time"

	"github.com/koscakluka/ema-kiosk/core/connection"
	"github.com/koscakluka/ema-kiosk/core/events"
	"github.com/koscakluka/ema-kiosk/core/speechtotext"
	"github.com/koscakluka/ema-kiosk/core/voice"
)

const (
	DefaultStoreID           = "001"
	DefaultMenuVersion       = 1
	DefaultReturnToIdleAfter = 30 * time.Second
)

type ClientOption func(*Client)

// WithStore sets the store and menu version announced in the handshake.
func WithStore(storeID string, menuVersion int) ClientOption {
	return func(c *Client) {
		c.storeID = storeID
		c.menuVersion = menuVersion
	}
}

func WithReconnectDelay(delay time.Duration) ClientOption {
	return func(c *Client) { c.reconnectDelay = delay }
}

// WithReturnToIdleAfter sets how long a confirmed order stays on screen.
// Zero disables the automatic return.
func WithReturnToIdleAfter(after time.Duration) ClientOption {
	return func(c *Client) { c.returnToIdleAfter = after }
}

func WithDialer(dialer connection.Dialer) ClientOption {
	return func(c *Client) { c.dialer = dialer }
}

func WithEventHandler(handler func(events.Event)) ClientOption {
	return func(c *Client) {
		if handler == nil {
			c.emit = noopEventEmitter
			return
		}
		c.emit = handler
	}
}

// WithVoice enables spoken prompts and voice capture. Any of the
// collaborators may be nil to disable that half.
func WithVoice(speaker voice.Speaker, recorder voice.Recorder, transcriber speechtotext.Transcriber, opts ...voice.CoordinatorOption) ClientOption {
	return func(c *Client) {
		c.voiceParts = &voiceParts{
			speaker:     speaker,
			recorder:    recorder,
			transcriber: transcriber,
			options:     opts,
		}
	}
}

type voiceParts struct {
	speaker     voice.Speaker
	recorder    voice.Recorder
	transcriber speechtotext.Transcriber
	options     []voice.CoordinatorOption
}
