package kiosk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/koscakluka/ema-kiosk/core/events"
	"github.com/koscakluka/ema-kiosk/core/flow"
	"github.com/koscakluka/ema-kiosk/core/protocol"
	"github.com/koscakluka/ema-kiosk/core/voice"
)

var (
	ErrInvalidPhoneNumber = errors.New("phone number must have 10 or 11 digits")
	ErrEmptyText          = errors.New("text is empty")
	ErrVoiceNotAllowed    = errors.New("voice input is not accepted at this step")
)

const noSpeechPrompt = "Sorry, I couldn't catch that. Please speak a little more clearly."

// Every action below only sends. The flow step changes when the server
// answers, except for option group traversal which is local.

func (c *Client) Converse(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	return c.dispatch(protocol.NewConverseRequest(text))
}

func (c *Client) StartOrder(menuName string) error {
	menuName = strings.TrimSpace(menuName)
	if menuName == "" {
		return ErrEmptyText
	}
	return c.dispatch(protocol.NewOrderStartRequest(menuName))
}

// SelectChoice answers the pending temperature, size or option question.
func (c *Client) SelectChoice(choice string) error {
	return c.withLock(func(fx *effects) error {
		request, err := flow.SelectChoice(c.state, choice)
		if err != nil {
			return err
		}
		c.sendLocked(fx, request)
		return nil
	})
}

// ChooseOption picks optionID for the current option group, nil skips the
// group. Leaving the last group submits the selections and refreshes the
// cart.
func (c *Client) ChooseOption(optionID *int64) error {
	return c.withLock(func(fx *effects) error {
		next, requests, err := flow.Choose(c.state, optionID)
		if err != nil {
			return err
		}
		c.applyLocked(fx, next)
		for _, request := range requests {
			c.sendLocked(fx, request)
		}
		return nil
	})
}

// SelectDetailOptions submits selections directly, bypassing the group
// traversal.
func (c *Client) SelectDetailOptions(optionIDs []int64) error {
	return c.dispatch(protocol.NewSelectDetailOptionsRequest(optionIDs))
}

func (c *Client) GetCart() error { return c.dispatch(protocol.NewGetCartRequest()) }

func (c *Client) DeleteCartItem(orderDetailID int64) error {
	return c.dispatch(protocol.NewDeleteCartItemRequest(orderDetailID))
}

func (c *Client) ConfirmOrder() error { return c.dispatch(protocol.NewOrderConfirmRequest()) }

func (c *Client) RecentOrders() error { return c.dispatch(protocol.NewRecentOrdersRequest()) }

func (c *Client) RecentOrderDetail(orderID int64) error {
	return c.dispatch(protocol.NewRecentOrderDetailRequest(orderID))
}

// RecentOrderToCart copies a past order, or one line of it when
// orderDetailID is set, into the cart.
func (c *Client) RecentOrderToCart(orderID int64, orderDetailID *int64) error {
	return c.dispatch(protocol.NewRecentOrderToCartRequest(orderID, orderDetailID))
}

func (c *Client) LoginWithQR(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrEmptyText
	}
	return c.dispatch(protocol.NewQRLoginRequest(code))
}

func (c *Client) LoginWithPhone(phoneNumber string) error {
	digits, err := normalizePhoneNumber(phoneNumber)
	if err != nil {
		return err
	}
	return c.dispatch(protocol.NewPhoneNumLoginRequest(digits))
}

// EndSession asks the server to end the session. The connection stays open;
// the server's session_end moves the flow to SessionEnded.
func (c *Client) EndSession() error { return c.dispatch(protocol.NewSessionEndRequest()) }

// StartCapture records one utterance and sends it as a conversation turn.
// When nothing intelligible was heard a retry prompt is emitted and nothing
// is sent; the returned transcript is then empty and the error nil.
func (c *Client) StartCapture(ctx context.Context) (string, error) {
	if c.voice == nil {
		return "", voice.ErrVoiceUnavailable
	}
	if state := c.State(); !state.VoiceEligible() {
		return "", fmt.Errorf("%w: %s", ErrVoiceNotAllowed, state.Step)
	}

	transcript, err := c.voice.Capture(ctx)
	switch {
	case errors.Is(err, voice.ErrNoSpeech):
		logger.Warn("no speech recognised", "error", err)
		c.emit(events.NewSystemMessage(noSpeechPrompt))
		return "", nil
	case err != nil:
		return "", err
	}

	c.emit(events.NewUserTranscript(transcript))
	return transcript, c.Converse(transcript)
}

// Leave stops playback and any capture, for when the user navigates away.
func (c *Client) Leave() {
	c.voice.Stop()
}

func (c *Client) dispatch(request protocol.Request) error {
	return c.withLock(func(fx *effects) error {
		c.sendLocked(fx, request)
		return nil
	})
}

func normalizePhoneNumber(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		if r == '-' || r == ' ' || r == '(' || r == ')' || r == '.' {
			return -1
		}
		return 'x'
	}, raw)
	if strings.ContainsRune(digits, 'x') {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, raw)
	}
	if len(digits) < 10 || len(digits) > 11 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, raw)
	}
	return digits, nil
}
