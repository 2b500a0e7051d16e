package kiosk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/koscakluka/ema-kiosk/core/connection"
	"github.com/koscakluka/ema-kiosk/core/events"
	"github.com/koscakluka/ema-kiosk/core/flow"
	"github.com/koscakluka/ema-kiosk/core/protocol"
	"github.com/koscakluka/ema-kiosk/core/voice"
)

// Client runs one kiosk: it owns the session, feeds inbound messages to the
// flow machine and is the only writer of outbound requests.
type Client struct {
	url               string
	storeID           string
	menuVersion       int
	reconnectDelay    time.Duration
	returnToIdleAfter time.Duration
	dialer            connection.Dialer
	emit              eventEmitter
	voiceParts        *voiceParts

	voice *voice.Coordinator

	mu        sync.Mutex
	session   *SessionContext
	state     flow.State
	idleTimer *time.Timer
}

func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:               url,
		storeID:           DefaultStoreID,
		menuVersion:       DefaultMenuVersion,
		reconnectDelay:    connection.DefaultReconnectDelay,
		returnToIdleAfter: DefaultReturnToIdleAfter,
		dialer:            connection.WebsocketDialer{},
		emit:              noopEventEmitter,
		state:             flow.Initial(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if parts := c.voiceParts; parts != nil {
		voiceOpts := append([]voice.CoordinatorOption{
			voice.WithSpeechCallbacks(
				func(text string) { c.emit(events.NewSpeechStarted(text)) },
				func(text string, cancelled bool) { c.emit(events.NewSpeechEnded(text, cancelled)) },
			),
			voice.WithCaptureCallbacks(
				func() { c.emit(events.NewCaptureStarted()) },
				func(err error) { c.emit(events.NewCaptureEnded(err)) },
			),
		}, parts.options...)
		c.voice = voice.NewCoordinator(parts.speaker, parts.recorder, parts.transcriber, voiceOpts...)
	}

	return c
}

// Connect creates the session on first use and opens its connection. It is
// a no-op while a connection is open.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.session = c.newSessionLocked()
	}
	session := c.session
	c.mu.Unlock()

	if err := session.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

func (c *Client) newSessionLocked() *SessionContext {
	session := newSessionContext()

	handshake, err := protocol.NewStartRequest(c.storeID, c.menuVersion).Encode()
	if err != nil {
		logger.Error("failed to encode handshake", "error", err)
	}

	session.manager = connection.NewManager(c.url,
		connection.WithDialer(c.dialer),
		connection.WithReconnectDelay(c.reconnectDelay),
		connection.WithHandshake(handshake),
		connection.WithFrameHandler(func(frame connection.Frame) { c.handleFrame(session, frame) }),
		connection.WithEventHandler(func(event connection.Event) { c.handleConnectionEvent(session, event) }),
	)
	logger.Info("session created", "session", session.ID.String())
	return session
}

// Disconnect ends the session for good: playback and capture stop and the
// connection closes without reconnecting.
func (c *Client) Disconnect() error {
	var session *SessionContext
	c.withLock(func(fx *effects) error {
		session = c.session
		c.stopIdleTimerLocked()
		return nil
	})
	c.voice.Stop()

	if session == nil {
		return nil
	}
	return session.manager.Disconnect(farewell())
}

// Restart replaces the session with a fresh one and returns to Idle.
func (c *Client) Restart(ctx context.Context) error {
	var previous *SessionContext
	c.withLock(func(fx *effects) error {
		previous = c.session
		c.session = c.newSessionLocked()
		c.stopIdleTimerLocked()
		c.applyLocked(fx, flow.Initial())
		return nil
	})
	c.voice.Reset()

	if previous != nil {
		if err := previous.manager.Disconnect(farewell()); err != nil {
			logger.Warn("failed to close previous session", "session", previous.ID.String(), "error", err)
		}
	}
	return c.Connect(ctx)
}

func farewell() []byte {
	payload, _ := protocol.NewSessionEndRequest().Encode()
	return payload
}

// State returns a snapshot of the flow state.
func (c *Client) State() flow.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// SessionID returns the server assigned session id, empty until the
// handshake of the current connection is acknowledged.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.serverSessionID
}

func (c *Client) handleConnectionEvent(session *SessionContext, event connection.Event) {
	c.withLock(func(fx *effects) error {
		if c.session != session {
			return nil
		}
		switch event.Kind {
		case connection.EventOpened:
			// a new connection needs a new handshake before its session
			// id is trusted
			session.serverSessionID = ""
			fx.emit(events.NewConnectionOpened(event.Generation))
		case connection.EventLost:
			fx.emit(events.NewConnectionLost(event.Generation, event.Err))
		}
		return nil
	})
}

func (c *Client) handleFrame(session *SessionContext, frame connection.Frame) {
	msg, canonicalizeErr := protocol.Canonicalize(frame.Payload)

	c.withLock(func(fx *effects) error {
		if c.session != session {
			return nil
		}
		if canonicalizeErr != nil {
			c.discardLocked(fx, frame.Generation, canonicalizeErr.Error())
			return nil
		}
		if current := session.manager.Generation(); frame.Generation != current {
			c.discardLocked(fx, frame.Generation, fmt.Sprintf("stale %s from generation %d, current is %d", msg.Kind(), frame.Generation, current))
			return nil
		}

		sessionID := protocol.SessionOf(msg)
		switch msg.(type) {
		case protocol.Start, protocol.SessionAck:
			if sessionID != "" && sessionID != session.serverSessionID {
				session.serverSessionID = sessionID
				fx.emit(events.NewSessionAssigned(sessionID))
			}
		default:
			if !session.acceptsSession(sessionID) {
				c.discardLocked(fx, frame.Generation, fmt.Sprintf("%s for session %q, current is %q", msg.Kind(), sessionID, session.serverSessionID))
				return nil
			}
		}
		if _, ok := msg.(protocol.SessionEnd); ok {
			session.serverSessionID = ""
		}

		next, requests := flow.Transition(c.state, msg)
		c.applyLocked(fx, next)
		for _, request := range requests {
			c.sendLocked(fx, request)
		}
		return nil
	})
}

func (c *Client) discardLocked(fx *effects, generation uint64, reason string) {
	discardedCounter.Add(context.Background(), 1)
	logger.Warn("discarded inbound frame", "generation", generation, "reason", reason)
	fx.emit(events.NewMessageDiscarded(generation, reason))
}

// applyLocked installs next as the current state. c.mu must be held.
func (c *Client) applyLocked(fx *effects, next flow.State) {
	previous := c.state
	c.state = next

	switch {
	case next.Step != flow.StepOrderConfirmed:
		c.stopIdleTimerLocked()
	case previous.Step != flow.StepOrderConfirmed:
		c.startIdleTimerLocked()
	}
	fx.observe(previous, next)
}

func (c *Client) startIdleTimerLocked() {
	c.stopIdleTimerLocked()
	if c.returnToIdleAfter <= 0 {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(c.returnToIdleAfter, func() { c.returnToIdle(timer) })
	c.idleTimer = timer
}

func (c *Client) stopIdleTimerLocked() {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
}

func (c *Client) returnToIdle(timer *time.Timer) {
	c.withLock(func(fx *effects) error {
		if c.idleTimer != timer {
			return nil
		}
		c.idleTimer = nil
		if c.state.Step != flow.StepOrderConfirmed {
			return nil
		}
		c.applyLocked(fx, flow.Reset(c.state))
		return nil
	})
}

// sendLocked writes request on the session's connection. Without a
// connection the request is dropped, never queued. c.mu must be held so
// that requests produced by one transition go out together.
func (c *Client) sendLocked(fx *effects, request protocol.Request) {
	ctx, span := tracer.Start(context.Background(), "send request",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("request.type", string(request.Type))))
	defer span.End()

	payload, err := request.Encode()
	if err != nil {
		span.RecordError(err)
		logger.Error("failed to encode request", "type", request.Type, "error", err)
		return
	}

	if c.session == nil {
		c.dropLocked(ctx, fx, request, connection.ErrNotConnected)
		return
	}
	if err := c.session.manager.Send(payload); err != nil {
		c.dropLocked(ctx, fx, request, err)
		return
	}
	fx.emit(events.NewRequestSent(request.Type))
}

func (c *Client) dropLocked(ctx context.Context, fx *effects, request protocol.Request, err error) {
	droppedCounter.Add(ctx, 1)
	if !errors.Is(err, connection.ErrNotConnected) && !errors.Is(err, connection.ErrClosed) {
		logger.Warn("request dropped", "type", request.Type, "error", err)
	} else {
		logger.Debug("request dropped", "type", request.Type, "error", err)
	}
	fx.emit(events.NewRequestDropped(request.Type, err))
}

// withLock runs fn under the client lock and afterwards hands the collected
// transitions to the voice coordinator and the events to the handler.
func (c *Client) withLock(fn func(fx *effects) error) error {
	fx := &effects{}

	c.mu.Lock()
	err := fn(fx)
	c.mu.Unlock()

	for _, t := range fx.transitions {
		c.voice.Observe(t.seq, t.previous, t.next)
	}
	for _, event := range fx.events {
		c.emit(event)
	}
	return err
}
