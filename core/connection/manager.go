package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("connection manager closed")
)

// Manager owns the single physical connection of a logical session. It
// reconnects after unexpected closures until Disconnect is called.
type Manager struct {
	url     string
	options ManagerOptions

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	conn       Conn
	generation uint64
	connecting bool
	closed     bool
	reconnect  *time.Timer

	writeMu sync.Mutex
}

func NewManager(url string, opts ...ManagerOption) *Manager {
	options := ManagerOptions{
		Dialer:         WebsocketDialer{},
		ReconnectDelay: DefaultReconnectDelay,
		FrameHandler:   func(Frame) {},
		EventHandler:   func(Event) {},
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.ReconnectDelay <= 0 {
		options.ReconnectDelay = DefaultReconnectDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		url:     url,
		options: options,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect opens a connection unless one is already open or being opened.
// A failed dial schedules a reconnect and returns the dial error.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.conn != nil || m.connecting {
		m.mu.Unlock()
		return nil
	}
	m.connecting = true
	m.mu.Unlock()

	ctx, span := tracer.Start(ctx, "dial kiosk backend")
	defer span.End()
	span.SetAttributes(attribute.String("connection.url", m.url))

	conn, err := m.dial(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		m.mu.Lock()
		m.connecting = false
		if !m.closed {
			m.scheduleReconnectLocked()
		}
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.connecting = false
	if m.closed {
		m.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	m.generation++
	generation := m.generation
	m.conn = conn
	m.mu.Unlock()

	span.SetAttributes(attribute.Int64("connection.generation", int64(generation)))
	logger.Info("connection opened", "url", m.url, "generation", generation)
	m.options.EventHandler(Event{Kind: EventOpened, Generation: generation})

	go m.readLoop(conn, generation)
	return nil
}

// dial opens the socket and writes the handshake before the connection is
// visible to Send.
func (m *Manager) dial(ctx context.Context) (Conn, error) {
	dialCtx, cancel := mergeCancel(ctx, m.ctx)
	defer cancel()

	conn, err := m.options.Dialer.Dial(dialCtx, m.url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", m.url, err)
	}

	if len(m.options.Handshake) > 0 {
		if err := conn.WriteMessage(websocket.TextMessage, m.options.Handshake); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to send handshake: %w", err)
		}
	}
	return conn, nil
}

func (m *Manager) readLoop(conn Conn, generation uint64) {
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			m.handleLost(conn, generation, err)
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		m.options.FrameHandler(Frame{Generation: generation, Payload: payload})
	}
}

func (m *Manager) handleLost(conn Conn, generation uint64, err error) {
	m.mu.Lock()
	if m.conn != conn {
		// replaced or torn down deliberately
		m.mu.Unlock()
		return
	}
	m.conn = nil
	closed := m.closed
	if !closed {
		m.scheduleReconnectLocked()
	}
	m.mu.Unlock()

	_ = conn.Close()
	if closed {
		return
	}

	logger.Warn("connection lost", "generation", generation, "error", err)
	m.options.EventHandler(Event{Kind: EventLost, Generation: generation, Err: err})
}

// scheduleReconnectLocked arms the single pending reconnect timer. m.mu must
// be held.
func (m *Manager) scheduleReconnectLocked() {
	if m.reconnect != nil {
		return
	}

	reconnectCounter.Add(m.ctx, 1)
	logger.Info("reconnect scheduled", "delay", m.options.ReconnectDelay)
	m.reconnect = time.AfterFunc(m.options.ReconnectDelay, func() {
		m.mu.Lock()
		m.reconnect = nil
		m.mu.Unlock()

		if err := m.Connect(m.ctx); err != nil && !errors.Is(err, ErrClosed) {
			logger.Warn("reconnect failed", "error", err)
		}
	})
}

// Send writes one text frame on the current connection. Frames are never
// queued: without a connection ErrNotConnected is returned.
func (m *Manager) Send(payload []byte) error {
	m.mu.Lock()
	conn, closed := m.conn, m.closed
	m.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotConnected
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Disconnect tears the session down for good. farewell, if any, is written
// best effort before the socket is closed. No reconnect happens afterwards.
func (m *Manager) Disconnect(farewell []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	conn := m.conn
	m.conn = nil
	generation := m.generation
	m.mu.Unlock()

	m.cancel()

	var err error
	if conn != nil {
		m.writeMu.Lock()
		if len(farewell) > 0 {
			if writeErr := conn.WriteMessage(websocket.TextMessage, farewell); writeErr != nil {
				logger.Debug("failed to send farewell", "error", writeErr)
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		m.writeMu.Unlock()

		if closeErr := conn.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close connection: %w", closeErr)
		}
	}

	logger.Info("connection closed", "generation", generation)
	m.options.EventHandler(Event{Kind: EventClosed, Generation: generation})
	return err
}

// Generation identifies the most recently opened connection. It is zero
// before the first successful open.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

func (m *Manager) reconnectPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconnect != nil
}

// mergeCancel returns a context derived from ctx that is also cancelled
// when other is.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
