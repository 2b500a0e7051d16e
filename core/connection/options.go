package connection

import "time"

const DefaultReconnectDelay = 2 * time.Second

// Frame is one inbound message stamped with the generation of the
// connection it arrived on.
type Frame struct {
	Generation uint64
	Payload    []byte
}

type EventKind int

const (
	EventOpened EventKind = iota
	EventLost
	EventClosed
)

type Event struct {
	Kind       EventKind
	Generation uint64
	Err        error
}

type ManagerOptions struct {
	Dialer         Dialer
	ReconnectDelay time.Duration
	// Handshake, when set, is written once on every new connection before
	// any other frame.
	Handshake    []byte
	FrameHandler func(Frame)
	EventHandler func(Event)
}

type ManagerOption func(*ManagerOptions)

func WithDialer(dialer Dialer) ManagerOption {
	return func(o *ManagerOptions) {
		o.Dialer = dialer
	}
}

func WithReconnectDelay(delay time.Duration) ManagerOption {
	return func(o *ManagerOptions) {
		o.ReconnectDelay = delay
	}
}

func WithHandshake(payload []byte) ManagerOption {
	return func(o *ManagerOptions) {
		o.Handshake = append([]byte(nil), payload...)
	}
}

func WithFrameHandler(handler func(Frame)) ManagerOption {
	return func(o *ManagerOptions) {
		o.FrameHandler = handler
	}
}

func WithEventHandler(handler func(Event)) ManagerOption {
	return func(o *ManagerOptions) {
		o.EventHandler = handler
	}
}
