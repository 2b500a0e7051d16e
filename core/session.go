package kiosk

import (
	"github.com/google/uuid"

	"github.com/koscakluka/ema-kiosk/core/connection"
)

// SessionContext is one logical kiosk session: a local identity, the
// connection that carries it and the server session id once assigned.
type SessionContext struct {
	ID      uuid.UUID
	manager *connection.Manager

	// serverSessionID is empty until the current connection's handshake
	// is acknowledged.
	serverSessionID string
}

func newSessionContext() *SessionContext {
	return &SessionContext{ID: uuid.New()}
}

// acceptsSession reports whether a message carrying id belongs here.
func (s *SessionContext) acceptsSession(id string) bool {
	return id == "" || s.serverSessionID == "" || id == s.serverSessionID
}
