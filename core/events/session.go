package events

import "github.com/koscakluka/ema-kiosk/core/flow"

const (
	KindSessionAssigned  Kind = "session.assigned"
	KindStateChanged     Kind = "session.state_changed"
	KindMessageDiscarded Kind = "session.message_discarded"
	KindSystemMessage    Kind = "session.system_message"
)

type SessionAssigned struct {
	Base
	SessionID string
}

func NewSessionAssigned(sessionID string) SessionAssigned {
	return SessionAssigned{Base: NewBase(KindSessionAssigned), SessionID: sessionID}
}

// StateChanged carries snapshots; consumers may keep them.
type StateChanged struct {
	Base
	Previous flow.State
	Current  flow.State
}

func NewStateChanged(previous, current flow.State) StateChanged {
	return StateChanged{Base: NewBase(KindStateChanged), Previous: previous, Current: current}
}

type MessageDiscarded struct {
	Base
	Generation uint64
	Reason     string
}

func NewMessageDiscarded(generation uint64, reason string) MessageDiscarded {
	return MessageDiscarded{Base: NewBase(KindMessageDiscarded), Generation: generation, Reason: reason}
}

type SystemMessage struct {
	Base
	Text string
}

func NewSystemMessage(text string) SystemMessage {
	return SystemMessage{Base: NewBase(KindSystemMessage), Text: text}
}
