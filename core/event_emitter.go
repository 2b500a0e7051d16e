package kiosk

import (
	"github.com/koscakluka/ema-kiosk/core/events"
	"github.com/koscakluka/ema-kiosk/core/flow"
)

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

// effects collects what a locked section produced so it can be delivered
// after the lock is released.
type effects struct {
	events      []events.Event
	transitions []transition
}

type transition struct {
	seq            uint64
	previous, next flow.State
}

func (fx *effects) emit(event events.Event) {
	fx.events = append(fx.events, event)
}

func (fx *effects) observe(previous, next flow.State) {
	event := events.NewStateChanged(previous.Clone(), next.Clone())
	fx.transitions = append(fx.transitions, transition{seq: event.Seq(), previous: previous, next: next})
	fx.emit(event)
}
