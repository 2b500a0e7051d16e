package main

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/koscakluka/ema-kiosk/cmd/kiosk/tui"
	"github.com/koscakluka/ema-kiosk/core/events"
)

// eventPump hands client events to the program in order without ever
// blocking the client. The program loop may itself be waiting on the
// client, so delivery happens on a goroutine of its own.
type eventPump struct {
	mu     sync.Mutex
	queue  []events.Event
	closed bool

	wake chan struct{}
	done chan struct{}
}

func newEventPump() *eventPump {
	return &eventPump{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// push queues event. Events pushed after close are dropped.
func (p *eventPump) push(event events.Event) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, event)
	p.mu.Unlock()
	p.signal()
}

func (p *eventPump) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// run delivers queued events to send until close is called and the queue
// is drained.
func (p *eventPump) run(send func(tea.Msg)) {
	defer close(p.done)
	for {
		p.mu.Lock()
		batch := p.queue
		p.queue = nil
		closed := p.closed
		p.mu.Unlock()

		for _, event := range batch {
			send(tui.EventMsg{Event: event})
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-p.wake
	}
}

// close stops accepting events and lets run return once drained.
func (p *eventPump) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.signal()
}
