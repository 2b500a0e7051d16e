package main

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/koscakluka/ema-kiosk/cmd/kiosk/tui"
	kiosk "github.com/koscakluka/ema-kiosk/core"
	"github.com/koscakluka/ema-kiosk/core/connection"
	"github.com/koscakluka/ema-kiosk/core/events"
	"github.com/koscakluka/ema-kiosk/internal/config"
)

func TestEventPumpKeepsOrderWithoutBlocking(t *testing.T) {
	pump := newEventPump()
	gate := make(chan struct{})
	var received []uint64
	go pump.run(func(msg tea.Msg) {
		<-gate
		received = append(received, msg.(tui.EventMsg).Event.Seq())
	})

	var pushed []uint64
	pushedAll := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			event := events.NewSystemMessage("hello")
			pushed = append(pushed, event.Seq())
			pump.push(event)
		}
		close(pushedAll)
	}()

	select {
	case <-pushedAll:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected push not to wait for delivery")
	}
	close(gate)
	pump.close()
	<-pump.done

	if len(received) != len(pushed) {
		t.Fatalf("expected %d events, got %d", len(pushed), len(received))
	}
	for i := range pushed {
		if received[i] != pushed[i] {
			t.Fatalf("expected event %d to be seq %d, got %d", i, pushed[i], received[i])
		}
	}

	pump.push(events.NewSystemMessage("late"))
	if len(received) != len(pushed) {
		t.Fatalf("expected events after close to be dropped")
	}
}

type scriptedConn struct {
	inbound chan []byte
	done    chan struct{}
	once    sync.Once
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	select {
	case payload := <-c.inbound:
		return websocket.TextMessage, payload, nil
	case <-c.done:
		return 0, nil, errors.New("connection closed")
	}
}

func (c *scriptedConn) WriteMessage(int, []byte) error { return nil }

func (c *scriptedConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

type scriptedDialer struct{ frames []string }

func (d scriptedDialer) Dial(ctx context.Context, url string) (connection.Conn, error) {
	conn := &scriptedConn{inbound: make(chan []byte, len(d.frames)), done: make(chan struct{})}
	for _, frame := range d.frames {
		conn.inbound <- []byte(frame)
	}
	return conn, nil
}

// endlessSpeaker plays until cancelled.
type endlessSpeaker struct{ started chan string }

func (s endlessSpeaker) Speak(ctx context.Context, text string) error {
	select {
	case s.started <- text:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestQuitWhileSpeakingExits(t *testing.T) {
	speaker := endlessSpeaker{started: make(chan string, 1)}
	pump := newEventPump()
	client := kiosk.NewClient("ws://kiosk",
		kiosk.WithDialer(scriptedDialer{frames: []string{`{"reply":"Hello, what would you like?"}`}}),
		kiosk.WithEventHandler(pump.push),
		kiosk.WithVoice(speaker, nil, nil),
	)

	ctx := context.Background()
	program := tea.NewProgram(tui.NewModel(ctx, client, true),
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
	)
	go pump.run(program.Send)
	exited := make(chan error, 1)
	go func() {
		_, err := program.Run()
		exited <- err
	}()
	t.Cleanup(func() {
		client.Disconnect()
		pump.close()
		<-pump.done
	})

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	select {
	case <-speaker.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the reply to be spoken")
	}

	program.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	select {
	case err := <-exited:
		if err != nil {
			t.Fatalf("expected a clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the program to exit while speech was playing")
	}
}

func TestRunFlagsOverrideBeforeValidation(t *testing.T) {
	cfg := config.Default()
	cfg.Voice.AudioBackend = "alsa"
	for _, override := range (runFlags{url: "wss://kiosk.example.com/ws", noVoice: true}).overrides() {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected voice settings to be ignored with --no-voice, got %v", err)
	}
	if cfg.Server.URL != "wss://kiosk.example.com/ws" {
		t.Fatalf("expected the --url value, got %s", cfg.Server.URL)
	}
}
