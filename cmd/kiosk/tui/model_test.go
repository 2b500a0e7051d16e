package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/koscakluka/ema-kiosk/core/events"
	"github.com/koscakluka/ema-kiosk/core/flow"
	"github.com/koscakluka/ema-kiosk/core/protocol"
)

type fakeKiosk struct {
	state flow.State
	calls []string
	left  bool
}

func (k *fakeKiosk) record(action string, args ...any) error {
	parts := []string{action}
	for _, a := range args {
		if id, ok := a.(*int64); ok {
			if id == nil {
				parts = append(parts, "nil")
				continue
			}
			a = *id
		}
		parts = append(parts, fmt.Sprint(a))
	}
	k.calls = append(k.calls, strings.Join(parts, " "))
	return nil
}

func (k *fakeKiosk) State() flow.State                 { return k.state }
func (k *fakeKiosk) SessionID() string                 { return "" }
func (k *fakeKiosk) Converse(text string) error        { return k.record("converse", text) }
func (k *fakeKiosk) StartOrder(menu string) error      { return k.record("order", menu) }
func (k *fakeKiosk) SelectChoice(choice string) error  { return k.record("choice", choice) }
func (k *fakeKiosk) ChooseOption(id *int64) error      { return k.record("option", id) }
func (k *fakeKiosk) GetCart() error                    { return k.record("cart") }
func (k *fakeKiosk) DeleteCartItem(id int64) error     { return k.record("delete", id) }
func (k *fakeKiosk) ConfirmOrder() error               { return k.record("confirm") }
func (k *fakeKiosk) RecentOrders() error               { return k.record("recent") }
func (k *fakeKiosk) RecentOrderDetail(id int64) error  { return k.record("detail", id) }
func (k *fakeKiosk) LoginWithQR(code string) error     { return k.record("qr", code) }
func (k *fakeKiosk) LoginWithPhone(phone string) error { return k.record("phone", phone) }
func (k *fakeKiosk) EndSession() error                 { return k.record("end") }
func (k *fakeKiosk) Restart(context.Context) error     { return k.record("restart") }
func (k *fakeKiosk) Leave()                            { k.left = true }

func (k *fakeKiosk) RecentOrderToCart(id int64, detail *int64) error {
	return k.record("reorder", id, detail)
}

func (k *fakeKiosk) StartCapture(context.Context) (string, error) {
	return "", k.record("capture")
}

func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(key)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			next, _ = next.Update(msg)
		}
	}
	return next.(Model)
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestDigitAnswersPendingQuestion(t *testing.T) {
	k := &fakeKiosk{state: flow.State{
		Step:     flow.StepAwaitingTemperature,
		Question: &flow.Question{Text: "ICE or HOT?", Choices: []string{"ICE", "HOT"}},
	}}
	m := NewModel(context.Background(), k, false)

	press(t, m, runes("2"))
	if len(k.calls) != 1 || k.calls[0] != "choice HOT" {
		t.Fatalf("expected choice HOT, got %v", k.calls)
	}
}

func TestDigitPicksOptionAndSkip(t *testing.T) {
	k := &fakeKiosk{state: flow.State{
		Step: flow.StepPresentingOptionGroup,
		Draft: flow.Draft{
			MenuName: "Latte",
			OptionGroups: []protocol.OptionGroup{
				{GroupName: "Shot", MaxSelect: 1, Options: []protocol.Option{{ID: 7, Name: "Extra"}}},
			},
		},
	}}
	m := NewModel(context.Background(), k, false)

	m = press(t, m, runes("1"))
	m = press(t, m, runes("s"))
	if len(k.calls) != 2 || k.calls[0] != "option 7" || k.calls[1] != "option nil" {
		t.Fatalf("expected option 7 then skip, got %v", k.calls)
	}
	if !strings.Contains(m.View(), "Shot") {
		t.Fatalf("expected the current group to be rendered")
	}
}

func TestEnterSendsTextOrCommand(t *testing.T) {
	k := &fakeKiosk{state: flow.Initial()}
	m := NewModel(context.Background(), k, false)

	m.input.SetValue("one iced latte")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.input.SetValue("/order Americano")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.input.SetValue("/phone 010-1234-5678")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.input.SetValue("/del abc")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	want := []string{"converse one iced latte", "order Americano", "phone 010-1234-5678"}
	if len(k.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, k.calls)
	}
	for i := range want {
		if k.calls[i] != want[i] {
			t.Fatalf("expected %q, got %q", want[i], k.calls[i])
		}
	}
	if !strings.Contains(m.status, "numeric id") {
		t.Fatalf("expected a status about the id, got %q", m.status)
	}
}

func TestShortcutsOnlyWithEmptyInput(t *testing.T) {
	k := &fakeKiosk{state: flow.Initial()}
	m := NewModel(context.Background(), k, true)

	m = press(t, m, runes("c"))
	m = press(t, m, runes("m"))
	if len(k.calls) != 2 || k.calls[0] != "cart" || k.calls[1] != "capture" {
		t.Fatalf("expected cart and capture, got %v", k.calls)
	}

	m.input.SetValue("ic")
	m = press(t, m, runes("e"))
	if len(k.calls) != 2 {
		t.Fatalf("expected typing to not trigger shortcuts, got %v", k.calls)
	}
	if m.input.Value() != "ice" {
		t.Fatalf("expected input to receive the key, got %q", m.input.Value())
	}
}

func TestQuitLeavesOffTheProgramLoop(t *testing.T) {
	k := &fakeKiosk{state: flow.Initial()}
	m := NewModel(context.Background(), k, false)

	next, cmd := m.Update(runes("q"))
	if k.left {
		t.Fatalf("expected Leave to wait for the command, not run inside Update")
	}
	msg := cmd()
	if !k.left {
		t.Fatalf("expected Leave on quit")
	}
	if _, cmd = next.Update(msg); cmd == nil {
		t.Fatalf("expected a quit command after leaving")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected a quit command")
	}
}

func TestDiscardedMessagesAreLogged(t *testing.T) {
	k := &fakeKiosk{state: flow.Initial()}
	m := NewModel(context.Background(), k, false)

	next, _ := m.Update(EventMsg{Event: events.NewMessageDiscarded(2, "unrecognized message")})
	m = next.(Model)
	if len(m.log) != 1 || !strings.Contains(m.log[0], "unrecognized message") {
		t.Fatalf("expected the discard in the log, got %v", m.log)
	}
}

func TestEventsUpdateView(t *testing.T) {
	k := &fakeKiosk{state: flow.Initial()}
	m := NewModel(context.Background(), k, false)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m = next.(Model)

	current := flow.State{
		Step:     flow.StepConversing,
		Replies:  1,
		Exchange: &flow.Exchange{Seq: 1, Reply: "How about a latte?"},
	}
	next, _ = m.Update(EventMsg{Event: events.NewStateChanged(flow.Initial(), current)})
	m = next.(Model)
	next, _ = m.Update(EventMsg{Event: events.NewSessionAssigned("s1")})
	m = next.(Model)

	view := m.View()
	if !strings.Contains(view, "How about a latte?") || !strings.Contains(view, "session s1") {
		t.Fatalf("expected reply and session in view, got:\n%s", view)
	}
	if len(m.log) != 1 {
		t.Fatalf("expected the reply to be logged once, got %v", m.log)
	}
}

func TestOlderStateSnapshotIsIgnored(t *testing.T) {
	k := &fakeKiosk{state: flow.Initial()}
	m := NewModel(context.Background(), k, false)

	older := events.NewStateChanged(flow.Initial(), flow.State{Step: flow.StepViewingCart})
	newer := events.NewStateChanged(flow.Initial(), flow.State{Step: flow.StepOrderConfirmed})

	next, _ := m.Update(EventMsg{Event: newer})
	next, _ = next.Update(EventMsg{Event: older})
	if step := next.(Model).state.Step; step != flow.StepOrderConfirmed {
		t.Fatalf("expected the newer snapshot to win, got %s", step)
	}
}
