package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/koscakluka/ema-kiosk/core/events"
	"github.com/koscakluka/ema-kiosk/core/flow"
)

const maxLogLines = 200

// EventMsg wraps a client event for the program loop.
type EventMsg struct{ Event events.Event }

// leftMsg reports that the kiosk released its session and devices.
type leftMsg struct{}

type actionDoneMsg struct {
	action string
	err    error
}

type Model struct {
	kiosk Kiosk
	ctx   context.Context

	state     flow.State
	stateSeq  uint64
	sessionID string
	connected bool
	capturing bool
	speaking  bool
	status    string

	log      []string
	input    textinput.Model
	viewport viewport.Model
	width    int
	height   int
	ready    bool
	voice    bool
}

func NewModel(ctx context.Context, k Kiosk, voiceEnabled bool) Model {
	input := textinput.New()
	input.Placeholder = "Say something, or /order <menu>"
	input.Prompt = "> "
	input.CharLimit = 200
	input.Focus()

	return Model{
		kiosk: k,
		ctx:   ctx,
		state: k.State(),
		input: input,
		voice: voiceEnabled,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		logHeight := max(m.height/3, 3)
		if !m.ready {
			m.viewport = viewport.New(m.width, logHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = logHeight
		}
		m.input.Width = max(m.width-4, 10)
		m.refreshLog()
		return m, nil

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil

	case leftMsg:
		return m, tea.Quit

	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleEvent(event events.Event) {
	switch e := event.(type) {
	case events.StateChanged:
		if e.Seq() < m.stateSeq {
			return
		}
		m.stateSeq = e.Seq()
		m.state = e.Current
		if e.Current.Exchange != nil && (e.Previous.Exchange == nil || e.Previous.Exchange.Seq != e.Current.Exchange.Seq) {
			m.appendLog("kiosk: " + e.Current.Exchange.Reply)
		}
		if e.Current.Step == flow.StepItemAdded && e.Current.ItemMessage != "" {
			m.appendLog("kiosk: " + e.Current.ItemMessage)
		}
	case events.SessionAssigned:
		m.sessionID = e.SessionID
	case events.ConnectionOpened:
		m.connected = true
		m.sessionID = ""
	case events.ConnectionLost:
		m.connected = false
		m.status = "connection lost, reconnecting"
	case events.SystemMessage:
		m.appendLog("kiosk: " + e.Text)
	case events.UserTranscript:
		m.appendLog("you (voice): " + e.Text)
	case events.MessageDiscarded:
		m.appendLog("discarded: " + e.Reason)
	case events.RequestDropped:
		m.status = fmt.Sprintf("not connected, %s was not sent", e.Type)
	case events.CaptureStarted:
		m.capturing = true
	case events.CaptureEnded:
		m.capturing = false
	case events.SpeechStarted:
		m.speaking = true
	case events.SpeechEnded:
		m.speaking = false
	}
}

func (m *Model) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
	m.refreshLog()
}

func (m *Model) refreshLog() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderLog(m.log, m.width))
	m.viewport.GotoBottom()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, m.quit()
	case tea.KeyEnter:
		line := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if line == "" {
			return m, nil
		}
		cmd := m.submit(line)
		return m, cmd
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// single keys are commands only while nothing is being typed
	if m.input.Value() == "" && msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		if cmd, ok := m.shortcut(msg.Runes[0]); ok {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) shortcut(key rune) (tea.Cmd, bool) {
	switch {
	case key >= '1' && key <= '9':
		cmd := m.pick(int(key - '1'))
		return cmd, cmd != nil
	case key == 's':
		if m.state.CurrentGroup() == nil {
			return nil, false
		}
		return m.act("skip", func() error { return m.kiosk.ChooseOption(nil) }), true
	case key == 'm':
		if !m.voice {
			return nil, false
		}
		return m.capture(), true
	case key == 'c':
		return m.act("cart", m.kiosk.GetCart), true
	case key == 'o':
		return m.act("confirm", m.kiosk.ConfirmOrder), true
	case key == 'r':
		return m.act("recent orders", m.kiosk.RecentOrders), true
	case key == 'x':
		return m.act("end session", m.kiosk.EndSession), true
	case key == 'n':
		return m.act("new session", func() error { return m.kiosk.Restart(m.ctx) }), true
	case key == 'q':
		return m.quit(), true
	}
	return nil, false
}

// pick selects the index-th choice or option of whatever is on screen.
func (m Model) pick(index int) tea.Cmd {
	if group := m.state.CurrentGroup(); group != nil {
		if index >= len(group.Options) {
			return nil
		}
		id := group.Options[index].ID
		return m.act("option", func() error { return m.kiosk.ChooseOption(&id) })
	}
	if q := m.state.Question; q != nil && index < len(q.Choices) {
		choice := q.Choices[index]
		return m.act("choice", func() error { return m.kiosk.SelectChoice(choice) })
	}
	if m.state.Exchange != nil && index < len(m.state.Exchange.Items) {
		name := m.state.Exchange.Items[index].Name
		return m.act("order", func() error { return m.kiosk.StartOrder(name) })
	}
	return nil
}

func (m *Model) submit(line string) tea.Cmd {
	if !strings.HasPrefix(line, "/") {
		m.appendLog("you: " + line)
		return m.act("converse", func() error { return m.kiosk.Converse(line) })
	}

	command, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case "order":
		return m.act("order", func() error { return m.kiosk.StartOrder(arg) })
	case "phone":
		return m.act("phone login", func() error { return m.kiosk.LoginWithPhone(arg) })
	case "qr":
		return m.act("qr login", func() error { return m.kiosk.LoginWithQR(arg) })
	case "del":
		return m.withID("delete", arg, m.kiosk.DeleteCartItem)
	case "recent":
		return m.withID("recent order", arg, m.kiosk.RecentOrderDetail)
	case "reorder":
		return m.withID("reorder", arg, func(id int64) error { return m.kiosk.RecentOrderToCart(id, nil) })
	}
	m.status = fmt.Sprintf("unknown command /%s", command)
	return nil
}

func (m *Model) withID(action, arg string, fn func(int64) error) tea.Cmd {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		m.status = fmt.Sprintf("%s needs a numeric id", action)
		return nil
	}
	return m.act(action, func() error { return fn(id) })
}

func (m Model) act(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn()}
	}
}

func (m Model) capture() tea.Cmd {
	return func() tea.Msg {
		_, err := m.kiosk.StartCapture(m.ctx)
		return actionDoneMsg{action: "voice", err: err}
	}
}

// quit leaves off the program loop: stopping playback waits for the
// speech events it emits, and those are delivered through the loop.
func (m Model) quit() tea.Cmd {
	return func() tea.Msg {
		m.kiosk.Leave()
		return leftMsg{}
	}
}
