// Package tui provides the Bubble Tea frontend for hublink. It is a thin
// consumer of the hubclient core: it renders connection state and the event
// feed, and forwards typed commands as requests.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codefionn/hublink/internal/eventlog"
	"github.com/codefionn/hublink/internal/hubclient"
	"github.com/codefionn/hublink/internal/protocol"
)

// eventMsg wraps one envelope drained from the client's event channel.
type eventMsg struct {
	env protocol.Envelope
}

// resultMsg carries the outcome of a command dispatched to the hub.
type resultMsg struct {
	line string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	client *hubclient.Client
	log    *eventlog.Ring

	viewport viewport.Model
	input    textinput.Model
	status   string
	width    int
	height   int
	ready    bool
}

// New creates the root model for the given client.
func New(client *hubclient.Client) Model {
	input := textinput.New()
	input.Placeholder = "status | files | play <file> | broadcast <msg> | broadcast-play <file> | command <cmd>"
	input.Prompt = "> "
	input.Focus()

	return Model{
		client: client,
		log:    eventlog.New(0),
		input:  input,
		status: "connecting...",
	}
}

// Init starts the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), textinput.Blink)
}

// waitForEvent blocks on the client's event channel and feeds the next
// envelope back into the update loop.
func (m Model) waitForEvent() tea.Cmd {
	events := m.client.Events()
	return func() tea.Msg {
		env, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return eventMsg{env: env}
	}
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line == "" {
				return m, nil
			}
			m.log.Appendf("> %s", line)
			m.refreshLog()
			return m, m.dispatch(line)
		}

	case eventMsg:
		m.applyEvent(msg.env)
		m.refreshLog()
		return m, m.waitForEvent()

	case resultMsg:
		m.log.Append(msg.line)
		m.refreshLog()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// dispatch runs one typed command against the hub off the update loop.
func (m Model) dispatch(line string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return resultMsg{line: RunCommand(client, line)}
	}
}

func (m *Model) applyEvent(env protocol.Envelope) {
	m.log.Append(FormatEvent(env))
	switch env.Event {
	case protocol.EventDisconnect:
		m.status = "disconnected"
	case "hello", "status":
		m.status = "connected"
	default:
		if m.client.IsConnected() {
			m.status = "connected"
		}
	}
}

func (m *Model) refreshLog() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.log.String())
	m.viewport.GotoBottom()
}

// View renders the application.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	header := headerStyle.Render(fmt.Sprintf("hublink — %s", m.status))
	return header + "\n\n" + m.viewport.View() + "\n\n" + inputStyle.Render(m.input.View())
}
