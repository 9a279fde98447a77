// Package tui renders a live conversation session in the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/quarrelhq/quarrel/pkg/chat"
	"github.com/quarrelhq/quarrel/pkg/engine"
)

// sessionEventMsg wraps one engine event for the bubbletea loop.
type sessionEventMsg struct {
	event engine.Event
}

// sessionClosedMsg signals that the engine's event channel drained to closed.
type sessionClosedMsg struct{}

// Model drives the transcript view for one session. All session reads go
// through Snapshot and the event channel; the model never touches the log.
type Model struct {
	session  *engine.Session
	persona  chat.Persona
	mode     chat.Mode
	userRole chat.Role
	logger   *zap.Logger

	turns     []chat.Turn
	state     engine.State
	endReason engine.EndReason

	width  int
	height int
	ready  bool

	transcript viewport.Model
	input      textinput.Model
	spinner    spinner.Model

	theme theme
}

// New creates a Model for the given started session.
func New(session *engine.Session, persona chat.Persona, mode chat.Mode, userRole chat.Role, logger *zap.Logger) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 2000
	input.Placeholder = "your move"
	input.Blur()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd75f"))

	transcript := viewport.New(0, 0)
	transcript.MouseWheelEnabled = true

	return Model{
		session:    session,
		persona:    persona,
		mode:       mode,
		userRole:   userRole,
		logger:     logger,
		state:      session.State(),
		transcript: transcript,
		input:      input,
		spinner:    sp,
		theme:      newTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitEvent(m.session.Events()),
	)
}

// waitEvent blocks on the session's event channel and feeds the result back
// into the bubbletea loop one event at a time.
func waitEvent(ch <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionEventMsg{event: event}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case sessionEventMsg:
		m.applyEvent(msg.event)
		m.turns = m.session.Snapshot()
		m.renderTranscript()
		cmds = append(cmds, waitEvent(m.session.Events()))

	case sessionClosedMsg:
		// Loop is gone; nothing more will arrive.

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderTranscript()
		m.ready = true

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.session.Teardown()
			return m, tea.Quit
		case "q", "esc":
			if !m.input.Focused() {
				m.session.Teardown()
				return m, tea.Quit
			}
		case "enter":
			if m.input.Focused() {
				text := m.input.Value()
				if err := m.session.SubmitHumanTurn(text); err != nil {
					m.logger.Debug("human turn rejected", zap.Error(err))
					break
				}
				m.input.Reset()
				m.input.Blur()
			}
		}
		if m.input.Focused() {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		} else {
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// applyEvent folds one engine event into the view state.
func (m *Model) applyEvent(event engine.Event) {
	switch e := event.(type) {
	case engine.StateChanged:
		m.state = e.State
		if e.State == engine.StateAwaitingHuman {
			m.input.Focus()
		} else {
			m.input.Blur()
		}
	case engine.ConversationEnded:
		m.endReason = e.Reason
		m.input.Blur()
	}
}

func (m *Model) resize() {
	inputHeight := 0
	if m.mode == chat.ModeHalf {
		inputHeight = 3
	}
	// Header, status line, and the input panel share the frame with the
	// transcript.
	h := m.height - 4 - inputHeight
	if h < 3 {
		h = 3
	}
	m.transcript.Width = m.width
	m.transcript.Height = h
	m.input.Width = m.width - 6
}

func (m *Model) renderTranscript() {
	wasAtBottom := m.transcript.AtBottom()
	m.transcript.SetContent(renderTurns(m.turns, m.mode, m.userRole, m.theme, m.width))
	if wasAtBottom {
		m.transcript.GotoBottom()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder

	title := fmt.Sprintf("%s  vs  %s", m.persona.A, m.persona.B)
	b.WriteString(m.theme.header.Render(title))
	b.WriteString("\n")
	b.WriteString(m.transcript.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())

	if m.mode == chat.ModeHalf && m.state != engine.StateEnded {
		b.WriteString("\n")
		b.WriteString(m.theme.inputPanel.Render(m.input.View()))
	}

	return b.String()
}

func (m Model) statusLine() string {
	switch m.state {
	case engine.StateGenerating:
		return m.spinner.View() + m.theme.status.Render(" generating...")
	case engine.StateAwaitingHuman:
		return m.theme.status.Render(fmt.Sprintf("your turn as %s · enter to send", m.userRole))
	case engine.StateEnded:
		banner := endBanner(m.endReason, len(m.turns))
		style := m.theme.banner
		if m.endReason == engine.EndError {
			style = m.theme.crashBanner
		}
		return style.Render(banner) + "\n" + m.theme.help.Render("q to quit")
	default:
		return m.theme.status.Render("starting...")
	}
}

// endBanner names how the conversation ended.
func endBanner(reason engine.EndReason, turnCount int) string {
	if reason == engine.EndError {
		return "conversation crashed"
	}
	return fmt.Sprintf("quarrel over · %d turns, nobody backed down", turnCount)
}

// renderTurns formats the transcript, one tagged block per turn.
func renderTurns(turns []chat.Turn, mode chat.Mode, userRole chat.Role, th theme, width int) string {
	if len(turns) == 0 {
		return "..."
	}

	if width < 20 {
		width = 20
	}
	body := lipgloss.NewStyle().Width(width - 2)

	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(turnTag(turn.Role, mode, userRole, th))
		b.WriteString("\n")
		if turn.IsError {
			b.WriteString(body.Inherit(th.errorText).Render(turn.Content))
		} else if turn.Content == "" {
			b.WriteString("...")
		} else {
			b.WriteString(body.Render(turn.Content))
		}
	}
	return b.String()
}

// turnTag renders the speaker label, marking the human's own role in HALF mode.
func turnTag(role chat.Role, mode chat.Mode, userRole chat.Role, th theme) string {
	label := strings.ToUpper(string(role))
	if mode == chat.ModeHalf && role == userRole {
		return th.humanTag.Render(label + " (you)")
	}
	if role == chat.RoleJudge {
		return th.judgeTag.Render(label)
	}
	return th.partnerTag.Render(label)
}
