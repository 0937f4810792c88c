package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"smallchain/internal/agent"
)

// ChatPort is the TUI-facing subset of the agent.
type ChatPort interface {
	Turn(ctx context.Context, userText string) (agent.Reply, error)
}

type entry struct {
	role string
	text string
}

type replyMsg struct{ reply agent.Reply }

type errMsg struct{ err error }

// Model is the Bubble Tea model for the chat application.
type Model struct {
	port       ChatPort
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	transcript []entry
	streaming  strings.Builder
	summary    string
	status     string
	busy       bool
	thinking   bool
	ready      bool
	cancel     context.CancelFunc
}

// New creates a new TUI model instance. summary is shown under the header.
func New(port ChatPort, summary string) *Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask something and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Model{
		port:     port,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		summary:  summary,
		status:   "Loaded. Esc cancels a running answer, Ctrl+C quits.",
	}
}

// Init initializes the model (text input cursor blink).
func (m *Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and stream events.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case tea.KeyEsc:
			if m.busy && m.cancel != nil {
				m.cancel()
				m.status = "Cancelling..."
			}
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.input.Reset()
			m.transcript = append(m.transcript, entry{role: "you", text: q})
			m.streaming.Reset()
			m.busy = true
			m.status = "Generating..."
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, m.send(q))
		}
	case TokenMsg:
		m.thinking = false
		m.streaming.WriteString(string(msg))
		m.refresh()
		return m, nil
	case ThinkingMsg:
		// Text before the tool region is a preamble of the call, not the answer.
		m.thinking = true
		m.streaming.Reset()
		m.refresh()
		return m, nil
	case InfoMsg:
		m.status = string(msg)
		return m, nil
	case replyMsg:
		m.finish()
		m.transcript = append(m.transcript, entry{role: "assistant", text: msg.reply.Text})
		m.status = "Done."
		if msg.reply.ToolCall != nil {
			m.status = fmt.Sprintf("Done. Used tool %s.", msg.reply.ToolCall.Name)
		}
		m.refresh()
		return m, nil
	case errMsg:
		m.finish()
		m.status = "Error: " + msg.err.Error()
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send runs one agent turn off the event loop. Tokens arrive separately
// through the program sink while it runs.
func (m *Model) send(q string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	port := m.port
	return func() tea.Msg {
		defer cancel()
		reply, err := port.Turn(ctx, q)
		if err != nil {
			return errMsg{err: err}
		}
		return replyMsg{reply: reply}
	}
}

func (m *Model) finish() {
	m.busy = false
	m.thinking = false
	m.cancel = nil
	m.streaming.Reset()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the TUI layout.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("smallchain")
	summary := summaryStyle.Render(m.summary)
	body := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + summary + "\n" + body + "\n" + input + "\n" + status
}

func (m *Model) renderTranscript() string {
	if len(m.transcript) == 0 && !m.busy {
		return "No messages yet."
	}
	var b strings.Builder
	for i, e := range m.transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(roleStyle(e.role).Render(e.role + ":"))
		b.WriteString(" ")
		b.WriteString(e.text)
	}
	if m.busy {
		b.WriteString("\n\n")
		b.WriteString(roleStyle("assistant").Render("assistant:"))
		b.WriteString(" ")
		if m.thinking {
			b.WriteString(thinkingStyle.Render("Thinking ..."))
		} else {
			b.WriteString(m.streaming.String())
		}
	}
	return b.String()
}

func roleStyle(role string) lipgloss.Style {
	if role == "you" {
		return userStyle
	}
	return assistantStyle
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	summaryStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	thinkingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)
