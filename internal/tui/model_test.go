package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"smallchain/internal/agent"
	"smallchain/internal/domain"
)

type portFunc func(ctx context.Context, text string) (agent.Reply, error)

func (f portFunc) Turn(ctx context.Context, text string) (agent.Reply, error) { return f(ctx, text) }

func sized(t *testing.T, port ChatPort) *Model {
	t.Helper()
	m := New(port, "a summary")
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func typeText(m *Model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestModel_View_BeforeSize(t *testing.T) {
	if got := New(nil, "").View(); got != "Loading..." {
		t.Errorf("View() = %q", got)
	}
}

func TestModel_EnterStartsTurn(t *testing.T) {
	var asked string
	m := sized(t, portFunc(func(_ context.Context, text string) (agent.Reply, error) {
		asked = text
		return agent.Reply{Text: "sunny"}, nil
	}))
	typeText(m, "weather in Ankara?")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !m.busy {
		t.Fatal("expected a running turn")
	}
	if m.input.Value() != "" {
		t.Errorf("expected input cleared, got %q", m.input.Value())
	}
	msg := m.send("weather in Ankara?")()
	if asked != "weather in Ankara?" {
		t.Errorf("port received %q", asked)
	}
	m.Update(msg)
	if m.busy {
		t.Error("expected turn to finish")
	}
	view := m.renderTranscript()
	if !strings.Contains(view, "weather in Ankara?") || !strings.Contains(view, "sunny") {
		t.Errorf("transcript missing entries:\n%s", view)
	}
}

func TestModel_EnterIgnoredWhileBusy(t *testing.T) {
	m := sized(t, portFunc(func(context.Context, string) (agent.Reply, error) { return agent.Reply{}, nil }))
	m.busy = true
	typeText(m, "again")
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("expected no command while a turn runs")
	}
	if len(m.transcript) != 0 {
		t.Errorf("expected no new entries, got %v", m.transcript)
	}
}

func TestModel_StreamingTokensAndThinking(t *testing.T) {
	m := sized(t, nil)
	m.busy = true
	m.Update(TokenMsg("Let me "))
	m.Update(TokenMsg("check"))
	if got := m.renderTranscript(); !strings.Contains(got, "Let me check") {
		t.Errorf("expected streamed text, got:\n%s", got)
	}
	m.Update(ThinkingMsg{})
	got := m.renderTranscript()
	if !strings.Contains(got, "Thinking ...") || strings.Contains(got, "Let me check") {
		t.Errorf("expected thinking indicator only, got:\n%s", got)
	}
	m.Update(TokenMsg("It is 21°C."))
	if got := m.renderTranscript(); !strings.Contains(got, "It is 21°C.") || strings.Contains(got, "Thinking") {
		t.Errorf("expected answer tokens after tool, got:\n%s", got)
	}
}

func TestModel_EmptyTranscript(t *testing.T) {
	m := sized(t, nil)
	if got := m.renderTranscript(); got != "No messages yet." {
		t.Errorf("idle empty transcript = %q", got)
	}
	m.busy = true
	m.Update(TokenMsg("Hi"))
	if got := m.renderTranscript(); !strings.Contains(got, "assistant:") || !strings.Contains(got, "Hi") {
		t.Errorf("busy empty transcript must show the stream, got:\n%s", got)
	}
}

func TestModel_ReplyWithToolCallUpdatesStatus(t *testing.T) {
	m := sized(t, nil)
	m.busy = true
	m.Update(replyMsg{reply: agent.Reply{Text: "done", ToolCall: &domain.ToolInvocation{Name: "get_weather_data"}}})
	if !strings.Contains(m.status, "get_weather_data") {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_ErrorShownInStatus(t *testing.T) {
	m := sized(t, portFunc(func(context.Context, string) (agent.Reply, error) {
		return agent.Reply{}, errors.New("backend down")
	}))
	m.busy = true
	m.Update(m.send("q")())
	if m.busy || !strings.Contains(m.status, "backend down") {
		t.Errorf("unexpected state busy=%v status=%q", m.busy, m.status)
	}
}

func TestModel_EscCancelsTurn(t *testing.T) {
	m := sized(t, portFunc(func(ctx context.Context, _ string) (agent.Reply, error) {
		<-ctx.Done()
		return agent.Reply{}, ctx.Err()
	}))
	m.busy = true
	cmd := m.send("slow")
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	msg := cmd()
	if e, ok := msg.(errMsg); !ok || !errors.Is(e.err, context.Canceled) {
		t.Errorf("expected cancellation error, got %#v", msg)
	}
}

func TestProgramSink_DropsBeforeAttach(t *testing.T) {
	var s ProgramSink
	s.Token("x")
	s.Thinking()
	s.Info(domain.Frame{})
}
