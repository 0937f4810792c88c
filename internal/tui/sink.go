package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"smallchain/internal/domain"
)

// TokenMsg carries one streamed PLAIN token.
type TokenMsg string

// ThinkingMsg marks the start of a tool call.
type ThinkingMsg struct{}

// InfoMsg carries a provider notice, such as a content-filter report.
type InfoMsg string

// ProgramSink forwards interpreter events to a running tea.Program. Events
// before Attach are dropped.
type ProgramSink struct {
	mu sync.RWMutex
	p  *tea.Program
}

func (s *ProgramSink) Attach(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *ProgramSink) send(msg tea.Msg) {
	s.mu.RLock()
	p := s.p
	s.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

func (s *ProgramSink) Token(text string) { s.send(TokenMsg(text)) }

func (s *ProgramSink) Thinking() { s.send(ThinkingMsg{}) }

func (s *ProgramSink) Info(frame domain.Frame) {
	s.send(InfoMsg("provider notice received"))
}
