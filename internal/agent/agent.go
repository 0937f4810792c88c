// Package agent runs the conversation loop: stream a reply, execute a tool
// when the model asks for one, feed the output back and stream again.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"smallchain/internal/domain"
	"smallchain/internal/history"
	"smallchain/internal/logger"
	"smallchain/internal/stream"
	"smallchain/internal/tools"
)

// Reply is the outcome of one turn.
type Reply struct {
	Text     string
	Metadata *domain.Metadata
	// ToolCall and ToolOutput are set when a tool ran during the turn.
	ToolCall   *domain.ToolInvocation
	ToolOutput string
}

type Agent struct {
	mu       sync.Mutex
	streamer domain.ChatStreamer
	registry *tools.Registry
	store    history.Store
	interp   *stream.Interpreter
	fallback bool
	now      func() time.Time
	conv     history.Conversation
	messages []domain.Message
	sink     stream.Sink
	system   string
}

type Option func(*Agent)

// WithHistory saves the conversation after every turn.
func WithHistory(s history.Store) Option { return func(a *Agent) { a.store = s } }

// WithSink observes streamed tokens.
func WithSink(s stream.Sink) Option { return func(a *Agent) { a.sink = s } }

// WithSystemPrompt sets the first message of the conversation.
func WithSystemPrompt(p string) Option { return func(a *Agent) { a.system = p } }

// WithPlainTextFallback makes a malformed tool payload or an unknown tool
// end the turn with the raw model text instead of an error. Incomplete tool
// calls still fail.
func WithPlainTextFallback(on bool) Option { return func(a *Agent) { a.fallback = on } }

// WithClock overrides time.Now for turn timestamps.
func WithClock(now func() time.Time) Option { return func(a *Agent) { a.now = now } }

func New(streamer domain.ChatStreamer, registry *tools.Registry, opts ...Option) *Agent {
	if registry == nil {
		registry = tools.NewRegistry()
	}
	a := &Agent{
		streamer: streamer,
		registry: registry,
		now:      time.Now,
		conv:     history.Conversation{ID: uuid.NewString()},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.interp = stream.New(stream.WithSink(a.sink))
	if a.system != "" {
		a.messages = append(a.messages, domain.Message{Role: domain.RoleSystem, Content: a.system})
	}
	return a
}

// ID is the conversation id used for history.
func (a *Agent) ID() string { return a.conv.ID }

// Messages returns a copy of the conversation so far.
func (a *Agent) Messages() []domain.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Message(nil), a.messages...)
}

// Turn runs one exchange. Turns are serialized; a failed turn leaves the
// conversation as it was before the call.
func (a *Agent) Turn(ctx context.Context, userText string) (Reply, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	base := len(a.messages)
	reply, err := a.turn(ctx, userText)
	if err != nil {
		logger.Error("turn failed", "conversation", a.conv.ID, "err", err)
		a.messages = a.messages[:base]
		return Reply{}, err
	}
	a.record(reply.Metadata)
	if err := a.save(ctx); err != nil {
		return reply, err
	}
	return reply, nil
}

func (a *Agent) turn(ctx context.Context, userText string) (Reply, error) {
	a.messages = append(a.messages, domain.Message{Role: domain.RoleUser, Content: userText})
	res, err := a.generate(ctx)
	if err != nil {
		if a.fallback && decodeFailure(err) {
			logger.Info("tool payload not decodable, answering as text", "err", err)
			a.messages = append(a.messages, domain.Message{Role: domain.RoleAssistant, Content: res.Text})
			return Reply{Text: res.Text, Metadata: res.Metadata}, nil
		}
		return Reply{}, err
	}
	a.messages = append(a.messages, domain.Message{Role: domain.RoleAssistant, Content: res.Text})
	if !res.IsToolCall {
		return Reply{Text: res.Text, Metadata: res.Metadata}, nil
	}

	inv := res.Invocation
	logger.Info("tool call", "name", inv.Name, "parameters", inv.Parameters)
	out, err := a.registry.Execute(ctx, *inv)
	if err != nil {
		if a.fallback && errors.Is(err, domain.ErrUnknownTool) {
			logger.Info("unknown tool, answering as text", "name", inv.Name)
			return Reply{Text: res.Text, Metadata: res.Metadata}, nil
		}
		logger.Error("tool failed", "name", inv.Name, "err", err)
		return Reply{}, err
	}
	logger.Debug("tool output", "name", inv.Name, "output", out)

	a.messages = append(a.messages, domain.Message{Role: domain.RoleUser, Content: userText + "\n\n" + out})
	final, err := a.generate(ctx)
	if err != nil && !(a.fallback && decodeFailure(err)) {
		return Reply{}, err
	}
	a.messages = append(a.messages, domain.Message{Role: domain.RoleAssistant, Content: final.Text})
	return Reply{Text: final.Text, Metadata: final.Metadata, ToolCall: inv, ToolOutput: out}, nil
}

func (a *Agent) generate(ctx context.Context) (stream.Result, error) {
	logger.Debug("generating response", "conversation", a.conv.ID, "messages", len(a.messages))
	if logger.IsDebugEnabled() {
		logger.Debug("last message", "role", a.messages[len(a.messages)-1].Role, "content", a.messages[len(a.messages)-1].Content)
	}
	start := time.Now()
	fs, err := a.streamer.StreamChat(ctx, append([]domain.Message(nil), a.messages...))
	if err != nil {
		return stream.Result{}, fmt.Errorf("start generation: %w", err)
	}
	res, err := a.interp.Consume(ctx, fs)
	logger.Debug("generation finished", "elapsed", time.Since(start), "tool_call", res.IsToolCall)
	return res, err
}

// decodeFailure reports a tool payload that arrived whole but could not be
// decoded.
func decodeFailure(err error) bool {
	return errors.Is(err, domain.ErrStreamDecode) && !errors.Is(err, domain.ErrIncompleteToolCall)
}

func (a *Agent) record(meta *domain.Metadata) {
	a.conv.Turns = append(a.conv.Turns, history.Turn{
		Messages: append([]domain.Message(nil), a.messages...),
		Metadata: meta,
		At:       a.now(),
	})
}

func (a *Agent) save(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Save(ctx, a.conv); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
