package agent

import (
	"context"
	"fmt"

	"smallchain/internal/domain"
	"smallchain/internal/stream"
)

// Generator is the final pipeline stage of a chain: it sends the rendered
// prompt as a single user message and returns the streamed text.
type Generator struct {
	streamer domain.ChatStreamer
	interp   *stream.Interpreter
	system   string
}

func NewGenerator(streamer domain.ChatStreamer, system string, sink stream.Sink) *Generator {
	return &Generator{streamer: streamer, interp: stream.New(stream.WithSink(sink)), system: system}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (stream.Result, error) {
	var msgs []domain.Message
	if g.system != "" {
		msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: g.system})
	}
	msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: prompt})
	fs, err := g.streamer.StreamChat(ctx, msgs)
	if err != nil {
		return stream.Result{}, fmt.Errorf("start generation: %w", err)
	}
	return g.interp.Consume(ctx, fs)
}

func (g *Generator) Invoke(ctx context.Context, input any) (any, error) {
	prompt, ok := input.(string)
	if !ok {
		return nil, &domain.StageError{Stage: "generator", Err: fmt.Errorf("expected prompt string, got %T", input)}
	}
	res, err := g.Generate(ctx, prompt)
	if err != nil {
		return nil, &domain.StageError{Stage: "generator", Err: err}
	}
	return res.Text, nil
}
