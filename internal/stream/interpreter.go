// Package stream interprets incremental generation output. Tokens are echoed
// while the model talks; once the tool open marker shows up the rest of the
// feed is buffered and decoded into a tool invocation at end of stream.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"smallchain/internal/domain"
)

const (
	DefaultOpenMarker  = "<tool>"
	DefaultCloseMarker = "</tool>"
)

// Mode is the interpreter state.
type Mode int

const (
	ModePlain Mode = iota
	ModeTool
	ModeDone
)

func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "PLAIN"
	case ModeTool:
		return "TOOL"
	case ModeDone:
		return "DONE"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Sink observes a stream while it is consumed. Calls happen on the
// consuming goroutine, in arrival order.
type Sink interface {
	// Token receives each PLAIN token.
	Token(text string)
	// Thinking is called once, when the tool region starts.
	Thinking()
	// Info receives frames carrying neither content nor metadata.
	Info(frame domain.Frame)
}

type nopSink struct{}

func (nopSink) Token(string)      {}
func (nopSink) Thinking()         {}
func (nopSink) Info(domain.Frame) {}

// Result is the outcome of consuming one stream.
type Result struct {
	// Text is every content token in arrival order.
	Text string
	// Echoed is the part of Text handed to Sink.Token.
	Echoed     string
	Metadata   *domain.Metadata
	IsToolCall bool
	Invocation *domain.ToolInvocation
}

// Interpreter holds the marker configuration. It keeps no per-stream state,
// so one Interpreter may consume many streams, also concurrently.
type Interpreter struct {
	open  string
	close string
	sink  Sink
}

type Option func(*Interpreter)

func WithOpenMarker(m string) Option  { return func(i *Interpreter) { i.open = m } }
func WithCloseMarker(m string) Option { return func(i *Interpreter) { i.close = m } }

// WithSink sets the observer; nil keeps the silent default.
func WithSink(s Sink) Option {
	return func(i *Interpreter) {
		if s != nil {
			i.sink = s
		}
	}
}

func New(opts ...Option) *Interpreter {
	i := &Interpreter{open: DefaultOpenMarker, close: DefaultCloseMarker, sink: nopSink{}}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// state is the per-stream mutable part of the machine.
type state struct {
	buf    strings.Builder
	echoed strings.Builder
	mode   Mode
	meta   *domain.Metadata
}

// Consume reads fs to completion and closes it. A stream that is cancelled,
// times out or fails inside the tool region, or reaches io.EOF there without
// the close marker or a metadata frame, yields domain.ErrIncompleteToolCall
// instead of a partial decode.
func (i *Interpreter) Consume(ctx context.Context, fs domain.FrameStream) (Result, error) {
	defer fs.Close()
	st := &state{mode: ModePlain}
	for st.mode != ModeDone {
		if err := ctx.Err(); err != nil {
			return Result{}, i.abort(st, err)
		}
		frame, err := fs.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, i.abort(st, err)
		}
		i.step(st, frame)
	}
	st.mode = ModeDone
	return i.finish(st)
}

func (i *Interpreter) step(st *state, frame domain.Frame) {
	if frame.Content != "" {
		i.token(st, frame.Content)
	}
	switch {
	case frame.IsTerminal():
		st.meta = frame.Meta
		st.mode = ModeDone
	case frame.Content == "":
		i.sink.Info(frame)
	}
}

func (i *Interpreter) token(st *state, tok string) {
	prev := st.buf.Len()
	st.buf.WriteString(tok)
	if st.mode != ModePlain {
		return
	}
	if i.opened(st.buf.String(), prev) {
		st.mode = ModeTool
		i.sink.Thinking()
		return
	}
	st.echoed.WriteString(tok)
	i.sink.Token(tok)
}

// opened reports whether the open marker occurs in text. Only the region a
// new token can complete is scanned, which is equivalent to scanning the
// whole buffer because the buffer had no marker before.
func (i *Interpreter) opened(text string, prev int) bool {
	from := max(prev-len(i.open)+1, 0)
	return strings.Contains(text[from:], i.open)
}

func (i *Interpreter) abort(st *state, cause error) error {
	if st.mode == ModeTool {
		return fmt.Errorf("%w: %w", domain.ErrIncompleteToolCall, cause)
	}
	return cause
}

func (i *Interpreter) finish(st *state) (Result, error) {
	res := Result{Text: st.buf.String(), Echoed: st.echoed.String(), Metadata: st.meta}
	if !strings.Contains(res.Text, i.open) {
		return res, nil
	}
	res.IsToolCall = true
	region := res.Text[strings.Index(res.Text, i.open)+len(i.open):]
	// After a metadata frame the generation is complete, so an unclosed
	// region is decoded as it stands.
	if !strings.Contains(region, i.close) && st.meta == nil {
		return res, domain.ErrIncompleteToolCall
	}
	inv, err := DecodeInvocation(res.Text, i.open, i.close)
	if err != nil {
		return res, err
	}
	res.Invocation = &inv
	return res, nil
}
