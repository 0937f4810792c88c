package stream

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"smallchain/internal/domain"
)

// sliceStream replays frames, then returns err (io.EOF when nil).
type sliceStream struct {
	frames []domain.Frame
	err    error
	closed bool
	onRecv func(n int)
	n      int
}

func (s *sliceStream) Recv() (domain.Frame, error) {
	if s.onRecv != nil {
		s.onRecv(s.n)
	}
	if s.n >= len(s.frames) {
		if s.err != nil {
			return domain.Frame{}, s.err
		}
		return domain.Frame{}, io.EOF
	}
	f := s.frames[s.n]
	s.n++
	return f, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

func tokens(ts ...string) []domain.Frame {
	out := make([]domain.Frame, len(ts))
	for i, t := range ts {
		out[i] = domain.Frame{Content: t}
	}
	return out
}

var testMeta = &domain.Metadata{ID: "chatcmpl-1", Created: 1700000000, Model: "gpt-4o"}

type recorder struct {
	tokens   []string
	thinking int
	infos    int
}

func (r *recorder) Token(s string)    { r.tokens = append(r.tokens, s) }
func (r *recorder) Thinking()         { r.thinking++ }
func (r *recorder) Info(domain.Frame) { r.infos++ }

func TestInterpreter_PlainText(t *testing.T) {
	rec := &recorder{}
	fs := &sliceStream{frames: append(tokens("Hello", " world"), domain.Frame{Meta: testMeta})}
	res, err := New(WithSink(rec)).Consume(context.Background(), fs)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if res.Text != "Hello world" || res.IsToolCall || res.Metadata != testMeta {
		t.Errorf("unexpected result %+v", res)
	}
	if !reflect.DeepEqual(rec.tokens, []string{"Hello", " world"}) {
		t.Errorf("echoed %q", rec.tokens)
	}
	if res.Echoed != "Hello world" {
		t.Errorf("Echoed = %q", res.Echoed)
	}
	if !fs.closed {
		t.Error("stream not closed")
	}
}

func TestInterpreter_ToolCall(t *testing.T) {
	rec := &recorder{}
	fs := &sliceStream{frames: append(
		tokens(`<tool>`, `{"name":"get_weather_data",`, `"parameters":{"location":"Ankara"}}`, `</tool>`),
		domain.Frame{Meta: testMeta},
	)}
	res, err := New(WithSink(rec)).Consume(context.Background(), fs)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !res.IsToolCall || res.Invocation == nil {
		t.Fatalf("expected tool call, got %+v", res)
	}
	want := domain.ToolInvocation{Name: "get_weather_data", Parameters: map[string]any{"location": "Ankara"}}
	if !reflect.DeepEqual(*res.Invocation, want) {
		t.Errorf("got %+v, want %+v", *res.Invocation, want)
	}
	if len(rec.tokens) != 0 {
		t.Errorf("tool region must not be echoed, got %q", rec.tokens)
	}
	if rec.thinking != 1 {
		t.Errorf("expected one thinking signal, got %d", rec.thinking)
	}
	if res.Metadata != testMeta {
		t.Error("metadata not captured")
	}
}

func TestInterpreter_MarkerSplitAcrossTokens(t *testing.T) {
	rec := &recorder{}
	fs := &sliceStream{frames: tokens("Let me check. <to", "ol>", `{"name":"x"}`, "</tool>")}
	res, err := New(WithSink(rec)).Consume(context.Background(), fs)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !res.IsToolCall || res.Invocation.Name != "x" {
		t.Fatalf("unexpected result %+v", res)
	}
	// The token that completes the marker is not echoed.
	if !reflect.DeepEqual(rec.tokens, []string{"Let me check. <to"}) {
		t.Errorf("echoed %q", rec.tokens)
	}
	if res.Text != `Let me check. <tool>{"name":"x"}</tool>` {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestInterpreter_TextPreservesOrder(t *testing.T) {
	parts := strings.Split("the quick brown fox jumps over the lazy dog", "")
	res, err := New().Consume(context.Background(), &sliceStream{frames: tokens(parts...)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != strings.Join(parts, "") || res.Echoed != res.Text {
		t.Errorf("text reordered: %q", res.Text)
	}
	if res.Metadata != nil {
		t.Error("expected nil metadata when none was sent")
	}
}

func TestInterpreter_InformationalFrame(t *testing.T) {
	rec := &recorder{}
	frames := []domain.Frame{{Content: "a"}, {}, {Content: "b"}, {Meta: testMeta}}
	res, err := New(WithSink(rec)).Consume(context.Background(), &sliceStream{frames: frames})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "ab" || rec.infos != 1 {
		t.Errorf("got text %q infos %d", res.Text, rec.infos)
	}
}

func TestInterpreter_StopsAtMetadataFrame(t *testing.T) {
	frames := append(tokens("done"), domain.Frame{Meta: testMeta}, domain.Frame{Content: "late"})
	res, err := New().Consume(context.Background(), &sliceStream{frames: frames})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "done" {
		t.Errorf("frames after metadata must be ignored, got %q", res.Text)
	}
}

func TestInterpreter_UnclosedToolCallEndedByMetadata(t *testing.T) {
	frames := append(tokens(`<tool>{"name":"get_weather_data",`, `"parameters":{"location":"Ankara"}}`), domain.Frame{Meta: testMeta})
	res, err := New().Consume(context.Background(), &sliceStream{frames: frames})
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !res.IsToolCall || res.Invocation == nil {
		t.Fatalf("expected decoded tool call, got %+v", res)
	}
	if res.Invocation.Name != "get_weather_data" || res.Invocation.Parameters["location"] != "Ankara" {
		t.Errorf("unexpected invocation %+v", res.Invocation)
	}
	if res.Metadata != testMeta {
		t.Errorf("expected metadata captured, got %+v", res.Metadata)
	}
}

func TestInterpreter_MalformedPayload(t *testing.T) {
	_, err := New().Consume(context.Background(), &sliceStream{frames: tokens("<tool>not-json</tool>")})
	if !errors.Is(err, domain.ErrStreamDecode) {
		t.Fatalf("expected ErrStreamDecode, got %v", err)
	}
	if errors.Is(err, domain.ErrIncompleteToolCall) {
		t.Error("malformed payload is not an incomplete call")
	}
}

func TestInterpreter_EOFInsideToolRegion(t *testing.T) {
	res, err := New().Consume(context.Background(), &sliceStream{frames: tokens(`<tool>{"name":"x"`)})
	if !errors.Is(err, domain.ErrIncompleteToolCall) || !errors.Is(err, domain.ErrStreamDecode) {
		t.Fatalf("expected ErrIncompleteToolCall, got %v", err)
	}
	if res.Invocation != nil {
		t.Error("partial buffer must not be decoded")
	}
}

func TestInterpreter_CancelledInsideToolRegion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fs := &sliceStream{
		frames: tokens("<tool>", `{"name":`, `"x"}`, "</tool>"),
		onRecv: func(n int) {
			if n == 2 {
				cancel()
			}
		},
	}
	_, err := New().Consume(ctx, fs)
	if !errors.Is(err, domain.ErrIncompleteToolCall) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected incomplete tool call caused by cancellation, got %v", err)
	}
}

func TestInterpreter_TransportErrorInsideToolRegion(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := New().Consume(context.Background(), &sliceStream{frames: tokens("<tool>{"), err: boom})
	if !errors.Is(err, domain.ErrIncompleteToolCall) || !errors.Is(err, boom) {
		t.Fatalf("expected incomplete tool call wrapping transport error, got %v", err)
	}
}

func TestInterpreter_TransportErrorInPlainMode(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := New().Consume(context.Background(), &sliceStream{frames: tokens("hi"), err: boom})
	if !errors.Is(err, boom) || errors.Is(err, domain.ErrIncompleteToolCall) {
		t.Fatalf("expected bare transport error, got %v", err)
	}
}

func TestInterpreter_CustomMarkers(t *testing.T) {
	in := New(WithOpenMarker("[[call]]"), WithCloseMarker("[[/call]]"))
	res, err := in.Consume(context.Background(), &sliceStream{frames: tokens(`[[call]]{"name":"y","parameters":{}}[[/call]]`)})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsToolCall || res.Invocation.Name != "y" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestMode_String(t *testing.T) {
	if ModeTool.String() != "TOOL" || Mode(9).String() != "Mode(9)" {
		t.Errorf("unexpected mode strings %s %s", ModeTool, Mode(9))
	}
}
