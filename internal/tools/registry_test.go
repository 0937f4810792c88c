package tools

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"smallchain/internal/domain"
)

func echoFactory(params map[string]any) (Runnable, error) {
	return RunnableFunc(func(context.Context) (string, error) {
		s, _ := params["text"].(string)
		return "echo: " + s, nil
	}), nil
}

func TestRegistry_ExecuteKnownTool(t *testing.T) {
	r := NewRegistry()
	def := Definition{Name: "echo", Parameters: map[string]any{"required": []any{"text"}}}
	if err := r.Register(def, echoFactory); err != nil {
		t.Fatal(err)
	}
	out, err := r.Execute(context.Background(), domain.ToolInvocation{Name: "echo", Parameters: map[string]any{"text": "hi"}})
	if err != nil || out != "echo: hi" {
		t.Errorf("got %q, %v", out, err)
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	_, err := NewRegistry().Execute(context.Background(), domain.ToolInvocation{Name: "send_email"})
	if !errors.Is(err, domain.ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestRegistry_MissingRequiredParameter(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Definition{Name: "echo", Parameters: map[string]any{"required": []string{"text"}}}, echoFactory)
	_, err := r.Execute(context.Background(), domain.ToolInvocation{Name: "echo", Parameters: map[string]any{}})
	if err == nil || !strings.Contains(err.Error(), "text") {
		t.Errorf("expected missing parameter error, got %v", err)
	}
}

func TestRegistry_RegisterRejectsDuplicatesAndEmpty(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Definition{Name: ""}, echoFactory); err == nil {
		t.Error("expected error for empty name")
	}
	if err := r.Register(Definition{Name: "echo"}, nil); err == nil {
		t.Error("expected error for nil factory")
	}
	_ = r.Register(Definition{Name: "echo"}, echoFactory)
	if err := r.Register(Definition{Name: "echo"}, echoFactory); err == nil {
		t.Error("expected error for duplicate name")
	}
}

func TestRegistry_FactoryAndRunErrorsNameTheTool(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Definition{Name: "bad"}, func(map[string]any) (Runnable, error) { return nil, errors.New("bad params") })
	_ = r.Register(Definition{Name: "fails"}, func(map[string]any) (Runnable, error) {
		return RunnableFunc(func(context.Context) (string, error) { return "", errors.New("upstream down") }), nil
	})
	for _, name := range []string{"bad", "fails"} {
		_, err := r.Execute(context.Background(), domain.ToolInvocation{Name: name})
		if err == nil || !strings.HasPrefix(err.Error(), "tool "+name) {
			t.Errorf("expected error naming %s, got %v", name, err)
		}
	}
}

func TestRegistry_DefinitionsSorted(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		_ = r.Register(Definition{Name: n}, echoFactory)
	}
	var names []string
	for _, d := range r.Definitions() {
		names = append(names, d.Name)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("unexpected order %v", names)
	}
	s, err := r.Schemas()
	if err != nil || !strings.Contains(s, `"name": "alpha"`) {
		t.Errorf("unexpected schemas %q, %v", s, err)
	}
}

func TestStringParam(t *testing.T) {
	if _, err := StringParam(map[string]any{"x": 3}, "x"); err == nil {
		t.Error("expected error for non-string")
	}
	if v, err := StringParam(map[string]any{"x": "ok"}, "x"); err != nil || v != "ok" {
		t.Errorf("got %q, %v", v, err)
	}
}
