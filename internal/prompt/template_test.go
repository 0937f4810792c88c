package prompt

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"smallchain/internal/domain"
	"smallchain/internal/tools"
)

func TestParse_VariablesSortedUnique(t *testing.T) {
	tpl, err := Parse("Context: {context}\nQuestion: {question}\nAgain: {context}")
	if err != nil {
		t.Fatal(err)
	}
	if got := tpl.Variables(); !reflect.DeepEqual(got, []string{"context", "question"}) {
		t.Errorf("got %v", got)
	}
}

func TestFormat(t *testing.T) {
	tpl := MustParse("Hi {name}, {{literal}} and {name}!")
	out, err := tpl.Format(map[string]string{"name": "Ada", "extra": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "Hi Ada, {literal} and Ada!" {
		t.Errorf("got %q", out)
	}
	if _, err := tpl.Format(map[string]string{}); err == nil {
		t.Error("expected missing variable error")
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	for _, text := range []string{"{open", "close}", "{}", "{ }", "{a{b}}"} {
		if _, err := Parse(text); !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q): expected ErrSyntax, got %v", text, err)
		}
	}
}

func TestCheckInputs(t *testing.T) {
	tpl := MustParse("{context} {question}")
	if err := tpl.CheckInputs([]string{"context", "question", "extra"}); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	err := tpl.CheckInputs([]string{"context"})
	if err == nil || !strings.Contains(err.Error(), "question") {
		t.Errorf("expected error naming question, got %v", err)
	}
}

func TestTemplate_AsStage(t *testing.T) {
	tpl := MustParse("{a}-{b}")
	out, err := tpl.Invoke(context.Background(), map[string]any{"a": "x", "b": 2})
	if err != nil || out != "x-2" {
		t.Errorf("got %v, %v", out, err)
	}
	if _, err := tpl.Invoke(context.Background(), "nope"); !errors.Is(err, domain.ErrPipelineStage) {
		t.Errorf("expected stage error, got %v", err)
	}
	if _, err := tpl.Invoke(context.Background(), map[string]string{"a": "x"}); !errors.Is(err, domain.ErrPipelineStage) {
		t.Errorf("expected stage error for missing variable, got %v", err)
	}
}

func TestSystemPrompt(t *testing.T) {
	reg := tools.NewRegistry()
	def := tools.Definition{Name: "get_weather_data", Description: "weather", Parameters: map[string]any{"type": "object"}}
	if err := reg.Register(def, func(map[string]any) (tools.Runnable, error) { return nil, nil }); err != nil {
		t.Fatal(err)
	}
	out, err := SystemPrompt(time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC), reg, SystemOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Today Date: 2024-05-17",
		`"name": "get_weather_data"`,
		`<tool>{"name": function name, "parameters": dictionary of argument name and its value}</tool>`,
		"start with <tool> and end with </tool>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestSystemPrompt_NoTools(t *testing.T) {
	out, err := SystemPrompt(time.Now(), nil, SystemOptions{Persona: "a travel agent"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "you have is as follows:\n\n[]") || !strings.Contains(out, "You are a travel agent.") {
		t.Errorf("unexpected prompt:\n%s", out)
	}
}
