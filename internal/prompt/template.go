// Package prompt implements {name}-style prompt templates.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"smallchain/internal/domain"
)

var ErrSyntax = errors.New("prompt: template syntax")

type segment struct {
	literal string
	name    string
}

// Template is a parsed template. Literal braces are written {{ and }}.
type Template struct {
	text     string
	segments []segment
	vars     []string
}

// Parse compiles text. Unbalanced braces and empty or nested placeholders
// are rejected.
func Parse(text string) (*Template, error) {
	t := &Template{text: text}
	seen := map[string]struct{}{}
	var lit strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexAny(text[i+1:], "{}")
			if end < 0 || text[i+1+end] != '}' {
				return nil, fmt.Errorf("%w: unclosed placeholder at offset %d", ErrSyntax, i)
			}
			name := strings.TrimSpace(text[i+1 : i+1+end])
			if name == "" {
				return nil, fmt.Errorf("%w: empty placeholder at offset %d", ErrSyntax, i)
			}
			if lit.Len() > 0 {
				t.segments = append(t.segments, segment{literal: lit.String()})
				lit.Reset()
			}
			t.segments = append(t.segments, segment{name: name})
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				t.vars = append(t.vars, name)
			}
			i += end + 1
		case c == '}':
			return nil, fmt.Errorf("%w: single '}' at offset %d", ErrSyntax, i)
		default:
			lit.WriteByte(c)
		}
	}
	if lit.Len() > 0 {
		t.segments = append(t.segments, segment{literal: lit.String()})
	}
	sort.Strings(t.vars)
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *Template {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) String() string { return t.text }

// Variables returns the placeholder names, sorted and unique.
func (t *Template) Variables() []string {
	return append([]string(nil), t.vars...)
}

// Format substitutes vars. Every placeholder must have a value; extra
// entries are ignored.
func (t *Template) Format(vars map[string]string) (string, error) {
	var b strings.Builder
	for _, s := range t.segments {
		if s.name == "" {
			b.WriteString(s.literal)
			continue
		}
		v, ok := vars[s.name]
		if !ok {
			return "", fmt.Errorf("prompt: missing variable %q", s.name)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// CheckInputs reports placeholders not covered by names, typically the
// branch names of the fan-out feeding the template.
func (t *Template) CheckInputs(names []string) error {
	have := make(map[string]struct{}, len(names))
	for _, n := range names {
		have[n] = struct{}{}
	}
	var missing []string
	for _, v := range t.vars {
		if _, ok := have[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompt: inputs %v do not provide %s", names, strings.Join(missing, ", "))
	}
	return nil
}

// Invoke formats the template from a map[string]string or map[string]any
// input. Non-string values are rendered with fmt.Sprint.
func (t *Template) Invoke(_ context.Context, input any) (any, error) {
	var vars map[string]string
	switch in := input.(type) {
	case map[string]string:
		vars = in
	case map[string]any:
		vars = make(map[string]string, len(in))
		for k, v := range in {
			if s, ok := v.(string); ok {
				vars[k] = s
			} else {
				vars[k] = fmt.Sprint(v)
			}
		}
	default:
		return nil, &domain.StageError{Stage: "prompt", Err: fmt.Errorf("expected variable map, got %T", input)}
	}
	out, err := t.Format(vars)
	if err != nil {
		return nil, &domain.StageError{Stage: "prompt", Err: err}
	}
	return out, nil
}
