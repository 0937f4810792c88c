// Package tools maps tool names to factories producing runnable tools.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"smallchain/internal/domain"
)

// Runnable is a tool bound to its parameters.
type Runnable interface {
	Run(ctx context.Context) (string, error)
}

// RunnableFunc adapts a function to Runnable.
type RunnableFunc func(ctx context.Context) (string, error)

func (f RunnableFunc) Run(ctx context.Context) (string, error) { return f(ctx) }

// Factory binds decoded parameters to a runnable tool.
type Factory func(params map[string]any) (Runnable, error)

// Definition describes a tool to the model. Parameters is a JSON schema
// object; only its "required" list is enforced here.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type entry struct {
	def     Definition
	factory Factory
}

// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]entry)}
}

func (r *Registry) Register(def Definition, factory Factory) error {
	if strings.TrimSpace(def.Name) == "" {
		return errors.New("tool name required")
	}
	if factory == nil {
		return fmt.Errorf("tool %s: nil factory", def.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[def.Name]; ok {
		return fmt.Errorf("tool %s already registered", def.Name)
	}
	r.tools[def.Name] = entry{def: def, factory: factory}
	return nil
}

// Definitions returns every registered definition sorted by name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.tools))
	for _, e := range r.tools {
		defs = append(defs, e.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Schemas renders the definitions as indented JSON for a system prompt.
func (r *Registry) Schemas() (string, error) {
	data, err := json.MarshalIndent(r.Definitions(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Execute builds and runs the named tool. Unregistered names fail with
// domain.ErrUnknownTool.
func (r *Registry) Execute(ctx context.Context, inv domain.ToolInvocation) (string, error) {
	r.mu.RLock()
	e, ok := r.tools[inv.Name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownTool, inv.Name)
	}
	if err := checkRequired(e.def, inv.Parameters); err != nil {
		return "", fmt.Errorf("tool %s: %w", inv.Name, err)
	}
	tool, err := e.factory(inv.Parameters)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", inv.Name, err)
	}
	out, err := tool.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", inv.Name, err)
	}
	return out, nil
}

func checkRequired(def Definition, params map[string]any) error {
	var required []string
	switch v := def.Parameters["required"].(type) {
	case []string:
		required = v
	case []any:
		for _, r := range v {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required parameters: %s", strings.Join(missing, ", "))
	}
	return nil
}

// StringParam reads a non-empty string parameter.
func StringParam(params map[string]any, name string) (string, error) {
	v, ok := params[name]
	if !ok {
		return "", fmt.Errorf("parameter %q missing", name)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", name)
	}
	return s, nil
}
