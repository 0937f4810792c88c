// Package pipeline composes processing stages into dataflows. A stage takes
// one input and produces one output; stages are joined by sequencing or by
// fanning the same input out to several named branches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"smallchain/internal/domain"
)

// Stage is a single-input, single-output processing step.
type Stage interface {
	Invoke(ctx context.Context, input any) (any, error)
}

// Func is the transform wrapped by a Leaf.
type Func func(ctx context.Context, input any) (any, error)

// LeafStage applies a named transform.
type LeafStage struct {
	name string
	fn   Func
}

// Leaf wraps fn as a stage. Failures are reported as *domain.StageError
// carrying name.
func Leaf(name string, fn Func) *LeafStage {
	return &LeafStage{name: name, fn: fn}
}

func (l *LeafStage) Name() string { return l.name }

func (l *LeafStage) Invoke(ctx context.Context, input any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(l.name, err)
	}
	out, err := l.fn(ctx, input)
	if err != nil {
		return nil, wrap(l.name, err)
	}
	return out, nil
}

// SequenceStage runs First and feeds its output to Second.
type SequenceStage struct {
	First, Second Stage
}

func Sequence(first, second Stage) *SequenceStage {
	return &SequenceStage{First: first, Second: second}
}

func (s *SequenceStage) Invoke(ctx context.Context, input any) (any, error) {
	mid, err := s.First.Invoke(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.Second.Invoke(ctx, mid)
}

// Then left-folds stages into nested Sequences. Sequencing is associative,
// so the nesting is not observable. Then with a single stage returns it
// unchanged; with none it returns Passthrough.
func Then(stages ...Stage) Stage {
	if len(stages) == 0 {
		return Passthrough()
	}
	out := stages[0]
	for _, s := range stages[1:] {
		out = Sequence(out, s)
	}
	return out
}

// FanOutStage runs every branch against the same input and collects the
// outputs keyed by branch name.
type FanOutStage struct {
	branches map[string]Stage
}

// FanOut copies branches; later changes to the map do not affect the stage.
func FanOut(branches map[string]Stage) *FanOutStage {
	m := make(map[string]Stage, len(branches))
	for k, v := range branches {
		m[k] = v
	}
	return &FanOutStage{branches: m}
}

// Names returns the branch names in sorted order.
func (f *FanOutStage) Names() []string {
	names := make([]string, 0, len(f.branches))
	for k := range f.branches {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the branches concurrently. The first failure cancels the
// others and no partial result is returned. The output is map[string]any.
func (f *FanOutStage) Invoke(ctx context.Context, input any) (any, error) {
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	out := make(map[string]any, len(f.branches))
	for _, name := range f.Names() {
		branch := f.branches[name]
		g.Go(func() error {
			v, err := branch.Invoke(gctx, input)
			if err != nil {
				return &domain.StageError{Stage: name, Err: err}
			}
			mu.Lock()
			out[name] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type passthrough struct{}

func (passthrough) Invoke(_ context.Context, input any) (any, error) { return input, nil }

// Passthrough returns the identity stage.
func Passthrough() Stage { return passthrough{} }

// Invoke runs stage and asserts its output type.
func Invoke[T any](ctx context.Context, stage Stage, input any) (T, error) {
	var zero T
	out, err := stage.Invoke(ctx, input)
	if err != nil {
		return zero, err
	}
	v, ok := out.(T)
	if !ok {
		return zero, &domain.StageError{Stage: "output", Err: fmt.Errorf("unexpected output type %T, want %T", out, zero)}
	}
	return v, nil
}

// wrap keeps an existing StageError intact so the innermost stage name is
// reported.
func wrap(name string, err error) error {
	var se *domain.StageError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StageError{Stage: name, Err: err}
}
