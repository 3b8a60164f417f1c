package script

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/openfga/pstack/pkg/logger"
	"github.com/openfga/pstack/pkg/rcstack"
)

// Result summarizes a completed run.
type Result struct {
	// Steps is the number of steps executed.
	Steps int

	// Output holds one line per head, iter or live step, describing what was observed.
	Output []string

	// Leaked is the number of nodes still live in the arena after every version left
	// standing at the end of the script was released.
	Leaked int
}

type runner struct {
	arena    *rcstack.Arena[string]
	versions map[string]*rcstack.Stack[string]
	logger   logger.Logger
	result   *Result
}

// Run executes the script against arena. Versions still held when the script ends, or when
// it fails, are released. An error is returned for the first failing step, or ErrLeak when
// nodes outlive every version. The arena must not be shared with anything but the script.
func Run(ctx context.Context, arena *rcstack.Arena[string], s *Script, l logger.Logger) (*Result, error) {
	r := &runner{
		arena:    arena,
		versions: make(map[string]*rcstack.Stack[string]),
		logger:   l,
		result:   &Result{},
	}

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			r.releaseAll()
			return r.result, err
		}
		if err := r.exec(step); err != nil {
			r.releaseAll()
			return r.result, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		r.result.Steps++
	}

	r.releaseAll()
	r.result.Leaked = arena.Stats().Live
	if r.result.Leaked > 0 {
		return r.result, fmt.Errorf("%w: %d", ErrLeak, r.result.Leaked)
	}
	return r.result, nil
}

func (r *runner) exec(step Step) error {
	if err := step.validate(); err != nil {
		return err
	}

	switch step.Op {
	case OpNew:
		return r.define(step.As, r.arena.Empty())
	case OpPrepend:
		from, err := r.lookup(step.From)
		if err != nil {
			return err
		}
		return r.define(step.As, from.Prepend(*step.Value))
	case OpTail:
		from, err := r.lookup(step.From)
		if err != nil {
			return err
		}
		return r.define(step.As, from.Tail())
	case OpClone:
		from, err := r.lookup(step.From)
		if err != nil {
			return err
		}
		return r.define(step.As, from.Clone())
	case OpHead:
		return r.head(step)
	case OpIter:
		return r.iter(step)
	case OpRelease:
		from, err := r.lookup(step.From)
		if err != nil {
			return err
		}
		delete(r.versions, step.From)
		from.Release()
		r.logger.Debug("released version", zap.String("version", step.From))
		return nil
	case OpLive:
		live := r.arena.Stats().Live
		r.output("live = %d", live)
		if live != *step.ExpectCount {
			return fmt.Errorf("%w: live nodes = %d, expected %d", ErrExpectation, live, *step.ExpectCount)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownOp, step.Op)
}

func (r *runner) head(step Step) error {
	from, err := r.lookup(step.From)
	if err != nil {
		return err
	}

	v, ok := from.Head()
	if !ok {
		r.output("head %s = <empty>", step.From)
	} else {
		r.output("head %s = %s", step.From, v)
	}

	switch {
	case step.ExpectEmpty && ok:
		return fmt.Errorf("%w: head of %s = %q, expected empty", ErrExpectation, step.From, v)
	case step.Expect != nil && !ok:
		return fmt.Errorf("%w: %s is empty, expected head %q", ErrExpectation, step.From, *step.Expect)
	case step.Expect != nil && v != *step.Expect:
		return fmt.Errorf("%w: head of %s = %q, expected %q", ErrExpectation, step.From, v, *step.Expect)
	}
	return nil
}

func (r *runner) iter(step Step) error {
	from, err := r.lookup(step.From)
	if err != nil {
		return err
	}

	got := slices.Collect(from.All())
	r.output("iter %s = [%s]", step.From, strings.Join(got, " "))
	if step.ExpectSeq != nil && !slices.Equal(got, step.ExpectSeq) {
		return fmt.Errorf("%w: %s = %q, expected %q", ErrExpectation, step.From, got, step.ExpectSeq)
	}
	return nil
}

func (r *runner) lookup(name string) (*rcstack.Stack[string], error) {
	s, ok := r.versions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, name)
	}
	return s, nil
}

func (r *runner) define(name string, s *rcstack.Stack[string]) error {
	if _, ok := r.versions[name]; ok {
		s.Release()
		return fmt.Errorf("%w: %q", ErrDuplicateVersion, name)
	}
	r.versions[name] = s
	return nil
}

func (r *runner) output(format string, args ...any) {
	r.result.Output = append(r.result.Output, fmt.Sprintf(format, args...))
}

// releaseAll releases the remaining versions in name order.
func (r *runner) releaseAll() {
	for _, name := range slices.Sorted(maps.Keys(r.versions)) {
		r.versions[name].Release()
		delete(r.versions, name)
	}
}
