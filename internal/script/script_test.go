package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfga/pstack/pkg/logger"
	"github.com/openfga/pstack/pkg/rcstack"
)

const sharingScript = `
steps:
  - {op: new, as: empty}
  - {op: prepend, from: empty, value: "1", as: s1a}
  - {op: prepend, from: s1a, value: "2", as: s1}
  - {op: release, from: s1a}
  - {op: prepend, from: s1, value: "3", as: s2}
  - {op: head, from: s1, expect: "2"}
  - {op: tail, from: s1, as: s1tail}
  - {op: head, from: s1tail, expect: "1"}
  - {op: release, from: s2}
  - {op: head, from: s1, expect: "2"}
  - {op: iter, from: s1, expectSeq: ["2", "1"]}
  - {op: live, expectCount: 2}
  - {op: prepend, from: s1tail, value: "x", as: left}
  - {op: prepend, from: s1tail, value: "y", as: right}
  - {op: release, from: s1}
  - {op: release, from: s1tail}
  - {op: release, from: left}
  - {op: iter, from: right, expectSeq: ["y", "1"]}
  - {op: live, expectCount: 2}
  - {op: tail, from: empty, as: stillEmpty}
  - {op: head, from: stillEmpty, expectEmpty: true}
`

func run(t *testing.T, src string) (*Result, error) {
	t.Helper()
	s, err := Parse([]byte(src))
	require.NoError(t, err)
	return Run(context.Background(), rcstack.NewArena[string](), s, logger.NewNoopLogger())
}

func TestRun(t *testing.T) {
	t.Run("sharing", func(t *testing.T) {
		res, err := run(t, sharingScript)
		require.NoError(t, err)
		require.Equal(t, 21, res.Steps)
		require.Equal(t, 0, res.Leaked)
		require.Equal(t, []string{
			"head s1 = 2",
			"head s1tail = 1",
			"head s1 = 2",
			"iter s1 = [2 1]",
			"live = 2",
			"iter right = [y 1]",
			"live = 2",
			"head stillEmpty = <empty>",
		}, res.Output)
	})

	t.Run("failed_expectation_releases_everything", func(t *testing.T) {
		arena := rcstack.NewArena[string]()
		s, err := Parse([]byte(`
steps:
  - {op: new, as: e}
  - {op: prepend, from: e, value: a, as: one}
  - {op: head, from: one, expect: b}
`))
		require.NoError(t, err)

		res, err := Run(context.Background(), arena, s, logger.NewNoopLogger())
		require.ErrorIs(t, err, ErrExpectation)
		require.ErrorContains(t, err, "step 2 (head)")
		require.Equal(t, 2, res.Steps)
		require.Equal(t, 0, arena.Stats().Live)
	})

	t.Run("expect_empty_on_non_empty", func(t *testing.T) {
		_, err := run(t, `
steps:
  - {op: new, as: e}
  - {op: prepend, from: e, value: a, as: one}
  - {op: head, from: one, expectEmpty: true}
`)
		require.ErrorIs(t, err, ErrExpectation)
	})

	t.Run("iter_mismatch", func(t *testing.T) {
		_, err := run(t, `
steps:
  - {op: new, as: e}
  - {op: prepend, from: e, value: a, as: one}
  - {op: iter, from: one, expectSeq: []}
`)
		require.ErrorIs(t, err, ErrExpectation)
	})

	t.Run("unknown_version", func(t *testing.T) {
		_, err := run(t, `
steps:
  - {op: tail, from: nowhere, as: x}
`)
		require.ErrorIs(t, err, ErrUnknownVersion)
	})

	t.Run("released_version_is_unknown", func(t *testing.T) {
		_, err := run(t, `
steps:
  - {op: new, as: e}
  - {op: release, from: e}
  - {op: head, from: e}
`)
		require.ErrorIs(t, err, ErrUnknownVersion)
	})

	t.Run("duplicate_version", func(t *testing.T) {
		arena := rcstack.NewArena[string]()
		s, err := Parse([]byte(`
steps:
  - {op: new, as: e}
  - {op: prepend, from: e, value: a, as: e}
`))
		require.NoError(t, err)

		_, err = Run(context.Background(), arena, s, logger.NewNoopLogger())
		require.ErrorIs(t, err, ErrDuplicateVersion)
		require.Equal(t, 0, arena.Stats().Live)
	})

	t.Run("cancelled_context", func(t *testing.T) {
		s, err := Parse([]byte(sharingScript))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := Run(ctx, rcstack.NewArena[string](), s, logger.NewNoopLogger())
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 0, res.Steps)
	})

	t.Run("leak_is_reported", func(t *testing.T) {
		arena := rcstack.NewArena[string]()
		outside := arena.Empty().Prepend("held elsewhere")
		defer outside.Release()

		s, err := Parse([]byte(`steps: [{op: new, as: e}]`))
		require.NoError(t, err)

		res, err := Run(context.Background(), arena, s, logger.NewNoopLogger())
		require.ErrorIs(t, err, ErrLeak)
		require.Equal(t, 1, res.Leaked)
	})
}

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		err  error
	}{
		{
			name: "unknown_op",
			src:  `steps: [{op: pop, from: x}]`,
			err:  ErrUnknownOp,
		},
		{
			name: "prepend_without_value",
			src:  `steps: [{op: prepend, from: x, as: y}]`,
			err:  ErrMissingField,
		},
		{
			name: "new_without_name",
			src:  `steps: [{op: new}]`,
			err:  ErrMissingField,
		},
		{
			name: "live_without_count",
			src:  `steps: [{op: live}]`,
			err:  ErrMissingField,
		},
		{
			name: "conflicting_expectations",
			src:  `steps: [{op: head, from: x, expect: a, expectEmpty: true}]`,
			err:  ErrExpectation,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src))
			require.ErrorIs(t, err, tc.err)
		})
	}

	t.Run("unknown_field", func(t *testing.T) {
		_, err := Parse([]byte(`steps: [{op: new, as: e, colour: red}]`))
		require.ErrorContains(t, err, "failed to parse script")
	})

	t.Run("empty_value_is_allowed", func(t *testing.T) {
		s, err := Parse([]byte(`steps: [{op: new, as: e}, {op: prepend, from: e, value: "", as: f}]`))
		require.NoError(t, err)
		require.Len(t, s.Steps, 2)
	})
}
