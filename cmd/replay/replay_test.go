package replay

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/openfga/pstack/internal/script"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(viper.Reset)
	viper.AddConfigPath(t.TempDir())
	viper.Set("log.level", "none")

	cmd := NewReplayCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReplayCommand(t *testing.T) {
	t.Run("prints_observations", func(t *testing.T) {
		path := writeScript(t, `
steps:
  - {op: new, as: e}
  - {op: prepend, from: e, value: "1", as: a}
  - {op: prepend, from: a, value: "2", as: b}
  - {op: tail, from: b, as: c}
  - {op: head, from: c, expect: "1"}
  - {op: iter, from: b, expectSeq: ["2", "1"]}
  - {op: live, expectCount: 2}
`)
		out, err := execute(t, path, "--concurrent-safe", "--initial-capacity", "4")
		require.NoError(t, err)
		require.Equal(t, "head c = 1\niter b = [2 1]\nlive = 2\n", out)
	})

	t.Run("unmet_expectation_fails", func(t *testing.T) {
		path := writeScript(t, `
steps:
  - {op: new, as: e}
  - {op: head, from: e, expect: "x"}
`)
		out, err := execute(t, path)
		require.ErrorIs(t, err, script.ErrExpectation)
		require.Equal(t, "head e = <empty>\n", out)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := execute(t, filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorContains(t, err, "failed to read script")
	})

	t.Run("requires_one_argument", func(t *testing.T) {
		_, err := execute(t)
		require.Error(t, err)
	})

	t.Run("invalid_capacity_is_rejected", func(t *testing.T) {
		path := writeScript(t, `steps: [{op: new, as: e}]`)
		_, err := execute(t, path, "--initial-capacity", "-3")
		require.ErrorContains(t, err, "arena.initialCapacity")
	})
}
