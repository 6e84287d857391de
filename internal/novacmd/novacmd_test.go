package novacmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/mna/nova/internal/novacmd"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.nv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestRunExecutesSourceFile(t *testing.T) {
	path := writeSource(t, "println(1+2*3)")

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	var c novacmd.Cmd
	require.NoError(t, c.Run(context.Background(), stdio, []string{path}))
	require.Equal(t, "7\n", out.String())
	require.Empty(t, errOut.String())
}

func TestRunReportsCompileError(t *testing.T) {
	path := writeSource(t, "println(")

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	var c novacmd.Cmd
	require.Error(t, c.Run(context.Background(), stdio, []string{path}))
	require.NotEmpty(t, errOut.String())
}

func TestDisWritesDisassembly(t *testing.T) {
	path := writeSource(t, "println(1+2)")

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	var c novacmd.Cmd
	require.NoError(t, c.Dis(context.Background(), stdio, []string{path}))
	require.NotEmpty(t, out.String())
}

func TestFmtRewritesFileInPlace(t *testing.T) {
	path := writeSource(t, "x   =  1")

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	var c novacmd.Cmd
	require.NoError(t, c.Fmt(context.Background(), stdio, []string{path}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "x = 1\n", string(got))
}

func TestReplEchoesPrintedValuesAcrossTurns(t *testing.T) {
	stdin := strings.NewReader("x = 5\nprintln(x+1)\nexit\n")
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut, Stdin: stdin}

	var c novacmd.Cmd
	require.NoError(t, c.Repl(context.Background(), stdio, nil))
	require.Contains(t, out.String(), "6\n")
	require.Empty(t, errOut.String())
}

func TestReplDoesNotReplayEarlierPrintsOnLaterTurns(t *testing.T) {
	stdin := strings.NewReader("println(1)\nprintln(2)\nexit\n")
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut, Stdin: stdin}

	var c novacmd.Cmd
	require.NoError(t, c.Repl(context.Background(), stdio, nil))
	// each turn recompiles the whole accumulated program, but earlier
	// print/println calls are rewritten to Pop first, so "1" should appear
	// exactly once despite the second turn's recompile including turn one's
	// tokens.
	require.Equal(t, 1, strings.Count(out.String(), "1\n"))
	require.Equal(t, 1, strings.Count(out.String(), "2\n"))
}
