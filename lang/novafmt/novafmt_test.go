package novafmt_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/nova/lang/novafmt"
	"github.com/stretchr/testify/require"
)

func TestFormatCollapsesInternalWhitespace(t *testing.T) {
	got := novafmt.Format("x   =    5")
	require.Equal(t, "x = 5\n", got)
}

func TestFormatIndentsNestedBraces(t *testing.T) {
	src := "f = [n]:{\nif(n<2, {\nn\n}, {\nn\n})\n}"
	want := "f = [n]:{\n    if(n<2, {\n        n\n    }, {\n        n\n    })\n}\n"
	require.Equal(t, want, novafmt.Format(src))
}

func TestFormatCollapsesMultipleBlankLinesToOne(t *testing.T) {
	got := novafmt.Format("x = 1\n\n\n\ny = 2")
	require.Equal(t, "x = 1\n\ny = 2\n", got)
}

func TestFormatFileRewritesInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.nv")
	require.NoError(t, os.WriteFile(path, []byte("x   =  1"), 0o644))

	require.NoError(t, novafmt.FormatFile(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "x = 1\n", string(got))
}
