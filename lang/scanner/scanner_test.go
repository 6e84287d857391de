package scanner_test

import (
	"testing"

	"github.com/mna/nova/lang/scanner"
	"github.com/mna/nova/lang/token"
	"github.com/stretchr/testify/require"
)

func lex(t *testing.T, src string) []token.Token {
	t.Helper()
	s := scanner.New()
	s.Feed(src)
	toks, err := s.Tokens()
	require.NoError(t, err)
	return toks
}

func TestSimpleAssignment(t *testing.T) {
	toks := lex(t, "x=5")
	require.Len(t, toks, 3)
	require.Equal(t, token.RegStore, toks[0].Kind)
	require.Equal(t, "x", toks[0].Name)
	require.Equal(t, token.Op, toks[1].Kind)
	require.Equal(t, token.Assign, toks[1].Op)
	require.Equal(t, token.Integer, toks[2].Kind)
	require.EqualValues(t, 5, toks[2].Int)
}

func TestCallToken(t *testing.T) {
	toks := lex(t, "println(1)")
	require.NotEmpty(t, toks)
	var sawCall bool
	for _, tk := range toks {
		if tk.Kind == token.Call && tk.Name == "println" {
			sawCall = true
		}
	}
	require.True(t, sawCall)
}

func TestBlockLiteral(t *testing.T) {
	toks := lex(t, "{1}")
	require.Len(t, toks, 1)
	require.Equal(t, token.BlockLiteral, toks[0].Kind)
	require.Len(t, toks[0].Body, 1)
}

func TestUnbalancedBraceIsError(t *testing.T) {
	s := scanner.New()
	s.Feed("{1")
	_, err := s.Tokens()
	require.Error(t, err)
}
