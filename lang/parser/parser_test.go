package parser_test

import (
	"testing"

	"github.com/mna/nova/lang/parser"
	"github.com/mna/nova/lang/scanner"
	"github.com/mna/nova/lang/token"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) []token.Token {
	t.Helper()
	s := scanner.New()
	s.Feed(src)
	toks, err := s.Tokens()
	require.NoError(t, err)
	out, err := parser.New().Parse(toks)
	require.NoError(t, err)
	return out
}

func TestArithmeticPostfixOrder(t *testing.T) {
	out := parse(t, "1+2*3")
	// expect: 1 2 3 * +
	require.Len(t, out, 5)
	require.Equal(t, token.Integer, out[0].Kind)
	require.Equal(t, token.Integer, out[1].Kind)
	require.Equal(t, token.Integer, out[2].Kind)
	require.Equal(t, token.Op, out[3].Kind)
	require.Equal(t, token.Mul, out[3].Op)
	require.Equal(t, token.Op, out[4].Kind)
	require.Equal(t, token.Add, out[4].Op)
}

func TestCallArgumentsThenCall(t *testing.T) {
	out := parse(t, "println(1+2)")
	require.Equal(t, token.Call, out[len(out)-1].Kind)
	require.Equal(t, "println", out[len(out)-1].Name)
}

func TestFunctionLiteral(t *testing.T) {
	out := parse(t, "[x]:{x}")
	require.Len(t, out, 1)
	require.Equal(t, token.Function, out[0].Kind)
	require.Len(t, out[0].Params, 1)
}

func TestClosureLiteral(t *testing.T) {
	out := parse(t, "[y][x]:{x}")
	require.Len(t, out, 1)
	require.Equal(t, token.Closure, out[0].Kind)
	require.Len(t, out[0].Captures, 1)
	require.Len(t, out[0].Params, 1)
}
