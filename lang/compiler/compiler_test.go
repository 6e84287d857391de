package compiler_test

import (
	"testing"

	"github.com/mna/nova/lang/compiler"
	"github.com/mna/nova/lang/parser"
	"github.com/mna/nova/lang/scanner"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) *compiler.Program {
	t.Helper()
	s := scanner.New()
	s.Feed(src)
	toks, err := s.Tokens()
	require.NoError(t, err)
	postfix, err := parser.New().Parse(toks)
	require.NoError(t, err)
	prog, err := compiler.New().Compile(postfix, "test.nv")
	require.NoError(t, err)
	return prog
}

func TestByteCompressionForSmallIntegers(t *testing.T) {
	prog := compile(t, "5")
	require.Equal(t, byte(compiler.ALLOCATEGLOBAL), prog.Code[0])
	// skip ALLOCATEGLOBAL opcode + 8-byte count, ALLOCATEREG opcode + 8-byte count
	i := 1 + 8 + 1 + 8
	require.Equal(t, byte(compiler.BYTE), prog.Code[i])
	require.EqualValues(t, 5, prog.Code[i+1])
}

func TestLargeIntegerUsesIntegerOpcode(t *testing.T) {
	prog := compile(t, "1000")
	i := 1 + 8 + 1 + 8
	require.Equal(t, byte(compiler.INTEGER), prog.Code[i])
}

func TestChunkEndsWithRet(t *testing.T) {
	prog := compile(t, "1+2")
	require.Equal(t, byte(compiler.RET), prog.Code[len(prog.Code)-1])
}

func TestUndefinedIdentifierIsCompilerError(t *testing.T) {
	s := scanner.New()
	s.Feed("x")
	toks, err := s.Tokens()
	require.NoError(t, err)
	postfix, err := parser.New().Parse(toks)
	require.NoError(t, err)
	_, err = compiler.New().Compile(postfix, "test.nv")
	require.Error(t, err)
}
