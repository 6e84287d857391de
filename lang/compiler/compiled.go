package compiler

import "github.com/mna/nova/lang/table"

// Program is the output of a compilation: the flat instruction stream
// together with the entry offset (set by a Token.Entry marker) and the
// native-function name table needed to resolve NATIVE operands when
// disassembling or running the program.
type Program struct {
	Code    []byte
	Entry   int
	Natives *table.Table
}
