package compiler

import "fmt"

// Opcode is a single byte in the compiled instruction stream.
type Opcode uint8

//nolint:revive
const (
	RET Opcode = 0

	INTEGER Opcode = 1
	FLOAT   Opcode = 2

	ADD Opcode = 3
	SUB Opcode = 4
	MUL Opcode = 5
	DIV Opcode = 6

	STOREID      Opcode = 7
	ID           Opcode = 8
	STOREFASTID  Opcode = 9

	ASSIGN      Opcode = 10
	ALLOCATEREG Opcode = 11

	CALL       Opcode = 12
	BLOCK      Opcode = 13
	DIRECTCALL Opcode = 14

	NEWLIST Opcode = 15

	TRUE  Opcode = 16
	FALSE Opcode = 17

	FUNCTION Opcode = 18

	GTR Opcode = 20
	LSS Opcode = 21

	JUMPIFFALSE Opcode = 22

	REC Opcode = 23

	IF   Opcode = 24
	WHEN Opcode = 25

	EQUALS Opcode = 26
	MODULO Opcode = 27

	REFID Opcode = 28

	CLOSURE Opcode = 29
	CID     Opcode = 30

	STRING Opcode = 31

	FOR    Opcode = 32
	BOUNCE Opcode = 33

	RANGE   Opcode = 34
	FORINT  Opcode = 35

	BYTE Opcode = 36

	NATIVE Opcode = 37

	STOREGLOBAL    Opcode = 38
	GLOBALID       Opcode = 39
	ALLOCATEGLOBAL Opcode = 40

	CHAR Opcode = 41

	POP Opcode = 42

	NEG Opcode = 43

	LOOP  Opcode = 44
	BREAK Opcode = 45

	NEWBINDING Opcode = 46
	POPBINDING Opcode = 47

	STOREBIND Opcode = 48
	GETBIND   Opcode = 49
)

var opcodeNames = map[Opcode]string{
	RET:            "ret",
	INTEGER:        "integer",
	FLOAT:          "float",
	ADD:            "add",
	SUB:            "sub",
	MUL:            "mul",
	DIV:            "div",
	STOREID:        "storeid",
	ID:             "id",
	STOREFASTID:    "storefastid",
	ASSIGN:         "assign",
	ALLOCATEREG:    "allocatereg",
	CALL:           "call",
	BLOCK:          "block",
	DIRECTCALL:     "directcall",
	NEWLIST:        "newlist",
	TRUE:           "true",
	FALSE:          "false",
	FUNCTION:       "function",
	GTR:            "gtr",
	LSS:            "lss",
	JUMPIFFALSE:    "jumpiffalse",
	REC:            "rec",
	IF:             "if",
	WHEN:           "when",
	EQUALS:         "equals",
	MODULO:         "modulo",
	REFID:          "refid",
	CLOSURE:        "closure",
	CID:            "cid",
	STRING:         "string",
	FOR:            "for",
	BOUNCE:         "bounce",
	RANGE:          "range",
	FORINT:         "forint",
	BYTE:           "byte",
	NATIVE:         "native",
	STOREGLOBAL:    "storeglobal",
	GLOBALID:       "globalid",
	ALLOCATEGLOBAL: "allocateglobal",
	CHAR:           "char",
	POP:            "pop",
	NEG:            "neg",
	LOOP:           "loop",
	BREAK:          "break",
	NEWBINDING:     "newbinding",
	POPBINDING:     "popbinding",
	STOREBIND:      "storebind",
	GETBIND:        "getbind",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("illegal op (%d)", op)
}
