// Package disasm renders a compiled Nova program as an indented textual
// trace, one line per instruction. Indentation tracks nesting of
// BLOCK/FUNCTION/CLOSURE bodies by the byte offset their length operand
// points past.
package disasm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/mna/nova/lang/compiler"
	"github.com/mna/nova/lang/table"
)

// Disassembler walks a compiled byte stream and writes a human-readable
// trace to an io.Writer.
type Disassembler struct {
	w       io.Writer
	depth   []int
	natives *table.Table
	ip      int
	code    []byte
}

// New returns a Disassembler writing to w, resolving NATIVE operands
// against natives (may be nil if the program has no native calls).
func New(w io.Writer, natives *table.Table) *Disassembler {
	return &Disassembler{w: w, natives: natives}
}

// Disassemble writes the textual trace of code to d's writer.
func (d *Disassembler) Disassemble(code []byte) error {
	d.code = code
	d.ip = 0
	d.depth = nil

	for d.ip < len(d.code) {
		op := compiler.Opcode(d.next())
		if err := d.step(op); err != nil {
			return err
		}
	}
	return nil
}

func (d *Disassembler) out(s string) {
	for i := 0; i < len(d.depth); i++ {
		fmt.Fprint(d.w, "  ")
	}
	fmt.Fprintln(d.w, s)
}

// next returns the next byte, popping a pending depth marker if ip has
// reached it before advancing.
func (d *Disassembler) next() byte {
	if n := len(d.depth); n > 0 && d.ip == d.depth[n-1] {
		d.depth = d.depth[:n-1]
	}
	b := d.code[d.ip]
	d.ip++
	return b
}

func (d *Disassembler) readU16() uint16 {
	b := []byte{d.next(), d.next()}
	return binary.LittleEndian.Uint16(b)
}

func (d *Disassembler) readU32() uint32 {
	b := make([]byte, 4)
	for i := range b {
		b[i] = d.next()
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *Disassembler) readU64() uint64 {
	b := make([]byte, 8)
	for i := range b {
		b[i] = d.next()
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *Disassembler) step(op compiler.Opcode) error {
	switch op {
	case compiler.RET:
		d.out("Return")
	case compiler.INTEGER:
		d.out(fmt.Sprintf("Push Integer %d", int64(d.readU64())))
	case compiler.BYTE:
		d.out(fmt.Sprintf("Push Integer %d", int64(d.next())))
	case compiler.FLOAT:
		d.out(fmt.Sprintf("Push Float %v", math.Float64frombits(d.readU64())))
	case compiler.ADD:
		d.out("Add")
	case compiler.SUB:
		d.out("Sub")
	case compiler.MUL:
		d.out("Mul")
	case compiler.DIV:
		d.out("Div")
	case compiler.STOREID:
		d.out(fmt.Sprintf("Store ID %d", d.readU64()))
	case compiler.ID:
		d.out(fmt.Sprintf("ID %d", d.readU16()))
	case compiler.ASSIGN:
		d.out("Assign")
	case compiler.ALLOCATEREG:
		d.out(fmt.Sprintf("Register allocation %d", d.readU64()))
	case compiler.BLOCK:
		jump := d.readU64()
		d.depth = append(d.depth, d.ip+int(jump))
		d.out("Block:")
	case compiler.CALL:
		d.out("Call")
	case compiler.DIRECTCALL:
		d.out(fmt.Sprintf("Direct call %d", d.readU64()))
	case compiler.NEWLIST:
		d.out(fmt.Sprintf("Create list: size of %d", d.readU64()))
	case compiler.TRUE:
		d.out("Push True")
	case compiler.FALSE:
		d.out("Push False")
	case compiler.STOREFASTID:
		d.out(fmt.Sprintf("StoreFast ID %d", d.readU64()))
	case compiler.FUNCTION:
		jump := d.readU64()
		d.depth = append(d.depth, d.ip+int(jump))
		d.out("Function:")
	case compiler.GTR:
		d.out("Greater than")
	case compiler.LSS:
		d.out("Less than")
	case compiler.JUMPIFFALSE:
		d.out(fmt.Sprintf("Jump if false: %d", d.readU32()))
	case compiler.REC:
		d.out("Recursive call")
	case compiler.WHEN:
		d.out("When")
	case compiler.IF:
		d.out("If")
	case compiler.EQUALS:
		d.out("Equals")
	case compiler.MODULO:
		d.out("Modulo")
	case compiler.REFID:
		d.out(fmt.Sprintf("Reference ID %d", d.readU16()))
	case compiler.CLOSURE:
		jump := d.readU64()
		d.depth = append(d.depth, d.ip+int(jump))
		d.out("Closure:")
	case compiler.CID:
		d.out(fmt.Sprintf("Closure ID %d", d.readU64()))
	case compiler.STRING:
		size := d.readU64()
		buf := make([]byte, size)
		for i := range buf {
			buf[i] = d.next()
		}
		d.out(fmt.Sprintf("Push String: %s", string(buf)))
	case compiler.FOR:
		d.out("For")
	case compiler.BOUNCE:
		d.out("Bounce")
	case compiler.RANGE:
		d.out("Range")
	case compiler.NATIVE:
		idx := d.readU64()
		name := "?"
		if d.natives != nil && int(idx) < d.natives.Len() {
			name = d.natives.Retrieve(int(idx))
		}
		d.out(fmt.Sprintf("Native: %s", name))
	case compiler.ALLOCATEGLOBAL:
		d.out(fmt.Sprintf("Global allocation %d", d.readU64()))
	case compiler.GLOBALID:
		d.out(fmt.Sprintf("Global ID %d", d.readU64()))
	case compiler.STOREGLOBAL:
		d.out(fmt.Sprintf("Store Global ID %d", d.readU64()))
	case compiler.CHAR:
		d.out(fmt.Sprintf("Push Char %c", rune(d.next())))
	case compiler.POP:
		d.out("Pop")
	case compiler.NEG:
		d.out("Negate")
	case compiler.LOOP:
		d.out("Loop (unimplemented)")
	case compiler.BREAK:
		d.out("Break")
	case compiler.NEWBINDING:
		d.out("New binding frame")
	case compiler.POPBINDING:
		d.out("Pop binding frame")
	case compiler.STOREBIND:
		d.out("Store binding")
	case compiler.GETBIND:
		d.out(fmt.Sprintf("Get binding %d", d.readU64()))
	default:
		d.out(fmt.Sprintf("<unknown opcode %d>", op))
	}
	return nil
}
