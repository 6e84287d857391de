// Package compiler implements Nova's single-pass bytecode compiler: it
// walks a postfix token stream exactly once, resolving names against three
// disjoint scopes (locals, upvalues, globals) and a separate let-binding
// scope, and emits a flat byte stream understood by lang/machine.
package compiler

import (
	"math"

	"github.com/mna/nova/lang/novaerr"
	"github.com/mna/nova/lang/table"
	"github.com/mna/nova/lang/token"
)

// Compiler compiles one function/block scope's worth of tokens at a time.
// Function, closure and let-binding bodies are compiled by a fresh Compiler
// that inherits some of the parent's tables; block literals, conditional
// bodies and list literals are compiled by the same Compiler as the code
// around them. There is no backpatching: each nested body is compiled
// before its length-prefixed opcode is emitted.
type Compiler struct {
	Bindings  *table.Table
	Global    *table.Table
	Variables *table.Table
	Upvalues  *table.Table
	Natives   *table.Table

	output      []byte
	currentLine int
	filepath    string
	entry       int
}

// New returns an empty Compiler with fresh symbol tables.
func New() *Compiler {
	return &Compiler{
		Bindings:  table.New(),
		Global:    table.New(),
		Variables: table.New(),
		Upvalues:  table.New(),
		Natives:   table.New(),
	}
}

// Compile compiles the full (already-parsed, postfix-ordered) token stream
// for a source file into a Program.
func (c *Compiler) Compile(input []token.Token, filepath string) (*Program, error) {
	c.filepath = filepath
	chunk, err := c.compileChunk(input)
	if err != nil {
		return nil, err
	}

	packaged := c.loadPackage(chunk)
	packaged = c.loadGlobals(packaged)
	c.output = append(c.output, packaged...)

	return &Program{Code: c.output, Entry: c.entry, Natives: c.Natives}, nil
}

func (c *Compiler) errf(note string) error {
	return novaerr.NewCompiler(note, c.currentLine, c.filepath)
}

func (c *Compiler) compileChunk(input []token.Token) ([]byte, error) {
	var out []byte

	for _, tok := range input {
		switch tok.Kind {
		case token.LinePosition:
			c.currentLine = int(tok.Int)

		case token.Reg:
			switch tok.Name {
			case "true":
				out = append(out, byte(TRUE))
			case "false":
				out = append(out, byte(FALSE))
			default:
				if idx, ok := c.Variables.GetIndex(tok.Name); ok {
					out = append(out, byte(ID))
					out = appendU16(out, uint16(idx))
				} else if idx, ok := c.Upvalues.GetIndex(tok.Name); ok {
					out = append(out, byte(CID))
					out = appendU64(out, uint64(idx))
				} else if idx, ok := c.Global.GetIndex(tok.Name); ok {
					out = append(out, byte(GLOBALID))
					out = appendU64(out, uint64(idx))
				} else {
					return nil, c.errf("[ID] " + tok.Name + " is not initialized")
				}
			}

		case token.RegStore:
			idx := c.Variables.Insert(tok.Name)
			out = append(out, byte(STOREID))
			out = appendU64(out, uint64(idx))

		case token.RegStoreFast:
			if c.Variables.Has(tok.Name) {
				return nil, c.errf("[REGSTOREFAST] " + tok.Name + " is already defined")
			}
			idx := c.Variables.Insert(tok.Name)
			out = append(out, byte(STOREFASTID))
			out = appendU64(out, uint64(idx))

		case token.StoreFastBindID:
			if c.Bindings.Has(tok.Name) {
				return nil, c.errf("[BINDING] " + tok.Name + " is already defined")
			}
			c.Bindings.Insert(tok.Name)
			out = append(out, byte(STOREBIND))

		case token.BindingRef:
			idx, ok := c.Bindings.GetIndex(tok.Name)
			if !ok {
				return nil, c.errf(tok.Name + " is not initialized")
			}
			out = append(out, byte(GETBIND))
			out = appendU64(out, uint64(idx))

		case token.Integer:
			if tok.Int > 0 && tok.Int < math.MaxUint8 {
				out = append(out, byte(BYTE), byte(tok.Int))
			} else {
				out = append(out, byte(INTEGER))
				out = appendI64(out, tok.Int)
			}

		case token.Float:
			out = append(out, byte(FLOAT))
			out = appendF64(out, tok.Flt)

		case token.String:
			out = append(out, byte(STRING))
			out = appendU64(out, uint64(len(tok.Str)))
			out = append(out, tok.Str...)

		case token.Char:
			out = append(out, byte(CHAR), byte(tok.Chr))

		case token.BlockLiteral:
			body, err := c.compileChunk(tok.Body)
			if err != nil {
				return nil, err
			}
			out = append(out, byte(BLOCK))
			out = appendU64(out, uint64(len(body)))
			out = append(out, body...)

		case token.Function:
			body, err := c.compileFunction(tok.Params, tok.Body, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, byte(FUNCTION))
			out = appendU64(out, uint64(len(body)))
			out = append(out, body...)

		case token.Call:
			emitted, err := c.compileCall(tok.Name)
			if err != nil {
				return nil, err
			}
			out = append(out, emitted...)

		case token.Op:
			b, err := c.compileOp(tok.Op)
			if err != nil {
				return nil, err
			}
			out = append(out, b)

		case token.List:
			body, err := c.compileChunk(tok.Body)
			if err != nil {
				return nil, err
			}
			body = dropTrailingRet(body)
			out = append(out, body...)
			out = append(out, byte(NEWLIST))
			out = appendU64(out, uint64(len(tok.Body)))

		case token.ConditionalBlock:
			body, err := c.compileChunk(tok.Body)
			if err != nil {
				return nil, err
			}
			body = dropTrailingRet(body)
			out = append(out, byte(JUMPIFFALSE))
			out = appendU32(out, uint32(len(body)))
			out = append(out, body...)

		case token.RegRef:
			idx, ok := c.Variables.GetIndex(tok.Name)
			if !ok {
				return nil, c.errf(tok.Name + " is not initialized")
			}
			out = append(out, byte(REFID))
			out = appendU16(out, uint16(idx))

		case token.Closure:
			emitted, err := c.compileClosure(tok)
			if err != nil {
				return nil, err
			}
			out = append(out, emitted...)

		case token.CurrentFile:
			c.filepath = tok.Name

		case token.GlobalReg:
			idx := c.Global.Insert(tok.Name)
			out = append(out, byte(STOREGLOBAL))
			out = appendU64(out, uint64(idx))

		case token.LetBinding:
			emitted, err := c.compileLetBinding(tok.Params, tok.Body)
			if err != nil {
				return nil, err
			}
			out = append(out, emitted...)

		case token.Entry:
			c.entry = len(out)

		case token.Pop:
			out = append(out, byte(POP))

		default:
			return nil, c.errf("unsupported token kind " + tok.Kind.String())
		}
	}

	out = append(out, byte(RET))
	return out, nil
}

// compileFunction builds a fresh child Compiler for a function body, or a
// closure body when upvalues is non-nil. The child shares the parent's
// Global and Natives tables but starts with an empty Variables table.
// params must be plain identifiers and are bound in reverse declaration
// order, matching the reference implementation.
func (c *Compiler) compileFunction(params, logic []token.Token, upvalues *table.Table) ([]byte, error) {
	child := New()
	child.currentLine = c.currentLine
	child.Natives = c.Natives
	child.Global = c.Global
	child.filepath = c.filepath
	if upvalues != nil {
		child.Upvalues = upvalues
	}

	args := make([]token.Token, 0, len(params)+len(logic))
	for i := len(params) - 1; i >= 0; i-- {
		p := params[i]
		if p.Kind != token.Reg {
			return nil, c.errf("function parameters must be plain identifiers")
		}
		args = append(args, token.Token{Kind: token.RegStoreFast, Name: p.Name})
	}
	args = append(args, logic...)

	body, err := child.compileChunk(args)
	if err != nil {
		return nil, err
	}
	body = child.loadPackage(body)
	c.Global = child.Global
	return body, nil
}

func (c *Compiler) compileClosure(tok token.Token) ([]byte, error) {
	upvalues := table.New()
	for _, v := range tok.Captures {
		if v.Kind != token.Reg {
			return nil, c.errf("closure captures must be plain identifiers")
		}
		if !c.Variables.Has(v.Name) {
			return nil, c.errf("[CLOSURE] " + v.Name + " is not initialized")
		}
		upvalues.Insert(v.Name)
	}

	capturesCode, err := c.compileChunk(tok.Captures)
	if err != nil {
		return nil, err
	}
	capturesCode = dropTrailingRet(capturesCode)

	var out []byte
	out = append(out, capturesCode...)
	out = append(out, byte(NEWLIST))
	out = appendU64(out, uint64(len(tok.Captures)))

	body, err := c.compileFunction(tok.Params, tok.Body, upvalues)
	if err != nil {
		return nil, err
	}

	out = append(out, byte(CLOSURE))
	out = appendU64(out, uint64(len(body)))
	out = append(out, body...)
	return out, nil
}

// compileLetBinding compiles a scoped binding frame: the names are bound via
// StoreFastBindID in reverse declaration order (as the reference
// implementation does for all parameter-like bindings), and the whole body
// is wrapped with NEWBINDING/POPBINDING markers. Unlike compileFunction, the
// child inherits the parent's Upvalues and Variables tables directly (not a
// clone), so the binding body can see the parent's locals and any enclosing
// closure's captures.
func (c *Compiler) compileLetBinding(names, logic []token.Token) ([]byte, error) {
	child := New()
	child.Upvalues = c.Upvalues
	child.Variables = c.Variables
	child.currentLine = c.currentLine
	child.Natives = c.Natives
	child.Global = c.Global
	child.filepath = c.filepath

	args := make([]token.Token, 0, len(names)+len(logic))
	for i := len(names) - 1; i >= 0; i-- {
		n := names[i]
		if n.Kind != token.Reg {
			return nil, c.errf("let-binding names must be plain identifiers")
		}
		args = append(args, token.Token{Kind: token.StoreFastBindID, Name: n.Name})
	}
	args = append(args, logic...)

	body, err := child.compileChunk(args)
	if err != nil {
		return nil, err
	}
	body = dropTrailingRet(body)

	out := []byte{byte(NEWBINDING)}
	out = append(out, body...)
	out = append(out, byte(POPBINDING))
	c.Global = child.Global
	return out, nil
}

func (c *Compiler) compileCall(name string) ([]byte, error) {
	switch name {
	case "loop":
		return []byte{byte(LOOP)}, nil
	case "range":
		return []byte{byte(RANGE)}, nil
	case "for":
		return []byte{byte(FOR), byte(BOUNCE)}, nil
	case "when":
		return []byte{byte(WHEN)}, nil
	case "if":
		return []byte{byte(IF)}, nil
	case "return":
		return []byte{byte(RET)}, nil
	case "rec":
		return []byte{byte(REC)}, nil
	}

	if idx, ok := c.Natives.GetIndex(name); ok {
		out := []byte{byte(NATIVE)}
		return appendU64(out, uint64(idx)), nil
	}
	if idx, ok := c.Variables.GetIndex(name); ok {
		out := []byte{byte(DIRECTCALL)}
		return appendU64(out, uint64(idx)), nil
	}
	if idx, ok := c.Upvalues.GetIndex(name); ok {
		out := []byte{byte(CID)}
		out = appendU64(out, uint64(idx))
		return append(out, byte(CALL)), nil
	}
	if idx, ok := c.Global.GetIndex(name); ok {
		out := []byte{byte(GLOBALID)}
		out = appendU64(out, uint64(idx))
		return append(out, byte(CALL)), nil
	}
	return nil, c.errf("[CALL] " + name + " is not initialized")
}

func (c *Compiler) compileOp(op token.Operator) (byte, error) {
	switch op {
	case token.Assign:
		return byte(ASSIGN), nil
	case token.Equals:
		return byte(EQUALS), nil
	case token.Gtr:
		return byte(GTR), nil
	case token.Lss:
		return byte(LSS), nil
	case token.Mod:
		return byte(MODULO), nil
	case token.Add:
		return byte(ADD), nil
	case token.Sub:
		return byte(SUB), nil
	case token.Mul:
		return byte(MUL), nil
	case token.Div:
		return byte(DIV), nil
	case token.Neg:
		return byte(NEG), nil
	case token.Break:
		return byte(BREAK), nil
	default:
		return 0, c.errf("operator not supported by this implementation")
	}
}

func dropTrailingRet(b []byte) []byte {
	if len(b) > 0 && Opcode(b[len(b)-1]) == RET {
		return b[:len(b)-1]
	}
	return b
}

func (c *Compiler) loadPackage(body []byte) []byte {
	out := []byte{byte(ALLOCATEREG)}
	out = appendU64(out, uint64(c.Variables.Len()))
	return append(out, body...)
}

func (c *Compiler) loadGlobals(body []byte) []byte {
	out := []byte{byte(ALLOCATEGLOBAL)}
	out = appendU64(out, uint64(c.Global.Len()))
	return append(out, body...)
}
