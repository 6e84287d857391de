// Package token defines the token stream shared by the scanner, parser and
// compiler. Unlike a scanner-only token kind, a Nova Token also carries the
// nested token lists produced once the scanner groups `{...}`, `[...]` and
// `(...)` into blocks, lists and argument groups, and the lists the parser
// later rewrites into Function, Closure and LetBinding forms.
package token

// Kind discriminates the variants of Token. Variants that carry no payload
// in the reference implementation (Entry, Pop) also carry none here.
type Kind int8

//nolint:revive
const (
	ILLEGAL Kind = iota

	LinePosition

	Reg
	RegRef
	RegStore
	RegStoreFast

	GlobalReg

	StoreFastBindID
	BindingRef

	Integer
	Float
	String
	Char
	Symbol
	Bool

	BlockLiteral
	ConditionalBlock
	Doblock
	Function
	Closure
	List
	Arguments
	Bindings
	LetBinding

	Call
	CurrentFile
	Op

	Entry
	Pop
)

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "illegal token"
}

var kindNames = [...]string{
	LinePosition:     "line-position",
	Reg:              "reg",
	RegRef:           "reg-ref",
	RegStore:         "reg-store",
	RegStoreFast:     "reg-store-fast",
	GlobalReg:        "global-reg",
	StoreFastBindID:  "store-fast-bind-id",
	BindingRef:       "binding-ref",
	Integer:          "integer",
	Float:            "float",
	String:           "string",
	Char:             "char",
	Symbol:           "symbol",
	Bool:             "bool",
	BlockLiteral:     "block-literal",
	ConditionalBlock: "conditional-block",
	Doblock:          "doblock",
	Function:         "function",
	Closure:          "closure",
	List:             "list",
	Arguments:        "arguments",
	Bindings:         "bindings",
	LetBinding:       "let-binding",
	Call:             "call",
	CurrentFile:      "current-file",
	Op:               "op",
	Entry:            "entry",
	Pop:              "pop",
}

// Operator enumerates the binary/unary operators produced by the scanner as
// Token{Kind: Op}. Several variants (BindVar, New, AccessCall, ModuleCall,
// UserFunctionChain, StoreTemp, And, Or, Not, Invert, PopBindings, Continue,
// ResolveBind) are recognized by the parser but rejected by the compiler;
// see the compiler package.
type Operator int8

//nolint:revive
const (
	Assign Operator = iota
	BindVar
	New
	AccessCall
	ModuleCall
	UserFunctionChain
	StoreTemp
	And
	Or
	Not
	Equals
	Gtr
	Lss
	Invert
	Mod
	Add
	Sub
	Mul
	Div
	PopBindings
	Neg
	Break
	Continue
	ResolveBind
)

// Precedence returns the binding power used by the shunting-yard parser.
// Operators not given an explicit precedence bind at 0 (effectively never
// popped ahead of another operator).
func (o Operator) Precedence() int {
	switch o {
	case Assign:
		return 2
	case And:
		return 6
	case Or:
		return 7
	case Not:
		return 8
	case Equals, Gtr, Lss:
		return 9
	case Add, Sub:
		return 12
	case Mul, Div, Mod:
		return 13
	case Invert:
		return 15
	default:
		return 0
	}
}

// IsLeftAssociative reports whether o associates left-to-right. Every
// operator is left associative except Invert and Assign.
func (o Operator) IsLeftAssociative() bool {
	switch o {
	case Invert, Assign:
		return false
	default:
		return true
	}
}

// Token is a single node of the token stream. Only the fields relevant to
// Kind are populated; see the comment on each field for which Kind(s) use
// it.
type Token struct {
	Kind Kind

	Name string  // Reg, RegRef, RegStore, RegStoreFast, GlobalReg, StoreFastBindID, BindingRef, Call, CurrentFile
	Int  int64   // Integer, LinePosition (line number)
	Flt  float64 // Float
	Str  string  // String
	Chr  rune    // Char, Symbol
	Bln  bool    // Bool

	Op Operator // Op

	// Block/list-shaped variants. Function, Closure and LetBinding
	// additionally use Params (and Closure also Captures);
	// List/Arguments/Bindings/BlockLiteral/ConditionalBlock/Doblock use Body
	// only.
	Body     []Token // BlockLiteral, ConditionalBlock, Doblock, List, Arguments, Bindings, Function, Closure, LetBinding
	Params   []Token // Function (2nd operand), Closure (2nd operand), LetBinding (bound names)
	Captures []Token // Closure (1st operand)
}

// Equal reports shallow structural equality: the Kind plus the Chr, Name or
// Op payload for the kinds that carry one. Nested token lists are not
// compared.
func (t Token) Equal(o Token) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case Symbol, Char:
		return t.Chr == o.Chr
	case Call, CurrentFile, Reg, RegRef, RegStore, RegStoreFast, GlobalReg, StoreFastBindID, BindingRef:
		return t.Name == o.Name
	case Op:
		return t.Op == o.Op
	default:
		return true
	}
}

// NewToken builds a Token of the given Kind with no payload (Entry, Pop).
func NewToken(k Kind) Token { return Token{Kind: k} }
