// Package machine implements the stack-based virtual machine that executes
// compiled Nova bytecode. It carries a split value representation: Small
// values live inline on the operand stack, Big values live on a parallel
// heap and are referenced by a tag pushed onto the operand stack.
package machine

// SmallKind discriminates the variants of Small.
type SmallKind uint8

//nolint:revive
const (
	SmallChar SmallKind = iota
	SmallInt
	SmallFloat
	SmallRegister
	SmallGlobal
	SmallBlock
	SmallFunction
	SmallBool
	SmallString
	SmallClosure
	SmallList
	SmallNone
)

// Small is the inline, copyable operand-stack representation of a value.
// String, Closure and List carry no payload here; their payload lives one
// slot deep in the parallel heap.
type Small struct {
	Kind  SmallKind
	Int   int64
	Float float64
	Index int
	Bool  bool
	Char  rune
}

func smallInt(v int64) Small      { return Small{Kind: SmallInt, Int: v} }
func smallFloat(v float64) Small  { return Small{Kind: SmallFloat, Float: v} }
func smallBool(v bool) Small      { return Small{Kind: SmallBool, Bool: v} }
func smallChar(v rune) Small      { return Small{Kind: SmallChar, Char: v} }
func smallRegister(i int) Small   { return Small{Kind: SmallRegister, Index: i} }
func smallGlobal(i int) Small     { return Small{Kind: SmallGlobal, Index: i} }
func smallBlock(addr int) Small   { return Small{Kind: SmallBlock, Index: addr} }
func smallFunction(addr int) Small { return Small{Kind: SmallFunction, Index: addr} }

// BigKind discriminates the variants of Big.
type BigKind uint8

//nolint:revive
const (
	BigChar BigKind = iota
	BigInt
	BigFloat
	BigRegister
	BigGlobal
	BigBlock
	BigFunction
	BigBool
	BigList
	BigClosure
	BigString
	BigNone
)

// Big is the heap-side, fully owned representation of a value. List carries
// its elements, Closure carries its body address (in Index) plus its
// captured values, String carries its text.
type Big struct {
	Kind     BigKind
	Int      int64
	Float    float64
	Index    int
	Bool     bool
	Char     rune
	List     []Big
	Str      string
	Upvalues []Big
}

func bigInt(v int64) Big       { return Big{Kind: BigInt, Int: v} }
func bigFloat(v float64) Big   { return Big{Kind: BigFloat, Float: v} }
func bigBool(v bool) Big       { return Big{Kind: BigBool, Bool: v} }
func bigChar(v rune) Big       { return Big{Kind: BigChar, Char: v} }
func bigNone() Big             { return Big{Kind: BigNone} }
func bigRegister(i int) Big    { return Big{Kind: BigRegister, Index: i} }
func bigGlobal(i int) Big      { return Big{Kind: BigGlobal, Index: i} }
func bigBlock(addr int) Big    { return Big{Kind: BigBlock, Index: addr} }
func bigFunction(addr int) Big { return Big{Kind: BigFunction, Index: addr} }
func bigList(items []Big) Big  { return Big{Kind: BigList, List: items} }
func bigString(s string) Big   { return Big{Kind: BigString, Str: s} }
func bigClosure(addr int, captures []Big) Big {
	return Big{Kind: BigClosure, Index: addr, Upvalues: captures}
}

// isAggregate reports whether a Big value's payload lives on the heap
// (i.e. it is too large to fit inline in a Small).
func (b Big) isAggregate() bool {
	return b.Kind == BigList || b.Kind == BigClosure || b.Kind == BigString
}

// toSmall projects a Big down to its Small tag. Aggregate kinds collapse to
// a bare tag: the payload itself stays on the heap, referenced by stack
// position, not by value.
func (b Big) toSmall() Small {
	switch b.Kind {
	case BigChar:
		return smallChar(b.Char)
	case BigInt:
		return smallInt(b.Int)
	case BigFloat:
		return smallFloat(b.Float)
	case BigRegister:
		return smallRegister(b.Index)
	case BigGlobal:
		return smallGlobal(b.Index)
	case BigBlock:
		return smallBlock(b.Index)
	case BigFunction:
		return smallFunction(b.Index)
	case BigBool:
		return smallBool(b.Bool)
	case BigList:
		return Small{Kind: SmallList}
	case BigClosure:
		return Small{Kind: SmallClosure}
	case BigString:
		return Small{Kind: SmallString}
	default:
		return Small{Kind: SmallNone}
	}
}

// toBig widens a scalar Small back to a Big. Must not be called for List,
// Closure or String tags; those are resolved from the heap instead.
func (s Small) toBig() Big {
	switch s.Kind {
	case SmallChar:
		return bigChar(s.Char)
	case SmallInt:
		return bigInt(s.Int)
	case SmallFloat:
		return bigFloat(s.Float)
	case SmallRegister:
		return bigRegister(s.Index)
	case SmallGlobal:
		return bigGlobal(s.Index)
	case SmallBlock:
		return bigBlock(s.Index)
	case SmallFunction:
		return bigFunction(s.Index)
	case SmallBool:
		return bigBool(s.Bool)
	default:
		return bigNone()
	}
}

// Equal reports structural equality, used by EQUALS. Lists and closure
// captures compare elementwise, matching the derived PartialEq on the
// reference VmBig enum.
func (b Big) Equal(o Big) bool {
	if b.Kind != o.Kind {
		return false
	}
	switch b.Kind {
	case BigChar:
		return b.Char == o.Char
	case BigInt:
		return b.Int == o.Int
	case BigFloat:
		return b.Float == o.Float
	case BigRegister, BigGlobal, BigBlock, BigFunction:
		return b.Index == o.Index
	case BigBool:
		return b.Bool == o.Bool
	case BigString:
		return b.Str == o.Str
	case BigList:
		if len(b.List) != len(o.List) {
			return false
		}
		for i := range b.List {
			if !b.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case BigClosure:
		if b.Index != o.Index || len(b.Upvalues) != len(o.Upvalues) {
			return false
		}
		for i := range b.Upvalues {
			if !b.Upvalues[i].Equal(o.Upvalues[i]) {
				return false
			}
		}
		return true
	case BigNone:
		return true
	default:
		return false
	}
}
