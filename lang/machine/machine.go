package machine

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mna/nova/lang/compiler"
	"github.com/mna/nova/lang/novaerr"
)

// NativeFunc is a host-provided callback invoked by the NATIVE opcode. It
// manipulates the Vm's stack directly, the same way a native function body
// would if it were compiled Nova code.
type NativeFunc func(vm *Vm) error

// Vm is a stack-based virtual machine executing one compiled Nova program.
// It owns its program bytes, operand stack, heap, registers, upvalues,
// globals, bindings and call stack; nothing is shared between Vm instances.
type Vm struct {
	code []byte
	ip   int

	natives []NativeFunc

	callstack []Frame

	stack     []Small
	heap      []Big
	registers []Big
	window    []int
	offset    int
	upvalues  [][]Big
	globals   []Big
	bindings  [][]Big

	// MaxSteps bounds the number of dispatched instructions. Zero (the
	// default) means unbounded. Exceeding it surfaces as a runtime error,
	// letting a host (tests, a REPL) bound runaway programs.
	MaxSteps int64
	steps    int64
}

// New returns an empty Vm, ready to have a program loaded with SetProgram.
func New() *Vm {
	return &Vm{}
}

// SetProgram loads the bytecode to execute and resets the instruction
// pointer to its start.
func (vm *Vm) SetProgram(code []byte) {
	vm.code = code
	vm.ip = 0
}

// RegisterNative appends fn to the native-function table and returns its
// index, matching the index a NATIVE opcode operand names.
func (vm *Vm) RegisterNative(fn NativeFunc) int {
	vm.natives = append(vm.natives, fn)
	return len(vm.natives) - 1
}

// Goto sets the instruction pointer directly.
func (vm *Vm) Goto(addr int) {
	vm.ip = addr
}

func (vm *Vm) next() byte {
	b := vm.code[vm.ip]
	vm.ip++
	return b
}

func (vm *Vm) readU16() uint16 {
	b := [2]byte{vm.next(), vm.next()}
	return binary.LittleEndian.Uint16(b[:])
}

func (vm *Vm) readU32() uint32 {
	var b [4]byte
	for i := range b {
		b[i] = vm.next()
	}
	return binary.LittleEndian.Uint32(b[:])
}

func (vm *Vm) readU64() uint64 {
	var b [8]byte
	for i := range b {
		b[i] = vm.next()
	}
	return binary.LittleEndian.Uint64(b[:])
}

// ---- operand stack / heap ----

// Push pushes a Big value, splitting it into its Small tag (pushed to the
// operand stack) and, for aggregate kinds, its payload (appended to the
// heap).
func (vm *Vm) Push(v Big) {
	if v.isAggregate() {
		vm.heap = append(vm.heap, v)
	}
	vm.stack = append(vm.stack, v.toSmall())
}

// PushFast pushes a scalar directly onto the operand stack.
func (vm *Vm) PushFast(v Small) {
	vm.stack = append(vm.stack, v)
}

// Pop pops one value, widening it back to a Big, resolving aggregate tags
// against the heap.
func (vm *Vm) Pop() (Big, bool) {
	s, ok := vm.popFast()
	if !ok {
		return Big{}, false
	}
	switch s.Kind {
	case SmallList, SmallClosure, SmallString:
		n := len(vm.heap)
		if n == 0 {
			return Big{}, false
		}
		v := vm.heap[n-1]
		vm.heap = vm.heap[:n-1]
		return v, true
	default:
		return s.toBig(), true
	}
}

// Pop2 pops two values in order (first return popped first, i.e. it was
// the top of stack).
func (vm *Vm) Pop2() (Big, Big, bool) {
	v1, ok := vm.Pop()
	if !ok {
		return Big{}, Big{}, false
	}
	v2, ok := vm.Pop()
	if !ok {
		return Big{}, Big{}, false
	}
	return v1, v2, true
}

func (vm *Vm) popFast() (Small, bool) {
	n := len(vm.stack)
	if n == 0 {
		return Small{}, false
	}
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v, true
}

func (vm *Vm) popFast2() (Small, Small, bool) {
	v1, ok := vm.popFast()
	if !ok {
		return Small{}, Small{}, false
	}
	v2, ok := vm.popFast()
	if !ok {
		return Small{}, Small{}, false
	}
	return v1, v2, true
}

func (vm *Vm) popFast3() (Small, Small, Small, bool) {
	v1, ok := vm.popFast()
	if !ok {
		return Small{}, Small{}, Small{}, false
	}
	v2, ok := vm.popFast()
	if !ok {
		return Small{}, Small{}, Small{}, false
	}
	v3, ok := vm.popFast()
	if !ok {
		return Small{}, Small{}, Small{}, false
	}
	return v1, v2, v3, true
}

// ---- registers ----

func (vm *Vm) allocateRegisters(n int) {
	vm.offset = len(vm.registers)
	vm.window = append(vm.window, vm.offset)
	for i := 0; i < n; i++ {
		vm.registers = append(vm.registers, bigNone())
	}
}

func (vm *Vm) deallocateRegisters() {
	n := len(vm.window)
	if n == 0 {
		return
	}
	base := vm.window[n-1]
	vm.window = vm.window[:n-1]
	vm.registers = vm.registers[:base]
	if len(vm.window) > 0 {
		vm.offset = vm.window[len(vm.window)-1]
	} else {
		vm.offset = 0
	}
}

func (vm *Vm) getFromRegister(idx int) Big {
	return vm.registers[vm.offset+idx]
}

func (vm *Vm) storeInRegister(idx int, v Big) {
	vm.registers[vm.offset+idx] = v
}

// ---- globals / upvalues / bindings ----

func (vm *Vm) allocateGlobals(n int) {
	for i := 0; i < n; i++ {
		vm.globals = append(vm.globals, bigNone())
	}
}

func (vm *Vm) storeInGlobal(idx int, v Big) { vm.globals[idx] = v }

func (vm *Vm) globalToStack(idx int) { vm.Push(vm.globals[idx]) }

func (vm *Vm) allocateUpvalue(values []Big) {
	vm.upvalues = append(vm.upvalues, values)
}

func (vm *Vm) deallocateUpvalue() {
	if n := len(vm.upvalues); n > 0 {
		vm.upvalues = vm.upvalues[:n-1]
	}
}

func (vm *Vm) upvalueToStack(idx int) {
	vm.Push(vm.upvalues[len(vm.upvalues)-1][idx])
}

func (vm *Vm) newBindings() {
	vm.bindings = append(vm.bindings, nil)
}

func (vm *Vm) popBindings() {
	if n := len(vm.bindings); n > 0 {
		vm.bindings = vm.bindings[:n-1]
	}
}

func (vm *Vm) pushBinding(v Big) {
	n := len(vm.bindings)
	vm.bindings[n-1] = append(vm.bindings[n-1], v)
}

func (vm *Vm) bindingToStack(idx int) {
	vm.Push(vm.bindings[len(vm.bindings)-1][idx])
}

// Run dispatches instructions starting at the current instruction pointer
// until RET unwinds an empty call stack.
func (vm *Vm) Run() error {
	for {
		if vm.MaxSteps > 0 {
			vm.steps++
			if vm.steps > vm.MaxSteps {
				return novaerr.NewRuntime(fmt.Sprintf("exceeded maximum step count of %d", vm.MaxSteps))
			}
		}

		op := compiler.Opcode(vm.next())
		switch op {
		case compiler.RET:
			if len(vm.callstack) == 0 {
				return nil
			}
			n := len(vm.callstack) - 1
			ret := vm.callstack[n]
			vm.callstack = vm.callstack[:n]
			switch ret.Kind {
			case CallBlock:
				vm.Goto(ret.Ret)
			case CallFunction:
				vm.deallocateRegisters()
				vm.Goto(ret.Ret)
			case CallClosure:
				vm.deallocateRegisters()
				vm.deallocateUpvalue()
				vm.Goto(ret.Ret)
			case CallFor:
				if ret.ForCursor < len(ret.ForList) {
					vm.storeInRegister(ret.ForReg, ret.ForList[ret.ForCursor])
					vm.callstack = append(vm.callstack, Frame{
						Kind:      CallFor,
						Target:    ret.Target,
						Ret:       ret.Ret,
						ForReg:    ret.ForReg,
						ForList:   ret.ForList,
						ForCursor: ret.ForCursor + 1,
					})
					vm.Goto(ret.Target)
				} else {
					vm.Goto(ret.Ret)
				}
			}

		case compiler.INTEGER:
			vm.PushFast(smallInt(int64(vm.readU64())))

		case compiler.BYTE:
			vm.PushFast(smallInt(int64(vm.next())))

		case compiler.FLOAT:
			vm.PushFast(smallFloat(math.Float64frombits(vm.readU64())))

		case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV, compiler.MODULO:
			r, err := vm.arith(op)
			if err != nil {
				return err
			}
			vm.PushFast(r)

		case compiler.GTR, compiler.LSS:
			r, err := vm.compare(op)
			if err != nil {
				return err
			}
			vm.PushFast(r)

		case compiler.NEG:
			v, ok := vm.popFast()
			if !ok {
				return novaerr.NewRuntime("not enough arguments for negation")
			}
			switch v.Kind {
			case SmallInt:
				vm.PushFast(smallInt(-v.Int))
			case SmallFloat:
				vm.PushFast(smallFloat(-v.Float))
			default:
				return novaerr.NewRuntime("cannot negate a non-numeric value")
			}

		case compiler.STOREID:
			idx := int(vm.readU64())
			vm.PushFast(smallRegister(idx))

		case compiler.ID:
			idx := int(vm.readU16())
			vm.Push(vm.getFromRegister(idx))

		case compiler.REFID:
			idx := int(vm.readU16())
			vm.PushFast(smallRegister(idx))

		case compiler.ASSIGN:
			data, ok1 := vm.Pop()
			tag, ok2 := vm.popFast()
			if !ok1 || !ok2 {
				return novaerr.NewRuntime("not enough arguments for assignment")
			}
			switch tag.Kind {
			case SmallRegister:
				vm.storeInRegister(tag.Index, data)
			case SmallGlobal:
				vm.storeInGlobal(tag.Index, data)
			default:
				return novaerr.NewRuntime("cannot assign to a non-storage location")
			}

		case compiler.ALLOCATEREG:
			vm.allocateRegisters(int(vm.readU64()))

		case compiler.STOREFASTID:
			idx := int(vm.readU64())
			v, ok := vm.Pop()
			if !ok {
				return novaerr.NewRuntime("not enough arguments for fast store")
			}
			vm.storeInRegister(idx, v)

		case compiler.BLOCK:
			vm.Push(bigBlock(vm.ip + 8))
			jump := int(vm.readU64())
			vm.ip += jump

		case compiler.FUNCTION:
			vm.Push(bigFunction(vm.ip + 8))
			jump := int(vm.readU64())
			vm.ip += jump

		case compiler.CLOSURE:
			captures, ok := vm.Pop()
			if !ok || captures.Kind != BigList {
				return novaerr.NewRuntime("closure construction requires a capture list")
			}
			vm.Push(bigClosure(vm.ip+8, captures.List))
			jump := int(vm.readU64())
			vm.ip += jump

		case compiler.CALL:
			callee, ok := vm.Pop()
			if !ok {
				return novaerr.NewRuntime("not enough arguments for call")
			}
			if err := vm.dispatchCall(callee); err != nil {
				return err
			}

		case compiler.DIRECTCALL:
			idx := int(vm.readU64())
			target := vm.getFromRegister(idx)
			if target.Kind == BigList {
				i, ok := vm.popFast()
				if !ok || i.Kind != SmallInt {
					return novaerr.NewRuntime("list indexing requires an integer index")
				}
				if i.Int < 0 || int(i.Int) >= len(target.List) {
					return novaerr.NewRuntime("list index out of range")
				}
				vm.Push(target.List[i.Int])
				break
			}
			if err := vm.dispatchCall(target); err != nil {
				return err
			}

		case compiler.REC:
			if len(vm.callstack) == 0 {
				return novaerr.NewRuntime("rec used outside of any call frame")
			}
			fr := vm.callstack[len(vm.callstack)-1]
			switch fr.Kind {
			case CallFunction, CallBlock:
				vm.callstack = append(vm.callstack, Frame{Kind: fr.Kind, Target: fr.Target, Ret: vm.ip})
				vm.Goto(fr.Target)
			default:
				return novaerr.NewRuntime("rec is only valid inside a function or block frame")
			}

		case compiler.WHEN:
			callee, test, ok := vm.popFast2()
			if !ok || callee.Kind != SmallBlock || test.Kind != SmallBool {
				return novaerr.NewRuntime("when requires a block and a boolean")
			}
			if test.Bool {
				vm.callstack = append(vm.callstack, Frame{Kind: CallBlock, Target: callee.Index, Ret: vm.ip})
				vm.Goto(callee.Index)
			}

		case compiler.IF:
			elseb, thenb, test, ok := vm.popFast3()
			if !ok || elseb.Kind != SmallBlock || thenb.Kind != SmallBlock || test.Kind != SmallBool {
				return novaerr.NewRuntime("if requires two blocks and a boolean")
			}
			target := elseb.Index
			if test.Bool {
				target = thenb.Index
			}
			vm.callstack = append(vm.callstack, Frame{Kind: CallBlock, Target: target, Ret: vm.ip})
			vm.Goto(target)

		case compiler.EQUALS:
			one, two, ok := vm.Pop2()
			if !ok {
				return novaerr.NewRuntime("not enough arguments for equality test")
			}
			vm.PushFast(smallBool(one.Equal(two)))

		case compiler.NEWLIST:
			size := int(vm.readU64())
			items := make([]Big, size)
			for i := size - 1; i >= 0; i-- {
				v, ok := vm.Pop()
				if !ok {
					return novaerr.NewRuntime("not enough arguments to build a list")
				}
				items[i] = v
			}
			vm.Push(bigList(items))

		case compiler.TRUE:
			vm.PushFast(smallBool(true))

		case compiler.FALSE:
			vm.PushFast(smallBool(false))

		case compiler.JUMPIFFALSE:
			jump := int(vm.readU32())
			v, ok := vm.popFast()
			if !ok {
				return novaerr.NewRuntime("not enough arguments for conditional jump")
			}
			if v.Kind == SmallBool && !v.Bool {
				vm.ip += jump
			}

		case compiler.STRING:
			size := int(vm.readU64())
			buf := make([]byte, size)
			for i := range buf {
				buf[i] = vm.next()
			}
			vm.Push(bigString(string(buf)))

		case compiler.CHAR:
			vm.PushFast(smallChar(rune(vm.next())))

		case compiler.CID:
			idx := int(vm.readU64())
			vm.upvalueToStack(idx)

		case compiler.FOR:
			blockv, ok1 := vm.popFast()
			listv, ok2 := vm.Pop()
			regv, ok3 := vm.popFast()
			if !ok1 || !ok2 || !ok3 || blockv.Kind != SmallBlock || listv.Kind != BigList || regv.Kind != SmallRegister {
				return novaerr.NewRuntime("for requires a register, a list and a block")
			}
			if len(listv.List) > 0 {
				vm.storeInRegister(regv.Index, listv.List[0])
				vm.callstack = append(vm.callstack, Frame{
					Kind:      CallFor,
					Target:    blockv.Index,
					Ret:       vm.ip,
					ForReg:    regv.Index,
					ForList:   listv.List,
					ForCursor: 1,
				})
				vm.Goto(blockv.Index)
			}

		case compiler.RANGE:
			to, from, ok := vm.popFast2()
			if !ok || to.Kind != SmallInt || from.Kind != SmallInt {
				return novaerr.NewRuntime("range requires two integers")
			}
			var items []Big
			if from.Int <= to.Int {
				items = make([]Big, 0, to.Int-from.Int+1)
				for i := from.Int; i <= to.Int; i++ {
					items = append(items, bigInt(i))
				}
			}
			vm.Push(bigList(items))

		case compiler.NATIVE:
			idx := int(vm.readU64())
			if idx < 0 || idx >= len(vm.natives) {
				return novaerr.NewRuntime(fmt.Sprintf("no native function registered at index %d", idx))
			}
			if err := vm.natives[idx](vm); err != nil {
				return err
			}

		case compiler.ALLOCATEGLOBAL:
			vm.allocateGlobals(int(vm.readU64()))

		case compiler.GLOBALID:
			vm.globalToStack(int(vm.readU64()))

		case compiler.STOREGLOBAL:
			idx := int(vm.readU64())
			vm.PushFast(smallGlobal(idx))

		case compiler.POP:
			vm.Pop()

		case compiler.NEWBINDING:
			vm.newBindings()

		case compiler.POPBINDING:
			vm.popBindings()

		case compiler.STOREBIND:
			v, ok := vm.Pop()
			if !ok {
				return novaerr.NewRuntime("not enough arguments to bind")
			}
			vm.pushBinding(v)

		case compiler.GETBIND:
			idx := int(vm.readU64())
			vm.bindingToStack(idx)

		case compiler.BOUNCE:
			// No-op marker the compiler leaves after FOR; a completed for-loop's
			// RET lands exactly here on its way back to the caller.

		case compiler.LOOP:
			return novaerr.NewRuntime(fmt.Sprintf("opcode %s is not implemented", op))

		default:
			// Unknown opcodes are silently skipped, matching the reference VM's
			// catch-all dispatch arm.
		}
	}
}

// dispatchCall pushes a call frame for a Function, Block or Closure value
// and jumps to its target. CALL and the non-list branch of DIRECTCALL both
// funnel through this.
func (vm *Vm) dispatchCall(callee Big) error {
	switch callee.Kind {
	case BigFunction:
		vm.callstack = append(vm.callstack, Frame{Kind: CallFunction, Target: callee.Index, Ret: vm.ip})
		vm.Goto(callee.Index)
	case BigBlock:
		vm.callstack = append(vm.callstack, Frame{Kind: CallBlock, Target: callee.Index, Ret: vm.ip})
		vm.Goto(callee.Index)
	case BigClosure:
		vm.callstack = append(vm.callstack, Frame{Kind: CallClosure, Target: callee.Index, Ret: vm.ip})
		vm.allocateUpvalue(callee.Upvalues)
		vm.Goto(callee.Index)
	default:
		return novaerr.NewRuntime("value is not callable")
	}
	return nil
}

// arith implements ADD/SUB/MUL/DIV/MODULO. Operands are popped as
// (arg1, arg2) = (top of stack, next); under postfix order this makes arg2
// the left-hand operand and arg1 the right-hand one, so e.g. SUB computes
// arg2-arg1. Integer division always promotes to Float, even for two
// integer operands.
func (vm *Vm) arith(op compiler.Opcode) (Small, error) {
	arg1, arg2, ok := vm.popFast2()
	if !ok {
		return Small{}, novaerr.NewRuntime("not enough arguments for arithmetic")
	}

	switch op {
	case compiler.ADD:
		switch {
		case arg1.Kind == SmallInt && arg2.Kind == SmallInt:
			return smallInt(arg1.Int + arg2.Int), nil
		case arg1.Kind == SmallInt && arg2.Kind == SmallFloat:
			return smallFloat(arg2.Float + float64(arg1.Int)), nil
		case arg1.Kind == SmallFloat && arg2.Kind == SmallInt:
			return smallFloat(arg1.Float + float64(arg2.Int)), nil
		case arg1.Kind == SmallFloat && arg2.Kind == SmallFloat:
			return smallFloat(arg1.Float + arg2.Float), nil
		default:
			return Small{}, novaerr.NewRuntime("cannot add non-numeric values")
		}
	case compiler.SUB:
		switch {
		case arg1.Kind == SmallInt && arg2.Kind == SmallInt:
			return smallInt(arg2.Int - arg1.Int), nil
		case arg1.Kind == SmallInt && arg2.Kind == SmallFloat:
			return smallFloat(arg2.Float - float64(arg1.Int)), nil
		case arg1.Kind == SmallFloat && arg2.Kind == SmallInt:
			return smallFloat(float64(arg2.Int) - arg1.Float), nil
		case arg1.Kind == SmallFloat && arg2.Kind == SmallFloat:
			return smallFloat(arg2.Float - arg1.Float), nil
		default:
			return Small{}, novaerr.NewRuntime("cannot subtract non-numeric values")
		}
	case compiler.MUL:
		switch {
		case arg1.Kind == SmallInt && arg2.Kind == SmallInt:
			return smallInt(arg1.Int * arg2.Int), nil
		case arg1.Kind == SmallInt && arg2.Kind == SmallFloat:
			return smallFloat(arg2.Float * float64(arg1.Int)), nil
		case arg1.Kind == SmallFloat && arg2.Kind == SmallInt:
			return smallFloat(arg1.Float * float64(arg2.Int)), nil
		case arg1.Kind == SmallFloat && arg2.Kind == SmallFloat:
			return smallFloat(arg1.Float * arg2.Float), nil
		default:
			return Small{}, novaerr.NewRuntime("cannot multiply non-numeric values")
		}
	case compiler.DIV:
		switch {
		case arg1.Kind == SmallInt && arg2.Kind == SmallInt:
			if arg1.Int == 0 {
				return Small{}, novaerr.NewRuntime("division by zero")
			}
			return smallFloat(float64(arg2.Int / arg1.Int)), nil
		case arg1.Kind == SmallInt && arg2.Kind == SmallFloat:
			return smallFloat(arg2.Float / float64(arg1.Int)), nil
		case arg1.Kind == SmallFloat && arg2.Kind == SmallInt:
			return smallFloat(float64(arg2.Int) / arg1.Float), nil
		case arg1.Kind == SmallFloat && arg2.Kind == SmallFloat:
			return smallFloat(arg2.Float / arg1.Float), nil
		default:
			return Small{}, novaerr.NewRuntime("cannot divide non-numeric values")
		}
	case compiler.MODULO:
		if arg1.Kind == SmallInt && arg2.Kind == SmallInt {
			if arg1.Int == 0 {
				return Small{}, novaerr.NewRuntime("modulo by zero")
			}
			return smallInt(flooredMod(arg2.Int, arg1.Int)), nil
		}
		return Small{}, novaerr.NewRuntime("modulo requires two integers")
	default:
		return Small{}, novaerr.NewRuntime("unsupported arithmetic opcode")
	}
}

// flooredMod returns a mod b using floored-division semantics (the result
// takes the sign of the divisor), matching the reference implementation's
// use of the modulo crate rather than Go's truncated %.
func flooredMod(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// compare implements GTR/LSS under the same (arg1=top, arg2=next) operand
// order as arith, so GTR computes arg2 > arg1.
func (vm *Vm) compare(op compiler.Opcode) (Small, error) {
	arg1, arg2, ok := vm.popFast2()
	if !ok {
		return Small{}, novaerr.NewRuntime("not enough arguments for comparison")
	}

	var a, b float64
	switch {
	case arg1.Kind == SmallInt && arg2.Kind == SmallInt:
		if op == compiler.GTR {
			return smallBool(arg2.Int > arg1.Int), nil
		}
		return smallBool(arg2.Int < arg1.Int), nil
	case arg1.Kind == SmallInt && arg2.Kind == SmallFloat:
		a, b = arg2.Float, float64(arg1.Int)
	case arg1.Kind == SmallFloat && arg2.Kind == SmallInt:
		a, b = float64(arg2.Int), arg1.Float
	case arg1.Kind == SmallFloat && arg2.Kind == SmallFloat:
		a, b = arg2.Float, arg1.Float
	default:
		return Small{}, novaerr.NewRuntime("cannot compare non-numeric values")
	}
	if op == compiler.GTR {
		return smallBool(a > b), nil
	}
	return smallBool(a < b), nil
}
