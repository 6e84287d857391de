// Package natives implements Nova's built-in native functions: I/O, list
// manipulation and random number generation. Each one manipulates the Vm's
// operand stack directly, the same way a compiled Nova function body would.
package natives

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/mna/nova/lang/machine"
	"github.com/mna/nova/lang/novaerr"
	"golang.org/x/exp/slices"
)

// Registry holds the I/O streams natives read and write and produces their
// machine.NativeFunc implementations. A zero-value Registry uses os.Stdout
// and os.Stdin.
type Registry struct {
	Stdout io.Writer
	Stdin  io.Reader

	reader *bufio.Reader
}

func (r *Registry) out() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Registry) in() *bufio.Reader {
	if r.reader == nil {
		src := r.Stdin
		if src == nil {
			src = os.Stdin
		}
		r.reader = bufio.NewReader(src)
	}
	return r.reader
}

// Entry pairs a native's reserved call name with its implementation.
type Entry struct {
	Name string
	Fn   machine.NativeFunc
}

// All returns every native this package implements, in the order
// nova/src/main.rs registers them in. A host must insert each Name into its
// compiler's native table and register each Fn with its Vm in this same
// order, since the NATIVE opcode addresses natives by index.
func (r *Registry) All() []Entry {
	return []Entry{
		{"print", r.Print},
		{"println", r.Println},
		{"readln", r.Readln},
		{"random", r.Random},
		{"length", r.Length},
		{"push", r.Push},
		{"pop", r.Pop},
		{"last", r.Last},
		{"insert", r.Insert},
		{"remove", r.Remove},
	}
}

// format renders a Big the way the reference io natives do: scalars print
// bare, a register prints its index, a list prints its elements recursively.
// Closures and other internal tags fall back to their numeric BigKind in
// angle brackets (e.g. "<9>" for a closure).
func format(v machine.Big) string {
	switch v.Kind {
	case machine.BigFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case machine.BigInt:
		return strconv.FormatInt(v.Int, 10)
	case machine.BigRegister:
		return fmt.Sprintf("register: %d", v.Index)
	case machine.BigList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = format(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case machine.BigBool:
		return strconv.FormatBool(v.Bool)
	case machine.BigString:
		return v.Str
	case machine.BigChar:
		return string(v.Char)
	default:
		return fmt.Sprintf("<%d>", v.Kind)
	}
}

// Println pops one value and writes it followed by a newline.
func (r *Registry) Println(vm *machine.Vm) error {
	if v, ok := vm.Pop(); ok {
		fmt.Fprintln(r.out(), format(v))
	}
	return nil
}

// Print pops one value and writes it with no trailing newline.
func (r *Registry) Print(vm *machine.Vm) error {
	if v, ok := vm.Pop(); ok {
		fmt.Fprint(r.out(), format(v))
	}
	return nil
}

// Readln reads one line from stdin and pushes it as a string, with its
// trailing newline stripped.
func (r *Registry) Readln(vm *machine.Vm) error {
	line, err := r.in().ReadString('\n')
	if err != nil && line == "" {
		return novaerr.NewRuntime("readln: " + err.Error())
	}
	vm.Push(machine.Big{Kind: machine.BigString, Str: strings.TrimRight(line, "\r\n")})
	return nil
}

// Random takes two ints, start and end (end was pushed last, so it is
// popped first, matching the reference's pop_fast2 order), and pushes a
// uniformly distributed int in [start, end].
func (r *Registry) Random(vm *machine.Vm) error {
	endv, startv, ok := vm.Pop2()
	if !ok || endv.Kind != machine.BigInt || startv.Kind != machine.BigInt {
		return novaerr.NewRuntime("not enough arguments for random")
	}
	start, end := startv.Int, endv.Int
	if end < start {
		return novaerr.NewRuntime("random: end is before start")
	}
	n := start + int64(rand.IntN(int(end-start+1)))
	vm.Push(machine.Big{Kind: machine.BigInt, Int: n})
	return nil
}

// Length pops a list and pushes its element count.
func (r *Registry) Length(vm *machine.Vm) error {
	v, ok := vm.Pop()
	if !ok || v.Kind != machine.BigList {
		return novaerr.NewRuntime("not enough arguments for length")
	}
	vm.Push(machine.Big{Kind: machine.BigInt, Int: int64(len(v.List))})
	return nil
}

// Push pops an item and a list, item on top, and pushes back the list with
// item appended.
func (r *Registry) Push(vm *machine.Vm) error {
	item, list, ok := vm.Pop2()
	if !ok || list.Kind != machine.BigList {
		return novaerr.NewRuntime("not enough arguments for push")
	}
	next := append(append([]machine.Big(nil), list.List...), item)
	vm.Push(machine.Big{Kind: machine.BigList, List: next})
	return nil
}

// Pop pops a list and pushes it back with its last element dropped.
func (r *Registry) Pop(vm *machine.Vm) error {
	v, ok := vm.Pop()
	if !ok || v.Kind != machine.BigList {
		return novaerr.NewRuntime("not enough arguments for pop")
	}
	next := v.List
	if len(next) > 0 {
		next = next[:len(next)-1]
	}
	vm.Push(machine.Big{Kind: machine.BigList, List: next})
	return nil
}

// Last pops a list and pushes its last element.
func (r *Registry) Last(vm *machine.Vm) error {
	v, ok := vm.Pop()
	if !ok || v.Kind != machine.BigList || len(v.List) == 0 {
		return novaerr.NewRuntime("not enough arguments for last")
	}
	vm.Push(v.List[len(v.List)-1])
	return nil
}

// Insert pops an index, an item and a list, in that pop order (index was
// pushed last), and pushes back the list with item inserted at index.
// insert/remove are named in nova/src/main.rs's registration list but their
// bodies are not present in the retrieved native source; they are
// supplemented here in the same pop-order convention as push/pop, backed by
// golang.org/x/exp/slices.
func (r *Registry) Insert(vm *machine.Vm) error {
	idxv, ok1 := vm.Pop()
	item, ok2 := vm.Pop()
	listv, ok3 := vm.Pop()
	if !ok1 || !ok2 || !ok3 || idxv.Kind != machine.BigInt || listv.Kind != machine.BigList {
		return novaerr.NewRuntime("not enough arguments for insert")
	}
	idx := int(idxv.Int)
	if idx < 0 || idx > len(listv.List) {
		return novaerr.NewRuntime("insert index out of range")
	}
	next := slices.Insert(append([]machine.Big(nil), listv.List...), idx, item)
	vm.Push(machine.Big{Kind: machine.BigList, List: next})
	return nil
}

// Remove pops an index and a list, and pushes back the list with the
// element at index removed.
func (r *Registry) Remove(vm *machine.Vm) error {
	idxv, ok1 := vm.Pop()
	listv, ok2 := vm.Pop()
	if !ok1 || !ok2 || idxv.Kind != machine.BigInt || listv.Kind != machine.BigList {
		return novaerr.NewRuntime("not enough arguments for remove")
	}
	idx := int(idxv.Int)
	if idx < 0 || idx >= len(listv.List) {
		return novaerr.NewRuntime("remove index out of range")
	}
	next := slices.Delete(append([]machine.Big(nil), listv.List...), idx, idx+1)
	vm.Push(machine.Big{Kind: machine.BigList, List: next})
	return nil
}
