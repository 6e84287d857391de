package natives_test

import (
	"strings"
	"testing"

	"github.com/mna/nova/lang/machine"
	"github.com/mna/nova/lang/natives"
	"github.com/stretchr/testify/require"
)

func TestPrintlnFormatsScalarsAndLists(t *testing.T) {
	var out strings.Builder
	r := &natives.Registry{Stdout: &out}

	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigList, List: []machine.Big{
		{Kind: machine.BigInt, Int: 1},
		{Kind: machine.BigInt, Int: 2},
	}})
	require.NoError(t, r.Println(vm))
	require.Equal(t, "[1, 2]\n", out.String())
}

func TestPrintHasNoTrailingNewline(t *testing.T) {
	var out strings.Builder
	r := &natives.Registry{Stdout: &out}

	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigString, Str: "hi"})
	require.NoError(t, r.Print(vm))
	require.Equal(t, "hi", out.String())
}

func TestReadlnStripsNewline(t *testing.T) {
	r := &natives.Registry{Stdin: strings.NewReader("hello world\n")}

	vm := machine.New()
	require.NoError(t, r.Readln(vm))
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, machine.BigString, v.Kind)
	require.Equal(t, "hello world", v.Str)
}

func TestRandomStaysWithinRange(t *testing.T) {
	r := &natives.Registry{}
	vm := machine.New()

	for i := 0; i < 50; i++ {
		vm.Push(machine.Big{Kind: machine.BigInt, Int: 3})
		vm.Push(machine.Big{Kind: machine.BigInt, Int: 7})
		require.NoError(t, r.Random(vm))
		v, ok := vm.Pop()
		require.True(t, ok)
		require.GreaterOrEqual(t, v.Int, int64(3))
		require.LessOrEqual(t, v.Int, int64(7))
	}
}

func TestRandomRejectsInvertedRange(t *testing.T) {
	r := &natives.Registry{}
	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigInt, Int: 9})
	vm.Push(machine.Big{Kind: machine.BigInt, Int: 1})
	require.Error(t, r.Random(vm))
}

func TestLength(t *testing.T) {
	r := &natives.Registry{}
	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigList, List: []machine.Big{
		{Kind: machine.BigInt, Int: 1},
		{Kind: machine.BigInt, Int: 2},
		{Kind: machine.BigInt, Int: 3},
	}})
	require.NoError(t, r.Length(vm))
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, int64(3), v.Int)
}

func TestLengthRejectsNonList(t *testing.T) {
	r := &natives.Registry{}
	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigInt, Int: 1})
	require.Error(t, r.Length(vm))
}

func TestPushAppendsItem(t *testing.T) {
	r := &natives.Registry{}
	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigList, List: []machine.Big{{Kind: machine.BigInt, Int: 1}}})
	vm.Push(machine.Big{Kind: machine.BigInt, Int: 2})
	require.NoError(t, r.Push(vm))
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, []machine.Big{{Kind: machine.BigInt, Int: 1}, {Kind: machine.BigInt, Int: 2}}, v.List)
}

func TestPopDropsLastElement(t *testing.T) {
	r := &natives.Registry{}
	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigList, List: []machine.Big{
		{Kind: machine.BigInt, Int: 1},
		{Kind: machine.BigInt, Int: 2},
	}})
	require.NoError(t, r.Pop(vm))
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, []machine.Big{{Kind: machine.BigInt, Int: 1}}, v.List)
}

func TestLastReturnsFinalElement(t *testing.T) {
	r := &natives.Registry{}
	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigList, List: []machine.Big{
		{Kind: machine.BigInt, Int: 1},
		{Kind: machine.BigInt, Int: 9},
	}})
	require.NoError(t, r.Last(vm))
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, int64(9), v.Int)
}

func TestLastRejectsEmptyList(t *testing.T) {
	r := &natives.Registry{}
	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigList})
	require.Error(t, r.Last(vm))
}

func TestInsertAtIndex(t *testing.T) {
	r := &natives.Registry{}
	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigList, List: []machine.Big{
		{Kind: machine.BigInt, Int: 1},
		{Kind: machine.BigInt, Int: 3},
	}})
	vm.Push(machine.Big{Kind: machine.BigInt, Int: 2})
	vm.Push(machine.Big{Kind: machine.BigInt, Int: 1})
	require.NoError(t, r.Insert(vm))
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, []machine.Big{
		{Kind: machine.BigInt, Int: 1},
		{Kind: machine.BigInt, Int: 2},
		{Kind: machine.BigInt, Int: 3},
	}, v.List)
}

func TestRemoveAtIndex(t *testing.T) {
	r := &natives.Registry{}
	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigList, List: []machine.Big{
		{Kind: machine.BigInt, Int: 1},
		{Kind: machine.BigInt, Int: 2},
		{Kind: machine.BigInt, Int: 3},
	}})
	vm.Push(machine.Big{Kind: machine.BigInt, Int: 1})
	require.NoError(t, r.Remove(vm))
	v, ok := vm.Pop()
	require.True(t, ok)
	require.Equal(t, []machine.Big{
		{Kind: machine.BigInt, Int: 1},
		{Kind: machine.BigInt, Int: 3},
	}, v.List)
}

func TestRemoveRejectsOutOfRangeIndex(t *testing.T) {
	r := &natives.Registry{}
	vm := machine.New()
	vm.Push(machine.Big{Kind: machine.BigList, List: []machine.Big{{Kind: machine.BigInt, Int: 1}}})
	vm.Push(machine.Big{Kind: machine.BigInt, Int: 5})
	require.Error(t, r.Remove(vm))
}

func TestAllReturnsTenNativesInRegistrationOrder(t *testing.T) {
	r := &natives.Registry{}
	entries := r.All()
	require.Len(t, entries, 10)
	require.Equal(t, []string{
		"print", "println", "readln", "random",
		"length", "push", "pop", "last", "insert", "remove",
	}, namesOf(entries))
}

func namesOf(entries []natives.Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
