package novacmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/nova/lang/compiler"
	"github.com/mna/nova/lang/machine"
	"github.com/mna/nova/lang/natives"
	"github.com/mna/nova/lang/novaerr"
	"github.com/mna/nova/lang/parser"
	"github.com/mna/nova/lang/scanner"
)

// Run compiles and executes the Nova source file named by args[0].
func (c *Cmd) Run(_ context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	s := scanner.New()
	s.SetFilepath(path)
	s.Feed(string(src))
	toks, err := s.Tokens()
	if err != nil {
		showError(stdio, err)
		return err
	}

	postfix, err := parser.New().Parse(toks)
	if err != nil {
		showError(stdio, err)
		return err
	}

	comp := compiler.New()
	vm := machine.New()
	reg := &natives.Registry{Stdout: stdio.Stdout, Stdin: stdio.Stdin}
	registerNatives(comp, vm, reg)

	prog, err := comp.Compile(postfix, path)
	if err != nil {
		showError(stdio, err)
		return err
	}

	vm.SetProgram(prog.Code)
	vm.MaxSteps = c.Config.MaxSteps
	if err := vm.Run(); err != nil {
		showError(stdio, err)
		return err
	}
	return nil
}

// registerNatives inserts every native's name into c's native table and
// registers its implementation with vm, in lockstep: the NATIVE opcode
// addresses natives by index, so the two registrations must agree on order.
func registerNatives(c *compiler.Compiler, vm *machine.Vm, reg *natives.Registry) {
	for _, e := range reg.All() {
		c.Natives.Insert(e.Name)
		vm.RegisterNative(e.Fn)
	}
}

func showError(stdio mainer.Stdio, err error) {
	if ne, ok := err.(*novaerr.Error); ok {
		ne.Show(stdio.Stderr)
		return
	}
	fmt.Fprintln(stdio.Stderr, err)
}
