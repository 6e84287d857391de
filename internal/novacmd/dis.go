package novacmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/nova/lang/compiler"
	"github.com/mna/nova/lang/disasm"
	"github.com/mna/nova/lang/natives"
	"github.com/mna/nova/lang/parser"
	"github.com/mna/nova/lang/scanner"
)

// Dis compiles the Nova source file named by args[0] and writes its
// disassembly to stdout.
func (c *Cmd) Dis(_ context.Context, stdio mainer.Stdio, args []string) error {
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
	reg := &natives.Registry{}
	for _, e := range reg.All() {
		comp.Natives.Insert(e.Name)
	}

	prog, err := comp.Compile(postfix, path)
	if err != nil {
		showError(stdio, err)
		return err
	}

	d := disasm.New(stdio.Stdout, prog.Natives)
	if err := d.Disassemble(prog.Code); err != nil {
		showError(stdio, err)
		return err
	}
	return nil
}
