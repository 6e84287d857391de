package novacmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/mna/mainer"
	"github.com/mna/nova/lang/compiler"
	"github.com/mna/nova/lang/machine"
	"github.com/mna/nova/lang/natives"
	"github.com/mna/nova/lang/parser"
	"github.com/mna/nova/lang/scanner"
	"github.com/mna/nova/lang/token"
)

// Repl runs an interactive read-eval-print loop. It accumulates each turn's
// postfix tokens and recompiles the whole accumulated program from scratch
// on every line, since there is no incremental-compilation story for this
// ISA. Past print/println calls are rewritten to a bare Pop before that
// recompile, so earlier output isn't replayed when the whole program
// re-executes; a turn that fails to compile or run leaves the accumulated
// program untouched.
func (c *Cmd) Repl(_ context.Context, stdio mainer.Stdio, _ []string) error {
	reader := bufio.NewReader(stdio.Stdin)
	reg := &natives.Registry{Stdout: stdio.Stdout, Stdin: stdio.Stdin}

	var program []token.Token
	for {
		fmt.Fprint(stdio.Stdout, "Nova $ ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			return nil
		}

		s := scanner.New()
		s.Feed(line)
		toks, err := s.Tokens()
		if err != nil {
			showError(stdio, err)
			continue
		}

		newTokens, err := parser.New().Parse(toks)
		if err != nil {
			showError(stdio, err)
			continue
		}

		candidate := make([]token.Token, 0, len(program)+len(newTokens))
		for _, t := range program {
			if t.Kind == token.Call && (t.Name == "println" || t.Name == "print") {
				candidate = append(candidate, token.Token{Kind: token.Pop})
				continue
			}
			candidate = append(candidate, t)
		}
		candidate = append(candidate, newTokens...)

		comp := compiler.New()
		vm := machine.New()
		registerNatives(comp, vm, reg)

		prog, err := comp.Compile(candidate, "repl")
		if err != nil {
			showError(stdio, err)
			continue
		}

		vm.SetProgram(prog.Code)
		vm.MaxSteps = c.Config.MaxSteps
		if err := vm.Run(); err != nil {
			showError(stdio, err)
			continue
		}

		program = append(program, newTokens...)
	}
}
