// Package novacmd implements the nova command-line tool: compiling and
// running source files, printing their disassembly, reformatting them in
// place, and a REPL when invoked with no subcommand.
package novacmd

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "nova"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and all-in-one tool for the Nova programming language.

The <command> can be one of:
       run                       Compile and execute a Nova source file.
       dis                       Compile a Nova source file and print its
                                 disassembly.
       fmt                       Reformat a Nova source file in place.

With no <command>, %[1]s starts an interactive REPL.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.

Runtime configuration is read from the environment:
       NOVA_MAX_STEPS            Bound the number of VM steps a run or REPL
                                 evaluation may take before it is aborted.
                                 Zero (the default) means unbounded.
       NOVA_TRACE                Print a Go stack trace on an unexpected
                                 panic instead of a short error message.
`, binName)
)

// Cmd is the CLI entry point, dispatched via mainer.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Config Config

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string)         { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		c.cmdFn = c.Repl
		return nil
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}
	if (cmdName == "run" || cmdName == "dis" || cmdName == "fmt") && len(c.args[1:]) == 0 {
		return fmt.Errorf("%s: a file path must be provided", cmdName)
	}
	return nil
}

// Main parses args, validates them and dispatches to the resolved
// subcommand, following the teacher's Cmd.Main shape.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) (code mainer.ExitCode) {
	defer func() {
		if r := recover(); r != nil {
			if c.Config.Trace {
				panic(r)
			}
			fmt.Fprintf(stdio.Stderr, "internal error: %v\n", r)
			code = mainer.Failure
		}
	}()

	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid environment configuration: %s\n", err)
		return mainer.InvalidArgs
	}
	c.Config = cfg

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		// each command prints its own errors, just report failure here
		return mainer.Failure
	}
	return mainer.Success
}

// buildCmds discovers the Cmd methods matching the subcommand shape
// (receiver, context.Context, mainer.Stdio, []string) -> error, keyed by
// lowercased method name, matching the teacher's reflection-based dispatch.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
