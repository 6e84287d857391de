package novacmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/mna/nova/lang/novafmt"
)

// Fmt reformats the Nova source file named by args[0] in place.
func (c *Cmd) Fmt(_ context.Context, stdio mainer.Stdio, args []string) error {
	if err := novafmt.FormatFile(args[0]); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	fmt.Fprintln(stdio.Stdout, "format complete")
	return nil
}
