// Command linksquared drives the Linksquared SDK from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/linksquared/linksquared-go/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
