package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cocoprep/internal/services"
)

func main() {
	cmd := newRootCommand()
	cmd.SetArgs(expandListFlags(os.Args[1:]))
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(services.ExitCode(err))
	}
}
