package main

import (
	"context"
	"errors"
	"os"

	"imgurdl/pkg/ui"
)

func main() {
	cmd := newRootCommand(newApp())
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, context.Canceled) {
			ui.PrintError("Error", err)
		}
		os.Exit(1)
	}
}
