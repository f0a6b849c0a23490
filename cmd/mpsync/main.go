package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(newRootCommand().Execute, os.Stderr))
}

// run executes the command tree and maps its error to an exit status.
// Interrupted runs exit 1 without printing the cancellation.
func run(execute func() error, stderr io.Writer) int {
	err := execute()
	if err == nil {
		return 0
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, err)
	}
	return 1
}
