package main

import (
	"context"
	"os"

	"gitlab.com/tozd/go/errors"

	"github.com/replware/replace/pkg/runner"
)

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps a run error to the process exit code: 2 when processing
// failed (files or the stdin stream), 1 for usage and setup errors.
func exitCode(err error) int {
	if errors.Is(err, runner.ErrFilesFailed) || errors.Is(err, runner.ErrStreamFailed) {
		return 2
	}
	return 1
}
