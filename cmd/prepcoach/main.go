package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"prepcoach/internal/cli"
	"prepcoach/internal/errors"
	"prepcoach/internal/terminal"
)

func main() {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx)
	if err == nil {
		return
	}
	if stderrors.Is(err, terminal.ErrCancelled) || stderrors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Cancelled") //nolint:errcheck
		stop()
		os.Exit(130)
	}
	message := errors.UserMessage(err)
	if errors.IsType(err, errors.ErrorTypeConfig) {
		// Setup failures happen before logging exists, so show the cause too
		message = err.Error()
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", message) //nolint:errcheck
	stop()
	os.Exit(1)
}
