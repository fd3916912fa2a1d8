package common

import (
	"context"
	"io"
	"time"

	"prepcoach/internal/errors"
)

// OperationFunc performs one backend operation and returns what to print
type OperationFunc[Output any] func(context.Context) (Output, error)

// RunCommand encapsulates the common logic of commands that call the
// backend once and print the result in the requested format.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	out io.Writer,
	name string,
	operation OperationFunc[Output],
) error {
	start := time.Now()
	result, err := operation(ctx)
	if err != nil {
		return err
	}
	logger.Debug("Command finished", "command", name, "duration", time.Since(start))

	return NewOutputHandler(logger, out).HandleOutput(result, cmdConfig)
}
