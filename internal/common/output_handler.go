package common

import (
	"fmt"
	"io"
	"os"

	"prepcoach/internal/errors"
	"prepcoach/internal/formatters"
)

// CommandConfig carries the --output and --format flags of a command
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler renders command results through the formatter registry and
// sends them to a file or to out.
type OutputHandler struct {
	files    *FileProcessor
	registry *formatters.FormatterRegistry
	logger   *errors.Logger
	out      io.Writer
}

// NewOutputHandler writes to out, or to stdout when out is nil
func NewOutputHandler(logger *errors.Logger, out io.Writer) *OutputHandler {
	if out == nil {
		out = os.Stdout
	}
	return &OutputHandler{
		files:    NewFileProcessor(logger),
		registry: formatters.GlobalRegistry,
		logger:   logger,
		out:      out,
	}
}

func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	rendered, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile == "" {
		if _, err := io.WriteString(oh.out, rendered); err != nil {
			return errors.NewIOError(errors.ErrCodeFileNotReadable, "cannot write output", err)
		}
		return nil
	}

	if err := oh.files.ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}
	if err := oh.files.WriteFile(config.OutputFile, rendered); err != nil {
		return err
	}
	oh.logger.Info("Wrote result", "file", config.OutputFile, "format", config.OutputFormat, "bytes", len(rendered))
	return nil
}
