package common

import (
	"fmt"
	"slices"
	"strings"

	"prepcoach/internal/errors"
)

// formatAliases maps shorthand --format values to registry names
var formatAliases = map[string]string{
	"md":  "markdown",
	"yml": "yaml",
	"txt": "text",
}

// ValidateOutputFormat checks format against the configured list. An empty
// list allows any format the registry knows.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %s",
			format, strings.Join(supportedFormats, ", ")), nil)
}

// ResolveOutputFormat fills in the default, normalises case and aliases, then
// validates. cfg.OutputFormat holds the resolved name even on error.
func ResolveOutputFormat(cfg *CommandConfig, defaultFormat string, supportedFormats []string) error {
	format := strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	if format == "" {
		format = defaultFormat
	}
	if alias, ok := formatAliases[format]; ok {
		format = alias
	}
	cfg.OutputFormat = format
	return ValidateOutputFormat(format, supportedFormats)
}
