package common

import (
	"testing"

	"prepcoach/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	assert.NoError(t, ValidateOutputFormat("markdown", supported))
	assert.NoError(t, ValidateOutputFormat("xml", nil), "no list means no restriction")

	err := ValidateOutputFormat("xml", supported)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
	assert.Equal(t, "unsupported output format 'xml'. Supported formats: json, text, markdown", errors.UserMessage(err))

	assert.Error(t, ValidateOutputFormat("JSON", supported), "validation is case sensitive")
	assert.Error(t, ValidateOutputFormat("", supported))
}

func TestResolveOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown", "yaml", "html"}
	tests := []struct {
		given    string
		expected string
		wantErr  bool
	}{
		{given: "", expected: "text"},
		{given: " JSON ", expected: "json"},
		{given: "md", expected: "markdown"},
		{given: "yml", expected: "yaml"},
		{given: "txt", expected: "text"},
		{given: "csv", expected: "csv", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.given, func(t *testing.T) {
			cfg := CommandConfig{OutputFormat: tt.given}
			err := ResolveOutputFormat(&cfg, "text", supported)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, cfg.OutputFormat)
		})
	}
}
