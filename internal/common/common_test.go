package common

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadFile(t *testing.T) {
	fp := NewFileProcessor(nil)

	content, err := fp.ReadFile(writeFile(t, "jd.txt", "Go developer"))
	require.NoError(t, err)
	assert.Equal(t, "Go developer", content)

	_, err = fp.ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))
}

func TestReadTextFileTrims(t *testing.T) {
	content, err := NewFileProcessor(nil).ReadTextFile(writeFile(t, "jd.md", "\n  Senior Go role \n"))
	require.NoError(t, err)
	assert.Equal(t, "Senior Go role", content)
}

func TestReadStructured(t *testing.T) {
	fp := NewFileProcessor(nil)
	tests := []struct {
		name    string
		file    string
		content string
		code    string
	}{
		{name: "json", file: "answers.json", content: `{"answers": {"q1": "b"}}`},
		{name: "yaml", file: "answers.yaml", content: "answers:\n  q1: b\n"},
		{name: "unsupported", file: "answers.txt", content: "q1=b", code: errors.ErrCodeUnsupportedFile},
		{name: "malformed", file: "answers.json", content: `{"answers":`, code: errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sub types.QuizSubmission
			err := fp.ReadStructured(writeFile(t, tt.file, tt.content), &sub)
			if tt.code != "" {
				assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "b", sub.Answers["q1"])
		})
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "final.md")
	require.NoError(t, NewFileProcessor(nil).WriteFile(path, "# Report\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Report\n", string(data))
}

func TestHandleOutputToWriter(t *testing.T) {
	var out bytes.Buffer
	err := NewOutputHandler(nil, &out).HandleOutput(types.User{Email: "a@b.co"}, CommandConfig{OutputFormat: "text"})
	require.NoError(t, err)
	assert.Equal(t, "Logged in as a@b.co\n", out.String())
}

func TestHandleOutputToFile(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "user.json")
	err := NewOutputHandler(nil, &out).HandleOutput(types.User{Email: "a@b.co"}, CommandConfig{OutputFormat: "json", OutputFile: path})
	require.NoError(t, err)
	assert.Empty(t, out.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"email": "a@b.co"`)
}

func TestHandleOutputUnknownFormat(t *testing.T) {
	err := NewOutputHandler(nil, &bytes.Buffer{}).HandleOutput(types.User{}, CommandConfig{OutputFormat: "xml"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
}

func TestRunCommand(t *testing.T) {
	var out bytes.Buffer
	err := RunCommand(context.Background(), nil, CommandConfig{OutputFormat: "text"}, &out, "auth.me",
		func(context.Context) (*types.User, error) {
			return &types.User{Email: "a@b.co", Name: "Ada"}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "Logged in as Ada <a@b.co>\n", out.String())

	failure := stderrors.New("backend down")
	err = RunCommand(context.Background(), nil, CommandConfig{OutputFormat: "text"}, &out, "auth.me",
		func(context.Context) (*types.User, error) { return nil, failure })
	assert.ErrorIs(t, err, failure)
}
