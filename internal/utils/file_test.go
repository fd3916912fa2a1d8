package utils

import (
	"os"
	"path/filepath"
	"testing"

	"prepcoach/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0600))

	assert.NoError(t, ValidateInputFile(file))
	assert.True(t, errors.HasCode(ValidateInputFile(""), errors.ErrCodeMissingField))
	assert.True(t, errors.HasCode(ValidateInputFile(filepath.Join(dir, "missing.pdf")), errors.ErrCodeFileNotFound))
	assert.True(t, errors.HasCode(ValidateInputFile(dir), errors.ErrCodeUnsupportedFile))
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "reports", "out.md")
	require.NoError(t, ValidateOutputFile(target))
	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, ValidateOutputFile(""))
}

func TestHasAllowedExtension(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		allowed  []string
		expected bool
	}{
		{"listed extension", "cv.PDF", []string{".pdf", ".docx"}, true},
		{"extension without dot", "cv.docx", []string{"docx"}, true},
		{"not listed", "cv.odt", []string{".pdf", ".docx"}, false},
		{"no restriction", "cv.odt", nil, true},
		{"no extension", "resume", []string{".pdf"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HasAllowedExtension(tt.file, tt.allowed))
		})
	}
}

func TestIsTextFile(t *testing.T) {
	assert.True(t, IsTextFile("notes.MD"))
	assert.True(t, IsTextFile("cv.txt"))
	assert.False(t, IsTextFile("cv.pdf"))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "5.0 MB", FormatFileSize(5*1024*1024))
}
