package utils

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"prepcoach/internal/errors"
)

var textExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
}

// ValidateInputFile checks that filename names a regular file the process
// can open. The error code tells a missing path from an unreadable one.
func ValidateInputFile(filename string) error {
	if filename == "" {
		return errors.NewValidationError(errors.ErrCodeMissingField, "a file path is required", nil)
	}

	f, err := os.Open(filename) // #nosec G304 -- path given by the user on the command line
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("file does not exist: %s", filename), err)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("cannot read file %s", filename), err)
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("cannot access file %s", filename), err)
	}
	if info.IsDir() {
		return errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("path is a directory, not a file: %s", filename), nil)
	}
	return nil
}

// ValidateOutputFile makes sure the parent directory of filename exists.
// An empty name means stdout.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// GetFileExtension returns the lower-cased extension including the dot
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func IsTextFile(filename string) bool {
	return textExtensions[GetFileExtension(filename)]
}

// HasAllowedExtension reports whether filename ends in one of allowed, which
// may be written with or without the dot. An empty list allows everything.
func HasAllowedExtension(filename string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext := strings.TrimPrefix(GetFileExtension(filename), ".")
	if ext == "" {
		return false
	}
	for _, candidate := range allowed {
		if strings.TrimPrefix(strings.ToLower(strings.TrimSpace(candidate)), ".") == ext {
			return true
		}
	}
	return false
}

// FormatFileSize renders size with a binary unit, e.g. "1.5 KB"
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	value := float64(size) / unit
	suffix := 0
	for value >= unit && suffix < len("KMGTPE")-1 {
		value /= unit
		suffix++
	}
	return fmt.Sprintf("%.1f %cB", value, "KMGTPE"[suffix])
}
