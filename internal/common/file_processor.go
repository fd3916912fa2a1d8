package common

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"prepcoach/internal/errors"
	"prepcoach/internal/utils"

	"gopkg.in/yaml.v3"
)

// structuredDecoders maps the answer and draft file extensions to their decoder
var structuredDecoders = map[string]func([]byte, any) error{
	".json": json.Unmarshal,
	".yaml": yaml.Unmarshal,
	".yml":  yaml.Unmarshal,
}

// FileProcessor reads command inputs and writes command outputs
type FileProcessor struct {
	logger *errors.Logger
}

func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile returns the whole file as a string. Missing files map to
// FILE_NOT_FOUND, anything else to FILE_NOT_READABLE.
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	data, err := os.ReadFile(filename) // #nosec G304 -- path given by the user on the command line
	switch {
	case err == nil:
		fp.logger.Debug("Read input file", "file", filename, "bytes", len(data))
		return string(data), nil
	case stderrors.Is(err, fs.ErrNotExist):
		return "", errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("File not found: %s", filename), err)
	default:
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
}

// WriteFile replaces filename with content, creating parent directories
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}
	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ReadTextFile reads free text such as a job description, trimmed
func (fp *FileProcessor) ReadTextFile(filename string) (string, error) {
	content, err := fp.readChecked(filename)
	if err != nil {
		return "", err
	}
	if !utils.IsTextFile(filename) {
		fp.logger.Warn("Reading a file without a text extension", "file", filename)
	}
	return strings.TrimSpace(content), nil
}

// ReadStructured decodes a JSON or YAML file into v based on its extension
func (fp *FileProcessor) ReadStructured(filename string, v any) error {
	decode, ok := structuredDecoders[utils.GetFileExtension(filename)]
	if !ok {
		return errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("%s must be a .json, .yaml or .yml file", filename), nil)
	}
	content, err := fp.readChecked(filename)
	if err != nil {
		return err
	}
	if err := decode([]byte(content), v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Cannot parse %s", filename), err)
	}
	return nil
}

func (fp *FileProcessor) readChecked(filename string) (string, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return "", err
	}
	return fp.ReadFile(filename)
}

// ValidateOutputFile accepts an empty name, meaning stdout
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
