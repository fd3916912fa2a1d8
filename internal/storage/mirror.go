package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"prepcoach/internal/errors"
)

// Keys mirrored to disk. Each key is stored as <dir>/<key>.json.
const (
	KeyInterviewSessionID   = "interviewSessionId"
	KeyInterviewSessionData = "interviewSessionData"
	KeyResumeAnalysisID     = "resumeAnalysisId"
	KeyResumeQAHistory      = "resumeQAHistory"
	KeyResumeQuestions      = "resumeQuestionHistory"
	KeyAuthSession          = "authSession"
)

var validKey = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Mirror is a small file-backed key/value store for state that must survive
// between invocations. Writes are atomic per key; there is no transaction
// across keys.
type Mirror struct {
	mu     sync.RWMutex
	dir    string
	logger *errors.Logger
}

// NewMirror creates the mirror directory if needed
func NewMirror(dir string, logger *errors.Logger) (*Mirror, error) {
	if dir == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "storage directory is not configured", nil)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "cannot create storage directory", err).
			WithContext("dir", dir)
	}
	return &Mirror{dir: dir, logger: logger}, nil
}

// Dir returns the directory holding the mirrored keys
func (m *Mirror) Dir() string {
	return m.dir
}

// Path returns the file backing key
func (m *Mirror) Path(key string) string {
	return filepath.Join(m.dir, key+".json")
}

// Put stores v under key as JSON
func (m *Mirror) Put(key string, v any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInvalidFormat, "cannot encode mirrored value", err).
			WithContext("key", key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := writeAtomic(m.Path(key), data); err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "cannot write mirrored value", err).
			WithContext("key", key)
	}
	m.logger.Debug("Mirrored value written", "key", key, "bytes", len(data))
	return nil
}

// Get decodes the value stored under key into v. It reports false when the
// key is absent.
func (m *Mirror) Get(key string, v any) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	m.mu.RLock()
	data, err := os.ReadFile(m.Path(key))
	m.mu.RUnlock()

	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.NewIOError(errors.ErrCodeFileNotReadable, "cannot read mirrored value", err).
			WithContext("key", key)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.NewIOError(errors.ErrCodeInvalidFormat, "mirrored value is corrupt", err).
			WithContext("key", key)
	}
	return true, nil
}

// PutString stores a plain string value
func (m *Mirror) PutString(key, value string) error {
	return m.Put(key, value)
}

// GetString returns the string stored under key, or "" when absent
func (m *Mirror) GetString(key string) (string, error) {
	var value string
	if _, err := m.Get(key, &value); err != nil {
		return "", err
	}
	return value, nil
}

// Delete removes keys; absent keys are ignored
func (m *Mirror) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		if err := checkKey(key); err != nil {
			return err
		}
		if err := os.Remove(m.Path(key)); err != nil && !os.IsNotExist(err) {
			return errors.NewIOError(errors.ErrCodeFileNotReadable, "cannot delete mirrored value", err).
				WithContext("key", key)
		}
	}
	m.logger.Debug("Mirrored values deleted", "keys", keys)
	return nil
}

// Has reports whether key is present
func (m *Mirror) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := os.Stat(m.Path(key))
	return err == nil
}

func checkKey(key string) error {
	if !validKey.MatchString(key) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, fmt.Sprintf("invalid storage key %q", key), nil)
	}
	return nil
}

// writeAtomic writes data to a temporary file in the same directory and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
