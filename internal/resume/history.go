package resume

import (
	"sync"

	"prepcoach/internal/errors"
	"prepcoach/internal/storage"
	"prepcoach/internal/types"
)

// Persister mirrors resume state to local storage
type Persister interface {
	Put(key string, v any) error
	Get(key string, v any) (bool, error)
	PutString(key, value string) error
	GetString(key string) (string, error)
	Delete(keys ...string) error
}

// History keeps the current analysis id together with the Q&A and
// interview-question histories. Both histories only grow until Reset.
type History struct {
	mu     sync.Mutex
	mirror Persister
}

// NewHistory creates a history backed by mirror
func NewHistory(mirror Persister) *History {
	return &History{mirror: mirror}
}

// AnalysisID returns the id of the analysis being worked on, or ""
func (h *History) AnalysisID() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mirror.GetString(storage.KeyResumeAnalysisID)
}

// SetAnalysisID records the analysis subsequent questions refer to
func (h *History) SetAnalysisID(id string) error {
	if id == "" {
		return errors.NewValidationError(errors.ErrCodeMissingField, "analysis id is empty", nil)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mirror.PutString(storage.KeyResumeAnalysisID, id)
}

// QA returns every recorded question and answer in order
func (h *History) QA() ([]types.QAResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var entries []types.QAResult
	if _, err := h.mirror.Get(storage.KeyResumeQAHistory, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AppendQA adds one answered question to the end of the Q&A history
func (h *History) AppendQA(entry types.QAResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var entries []types.QAResult
	if _, err := h.mirror.Get(storage.KeyResumeQAHistory, &entries); err != nil {
		return err
	}
	return h.mirror.Put(storage.KeyResumeQAHistory, append(entries, entry))
}

// QuestionBatches returns every generated question batch in order
func (h *History) QuestionBatches() ([]types.QuestionBatch, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var batches []types.QuestionBatch
	if _, err := h.mirror.Get(storage.KeyResumeQuestions, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// AppendQuestions adds a generated batch to the end of the question history
func (h *History) AppendQuestions(batch types.QuestionBatch) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var batches []types.QuestionBatch
	if _, err := h.mirror.Get(storage.KeyResumeQuestions, &batches); err != nil {
		return err
	}
	return h.mirror.Put(storage.KeyResumeQuestions, append(batches, batch))
}

// Reset forgets the analysis and clears both histories
func (h *History) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mirror.Delete(storage.KeyResumeAnalysisID, storage.KeyResumeQAHistory, storage.KeyResumeQuestions)
}
