package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"prepcoach/internal/errors"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID     string   `json:"id"`
	Rounds []string `json:"rounds"`
}

func newTestMirror(t *testing.T) *Mirror {
	t.Helper()
	logger, _ := errors.New("debug")
	m, err := NewMirror(filepath.Join(t.TempDir(), "state"), logger)
	require.NoError(t, err)
	return m
}

func TestMirrorPutGet(t *testing.T) {
	m := newTestMirror(t)

	require.NoError(t, m.Put(KeyInterviewSessionData, sample{ID: "s-1", Rounds: []string{"technical"}}))

	var got sample
	found, err := m.Get(KeyInterviewSessionData, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{ID: "s-1", Rounds: []string{"technical"}}, got)

	info, err := os.Stat(m.Path(KeyInterviewSessionData))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestMirrorGetMissing(t *testing.T) {
	m := newTestMirror(t)

	var got sample
	found, err := m.Get(KeyInterviewSessionData, &got)
	require.NoError(t, err)
	assert.False(t, found)

	id, err := m.GetString(KeyInterviewSessionID)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestMirrorStringAndDelete(t *testing.T) {
	m := newTestMirror(t)

	require.NoError(t, m.PutString(KeyInterviewSessionID, "abc"))
	require.NoError(t, m.Put(KeyInterviewSessionData, sample{ID: "abc"}))
	assert.True(t, m.Has(KeyInterviewSessionID))

	id, err := m.GetString(KeyInterviewSessionID)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	require.NoError(t, m.Delete(KeyInterviewSessionID, KeyInterviewSessionData, KeyResumeAnalysisID))
	assert.False(t, m.Has(KeyInterviewSessionID))
	assert.False(t, m.Has(KeyInterviewSessionData))
}

func TestMirrorCorruptValue(t *testing.T) {
	m := newTestMirror(t)
	require.NoError(t, os.WriteFile(m.Path(KeyInterviewSessionData), []byte("{not json"), 0600))

	var got sample
	_, err := m.Get(KeyInterviewSessionData, &got)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
}

func TestMirrorRejectsInvalidKeys(t *testing.T) {
	m := newTestMirror(t)

	for _, key := range []string{"", "../escape", "a/b", "9lives"} {
		err := m.Put(key, "x")
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), key)
	}
}

func TestMirrorConcurrentWrites(t *testing.T) {
	m := newTestMirror(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, m.Put(KeyResumeQAHistory, []int{i}))
		}(i)
	}
	wg.Wait()

	var got []int
	found, err := m.Get(KeyResumeQAHistory, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, got, 1)

	entries, err := os.ReadDir(m.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are renamed away")
}

func TestNewMirrorRequiresDir(t *testing.T) {
	_, err := NewMirror("", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestWatcherReportsExternalChanges(t *testing.T) {
	m := newTestMirror(t)
	require.NoError(t, m.PutString(KeyInterviewSessionID, "first"))

	changed := make(chan string, 4)
	w := NewWatcher(m, []string{KeyInterviewSessionID, KeyInterviewSessionData}, 20*time.Millisecond, func(key string) {
		changed <- key
	}, nil)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(), "second start is rejected")

	// Ensure the modification time moves forward on coarse-grained filesystems
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.Put(KeyInterviewSessionData, sample{ID: "first"}))

	select {
	case key := <-changed:
		assert.Equal(t, KeyInterviewSessionData, key)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}

func TestWatcherRestartsAfterStop(t *testing.T) {
	m := newTestMirror(t)
	changed := make(chan string, 4)
	w := NewWatcher(m, []string{KeyInterviewSessionData}, 10*time.Millisecond, func(key string) {
		changed <- key
	}, nil)

	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	assert.True(t, w.IsRunning())

	require.NoError(t, m.Put(KeyInterviewSessionData, sample{ID: "again"}))
	select {
	case key := <-changed:
		assert.Equal(t, KeyInterviewSessionData, key)
	case <-time.After(3 * time.Second):
		t.Fatal("restarted watcher did not report the change")
	}

	assert.NotPanics(t, func() {
		require.NoError(t, w.Stop())
		require.NoError(t, w.Stop())
	})
	assert.False(t, w.IsRunning())
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	m := newTestMirror(t)
	w := NewWatcher(m, []string{KeyInterviewSessionID}, 10*time.Millisecond, func(string) {}, nil)

	_, ok := w.keyForEvent(fsnotifyEvent(filepath.Join(m.Dir(), "other.json")))
	assert.False(t, ok)

	key, ok := w.keyForEvent(fsnotifyEvent(m.Path(KeyInterviewSessionID)))
	assert.True(t, ok)
	assert.Equal(t, KeyInterviewSessionID, key)
}

func fsnotifyEvent(name string) fsnotify.Event {
	return fsnotify.Event{Name: name, Op: fsnotify.Write}
}
