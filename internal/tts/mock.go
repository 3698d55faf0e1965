package tts

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// Call records one Synthesize invocation.
type Call struct {
	Text  string
	Voice string
}

// Mock is a test double for Synthesizer. It writes a small file into Dir so
// callers can verify cleanup.
type Mock struct {
	mu    sync.Mutex
	dir   string
	err   error
	calls []Call
	paths []string
}

// NewMock creates a mock writing its files into dir.
func NewMock(dir string) *Mock {
	return &Mock{dir: dir}
}

func (m *Mock) Synthesize(_ context.Context, text, voice string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Text: text, Voice: voice})
	if m.err != nil {
		return "", &SynthesisError{Voice: voice, Err: m.err}
	}
	path := filepath.Join(m.dir, "tts_mock_"+string(rune('a'+len(m.paths)))+".mp3")
	if err := os.WriteFile(path, []byte("speech"), 0o644); err != nil {
		return "", &SynthesisError{Voice: voice, Err: err}
	}
	m.paths = append(m.paths, path)
	return path, nil
}

// Test helpers

func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Paths returns the files produced so far.
func (m *Mock) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// Verify Mock implements Synthesizer at compile time.
var _ Synthesizer = (*Mock)(nil)
