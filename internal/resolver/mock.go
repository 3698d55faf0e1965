package resolver

import (
	"context"
	"sync"

	"github.com/llehouerou/senfoni/internal/media"
)

// Mock is a test double for Resolver.
type Mock struct {
	mu      sync.Mutex
	tracks  map[string]media.Track
	errs    map[string]error
	calls   []string
	blockCh chan struct{}
}

// NewMock creates a mock resolver with no known queries.
func NewMock() *Mock {
	return &Mock{
		tracks: make(map[string]media.Track),
		errs:   make(map[string]error),
	}
}

func (m *Mock) Resolve(ctx context.Context, query string) (media.Track, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	block := m.blockCh
	t, ok := m.tracks[query]
	err := m.errs[query]
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return media.Track{}, ctx.Err()
		}
	}
	if err != nil {
		return media.Track{}, err
	}
	if !ok {
		return media.Track{}, ErrNotFound
	}
	return t, nil
}

// Test helpers

// Add registers track under query and under the track URL.
func (m *Mock) Add(query string, t media.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks[query] = t
	if t.URL != "" {
		m.tracks[t.URL] = t
	}
}

func (m *Mock) SetError(query string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[query] = err
}

// Block makes every Resolve wait until the returned channel is closed.
func (m *Mock) Block() chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockCh = make(chan struct{})
	return m.blockCh
}

func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Verify Mock implements Resolver at compile time.
var _ Resolver = (*Mock)(nil)
