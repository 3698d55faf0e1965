// internal/player/mock.go
package player

import (
	"context"
	"sync"
	"time"
)

// PlayCall records one Play invocation on the mock sink.
type PlayCall struct {
	Source Source
	Offset time.Duration
	Volume float64
}

// Mock is a test double for Sink.
type Mock struct {
	mu         sync.Mutex
	connected  bool
	joins      []Destination
	joinErr    error
	playErr    error
	ignoreStop bool
	plays      []PlayCall
	handles    []*MockHandle
	played     chan struct{}
}

// NewMock creates a new unconnected mock sink for testing.
func NewMock() *Mock {
	return &Mock{played: make(chan struct{}, 64)}
}

func (m *Mock) Join(dest Destination) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joins = append(m.joins, dest)
	m.connected = true
	return nil
}

func (m *Mock) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Mock) Play(_ context.Context, src Source, offset time.Duration, volume float64) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays = append(m.plays, PlayCall{Source: src, Offset: offset, Volume: volume})
	if m.playErr != nil {
		return nil, m.playErr
	}
	h := newMockHandle(volume, m.ignoreStop)
	m.handles = append(m.handles, h)
	select {
	case m.played <- struct{}{}:
	default:
	}
	return h, nil
}

// Test helpers

func (m *Mock) SetConnected(c bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = c
}

func (m *Mock) SetJoinError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joinErr = err
}

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// SetIgnoreStop makes handles created afterwards never acknowledge Stop.
func (m *Mock) SetIgnoreStop(ignore bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignoreStop = ignore
}

func (m *Mock) Joins() []Destination {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Destination(nil), m.joins...)
}

func (m *Mock) PlayCalls() []PlayCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PlayCall(nil), m.plays...)
}

func (m *Mock) Handles() []*MockHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockHandle(nil), m.handles...)
}

// LastHandle returns the most recently created handle, or nil.
func (m *Mock) LastHandle() *MockHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.handles) == 0 {
		return nil
	}
	return m.handles[len(m.handles)-1]
}

// Played receives one value per successful Play call.
func (m *Mock) Played() <-chan struct{} {
	return m.played
}

// MockHandle is a test double for Handle.
type MockHandle struct {
	mu         sync.Mutex
	state      State
	volume     float64
	pauses     int
	resumes    int
	stops      []StopReason
	ignoreStop bool
	result     Completion
	done       chan struct{}
	once       sync.Once
}

func newMockHandle(volume float64, ignoreStop bool) *MockHandle {
	return &MockHandle{
		state:      Playing,
		volume:     volume,
		ignoreStop: ignoreStop,
		done:       make(chan struct{}),
	}
}

func (h *MockHandle) Stop(reason StopReason) {
	h.mu.Lock()
	h.stops = append(h.stops, reason)
	ignore := h.ignoreStop
	h.mu.Unlock()
	if ignore {
		return
	}
	h.finish(Completion{Reason: reason})
}

func (h *MockHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Playing {
		h.state = Paused
		h.pauses++
	}
}

func (h *MockHandle) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Paused {
		h.state = Playing
		h.resumes++
	}
}

func (h *MockHandle) SetVolume(level float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volume = level
}

func (h *MockHandle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *MockHandle) Done() <-chan struct{} { return h.done }

func (h *MockHandle) Result() Completion {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Finish simulates the stream reaching its end, optionally with an error.
func (h *MockHandle) Finish(err error) {
	h.finish(Completion{Reason: Finished, Err: err})
}

// ForceStop acknowledges a stop that was ignored.
func (h *MockHandle) ForceStop(reason StopReason) {
	h.finish(Completion{Reason: reason})
}

func (h *MockHandle) finish(c Completion) {
	h.once.Do(func() {
		h.mu.Lock()
		h.state = Stopped
		h.result = c
		h.mu.Unlock()
		close(h.done)
	})
}

func (h *MockHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

func (h *MockHandle) StopReasons() []StopReason {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]StopReason(nil), h.stops...)
}

func (h *MockHandle) Pauses() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pauses
}

func (h *MockHandle) Resumes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resumes
}

// Verify mocks implement the interfaces at compile time.
var (
	_ Sink   = (*Mock)(nil)
	_ Handle = (*MockHandle)(nil)
)
