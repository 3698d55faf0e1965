// Package playlist holds the upcoming-tracks queue of a playback session.
package playlist

import (
	"sync"

	"github.com/llehouerou/senfoni/internal/media"
)

// Queue is a FIFO of resolved tracks waiting to be played.
// Duplicates are allowed. Safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	tracks []media.Track
}

// NewQueue creates a new empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a track and returns its 1-based position.
func (q *Queue) Enqueue(t media.Track) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = append(q.tracks, t)
	return len(q.tracks)
}

// Dequeue removes and returns the head of the queue.
// Returns false if the queue is empty.
func (q *Queue) Dequeue() (media.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return media.Track{}, false
	}
	head := q.tracks[0]
	q.tracks[0] = media.Track{}
	q.tracks = q.tracks[1:]
	return head, true
}

// Peek returns the head of the queue without removing it.
func (q *Queue) Peek() (media.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return media.Track{}, false
	}
	return q.tracks[0], true
}

// RemoveAt removes the track at the given 0-based index.
func (q *Queue) RemoveAt(index int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index >= len(q.tracks) {
		return false
	}
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	return true
}

// Clear removes all tracks.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = nil
}

// Tracks returns a copy of the queued tracks in play order.
func (q *Queue) Tracks() []media.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := make([]media.Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}
