package playback

import (
	"time"

	"github.com/llehouerou/senfoni/internal/media"
)

// StateChange is emitted when the session state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when a stream starts on a track, or when the
// session goes idle (Current is nil).
//
// Emitted by:
//   - PlayNow, Seek, Resume of a held track: every successful stream start
//   - end of stream: loop replay or queue advance
//   - interjection restore
//
// A seek or loop replay of the same track emits with Previous and Current
// sharing the same URL.
type TrackChange struct {
	Previous  *media.Track
	Current   *media.Track
	FromCache bool
}

// QueueChange is emitted when the queue contents change.
type QueueChange struct {
	Tracks []media.Track
}

// ModeChange is emitted when loop mode changes.
type ModeChange struct {
	Loop bool
}

// VolumeChange is emitted when the session volume changes.
type VolumeChange struct {
	Volume float64
}

// PositionChange is emitted when a seek occurs.
type PositionChange struct {
	Position time.Duration
}

// ErrorEvent is emitted when an error occurs during playback.
type ErrorEvent struct {
	Operation string // e.g., "play", "seek", "advance"
	Query     string // query or track URL if applicable
	Err       error
}
