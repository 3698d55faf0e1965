// internal/playback/state.go
package playback

// State represents the session state.
//
//	Idle ──PlayNow──▶ Loading ──▶ Playing ◀──Resume── Paused
//	 ▲                               │ ──Pause──────────▲
//	 │       end of stream, empty    │                  │
//	 └──────── queue, no loop ◀──────┤                  │
//	                                 ▼                  │
//	                            Interjected ──failure───┘
//
// Interjected resumes to Playing (or Paused when the track was paused
// before the announcement) once the announcement completes.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateInterjected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateInterjected:
		return "Interjected"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}
