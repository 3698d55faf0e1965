// internal/player/state.go
package player

// State represents the lifecycle of one playing stream (a Handle).
//
// A handle has three states with the following valid transitions:
//
//	┌──────────┐      Play       ┌──────────┐
//	│  (none)  │ ───────────────▶│  Playing │
//	└──────────┘                 └──────────┘
//	                                  │ │
//	                            pause │ │ stop / end of stream
//	                                  ▼ │
//	                             ┌──────────┐
//	                             │  Paused  │
//	                             └──────────┘
//	                                  │ │
//	                           resume │ │ stop
//	                                  │ ▼
//	                             ┌──────────┐
//	                             │  Stopped │ (terminal, Done closed)
//	                             └──────────┘
//
// Stopped is terminal: a handle is never restarted. Playing the same source
// again means a new Play call and a new handle.
//
// Invalid/No-op transitions (handled gracefully):
//   - Stopped → anything (ignored)
//   - Paused  → Paused   (ignored)
//   - Playing → Playing  (ignored)
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if the stream is live (Playing or Paused).
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Playing
}

// CanResume returns true if the state allows resuming.
func (s State) CanResume() bool {
	return s == Paused
}

// StopReason says why a stream ended.
type StopReason int

const (
	// Finished means the stream reached its end on its own.
	Finished StopReason = iota
	// UserInitiated is an explicit stop or pause-and-hold request.
	UserInitiated
	// Replace means another stream is taking over the sink.
	Replace
	// Shutdown means the session is closing.
	Shutdown
)

func (r StopReason) String() string {
	switch r {
	case Finished:
		return "finished"
	case UserInitiated:
		return "user"
	case Replace:
		return "replace"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Completion is reported exactly once by a handle when its stream ends.
type Completion struct {
	Reason StopReason
	Err    error // stream error, only set when Reason is Finished
}

// Natural reports whether the stream ended without a stop request.
func (c Completion) Natural() bool {
	return c.Reason == Finished
}
