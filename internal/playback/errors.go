package playback

import (
	"errors"
	"fmt"
)

var (
	ErrNothingPlaying = errors.New("nothing is playing")
	ErrNotSeekable    = errors.New("track has no known duration")
	ErrNoDestination  = errors.New("owner is not in a reachable destination")
	ErrInterjecting   = errors.New("an announcement is in progress")
	ErrSuperseded     = errors.New("session changed before the operation completed")
	ErrClosed         = errors.New("session is closed")
)

// ResolutionError reports a query that could not be turned into a
// playable source. The session is left unchanged.
type ResolutionError struct {
	Query string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Query, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
