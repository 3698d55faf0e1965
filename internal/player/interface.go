// internal/player/interface.go
package player

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotConnected is returned by Play before a destination was joined.
var ErrNotConnected = errors.New("sink is not connected to a destination")

// Source is what a sink plays: a local file path or a network URI.
type Source struct {
	URI     string
	Headers map[string]string
}

// Sink renders audio sources to the joined destination.
type Sink interface {
	Join(dest Destination) error
	Connected() bool
	Play(ctx context.Context, src Source, offset time.Duration, volume float64) (Handle, error)
}

// Handle controls one playing stream.
//
// Done is closed when the stream has ended for any reason; Result is valid
// once Done is closed. A stream stopped with Stop reports that reason, a
// stream that ran out reports Finished.
type Handle interface {
	Stop(reason StopReason)
	Pause()
	Resume()
	SetVolume(level float64)
	State() State
	Done() <-chan struct{}
	Result() Completion
}

// SinkError reports a failure inside the sink.
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Op, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }
