// Package tts synthesizes spoken announcements to audio files.
package tts

import (
	"context"
	"fmt"
)

// Synthesizer renders text with the given voice into a transient audio file
// and returns its path. The caller owns the file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (string, error)
}

// SynthesisError reports a failed synthesis.
type SynthesisError struct {
	Voice string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize with %s: %v", e.Voice, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
