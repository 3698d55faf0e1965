package playback

import (
	"context"
	"time"

	"github.com/llehouerou/senfoni/internal/media"
)

// Service defines the playback session contract.
type Service interface {
	// Playback control
	PlayNow(ctx context.Context, query string) (media.Track, error)
	Pause() error
	Resume(ctx context.Context) error
	Toggle(ctx context.Context) error
	Stop() error
	Skip(ctx context.Context) error
	Seek(ctx context.Context, fraction float64) error

	// Queue
	Enqueue(ctx context.Context, query string) (int, media.Track, error)
	QueueTracks() []media.Track
	ClearQueue()

	// Settings
	SetVolume(level float64)
	Volume() float64
	SetLoop(enabled bool)
	ToggleLoop() bool
	Loop() bool

	// State queries
	State() State
	CurrentTrack() *media.Track
	IsFromCache() bool
	Elapsed() time.Duration
	Status() Status

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}

// Status is a point-in-time view of the session.
type Status struct {
	State     State
	Track     *media.Track
	FromCache bool
	Elapsed   time.Duration
	Volume    float64
	Loop      bool
	QueueLen  int
}
