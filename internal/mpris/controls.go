// Package mpris exposes the playback session to the desktop as an MPRIS
// media player, so media keys and shell widgets can drive it.
package mpris

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/llehouerou/senfoni/internal/playback"
)

// toggleDebounce drops play/pause presses that follow the previous one too
// closely. Some keyboards report a single press twice.
const toggleDebounce = 200 * time.Millisecond

// change tells the bus side which properties to announce.
type change int

const (
	changeStatus change = iota + 1
	changeTrack
	changeLoop
	changeVolume
)

// controls maps media-key commands onto the session and keeps the status
// the desktop displays. It has no D-Bus dependency.
type controls struct {
	service playback.Service
	logger  *slog.Logger

	mu         sync.Mutex
	lastToggle time.Time
	status     playback.Status
}

func newControls(service playback.Service, logger *slog.Logger) *controls {
	if logger == nil {
		logger = slog.Default()
	}
	return &controls{
		service: service,
		logger:  logger,
		status:  service.Status(),
	}
}

// playPause toggles playback, ignoring repeats within toggleDebounce.
func (c *controls) playPause(ctx context.Context) error {
	now := time.Now()
	c.mu.Lock()
	if !c.lastToggle.IsZero() && now.Sub(c.lastToggle) < toggleDebounce {
		c.mu.Unlock()
		c.logger.Debug("play/pause debounced")
		return nil
	}
	c.lastToggle = now
	c.mu.Unlock()
	return c.service.Toggle(ctx)
}

func (c *controls) play(ctx context.Context) error {
	return c.service.Resume(ctx)
}

func (c *controls) pause() error {
	return c.service.Pause()
}

func (c *controls) stop() error {
	return c.service.Stop()
}

// next skips to the queue head. Nothing playing is not an error on the bus.
func (c *controls) next(ctx context.Context) error {
	err := c.service.Skip(ctx)
	if errors.Is(err, playback.ErrNothingPlaying) {
		return nil
	}
	return err
}

// seekTo moves to an absolute position in the current track.
func (c *controls) seekTo(ctx context.Context, pos time.Duration) error {
	tr := c.service.CurrentTrack()
	if tr == nil || !tr.Seekable() {
		return nil
	}
	return c.service.Seek(ctx, float64(pos)/float64(tr.Duration))
}

// seekBy moves relative to the elapsed time.
func (c *controls) seekBy(ctx context.Context, offset time.Duration) error {
	return c.seekTo(ctx, c.service.Elapsed()+offset)
}

func (c *controls) snapshot() playback.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.status
	if s.Track != nil {
		t := *s.Track
		s.Track = &t
	}
	return s
}

// watch applies session events to the displayed status until ctx is done or
// the session closes. notify is called after every update.
func (c *controls) watch(ctx context.Context, sub *playback.Subscription, notify func(change)) {
	for {
		var ch change
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case e := <-sub.StateChanged:
			c.update(func(s *playback.Status) { s.State = e.Current })
			ch = changeStatus
		case e := <-sub.TrackChanged:
			c.update(func(s *playback.Status) {
				s.Track = e.Current
				s.FromCache = e.FromCache
			})
			ch = changeTrack
		case e := <-sub.ModeChanged:
			c.update(func(s *playback.Status) { s.Loop = e.Loop })
			ch = changeLoop
		case e := <-sub.VolumeChanged:
			c.update(func(s *playback.Status) { s.Volume = e.Volume })
			ch = changeVolume
		}
		if notify != nil {
			notify(ch)
		}
	}
}

func (c *controls) update(fn func(*playback.Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.status)
}
