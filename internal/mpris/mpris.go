//go:build linux

package mpris

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/senfoni/internal/playback"
)

// Adapter publishes a playback session on the session bus.
type Adapter struct {
	server *server.Server
	events *events.EventHandler
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New registers the session on the bus and starts following its events.
// ctx bounds the commands issued from the desktop.
func New(ctx context.Context, service playback.Service, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mpris")
	ctx, cancel := context.WithCancel(ctx)

	ctl := newControls(service, logger)
	a := &Adapter{cancel: cancel}
	a.server = server.NewServer("senfoni", &rootAdapter{}, &playerAdapter{ctx: ctx, ctl: ctl, service: service})
	a.events = events.NewEventHandler(a.server)

	go func() {
		if err := a.server.Listen(); err != nil {
			logger.Debug("mpris server stopped", "err", err)
		}
	}()

	sub := service.Subscribe()
	a.wg.Go(func() {
		ctl.watch(ctx, sub, func(ch change) {
			if err := a.announce(ch); err != nil {
				logger.Debug("mpris property update failed", "err", err)
			}
		})
	})
	return a, nil
}

func (a *Adapter) announce(ch change) error {
	switch ch {
	case changeStatus:
		return a.events.Player.OnPlayPause()
	case changeTrack:
		return a.events.Player.OnTitle()
	case changeVolume:
		return a.events.Player.OnVolume()
	}
	return nil
}

// Close stops following the session and releases the bus name.
func (a *Adapter) Close() error {
	a.cancel()
	a.wg.Wait()
	return a.server.Stop()
}

type rootAdapter struct{}

func (r *rootAdapter) Raise() error { return nil }

func (r *rootAdapter) Quit() error { return nil } // the console owns the lifecycle

func (r *rootAdapter) CanQuit() (bool, error) { return false, nil }

func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (r *rootAdapter) Identity() (string, error) { return "Senfoni", nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"https", "file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg"}, nil
}

// playerAdapter answers property reads from the status kept by controls
// and forwards commands to the session.
type playerAdapter struct {
	ctx     context.Context
	ctl     *controls
	service playback.Service
}

func (p *playerAdapter) Next() error { return p.ctl.next(p.ctx) }

func (p *playerAdapter) Previous() error { return nil }

func (p *playerAdapter) Pause() error { return p.ctl.pause() }

func (p *playerAdapter) PlayPause() error { return p.ctl.playPause(p.ctx) }

func (p *playerAdapter) Stop() error { return p.ctl.stop() }

func (p *playerAdapter) Play() error { return p.ctl.play(p.ctx) }

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.ctl.seekBy(p.ctx, time.Duration(offset)*time.Microsecond)
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	return p.ctl.seekTo(p.ctx, time.Duration(position)*time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(uri string) error {
	_, err := p.service.PlayNow(p.ctx, uri)
	return err
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.ctl.snapshot().State {
	case playback.StatePlaying, playback.StateLoading, playback.StateInterjected:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) SetRate(_ float64) error { return nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	st := p.ctl.snapshot()
	if st.Track == nil {
		return types.Metadata{}, nil
	}
	return types.Metadata{
		TrackId: dbus.ObjectPath(trackObjectPath(st.Track.Key())),
		Length:  types.Microseconds(st.Track.Duration.Microseconds()),
		Title:   st.Track.Title,
	}, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.ctl.snapshot().Volume, nil
}

func (p *playerAdapter) SetVolume(level float64) error {
	p.service.SetVolume(level)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.service.Elapsed().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.ctl.snapshot().Track != nil, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) { return false, nil }

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.ctl.snapshot().Track != nil, nil
}

func (p *playerAdapter) CanPause() (bool, error) { return true, nil }

func (p *playerAdapter) CanSeek() (bool, error) {
	tr := p.ctl.snapshot().Track
	return tr != nil && tr.Seekable(), nil
}

func (p *playerAdapter) CanControl() (bool, error) { return true, nil }

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	if p.ctl.snapshot().Loop {
		return types.LoopStatusTrack, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
// Playlist looping is not supported and turns loop off.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	p.service.SetLoop(status == types.LoopStatusTrack)
	return nil
}

func trackObjectPath(key string) string {
	h := fnv.New64a()
	h.Write([]byte(key))
	return fmt.Sprintf("/org/senfoni/Track/%x", h.Sum64())
}
