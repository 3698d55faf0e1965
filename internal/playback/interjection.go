package playback

import (
	"context"
	"time"

	"github.com/llehouerou/senfoni/internal/media"
	"github.com/llehouerou/senfoni/internal/player"
)

// Snapshot records what was playing when an announcement took over.
type Snapshot struct {
	Track      *media.Track
	Elapsed    time.Duration
	WasPlaying bool
	WasPaused  bool
	FromCache  bool

	gen uint64
}

// Active reports whether a track was playing or paused at suspension.
func (s Snapshot) Active() bool {
	return s.Track != nil && (s.WasPlaying || s.WasPaused)
}

// Suspend stops the current track, records its position and moves the
// session to Interjected. Only one announcement may be in progress.
func (s *Session) Suspend() (Snapshot, error) {
	s.playMu.Lock()
	defer s.playMu.Unlock()
	if s.isClosed() {
		return Snapshot{}, ErrClosed
	}

	s.mu.RLock()
	state := s.state
	snap := Snapshot{
		Elapsed:    s.elapsedLocked().Truncate(time.Second),
		WasPlaying: state == StatePlaying,
		WasPaused:  state == StatePaused,
		FromCache:  s.fromCache,
	}
	if s.track != nil {
		t := *s.track
		snap.Track = &t
	}
	s.mu.RUnlock()

	if state == StateInterjected {
		return Snapshot{}, ErrInterjecting
	}

	s.stopCurrentLocked(player.UserInitiated)
	s.mu.Lock()
	s.accumulated = 0
	s.startOffset = snap.Elapsed
	snap.gen = s.gen
	s.mu.Unlock()
	s.setState(StateInterjected)

	s.logger.Debug("suspended for announcement", "elapsed", snap.Elapsed, "playing", snap.WasPlaying)
	return snap, nil
}

// Announce plays the audio file at path over the suspended session at the
// current volume. The returned handle is not tracked for completion; the
// caller waits on it and then calls Restore or Abort.
func (s *Session) Announce(ctx context.Context, snap Snapshot, path string) (player.Handle, error) {
	s.playMu.Lock()
	defer s.playMu.Unlock()
	if s.isClosed() {
		return nil, ErrClosed
	}
	if s.currentGen() != snap.gen {
		return nil, ErrSuperseded
	}
	if err := s.ensureConnected(); err != nil {
		return nil, err
	}
	h, err := s.sink.Play(ctx, player.Source{URI: path}, 0, s.Volume())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()
	return h, nil
}

// Restore resumes the suspended track at its recorded position, from the
// cache only if it was playing from the cache. A track that was paused stays
// paused at that position. If the track cannot be started
// again it is held paused and the error returned.
func (s *Session) Restore(ctx context.Context, snap Snapshot) error {
	if !snap.Active() || snap.WasPaused {
		s.Abort(snap)
		return nil
	}

	p, err := s.prepareTrack(ctx, *snap.Track, snap.FromCache)
	if err != nil {
		s.logger.Warn("restore failed", "title", snap.Track.Title, "err", err)
		s.Abort(snap)
		s.emitError("restore", snap.Track.URL, err)
		return err
	}

	s.playMu.Lock()
	defer s.playMu.Unlock()
	if s.isClosed() {
		return ErrClosed
	}
	if s.currentGen() != snap.gen {
		return ErrSuperseded
	}
	if err := s.startLocked(ctx, p, snap.Elapsed); err != nil {
		s.holdLocked(snap.Track, snap.Elapsed, snap.FromCache)
		s.emitError("restore", snap.Track.URL, err)
		return err
	}
	return nil
}

// Abort ends an interjection without starting anything. An active track is
// held paused at its recorded position; otherwise the session goes idle.
func (s *Session) Abort(snap Snapshot) {
	s.playMu.Lock()
	defer s.playMu.Unlock()
	if s.isClosed() || s.currentGen() != snap.gen {
		return
	}
	if !snap.Active() {
		s.goIdleLocked(player.UserInitiated)
		return
	}
	s.holdLocked(snap.Track, snap.Elapsed, snap.FromCache)
}
