package playback

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/llehouerou/senfoni/internal/media"
	"github.com/llehouerou/senfoni/internal/player"
	"github.com/llehouerou/senfoni/internal/playlist"
	"github.com/llehouerou/senfoni/internal/resolver"
)

const (
	defaultStopGrace = 500 * time.Millisecond
	defaultVolume    = 0.5
)

// Verify Session implements Service at compile time.
var _ Service = (*Session)(nil)

// CacheLookup finds finished cache entries.
type CacheLookup interface {
	Lookup(url, title string) (string, bool)
}

// FavoriteLookup finds favorites by URL.
type FavoriteLookup interface {
	Find(url string) (media.Favorite, bool)
}

// Config wires a session to its collaborators.
type Config struct {
	Resolver     resolver.Resolver
	Sink         player.Sink
	Destinations player.Destinations
	Cache        CacheLookup    // optional
	Favorites    FavoriteLookup // optional
	Queue        *playlist.Queue
	OwnerID      string
	StopGrace    time.Duration
	Volume       float64
	Loop         bool
	Logger       *slog.Logger
}

// completion is a finished stream tagged with the generation it started in.
type completion struct {
	gen    uint64
	result player.Completion
}

// prepared is a track ready to hand to the sink.
type prepared struct {
	track     media.Track
	source    player.Source
	fromCache bool
}

// Session is the single-listener playback state machine.
//
// playMu serializes every stop-then-start sequence and every call into the
// sink. mu guards the fields below it and is never held across sink or
// network calls, so state queries never wait on a swap in progress.
// gen is bumped whenever the current stream is torn down; work that was
// decided against an older generation is dropped.
type Session struct {
	playMu sync.Mutex

	mu           sync.RWMutex
	state        State
	track        *media.Track
	fromCache    bool
	volume       float64
	loop         bool
	accumulated  time.Duration
	startOffset  time.Duration
	segmentStart time.Time
	handle       player.Handle
	gen          uint64
	closed       bool

	resolver     resolver.Resolver
	sink         player.Sink
	destinations player.Destinations
	cache        CacheLookup
	favorites    FavoriteLookup
	queue        *playlist.Queue
	ownerID      string
	stopGrace    time.Duration
	logger       *slog.Logger

	completions chan completion
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	wg          sync.WaitGroup

	subs   []*Subscription
	subsMu sync.RWMutex
}

// New creates a session and starts its completion loop.
func New(cfg Config) *Session {
	if cfg.Queue == nil {
		cfg.Queue = playlist.NewQueue()
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = defaultStopGrace
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		state:        StateIdle,
		volume:       player.ClampVolume(cfg.Volume),
		loop:         cfg.Loop,
		resolver:     cfg.Resolver,
		sink:         cfg.Sink,
		destinations: cfg.Destinations,
		cache:        cfg.Cache,
		favorites:    cfg.Favorites,
		queue:        cfg.Queue,
		ownerID:      cfg.OwnerID,
		stopGrace:    cfg.StopGrace,
		logger:       cfg.Logger.With("component", "playback"),
		completions:  make(chan completion, 8),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	s.wg.Go(s.run)
	return s
}

// run reacts to finished streams one at a time.
func (s *Session) run() {
	for {
		select {
		case c := <-s.completions:
			s.handleCompletion(c)
		case <-s.done:
			return
		}
	}
}

func (s *Session) handleCompletion(c completion) {
	if c.gen != s.currentGen() {
		s.logger.Debug("dropping stale completion", "gen", c.gen)
		return
	}
	if !c.result.Natural() {
		return
	}
	if c.result.Err != nil {
		s.logger.Warn("stream ended with error", "err", c.result.Err)
		s.emitError("stream", "", c.result.Err)
	}
	s.finishCurrent(s.ctx, c.gen, false)
}

// watch forwards the end of h to the completion loop.
func (s *Session) watch(gen uint64, h player.Handle) {
	s.wg.Go(func() {
		select {
		case <-h.Done():
		case <-s.done:
			return
		}
		select {
		case s.completions <- completion{gen: gen, result: h.Result()}:
		case <-s.done:
		}
	})
}

// finishCurrent applies the end-of-track policy to generation gen: replay
// when looping, else play the queue head, else go idle. skipLoop treats
// loop mode as off for this one transition without changing it.
func (s *Session) finishCurrent(ctx context.Context, gen uint64, skipLoop bool) {
	s.mu.RLock()
	track, loop, fromCache := s.track, s.loop, s.fromCache
	s.mu.RUnlock()

	if loop && !skipLoop && track != nil {
		err := s.restart(ctx, gen, *track, fromCache, 0)
		if err == nil || errors.Is(err, ErrSuperseded) || errors.Is(err, ErrClosed) {
			return
		}
		s.logger.Warn("loop replay failed", "title", track.Title, "err", err)
		s.emitError("loop", track.URL, err)
	}

	s.playMu.Lock()
	defer s.playMu.Unlock()
	for {
		if s.isClosed() || s.currentGen() != gen {
			return
		}
		next, ok := s.queue.Dequeue()
		if !ok {
			s.goIdleLocked(player.UserInitiated)
			return
		}
		s.emitQueue()

		p, err := s.prepareQueued(next)
		if err == nil {
			err = s.startLocked(ctx, p, 0)
		}
		if err == nil {
			return
		}
		s.logger.Warn("skipping queued track", "title", next.Title, "err", err)
		s.emitError("advance", next.URL, err)
		gen = s.currentGen()
	}
}

// restart re-prepares track outside the play lock and starts it at offset,
// unless the session moved past generation gen in the meantime. fromCache
// is the source the track was last played from.
func (s *Session) restart(ctx context.Context, gen uint64, track media.Track, fromCache bool, offset time.Duration) error {
	p, err := s.prepareTrack(ctx, track, fromCache)
	if err != nil {
		return err
	}
	s.playMu.Lock()
	defer s.playMu.Unlock()
	if s.isClosed() {
		return ErrClosed
	}
	if s.currentGen() != gen {
		return ErrSuperseded
	}
	return s.startLocked(ctx, p, offset)
}

// startLocked stops the current stream and starts p at offset.
// Must be called with playMu held.
func (s *Session) startLocked(ctx context.Context, p prepared, offset time.Duration) error {
	if s.isClosed() {
		return ErrClosed
	}
	if err := s.ensureConnected(); err != nil {
		return err
	}
	s.stopCurrentLocked(player.Replace)
	s.setState(StateLoading)

	h, err := s.sink.Play(ctx, p.source, offset, s.Volume())
	if err != nil {
		s.goIdleLocked(player.UserInitiated)
		return err
	}

	track := p.track
	s.mu.Lock()
	s.gen++
	gen := s.gen
	prev := s.track
	s.handle = h
	s.track = &track
	s.fromCache = p.fromCache
	s.accumulated = 0
	s.startOffset = offset
	s.segmentStart = time.Now()
	s.mu.Unlock()

	s.setState(StatePlaying)
	s.watch(gen, h)
	s.logger.Info("playing", "title", track.Title, "url", track.URL, "offset", offset, "cache", p.fromCache)
	s.emitTrack(TrackChange{Previous: prev, Current: &track, FromCache: p.fromCache})
	return nil
}

// stopCurrentLocked stops the live stream, if any, and waits up to the
// stop grace for the sink to acknowledge. Must be called with playMu held.
func (s *Session) stopCurrentLocked(reason player.StopReason) {
	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.gen++
	if s.state == StatePlaying {
		s.accumulated += time.Since(s.segmentStart)
	}
	s.mu.Unlock()

	if h == nil {
		return
	}
	h.Stop(reason)
	timer := time.NewTimer(s.stopGrace)
	defer timer.Stop()
	select {
	case <-h.Done():
	case <-timer.C:
		s.logger.Warn("sink did not acknowledge stop", "reason", reason, "grace", s.stopGrace)
	}
}

// goIdleLocked stops everything and clears the current track.
// The queue is kept. Must be called with playMu held.
func (s *Session) goIdleLocked(reason player.StopReason) {
	s.stopCurrentLocked(reason)
	s.mu.Lock()
	prev := s.track
	s.track = nil
	s.fromCache = false
	s.accumulated = 0
	s.startOffset = 0
	s.mu.Unlock()
	s.setState(StateIdle)
	if prev != nil {
		s.emitTrack(TrackChange{Previous: prev})
	}
}

// holdLocked parks track as Paused at elapsed with no live stream.
// Resume restarts it from there. Must be called with playMu held.
func (s *Session) holdLocked(track *media.Track, elapsed time.Duration, fromCache bool) {
	if track == nil {
		s.goIdleLocked(player.UserInitiated)
		return
	}
	s.stopCurrentLocked(player.UserInitiated)
	t := *track
	s.mu.Lock()
	s.track = &t
	s.fromCache = fromCache
	s.accumulated = 0
	s.startOffset = elapsed
	s.mu.Unlock()
	s.setState(StatePaused)
}

func (s *Session) ensureConnected() error {
	if s.sink.Connected() {
		return nil
	}
	if s.destinations == nil {
		return ErrNoDestination
	}
	dest, ok := s.destinations.Resolve(s.ownerID)
	if !ok {
		return ErrNoDestination
	}
	return s.sink.Join(dest)
}

// cached returns the cache entry for url when it is a favorite with a
// finished download.
func (s *Session) cached(url string) (prepared, bool) {
	if url == "" || s.favorites == nil || s.cache == nil {
		return prepared{}, false
	}
	fav, ok := s.favorites.Find(url)
	if !ok {
		return prepared{}, false
	}
	path, ok := s.cache.Lookup(fav.URL, fav.Title)
	if !ok {
		return prepared{}, false
	}
	t := fav.Track()
	t.Stream = media.StreamRef{URI: path}
	return prepared{track: t, source: player.Source{URI: path}, fromCache: true}, true
}

// prepareQuery resolves a user query, preferring the cache.
func (s *Session) prepareQuery(ctx context.Context, query string) (prepared, error) {
	if p, ok := s.cached(query); ok {
		return p, nil
	}
	t, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return prepared{}, &ResolutionError{Query: query, Err: err}
	}
	if p, ok := s.cached(t.URL); ok {
		return p, nil
	}
	return streamOf(t), nil
}

// prepareTrack prepares a replay of t from the same kind of source it was
// played from: the cache entry when fromCache and the entry still exists,
// otherwise a fresh resolution by URL since stream references expire.
func (s *Session) prepareTrack(ctx context.Context, t media.Track, fromCache bool) (prepared, error) {
	if fromCache {
		if p, ok := s.cached(t.URL); ok {
			return p, nil
		}
	}
	if t.URL == "" {
		if t.Stream.URI == "" {
			return prepared{}, &ResolutionError{Query: t.Title, Err: resolver.ErrNotFound}
		}
		return streamOf(t), nil
	}
	r, err := s.resolver.Resolve(ctx, t.URL)
	if err != nil {
		return prepared{}, &ResolutionError{Query: t.URL, Err: err}
	}
	r.URL = t.URL
	if t.Title != "" {
		r.Title = t.Title
	}
	if r.Duration == 0 {
		r.Duration = t.Duration
	}
	return streamOf(r), nil
}

// prepareQueued uses the stream resolved at enqueue time. It does no
// network work so it can run under the play lock.
func (s *Session) prepareQueued(t media.Track) (prepared, error) {
	if p, ok := s.cached(t.URL); ok {
		return p, nil
	}
	if t.Stream.URI == "" {
		return prepared{}, &ResolutionError{Query: t.URL, Err: resolver.ErrNotFound}
	}
	return streamOf(t), nil
}

func streamOf(t media.Track) prepared {
	return prepared{
		track:  t,
		source: player.Source{URI: t.Stream.URI, Headers: t.Stream.Headers},
	}
}

// PlayNow resolves query and replaces whatever is playing. On a resolution
// failure the session is left untouched.
func (s *Session) PlayNow(ctx context.Context, query string) (media.Track, error) {
	query = strings.TrimSpace(query)
	if s.isClosed() {
		return media.Track{}, ErrClosed
	}
	p, err := s.prepareQuery(ctx, query)
	if err != nil {
		s.logger.Warn("resolution failed", "query", query, "err", err)
		s.emitError("play", query, err)
		return media.Track{}, err
	}

	s.playMu.Lock()
	defer s.playMu.Unlock()
	if err := s.startLocked(ctx, p, 0); err != nil {
		s.emitError("play", query, err)
		return media.Track{}, err
	}
	return p.track, nil
}

// Enqueue resolves query now and appends it. Returns the 1-based position.
func (s *Session) Enqueue(ctx context.Context, query string) (int, media.Track, error) {
	query = strings.TrimSpace(query)
	if s.isClosed() {
		return 0, media.Track{}, ErrClosed
	}
	t, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		err = &ResolutionError{Query: query, Err: err}
		s.emitError("enqueue", query, err)
		return 0, media.Track{}, err
	}
	pos := s.queue.Enqueue(t)
	s.logger.Info("queued", "title", t.Title, "position", pos)
	s.emitQueue()
	return pos, t, nil
}

// Pause suspends the live stream. No-op unless Playing.
func (s *Session) Pause() error {
	s.playMu.Lock()
	defer s.playMu.Unlock()

	s.mu.Lock()
	if s.state != StatePlaying || s.handle == nil {
		s.mu.Unlock()
		return nil
	}
	h := s.handle
	s.accumulated += time.Since(s.segmentStart)
	s.mu.Unlock()

	h.Pause()
	s.setState(StatePaused)
	return nil
}

// Resume continues a paused stream, or restarts a held track at its
// recorded position. No-op unless Paused.
func (s *Session) Resume(ctx context.Context) error {
	s.playMu.Lock()
	s.mu.Lock()
	if s.state != StatePaused || s.track == nil {
		s.mu.Unlock()
		s.playMu.Unlock()
		return nil
	}
	if h := s.handle; h != nil {
		s.segmentStart = time.Now()
		s.mu.Unlock()
		h.Resume()
		s.setState(StatePlaying)
		s.playMu.Unlock()
		return nil
	}
	track := *s.track
	offset := s.elapsedLocked().Truncate(time.Second)
	gen, fromCache := s.gen, s.fromCache
	s.mu.Unlock()
	s.playMu.Unlock()

	if err := s.restart(ctx, gen, track, fromCache, offset); err != nil {
		if !errors.Is(err, ErrSuperseded) {
			s.emitError("resume", track.URL, err)
		}
		return err
	}
	return nil
}

// Toggle pauses when playing and resumes when paused.
func (s *Session) Toggle(ctx context.Context) error {
	switch s.State() {
	case StatePlaying:
		return s.Pause()
	case StatePaused:
		return s.Resume(ctx)
	default:
		return nil
	}
}

// Stop ends playback and clears the current track. The queue is kept.
func (s *Session) Stop() error {
	s.playMu.Lock()
	defer s.playMu.Unlock()
	if s.currentTrackPtr() == nil {
		return nil
	}
	s.goIdleLocked(player.UserInitiated)
	return nil
}

// Skip ends the current track as if it had finished, ignoring loop mode for
// this transition. The loop setting itself is unchanged.
func (s *Session) Skip(ctx context.Context) error {
	s.mu.RLock()
	track, gen, state := s.track, s.gen, s.state
	s.mu.RUnlock()
	if track == nil {
		return ErrNothingPlaying
	}
	if state == StateInterjected {
		return ErrInterjecting
	}
	s.finishCurrent(ctx, gen, true)
	return nil
}

// Seek restarts the current track at fraction of its duration, truncated to
// whole seconds. A target at or past the end behaves like the track
// finishing on its own.
func (s *Session) Seek(ctx context.Context, fraction float64) error {
	s.mu.RLock()
	track, gen, state, fromCache := s.track, s.gen, s.state, s.fromCache
	s.mu.RUnlock()
	if track == nil {
		return ErrNothingPlaying
	}
	if state == StateInterjected {
		return ErrInterjecting
	}
	if !track.Seekable() {
		return ErrNotSeekable
	}
	fraction = min(max(fraction, 0), 1)
	target := time.Duration(fraction * float64(track.Duration)).Truncate(time.Second)

	if target >= track.Duration {
		s.finishCurrent(ctx, gen, false)
		return nil
	}
	if err := s.restart(ctx, gen, *track, fromCache, target); err != nil {
		if !errors.Is(err, ErrSuperseded) {
			s.emitError("seek", track.URL, err)
		}
		return err
	}
	s.broadcast(func(sub *Subscription) { sub.sendPosition(target) })
	return nil
}

// SetVolume clamps level to [0,1], applies it to the live stream and uses it
// for later streams.
func (s *Session) SetVolume(level float64) {
	level = player.ClampVolume(level)
	s.playMu.Lock()
	s.mu.Lock()
	s.volume = level
	h := s.handle
	s.mu.Unlock()
	if h != nil {
		h.SetVolume(level)
	}
	s.playMu.Unlock()
	s.broadcast(func(sub *Subscription) { sub.sendVolume(VolumeChange{Volume: level}) })
}

func (s *Session) Volume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

func (s *Session) SetLoop(enabled bool) {
	s.mu.Lock()
	changed := s.loop != enabled
	s.loop = enabled
	s.mu.Unlock()
	if changed {
		s.broadcast(func(sub *Subscription) { sub.sendMode(ModeChange{Loop: enabled}) })
	}
}

func (s *Session) ToggleLoop() bool {
	s.mu.Lock()
	s.loop = !s.loop
	loop := s.loop
	s.mu.Unlock()
	s.broadcast(func(sub *Subscription) { sub.sendMode(ModeChange{Loop: loop}) })
	return loop
}

func (s *Session) Loop() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loop
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CurrentTrack returns a copy of the current track, or nil if none.
func (s *Session) CurrentTrack() *media.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.track == nil {
		return nil
	}
	t := *s.track
	return &t
}

func (s *Session) IsFromCache() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fromCache
}

// Elapsed returns the playback position in whole seconds.
func (s *Session) Elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsedLocked().Truncate(time.Second)
}

func (s *Session) elapsedLocked() time.Duration {
	e := s.accumulated + s.startOffset
	if s.state == StatePlaying {
		e += time.Since(s.segmentStart)
	}
	return e
}

func (s *Session) QueueTracks() []media.Track {
	return s.queue.Tracks()
}

func (s *Session) ClearQueue() {
	s.queue.Clear()
	s.emitQueue()
}

func (s *Session) Status() Status {
	s.mu.RLock()
	st := Status{
		State:     s.state,
		FromCache: s.fromCache,
		Elapsed:   s.elapsedLocked().Truncate(time.Second),
		Volume:    s.volume,
		Loop:      s.loop,
	}
	if s.track != nil {
		t := *s.track
		st.Track = &t
	}
	s.mu.RUnlock()
	st.QueueLen = s.queue.Len()
	return st
}

// Subscribe creates a new event subscription.
func (s *Session) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Close stops playback and shuts the session down.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.playMu.Lock()
	s.stopCurrentLocked(player.Shutdown)
	s.playMu.Unlock()
	close(s.done)
	s.wg.Wait()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) currentGen() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *Session) currentTrackPtr() *media.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.track
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	if next == StatePlaying {
		s.segmentStart = time.Now()
	}
	s.mu.Unlock()
	if prev != next {
		s.broadcast(func(sub *Subscription) { sub.sendState(StateChange{Previous: prev, Current: next}) })
	}
}

func (s *Session) broadcast(fn func(sub *Subscription)) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		fn(sub)
	}
}

func (s *Session) emitTrack(e TrackChange) {
	s.broadcast(func(sub *Subscription) { sub.sendTrack(e) })
}

func (s *Session) emitQueue() {
	tracks := s.queue.Tracks()
	s.broadcast(func(sub *Subscription) { sub.sendQueue(QueueChange{Tracks: tracks}) })
}

func (s *Session) emitError(op, query string, err error) {
	s.broadcast(func(sub *Subscription) { sub.sendError(ErrorEvent{Operation: op, Query: query, Err: err}) })
}
