package playback

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/llehouerou/senfoni/internal/media"
	"github.com/llehouerou/senfoni/internal/player"
	"github.com/llehouerou/senfoni/internal/playlist"
	"github.com/llehouerou/senfoni/internal/resolver"
)

type fakeFavorites map[string]media.Favorite

func (f fakeFavorites) Find(url string) (media.Favorite, bool) {
	fav, ok := f[url]
	return fav, ok
}

type fakeCache map[string]string

func (c fakeCache) Lookup(url, _ string) (string, bool) {
	p, ok := c[url]
	return p, ok
}

type testEnv struct {
	session  *Session
	resolver *resolver.Mock
	sink     *player.Mock
	queue    *playlist.Queue
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()
	env := &testEnv{
		resolver: resolver.NewMock(),
		sink:     player.NewMock(),
		queue:    playlist.NewQueue(),
	}
	cfg := Config{
		Resolver:     env.resolver,
		Sink:         env.sink,
		Destinations: player.LocalDestinations{},
		Queue:        env.queue,
		OwnerID:      "owner",
		Volume:       0.5,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	env.session = New(cfg)
	t.Cleanup(func() { _ = env.session.Close() })
	return env
}

func (e *testEnv) add(query, url, title string, d time.Duration) media.Track {
	tr := media.Track{
		URL:      url,
		Title:    title,
		Duration: d,
		Stream:   media.StreamRef{URI: "https://cdn.example/" + title},
	}
	e.resolver.Add(query, tr)
	return tr
}

func TestSession_PlayNow_AutoJoinsAndPlays(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("song a", "https://yt/a", "A", 3*time.Minute)

		tr, err := env.session.PlayNow(context.Background(), "song a")
		if err != nil {
			t.Fatalf("PlayNow() error = %v", err)
		}
		if tr.URL != "https://yt/a" {
			t.Errorf("PlayNow() track URL = %q, want https://yt/a", tr.URL)
		}
		if len(env.sink.Joins()) != 1 {
			t.Errorf("Joins = %d, want 1", len(env.sink.Joins()))
		}
		if env.session.State() != StatePlaying {
			t.Errorf("State() = %v, want Playing", env.session.State())
		}
		calls := env.sink.PlayCalls()
		if len(calls) != 1 || calls[0].Source.URI != "https://cdn.example/A" || calls[0].Volume != 0.5 {
			t.Errorf("PlayCalls = %+v", calls)
		}
		if env.session.IsFromCache() {
			t.Error("IsFromCache() = true, want false")
		}
	})
}

func TestSession_PlayNow_NoDestination(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t, func(c *Config) {
			c.Destinations = player.LocalDestinations{Owner: "someone-else"}
		})
		env.add("a", "https://yt/a", "A", time.Minute)

		_, err := env.session.PlayNow(context.Background(), "a")
		if !errors.Is(err, ErrNoDestination) {
			t.Fatalf("PlayNow() error = %v, want ErrNoDestination", err)
		}
		if len(env.sink.PlayCalls()) != 0 {
			t.Error("sink should not be played without a destination")
		}
		if env.session.State() != StateIdle {
			t.Errorf("State() = %v, want Idle", env.session.State())
		}
	})
}

func TestSession_PlayNow_ResolutionFailureKeepsState(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", time.Minute)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatalf("PlayNow(a) error = %v", err)
		}
		sub := env.session.Subscribe()

		_, err := env.session.PlayNow(ctx, "nothing matches")
		var rerr *ResolutionError
		if !errors.As(err, &rerr) {
			t.Fatalf("PlayNow() error = %v, want ResolutionError", err)
		}
		if !errors.Is(err, resolver.ErrNotFound) {
			t.Errorf("error should wrap ErrNotFound, got %v", err)
		}
		if cur := env.session.CurrentTrack(); cur == nil || cur.URL != "https://yt/a" {
			t.Errorf("CurrentTrack() = %v, want A", cur)
		}
		if env.session.State() != StatePlaying {
			t.Errorf("State() = %v, want Playing", env.session.State())
		}
		if len(env.sink.PlayCalls()) != 1 {
			t.Errorf("PlayCalls = %d, want 1", len(env.sink.PlayCalls()))
		}
		if stops := env.sink.LastHandle().StopReasons(); len(stops) != 0 {
			t.Errorf("current stream was stopped: %v", stops)
		}

		select {
		case e := <-sub.Error:
			if e.Operation != "play" || e.Query != "nothing matches" {
				t.Errorf("ErrorEvent = %+v", e)
			}
		default:
			t.Error("expected an error event")
		}
	})
}

func TestSession_ElapsedExcludesPausedTime(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", 10*time.Minute)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Second)
		if err := env.session.Pause(); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Second)
		if got := env.session.Elapsed(); got != 10*time.Second {
			t.Errorf("Elapsed() while paused = %v, want 10s", got)
		}
		if err := env.session.Resume(ctx); err != nil {
			t.Fatal(err)
		}
		time.Sleep(3*time.Second + 400*time.Millisecond)

		if got := env.session.Elapsed(); got != 13*time.Second {
			t.Errorf("Elapsed() = %v, want 13s", got)
		}
		h := env.sink.LastHandle()
		if h.Pauses() != 1 || h.Resumes() != 1 {
			t.Errorf("pauses/resumes = %d/%d, want 1/1", h.Pauses(), h.Resumes())
		}
	})
}

func TestSession_PauseResume_NoOpWhenNotApplicable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()

		if err := env.session.Pause(); err != nil {
			t.Errorf("Pause() on idle = %v, want nil", err)
		}
		if err := env.session.Resume(ctx); err != nil {
			t.Errorf("Resume() on idle = %v, want nil", err)
		}
		if err := env.session.Toggle(ctx); err != nil {
			t.Errorf("Toggle() on idle = %v, want nil", err)
		}
		if env.session.State() != StateIdle {
			t.Errorf("State() = %v, want Idle", env.session.State())
		}

		env.add("a", "https://yt/a", "A", time.Minute)
		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		_ = env.session.Resume(ctx)
		if env.sink.LastHandle().Resumes() != 0 {
			t.Error("Resume() while playing should be a no-op")
		}
		_ = env.session.Toggle(ctx)
		if env.session.State() != StatePaused {
			t.Errorf("State() after Toggle = %v, want Paused", env.session.State())
		}
		_ = env.session.Toggle(ctx)
		if env.session.State() != StatePlaying {
			t.Errorf("State() after second Toggle = %v, want Playing", env.session.State())
		}
	})
}

func TestSession_NaturalCompletion_AdvancesQueue(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", time.Minute)
		env.add("b", "https://yt/b", "B", time.Minute)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		pos, tr, err := env.session.Enqueue(ctx, "b")
		if err != nil {
			t.Fatal(err)
		}
		if pos != 1 || tr.Title != "B" {
			t.Errorf("Enqueue() = %d, %q; want 1, B", pos, tr.Title)
		}
		if len(env.sink.PlayCalls()) != 1 {
			t.Error("Enqueue should not start playback")
		}

		env.sink.LastHandle().Finish(nil)
		synctest.Wait()

		if cur := env.session.CurrentTrack(); cur == nil || cur.URL != "https://yt/b" {
			t.Fatalf("CurrentTrack() = %v, want B", cur)
		}
		if env.queue.Len() != 0 {
			t.Errorf("queue length = %d, want 0", env.queue.Len())
		}
		if got := env.sink.PlayCalls()[1].Source.URI; got != "https://cdn.example/B" {
			t.Errorf("advance played %q, want enqueue-time stream", got)
		}

		env.sink.LastHandle().Finish(nil)
		synctest.Wait()

		if env.session.State() != StateIdle {
			t.Errorf("State() = %v, want Idle", env.session.State())
		}
		if env.session.CurrentTrack() != nil {
			t.Error("CurrentTrack() should be nil when idle")
		}
		if env.session.Elapsed() != 0 {
			t.Errorf("Elapsed() = %v, want 0", env.session.Elapsed())
		}
	})
}

func TestSession_StreamError_TreatedAsCompletion(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", time.Minute)
		env.add("b", "https://yt/b", "B", time.Minute)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		if _, _, err := env.session.Enqueue(ctx, "b"); err != nil {
			t.Fatal(err)
		}
		sub := env.session.Subscribe()

		env.sink.LastHandle().Finish(&player.SinkError{Op: "decode", Err: errors.New("broken pipe")})
		synctest.Wait()

		if cur := env.session.CurrentTrack(); cur == nil || cur.Title != "B" {
			t.Errorf("CurrentTrack() = %v, want B", cur)
		}
		select {
		case e := <-sub.Error:
			var serr *player.SinkError
			if !errors.As(e.Err, &serr) {
				t.Errorf("ErrorEvent.Err = %v, want SinkError", e.Err)
			}
		default:
			t.Error("expected an error event")
		}
	})
}

func TestSession_Loop_ReplaysFromStart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t, func(c *Config) { c.Loop = true })
		env.add("a", "https://yt/a", "A", time.Minute)
		env.add("b", "https://yt/b", "B", time.Minute)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		if _, _, err := env.session.Enqueue(ctx, "b"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Minute)
		env.sink.LastHandle().Finish(nil)
		synctest.Wait()

		calls := env.sink.PlayCalls()
		if len(calls) != 2 {
			t.Fatalf("PlayCalls = %d, want 2", len(calls))
		}
		if calls[1].Source.URI != "https://cdn.example/A" || calls[1].Offset != 0 {
			t.Errorf("loop replay = %+v, want A at 0", calls[1])
		}
		if env.queue.Len() != 1 {
			t.Errorf("queue length = %d, want 1", env.queue.Len())
		}
		if env.session.Elapsed() != 0 {
			t.Errorf("Elapsed() = %v, want 0", env.session.Elapsed())
		}
		// The replay re-resolves by URL.
		resolves := env.resolver.Calls()
		if resolves[len(resolves)-1] != "https://yt/a" {
			t.Errorf("last resolve = %q, want the track URL", resolves[len(resolves)-1])
		}
	})
}

func TestSession_Skip_IgnoresLoopOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t, func(c *Config) { c.Loop = true })
		env.add("x", "https://yt/x", "X", time.Minute)
		env.add("b", "https://yt/b", "B", time.Minute)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "x"); err != nil {
			t.Fatal(err)
		}
		if _, _, err := env.session.Enqueue(ctx, "b"); err != nil {
			t.Fatal(err)
		}

		if err := env.session.Skip(ctx); err != nil {
			t.Fatalf("Skip() error = %v", err)
		}
		synctest.Wait()

		if cur := env.session.CurrentTrack(); cur == nil || cur.Title != "B" {
			t.Fatalf("CurrentTrack() = %v, want B", cur)
		}
		if !env.session.Loop() {
			t.Error("Loop() should still be true after Skip")
		}
		first := env.sink.Handles()[0]
		if reasons := first.StopReasons(); len(reasons) == 0 || reasons[0] != player.Replace {
			t.Errorf("X stop reasons = %v, want Replace", reasons)
		}

		// Skipping the last track goes idle, even while looping.
		if err := env.session.Skip(ctx); err != nil {
			t.Fatal(err)
		}
		synctest.Wait()
		if env.session.State() != StateIdle {
			t.Errorf("State() = %v, want Idle", env.session.State())
		}
		if len(env.sink.PlayCalls()) != 2 {
			t.Errorf("PlayCalls = %d, want 2", len(env.sink.PlayCalls()))
		}
		if !env.session.Loop() {
			t.Error("Loop() should still be true")
		}

		if err := env.session.Skip(ctx); !errors.Is(err, ErrNothingPlaying) {
			t.Errorf("Skip() on idle = %v, want ErrNothingPlaying", err)
		}
	})
}

func TestSession_ReplaceNeverAdvances(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", time.Minute)
		env.add("b", "https://yt/b", "B", time.Minute)
		env.add("c", "https://yt/c", "C", time.Minute)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		if _, _, err := env.session.Enqueue(ctx, "b"); err != nil {
			t.Fatal(err)
		}
		if _, err := env.session.PlayNow(ctx, "c"); err != nil {
			t.Fatal(err)
		}
		synctest.Wait()

		if cur := env.session.CurrentTrack(); cur == nil || cur.Title != "C" {
			t.Errorf("CurrentTrack() = %v, want C", cur)
		}
		if env.queue.Len() != 1 {
			t.Errorf("queue length = %d, want 1 (B untouched)", env.queue.Len())
		}
		if len(env.sink.PlayCalls()) != 2 {
			t.Errorf("PlayCalls = %d, want 2", len(env.sink.PlayCalls()))
		}
	})
}

func TestSession_StopGraceTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t, func(c *Config) { c.StopGrace = 2 * time.Second })
		env.add("a", "https://yt/a", "A", time.Minute)
		env.add("b", "https://yt/b", "B", time.Minute)
		ctx := context.Background()

		env.sink.SetIgnoreStop(true)
		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		env.sink.SetIgnoreStop(false)
		stuck := env.sink.LastHandle()

		start := time.Now()
		if _, err := env.session.PlayNow(ctx, "b"); err != nil {
			t.Fatalf("PlayNow(b) error = %v", err)
		}
		if waited := time.Since(start); waited != 2*time.Second {
			t.Errorf("waited %v for stop ack, want 2s", waited)
		}
		if cur := env.session.CurrentTrack(); cur == nil || cur.Title != "B" {
			t.Errorf("CurrentTrack() = %v, want B", cur)
		}

		// A late acknowledgment of the old stream changes nothing.
		stuck.ForceStop(player.Replace)
		synctest.Wait()
		if cur := env.session.CurrentTrack(); cur == nil || cur.Title != "B" {
			t.Errorf("CurrentTrack() after late ack = %v, want B", cur)
		}
	})
}

func TestSession_LateFinishOfOldStreamIsIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", time.Minute)
		env.add("b", "https://yt/b", "B", time.Minute)
		env.add("c", "https://yt/c", "C", time.Minute)
		ctx := context.Background()

		env.sink.SetIgnoreStop(true)
		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		env.sink.SetIgnoreStop(false)
		old := env.sink.LastHandle()
		if _, err := env.session.PlayNow(ctx, "b"); err != nil {
			t.Fatal(err)
		}
		if _, _, err := env.session.Enqueue(ctx, "c"); err != nil {
			t.Fatal(err)
		}

		old.Finish(nil)
		synctest.Wait()

		if cur := env.session.CurrentTrack(); cur == nil || cur.Title != "B" {
			t.Errorf("CurrentTrack() = %v, want B", cur)
		}
		if env.queue.Len() != 1 {
			t.Errorf("queue length = %d, want 1", env.queue.Len())
		}
	})
}

func TestSession_Seek(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", 200*time.Second)
		ctx := context.Background()

		if err := env.session.Seek(ctx, 0.5); !errors.Is(err, ErrNothingPlaying) {
			t.Errorf("Seek() on idle = %v, want ErrNothingPlaying", err)
		}

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(30 * time.Second)

		if err := env.session.Seek(ctx, 0.5); err != nil {
			t.Fatalf("Seek(0.5) error = %v", err)
		}
		last := env.sink.PlayCalls()[1]
		if last.Offset != 100*time.Second {
			t.Errorf("Seek(0.5) offset = %v, want 100s", last.Offset)
		}
		if got := env.session.Elapsed(); got != 100*time.Second {
			t.Errorf("Elapsed() after seek = %v, want 100s", got)
		}
		time.Sleep(5 * time.Second)
		if got := env.session.Elapsed(); got != 105*time.Second {
			t.Errorf("Elapsed() = %v, want 105s", got)
		}

		if err := env.session.Seek(ctx, 0); err != nil {
			t.Fatalf("Seek(0) error = %v", err)
		}
		if last := env.sink.PlayCalls()[2]; last.Offset != 0 {
			t.Errorf("Seek(0) offset = %v, want 0", last.Offset)
		}
		if got := env.session.Elapsed(); got != 0 {
			t.Errorf("Elapsed() after Seek(0) = %v, want 0", got)
		}

		// Out-of-range fractions clamp.
		if err := env.session.Seek(ctx, -3); err != nil {
			t.Fatal(err)
		}
		if last := env.sink.PlayCalls()[3]; last.Offset != 0 {
			t.Errorf("Seek(-3) offset = %v, want 0", last.Offset)
		}
	})
}

func TestSession_SeekToEnd_CompletesTrack(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", 200*time.Second)
		env.add("b", "https://yt/b", "B", time.Minute)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		if _, _, err := env.session.Enqueue(ctx, "b"); err != nil {
			t.Fatal(err)
		}
		if err := env.session.Seek(ctx, 1.0); err != nil {
			t.Fatalf("Seek(1.0) error = %v", err)
		}
		if cur := env.session.CurrentTrack(); cur == nil || cur.Title != "B" {
			t.Errorf("CurrentTrack() = %v, want B", cur)
		}
		for _, c := range env.sink.PlayCalls() {
			if c.Offset >= 200*time.Second {
				t.Errorf("played at offset %v, want no restart at the end", c.Offset)
			}
		}

		if err := env.session.Seek(ctx, 1.0); err != nil {
			t.Fatal(err)
		}
		if env.session.State() != StateIdle {
			t.Errorf("State() = %v, want Idle", env.session.State())
		}
	})
}

func TestSession_Seek_NotSeekable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("live", "https://yt/live", "Live", 0)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "live"); err != nil {
			t.Fatal(err)
		}
		if err := env.session.Seek(ctx, 0.5); !errors.Is(err, ErrNotSeekable) {
			t.Errorf("Seek() = %v, want ErrNotSeekable", err)
		}
		if len(env.sink.PlayCalls()) != 1 {
			t.Error("unseekable seek should not restart")
		}
	})
}

func TestSession_PlaysCachedFavorite(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		favs := fakeFavorites{
			"https://yt/a": {Title: "A", URL: "https://yt/a", Duration: 61},
		}
		cache := fakeCache{"https://yt/a": "/cache/A.mp3"}
		env := newTestEnv(t, func(c *Config) {
			c.Favorites = favs
			c.Cache = cache
		})
		ctx := context.Background()

		tr, err := env.session.PlayNow(ctx, "https://yt/a")
		if err != nil {
			t.Fatal(err)
		}
		if tr.Duration != 61*time.Second {
			t.Errorf("Duration = %v, want 61s", tr.Duration)
		}
		if len(env.resolver.Calls()) != 0 {
			t.Errorf("resolver called %v, want cache path", env.resolver.Calls())
		}
		if got := env.sink.PlayCalls()[0].Source.URI; got != "/cache/A.mp3" {
			t.Errorf("played %q, want cache file", got)
		}
		if !env.session.IsFromCache() {
			t.Error("IsFromCache() = false, want true")
		}
	})
}

func TestSession_SearchResolvingToCachedFavorite(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		favs := fakeFavorites{"https://yt/a": {Title: "A", URL: "https://yt/a"}}
		cache := fakeCache{"https://yt/a": "/cache/A.mp3"}
		env := newTestEnv(t, func(c *Config) {
			c.Favorites = favs
			c.Cache = cache
		})
		env.add("some search", "https://yt/a", "A (Official)", time.Minute)

		if _, err := env.session.PlayNow(context.Background(), "some search"); err != nil {
			t.Fatal(err)
		}
		if got := env.sink.PlayCalls()[0].Source.URI; got != "/cache/A.mp3" {
			t.Errorf("played %q, want cache file", got)
		}
	})
}

func TestSession_CacheMissFallsBackToStream(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		favs := fakeFavorites{"https://yt/a": {Title: "A", URL: "https://yt/a"}}
		env := newTestEnv(t, func(c *Config) {
			c.Favorites = favs
			c.Cache = fakeCache{}
		})
		env.add("https://yt/a", "https://yt/a", "A", time.Minute)

		if _, err := env.session.PlayNow(context.Background(), "https://yt/a"); err != nil {
			t.Fatal(err)
		}
		if got := env.sink.PlayCalls()[0].Source.URI; got != "https://cdn.example/A" {
			t.Errorf("played %q, want stream", got)
		}
		if env.session.IsFromCache() {
			t.Error("IsFromCache() = true, want false")
		}
	})
}

func TestSession_SetVolume(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", time.Minute)
		env.add("b", "https://yt/b", "B", time.Minute)
		ctx := context.Background()
		sub := env.session.Subscribe()

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		env.session.SetVolume(1.7)
		if got := env.session.Volume(); got != 1 {
			t.Errorf("Volume() = %v, want 1", got)
		}
		if got := env.sink.LastHandle().Volume(); got != 1 {
			t.Errorf("handle volume = %v, want 1", got)
		}
		env.session.SetVolume(0.2)
		if _, err := env.session.PlayNow(ctx, "b"); err != nil {
			t.Fatal(err)
		}
		if got := env.sink.PlayCalls()[1].Volume; got != 0.2 {
			t.Errorf("next play volume = %v, want 0.2", got)
		}

		v := <-sub.VolumeChanged
		if v.Volume != 1 {
			t.Errorf("first VolumeChange = %v, want 1", v.Volume)
		}
	})
}

func TestSession_Stop_KeepsQueue(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", time.Minute)
		env.add("b", "https://yt/b", "B", time.Minute)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		if _, _, err := env.session.Enqueue(ctx, "b"); err != nil {
			t.Fatal(err)
		}
		if err := env.session.Stop(); err != nil {
			t.Fatal(err)
		}
		synctest.Wait()

		if env.session.State() != StateIdle {
			t.Errorf("State() = %v, want Idle", env.session.State())
		}
		if env.queue.Len() != 1 {
			t.Errorf("queue length = %d, want 1", env.queue.Len())
		}
		if reasons := env.sink.LastHandle().StopReasons(); len(reasons) != 1 || reasons[0] != player.UserInitiated {
			t.Errorf("stop reasons = %v, want [UserInitiated]", reasons)
		}
	})
}

func TestSession_ToggleLoop_EmitsMode(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		sub := env.session.Subscribe()

		if !env.session.ToggleLoop() {
			t.Error("ToggleLoop() = false, want true")
		}
		env.session.SetLoop(true) // unchanged, no event
		env.session.SetLoop(false)

		if m := <-sub.ModeChanged; !m.Loop {
			t.Error("first ModeChange should enable loop")
		}
		if m := <-sub.ModeChanged; m.Loop {
			t.Error("second ModeChange should disable loop")
		}
		select {
		case m := <-sub.ModeChanged:
			t.Errorf("unexpected ModeChange %+v", m)
		default:
		}
	})
}

func TestSession_Status(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", time.Minute)
		env.add("b", "https://yt/b", "B", time.Minute)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		if _, _, err := env.session.Enqueue(ctx, "b"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(4 * time.Second)

		st := env.session.Status()
		if st.State != StatePlaying || st.Track == nil || st.Track.Title != "A" {
			t.Errorf("Status() = %+v", st)
		}
		if st.Elapsed != 4*time.Second || st.QueueLen != 1 || st.Volume != 0.5 {
			t.Errorf("Status() = %+v", st)
		}
	})
}

func TestSession_Close(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		env := newTestEnv(t)
		env.add("a", "https://yt/a", "A", time.Minute)
		sub := env.session.Subscribe()

		if _, err := env.session.PlayNow(context.Background(), "a"); err != nil {
			t.Fatal(err)
		}
		if err := env.session.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if err := env.session.Close(); err != nil {
			t.Fatalf("second Close() error = %v", err)
		}
		<-sub.Done

		reasons := env.sink.LastHandle().StopReasons()
		if len(reasons) != 1 || reasons[0] != player.Shutdown {
			t.Errorf("stop reasons = %v, want [Shutdown]", reasons)
		}
		if _, err := env.session.PlayNow(context.Background(), "a"); !errors.Is(err, ErrClosed) {
			t.Errorf("PlayNow() after Close = %v, want ErrClosed", err)
		}
	})
}

func TestSession_Seek_KeepsStreamSource(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		favs := fakeFavorites{}
		cache := fakeCache{}
		env := newTestEnv(t, func(c *Config) {
			c.Favorites = favs
			c.Cache = cache
		})
		env.add("a", "https://yt/a", "A", 100*time.Second)
		ctx := context.Background()

		if _, err := env.session.PlayNow(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		favs["https://yt/a"] = media.Favorite{Title: "A", URL: "https://yt/a", Duration: 100}
		cache["https://yt/a"] = "/cache/A.mp3"

		if err := env.session.Seek(ctx, 0.3); err != nil {
			t.Fatal(err)
		}
		calls := env.sink.PlayCalls()
		last := calls[len(calls)-1]
		if last.Source.URI != "https://cdn.example/A" || last.Offset != 30*time.Second {
			t.Errorf("seek played %+v, want stream at 30s", last)
		}
		if env.session.IsFromCache() {
			t.Error("IsFromCache() = true after seek, want false")
		}
	})
}
