// Package interject plays spoken announcements over a playback session and
// resumes the interrupted track afterwards.
package interject

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/llehouerou/senfoni/internal/playback"
	"github.com/llehouerou/senfoni/internal/player"
	"github.com/llehouerou/senfoni/internal/tts"
)

// ErrEmptyText is returned by Speak for blank text.
var ErrEmptyText = errors.New("nothing to say")

// Session is the part of the playback session an interjection drives.
type Session interface {
	Suspend() (playback.Snapshot, error)
	Announce(ctx context.Context, snap playback.Snapshot, path string) (player.Handle, error)
	Restore(ctx context.Context, snap playback.Snapshot) error
	Abort(snap playback.Snapshot)
}

// Interjector runs announcements one at a time.
type Interjector struct {
	session Session
	synth   tts.Synthesizer
	voices  Voices
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an interjector.
func New(session Session, synth tts.Synthesizer, voices Voices, logger *slog.Logger) *Interjector {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Interjector{
		session: session,
		synth:   synth,
		voices:  voices,
		logger:  logger.With("component", "interject"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Speak suspends the session, synthesizes text and starts the announcement.
// It returns once the announcement is playing; the interrupted track is
// restored in the background when it ends. On failure nothing is resumed and
// an active track is left paused where it was.
func (i *Interjector) Speak(ctx context.Context, text string, lang Language, gender Gender) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	voice := i.voices.Select(text, lang, gender)

	snap, err := i.session.Suspend()
	if err != nil {
		return err
	}

	path, err := i.synth.Synthesize(ctx, text, voice)
	if err != nil {
		i.logger.Warn("synthesis failed", "voice", voice, "err", err)
		i.session.Abort(snap)
		return err
	}

	h, err := i.session.Announce(ctx, snap, path)
	if err != nil {
		i.logger.Warn("announcement failed to start", "err", err)
		i.remove(path)
		i.session.Abort(snap)
		return err
	}

	i.logger.Info("announcing", "voice", voice, "chars", len([]rune(text)))
	i.wg.Go(func() { i.await(snap, h, path) })
	return nil
}

func (i *Interjector) await(snap playback.Snapshot, h player.Handle, path string) {
	select {
	case <-h.Done():
	case <-i.ctx.Done():
		h.Stop(player.Shutdown)
		<-h.Done()
	}
	i.remove(path)

	res := h.Result()
	switch {
	case res.Reason != player.Finished:
		// Something else took over the session.
		return
	case res.Err != nil:
		i.logger.Warn("announcement ended with error", "err", res.Err)
		i.session.Abort(snap)
	default:
		if err := i.session.Restore(i.ctx, snap); err != nil && !errors.Is(err, playback.ErrSuperseded) {
			i.logger.Warn("could not resume after announcement", "err", err)
		}
	}
}

func (i *Interjector) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		i.logger.Warn("failed to remove announcement file", "path", path, "err", err)
	}
}

// Wait blocks until every started announcement has been handled.
func (i *Interjector) Wait() {
	i.wg.Wait()
}

// Close stops any announcement still playing and waits for cleanup.
func (i *Interjector) Close() {
	i.cancel()
	i.wg.Wait()
}
