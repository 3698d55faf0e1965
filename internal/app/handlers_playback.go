package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/llehouerou/senfoni/internal/app/handler"
	"github.com/llehouerou/senfoni/internal/playback"
)

var errUsage = errors.New("invalid arguments")

// handlePlaybackCommands handles play, pause, resume, toggle, stop, skip,
// seek, volume and loop.
func (a *App) handlePlaybackCommands(ctx context.Context, name, args string) handler.Result {
	switch name {
	case "play":
		if args == "" {
			return handler.Handled("Usage: " + commandHelp["play"])
		}
		return a.playNow(ctx, args)
	case "pause":
		if err := a.session.Pause(); err != nil {
			return handler.Failed(err)
		}
		return handler.Handled(stateLine(a.session.State()))
	case "resume":
		if err := a.session.Resume(ctx); err != nil {
			return handler.Failed(err)
		}
		return handler.Handled(stateLine(a.session.State()))
	case "toggle":
		if err := a.session.Toggle(ctx); err != nil {
			return handler.Failed(err)
		}
		return handler.Handled(stateLine(a.session.State()))
	case "stop":
		if err := a.session.Stop(); err != nil {
			return handler.Failed(err)
		}
		return handler.Handled("Stopped.")
	case "skip":
		if err := a.session.Skip(ctx); err != nil {
			return handler.Failed(err)
		}
		if cur := a.session.CurrentTrack(); cur != nil {
			return handler.Handled("Now playing: " + cur.Title)
		}
		return handler.Handled("Queue finished.")
	case "seek":
		return a.seek(ctx, args)
	case "volume":
		return a.volume(args)
	case "loop":
		if a.session.ToggleLoop() {
			return handler.Handled("Loop: on")
		}
		return handler.Handled("Loop: off")
	}
	return handler.NotHandled
}

func (a *App) playNow(ctx context.Context, query string) handler.Result {
	tr, err := a.session.PlayNow(ctx, query)
	if err != nil {
		return handler.Failed(err)
	}
	msg := "Now playing: " + tr.Title
	if tr.Duration > 0 {
		msg += " [" + formatClock(tr.Duration) + "]"
	}
	if a.session.IsFromCache() {
		msg += " (cached)"
	}
	return handler.Handled(msg)
}

func (a *App) seek(ctx context.Context, args string) handler.Result {
	cur := a.session.CurrentTrack()
	if cur == nil {
		return handler.Failed(playback.ErrNothingPlaying)
	}
	frac, err := parseSeek(args, cur.Duration)
	if err != nil {
		return handler.Handled("Usage: " + commandHelp["seek"])
	}
	if err := a.session.Seek(ctx, frac); err != nil {
		return handler.Failed(err)
	}
	if a.session.State() == playback.StateIdle {
		return handler.Handled("Reached the end of the track.")
	}
	return handler.Handled("Position: " + formatClock(a.session.Elapsed()))
}

// parseSeek accepts "50", "50%" or a clock position like "1:30".
func parseSeek(arg string, duration time.Duration) (float64, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, errUsage
	}
	if strings.Contains(arg, ":") {
		pos, err := parseClock(arg)
		if err != nil {
			return 0, err
		}
		if duration <= 0 {
			return 0, nil
		}
		return float64(pos) / float64(duration), nil
	}
	pct, err := strconv.ParseFloat(strings.TrimSuffix(arg, "%"), 64)
	if err != nil {
		return 0, errUsage
	}
	return pct / 100, nil
}

// parseClock parses m:ss or h:mm:ss.
func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, errUsage
	}
	var total time.Duration
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, errUsage
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second, nil
}

func (a *App) volume(args string) handler.Result {
	if args == "" {
		return handler.Handled(fmt.Sprintf("Volume: %d%%", percent(a.session.Volume())))
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(args, "%"), 64)
	if err != nil {
		return handler.Handled("Usage: " + commandHelp["volume"])
	}
	a.session.SetVolume(v / 100)
	return handler.Handled(fmt.Sprintf("Volume: %d%%", percent(a.session.Volume())))
}

func stateLine(s playback.State) string {
	switch s {
	case playback.StatePlaying:
		return "Playing."
	case playback.StatePaused:
		return "Paused."
	case playback.StateIdle:
		return "Nothing is playing."
	default:
		return s.String() + "."
	}
}
