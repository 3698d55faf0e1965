// Package app is the interactive console controller. It reads one command per
// line and drives the playback session, the favorites registry and the
// announcer.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/llehouerou/senfoni/internal/cache"
	"github.com/llehouerou/senfoni/internal/errmsg"
	"github.com/llehouerou/senfoni/internal/favorites"
	"github.com/llehouerou/senfoni/internal/interject"
	"github.com/llehouerou/senfoni/internal/media"
	"github.com/llehouerou/senfoni/internal/playback"
	"github.com/llehouerou/senfoni/internal/state"
)

// Speaker plays spoken announcements.
type Speaker interface {
	Speak(ctx context.Context, text string, lang interject.Language, gender interject.Gender) error
}

// PreferenceSaver persists volume and loop mode.
type PreferenceSaver interface {
	SavePreferences(p state.Preferences)
}

// CacheMaintainer is the part of the cache the console inspects and cleans.
type CacheMaintainer interface {
	Usage() (cache.Usage, error)
	CleanOrphans(favs []media.Favorite) (int, error)
}

// Deps are the collaborators the console drives.
type Deps struct {
	Session   playback.Service
	Favorites *favorites.Registry
	Cache     CacheMaintainer
	Speaker   Speaker         // optional
	Prefs     PreferenceSaver // optional
	Logger    *slog.Logger
}

// App is the console controller.
type App struct {
	session   playback.Service
	favorites *favorites.Registry
	cache     CacheMaintainer
	speaker   Speaker
	prefs     PreferenceSaver
	logger    *slog.Logger

	outMu sync.Mutex
	out   io.Writer

	wg sync.WaitGroup
}

// New creates a console writing its replies to out.
func New(d Deps, out io.Writer) *App {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &App{
		session:   d.Session,
		favorites: d.Favorites,
		cache:     d.Cache,
		speaker:   d.Speaker,
		prefs:     d.Prefs,
		logger:    d.Logger.With("component", "console"),
		out:       out,
	}
}

// Start runs the startup maintenance: orphaned cache files are removed and
// missing favorites are downloaded in the background. It also starts
// persisting volume and loop changes.
func (a *App) Start(ctx context.Context) {
	if a.prefs != nil {
		sub := a.session.Subscribe()
		a.wg.Go(func() { a.watchPreferences(ctx, sub) })
	}
	if a.cache == nil || a.favorites == nil {
		return
	}
	if n, err := a.cache.CleanOrphans(a.favorites.List()); err != nil {
		a.logger.Warn("cache cleanup failed", "err", err)
	} else if n > 0 {
		a.logger.Info("removed orphaned cache files", "count", n)
	}
	a.wg.Go(func() {
		if _, err := a.favorites.Reconcile(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("favorites reconcile failed", "err", err)
		}
	})
}

// Run reads commands from in until quit, end of input or ctx is done.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	a.println("Ready. Type help for commands.")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if a.handleLine(ctx, line) {
				return nil
			}
		}
	}
}

// handleLine executes one line and prints the reply. Returns true on quit.
func (a *App) handleLine(ctx context.Context, line string) bool {
	r := a.Execute(ctx, line)
	if r.Err != nil {
		a.logger.Debug("command failed", "line", line, "err", r.Err)
	}
	if r.Output != "" {
		a.println(r.Output)
	}
	return r.Quit
}

// Wait blocks until background work started by Start has returned.
// ctx passed to Start must be done first.
func (a *App) Wait() {
	a.wg.Wait()
}

func (a *App) println(s string) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, s)
}

// Reply is the outcome of one console command.
type Reply struct {
	Output string
	Err    error
	Quit   bool
}

// Execute runs a single command line. Failures are formatted into Output.
func (a *App) Execute(ctx context.Context, line string) Reply {
	name, args := splitCommand(line)
	if name == "" {
		return Reply{}
	}
	r := a.dispatch(ctx, name, args)
	if !r.Handled {
		return Reply{Output: fmt.Sprintf("Unknown command %q. Type help for commands.", name)}
	}
	reply := Reply{Output: r.Output, Err: r.Err, Quit: r.Quit}
	if r.Err != nil {
		reply.Output = describe(opFor(name), args, r.Err)
	}
	return reply
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	name, args, _ := strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(args)
}

// describe turns an error into a console message.
func describe(op errmsg.Op, context string, err error) string {
	var rerr *playback.ResolutionError
	switch {
	case errors.As(err, &rerr):
		return fmt.Sprintf("No playable result for %q.", rerr.Query)
	case errors.Is(err, playback.ErrNothingPlaying):
		return "Nothing is playing."
	case errors.Is(err, playback.ErrNotSeekable):
		return "This track cannot be seeked."
	case errors.Is(err, playback.ErrNoDestination):
		return "You are not in a reachable voice destination."
	case errors.Is(err, playback.ErrInterjecting):
		return "An announcement is in progress."
	case errors.Is(err, interject.ErrEmptyText):
		return "Nothing to say."
	}
	return errmsg.FormatWith(op, context, err)
}
