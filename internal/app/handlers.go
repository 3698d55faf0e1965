package app

import (
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/llehouerou/senfoni/internal/app/handler"
	"github.com/llehouerou/senfoni/internal/errmsg"
)

// commandHelp lists every command with its usage line.
var commandHelp = map[string]string{
	"play":    "play <query|link>      play now, replacing the current track",
	"queue":   "queue <query|link>     add to the end of the queue",
	"list":    "list                   show the queue",
	"clear":   "clear                  empty the queue",
	"skip":    "skip                   next queued track (ignores loop once)",
	"pause":   "pause                  pause playback",
	"resume":  "resume                 resume playback",
	"toggle":  "toggle                 pause or resume",
	"stop":    "stop                   stop playback, keep the queue",
	"seek":    "seek <percent|m:ss>    jump within the current track",
	"volume":  "volume [0-100]         show or set the volume",
	"loop":    "loop                   toggle repeating the current track",
	"fav":     "fav                    add the current track to favorites",
	"unfav":   "unfav [n|link]         remove a favorite (current track by default)",
	"favs":    "favs                   list favorites",
	"favplay": "favplay <n>            play favorite n",
	"rename":  "rename <n> <title>     rename favorite n",
	"say":     "say [auto|tr|en] [female|male] <text>   speak an announcement",
	"status":  "status                 show what is playing",
	"cache":   "cache                  show cache usage",
	"help":    "help                   show this help",
	"quit":    "quit                   exit",
}

var aliases = map[string]string{
	"p":    "play",
	"q":    "queue",
	"add":  "queue",
	"ls":   "list",
	"n":    "skip",
	"next": "skip",
	"t":    "toggle",
	"vol":  "volume",
	"v":    "volume",
	"fp":   "favplay",
	"tts":  "say",
	"s":    "status",
	"?":    "help",
	"exit": "quit",
}

var commandOps = map[string]errmsg.Op{
	"play":    errmsg.OpPlaybackStart,
	"favplay": errmsg.OpPlaybackStart,
	"queue":   errmsg.OpQueueAdd,
	"skip":    errmsg.OpPlaybackSkip,
	"pause":   errmsg.OpPlaybackPause,
	"resume":  errmsg.OpPlaybackResume,
	"toggle":  errmsg.OpPlaybackResume,
	"stop":    errmsg.OpPlaybackStop,
	"seek":    errmsg.OpPlaybackSeek,
	"fav":     errmsg.OpFavoriteAdd,
	"unfav":   errmsg.OpFavoriteRemove,
	"rename":  errmsg.OpFavoriteRename,
	"say":     errmsg.OpSpeak,
	"cache":   errmsg.OpCacheUsage,
}

func canonical(name string) string {
	if c, ok := aliases[name]; ok {
		return c
	}
	return name
}

func opFor(name string) errmsg.Op {
	if op, ok := commandOps[canonical(name)]; ok {
		return op
	}
	return errmsg.Op(canonical(name))
}

// dispatch routes a command through the handler groups.
func (a *App) dispatch(ctx context.Context, name, args string) handler.Result {
	name = canonical(name)
	return handler.Chain(
		func() handler.Result { return a.handlePlaybackCommands(ctx, name, args) },
		func() handler.Result { return a.handleQueueCommands(ctx, name, args) },
		func() handler.Result { return a.handleFavoriteCommands(ctx, name, args) },
		func() handler.Result { return a.handleSpeakCommands(ctx, name, args) },
		func() handler.Result { return a.handleInfoCommands(name) },
	)
}

// handleInfoCommands handles status, cache, help and quit.
func (a *App) handleInfoCommands(name string) handler.Result {
	switch name {
	case "status":
		return handler.Handled(statusLine(a.session.Status()))
	case "cache":
		if a.cache == nil {
			return handler.Handled("Cache is disabled.")
		}
		u, err := a.cache.Usage()
		if err != nil {
			return handler.Failed(err)
		}
		return handler.Handled(usageLine(u))
	case "help":
		return handler.Handled(helpText())
	case "quit":
		return handler.Quit
	}
	return handler.NotHandled
}

func helpText() string {
	names := lo.Keys(commandHelp)
	slices.Sort(names)
	lines := lo.Map(names, func(n string, _ int) string {
		return "  " + commandHelp[n]
	})
	return "Commands:\n" + strings.Join(lines, "\n")
}
