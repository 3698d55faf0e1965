package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/llehouerou/senfoni/internal/app/handler"
	"github.com/llehouerou/senfoni/internal/favorites"
	"github.com/llehouerou/senfoni/internal/media"
	"github.com/llehouerou/senfoni/internal/playback"
)

// handleFavoriteCommands handles fav, unfav, favs, favplay and rename.
func (a *App) handleFavoriteCommands(ctx context.Context, name, args string) handler.Result {
	switch name {
	case "fav", "unfav", "favs", "favplay", "rename":
	default:
		return handler.NotHandled
	}
	if a.favorites == nil {
		return handler.Handled("Favorites are disabled.")
	}

	switch name {
	case "fav":
		cur := a.session.CurrentTrack()
		if cur == nil {
			return handler.Failed(playback.ErrNothingPlaying)
		}
		added, err := a.favorites.Add(*cur)
		if err != nil {
			return handler.Failed(err)
		}
		if !added {
			return handler.Handled("Already in favorites: " + cur.Title)
		}
		return handler.Handled("Added to favorites: " + cur.Title)
	case "unfav":
		return a.unfavorite(args)
	case "favs":
		return handler.Handled(a.favoritesList())
	case "favplay":
		fav, ok := a.favoriteAt(args)
		if !ok {
			return handler.Handled("Usage: " + commandHelp["favplay"])
		}
		return a.playNow(ctx, fav.URL)
	default: // rename
		num, title, _ := strings.Cut(args, " ")
		idx, err := strconv.Atoi(num)
		title = strings.TrimSpace(title)
		if err != nil || title == "" {
			return handler.Handled("Usage: " + commandHelp["rename"])
		}
		if err := a.favorites.Rename(idx-1, title); err != nil {
			return handler.Failed(err)
		}
		return handler.Handled(fmt.Sprintf("Renamed #%d to %s", idx, title))
	}
}

func (a *App) unfavorite(args string) handler.Result {
	url := args
	switch {
	case args == "":
		cur := a.session.CurrentTrack()
		if cur == nil {
			return handler.Failed(playback.ErrNothingPlaying)
		}
		url = cur.URL
	case !strings.Contains(args, "://"):
		fav, ok := a.favoriteAt(args)
		if !ok {
			return handler.Failed(favorites.ErrIndexOutOfRange)
		}
		url = fav.URL
	}
	removed, err := a.favorites.Remove(url)
	if err != nil {
		return handler.Failed(err)
	}
	if !removed {
		return handler.Handled("Not a favorite.")
	}
	return handler.Handled("Removed from favorites.")
}

// favoriteAt returns the favorite at a 1-based position.
func (a *App) favoriteAt(arg string) (media.Favorite, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return media.Favorite{}, false
	}
	favs := a.favorites.List()
	if n < 1 || n > len(favs) {
		return media.Favorite{}, false
	}
	return favs[n-1], true
}

func (a *App) favoritesList() string {
	favs := a.favorites.List()
	if len(favs) == 0 {
		return "No favorites yet."
	}
	playing := ""
	if cur := a.session.CurrentTrack(); cur != nil {
		playing = cur.URL
	}
	lines := lo.Map(favs, func(f media.Favorite, i int) string {
		marker := " "
		if f.URL == playing {
			marker = ">"
		}
		return fmt.Sprintf("%s%2d. %s%s", marker, i+1, f.Title, durationSuffix(f.Duration))
	})
	return strings.Join(lines, "\n")
}
