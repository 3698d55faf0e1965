package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/llehouerou/senfoni/internal/app/handler"
	"github.com/llehouerou/senfoni/internal/media"
)

// handleQueueCommands handles queue, list and clear.
func (a *App) handleQueueCommands(ctx context.Context, name, args string) handler.Result {
	switch name {
	case "queue":
		if args == "" {
			return handler.Handled("Usage: " + commandHelp["queue"])
		}
		pos, tr, err := a.session.Enqueue(ctx, args)
		if err != nil {
			return handler.Failed(err)
		}
		return handler.Handled(queuedLine(pos, tr.Title))
	case "list":
		tracks := a.session.QueueTracks()
		if len(tracks) == 0 {
			return handler.Handled("Queue is empty.")
		}
		lines := lo.Map(tracks, func(t media.Track, i int) string {
			return fmt.Sprintf("%2d. %s%s", i+1, t.Title, durationSuffix(t.DurationSeconds()))
		})
		return handler.Handled(strings.Join(lines, "\n"))
	case "clear":
		a.session.ClearQueue()
		return handler.Handled("Queue cleared.")
	}
	return handler.NotHandled
}

// queuedLine is the enqueue feedback: position and a shortened title.
func queuedLine(pos int, title string) string {
	return fmt.Sprintf("Queued #%d: %s", pos, truncate(title, shortTitleLen))
}
