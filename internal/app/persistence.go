package app

import (
	"context"

	"github.com/llehouerou/senfoni/internal/playback"
	"github.com/llehouerou/senfoni/internal/state"
)

// watchPreferences saves volume and loop mode whenever they change.
// Saves are debounced by the state manager.
func (a *App) watchPreferences(ctx context.Context, sub *playback.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case <-sub.VolumeChanged:
			a.savePreferences()
		case <-sub.ModeChanged:
			a.savePreferences()
		}
	}
}

func (a *App) savePreferences() {
	a.prefs.SavePreferences(state.Preferences{
		Volume: a.session.Volume(),
		Loop:   a.session.Loop(),
	})
}
