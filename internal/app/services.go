package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/llehouerou/senfoni/internal/cache"
	"github.com/llehouerou/senfoni/internal/config"
	"github.com/llehouerou/senfoni/internal/favorites"
	"github.com/llehouerou/senfoni/internal/interject"
	"github.com/llehouerou/senfoni/internal/playback"
	"github.com/llehouerou/senfoni/internal/player"
	"github.com/llehouerou/senfoni/internal/resolver"
	"github.com/llehouerou/senfoni/internal/state"
	"github.com/llehouerou/senfoni/internal/tts"
)

// Services are the long-lived components built from the configuration.
// The playback session is created separately since only the console needs
// an audio device.
type Services struct {
	Config    *config.Config
	Logger    *slog.Logger
	State     *state.Manager
	Resolver  *resolver.YTDLP
	Cache     *cache.Store
	Favorites *favorites.Registry
}

// OpenServices opens the state database and builds the cache and favorites
// registry on top of it.
func OpenServices(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}
	st, err := state.Open(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	ytdlp := resolver.NewYTDLP(cfg.YtDlpPath, cfg.FFmpegPath, logger)
	store := cache.New(cfg.CacheDir, ytdlp, logger)
	favs, err := favorites.New(st, store, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &Services{
		Config:    cfg,
		Logger:    logger,
		State:     st,
		Resolver:  ytdlp,
		Cache:     store,
		Favorites: favs,
	}, nil
}

// NewSession creates the playback session on the local output device,
// starting from the saved volume and loop mode.
func (s *Services) NewSession() *playback.Session {
	prefs, err := s.State.GetPreferences()
	if err != nil {
		s.Logger.Warn("could not load preferences", "err", err)
		p := state.DefaultPreferences
		prefs = &p
	}
	if !prefs.Saved {
		prefs.Volume = s.Config.Playback.DefaultVolume
	}
	sink := player.NewFFmpegSink(player.FFmpegConfig{
		Path:       s.Config.FFmpegPath,
		SampleRate: s.Config.Playback.SampleRate,
	}, s.Logger)
	return playback.New(playback.Config{
		Resolver:     s.Resolver,
		Sink:         sink,
		Destinations: player.LocalDestinations{Owner: s.Config.OwnerID},
		Cache:        s.Cache,
		Favorites:    s.Favorites,
		OwnerID:      s.Config.OwnerID,
		StopGrace:    s.Config.StopGrace(),
		Volume:       prefs.Volume,
		Loop:         prefs.Loop,
		Logger:       s.Logger,
	})
}

// NewInterjector creates the announcer for session using edge-tts.
func (s *Services) NewInterjector(session interject.Session) *interject.Interjector {
	synth := tts.NewEdgeTTS(s.Config.TTS.Command, "", s.Logger)
	voices := interject.Voices{
		TRFemale: s.Config.TTS.VoiceTRFemale,
		TRMale:   s.Config.TTS.VoiceTRMale,
		ENFemale: s.Config.TTS.VoiceENFemale,
		ENMale:   s.Config.TTS.VoiceENMale,
	}
	return interject.New(session, synth, voices, s.Logger)
}

// Close stops background downloads and flushes the state database.
func (s *Services) Close() error {
	return errors.Join(s.Favorites.Close(), s.State.Close())
}
