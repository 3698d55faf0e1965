package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nested keys, e.g. SENFONI_TTS__VOICE_EN_MALE.
const EnvPrefix = "SENFONI_"

type Config struct {
	OwnerID    string `koanf:"owner_id"`    // identity whose destination is auto-joined
	CacheDir   string `koanf:"cache_dir"`   // favorites audio cache
	StatePath  string `koanf:"state_path"`  // sqlite database; empty means xdg data dir
	FFmpegPath string `koanf:"ffmpeg_path"` // ffmpeg binary
	YtDlpPath  string `koanf:"ytdlp_path"`  // yt-dlp binary

	TTS      TTSConfig      `koanf:"tts"`
	Playback PlaybackConfig `koanf:"playback"`
	Log      LogConfig      `koanf:"log"`
}

// TTSConfig holds the announcement synthesizer settings.
type TTSConfig struct {
	Command       string `koanf:"command"` // edge-tts binary
	VoiceTRFemale string `koanf:"voice_tr_female"`
	VoiceTRMale   string `koanf:"voice_tr_male"`
	VoiceENFemale string `koanf:"voice_en_female"`
	VoiceENMale   string `koanf:"voice_en_male"`
}

// PlaybackConfig holds session tuning.
type PlaybackConfig struct {
	StopGraceMS   int     `koanf:"stop_grace_ms"`  // wait for a stop acknowledgment (default: 500)
	DefaultVolume float64 `koanf:"default_volume"` // 0.0-1.0, used until a volume is saved (default: 0.5)
	SampleRate    int     `koanf:"sample_rate"`    // output rate in Hz (default: 48000)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error (default: info)
	File  string `koanf:"file"`  // optional file tee
}

func defaults() map[string]any {
	return map[string]any{
		"cache_dir":               filepath.Join(xdg.CacheHome, "senfoni", "cache"),
		"ffmpeg_path":             "ffmpeg",
		"ytdlp_path":              "yt-dlp",
		"tts.command":             "edge-tts",
		"tts.voice_tr_female":     "tr-TR-EmelNeural",
		"tts.voice_tr_male":       "tr-TR-AhmetNeural",
		"tts.voice_en_female":     "en-US-AriaNeural",
		"tts.voice_en_male":       "en-US-GuyNeural",
		"playback.stop_grace_ms":  500,
		"playback.default_volume": 0.5,
		"playback.sample_rate":    48000,
		"log.level":               "info",
	}
}

func Load() (*Config, error) {
	return load(getConfigPaths())
}

func load(paths []string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}

	// Try config files in order of priority (last wins)
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// envKey maps SENFONI_PLAYBACK__STOP_GRACE_MS to playback.stop_grace_ms.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) normalize() {
	c.OwnerID = strings.TrimSpace(c.OwnerID)
	c.CacheDir = expandPath(c.CacheDir)
	c.StatePath = expandPath(c.StatePath)
	c.Log.File = expandPath(c.Log.File)

	if c.Playback.StopGraceMS <= 0 {
		c.Playback.StopGraceMS = 500
	}
	if c.Playback.DefaultVolume < 0 || c.Playback.DefaultVolume > 1 {
		c.Playback.DefaultVolume = 0.5
	}
	if c.Playback.SampleRate <= 0 {
		c.Playback.SampleRate = 48000
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/senfoni/config.toml
	paths = append(paths, filepath.Join(xdg.ConfigHome, "senfoni", "config.toml"))

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// StopGrace returns the stop acknowledgment timeout.
func (c *Config) StopGrace() time.Duration {
	return time.Duration(c.Playback.StopGraceMS) * time.Millisecond
}

// HasOwner returns true if auto-join is restricted to one identity.
func (c *Config) HasOwner() bool {
	return c.OwnerID != ""
}
