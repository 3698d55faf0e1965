// Package media holds the track and favorite records shared by the
// playback, cache, and favorites packages.
package media

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// StreamRef is an ephemeral playable reference produced by a resolution.
// It is valid only for the resolution that produced it and is never persisted.
type StreamRef struct {
	URI     string
	Headers map[string]string
}

// Track is a resolved, playable item.
type Track struct {
	URL      string
	Title    string
	Duration time.Duration // 0 when unknown (live streams, announcements)
	Stream   StreamRef
}

// Key returns the track identity: its URL, or a content hash of the stream
// reference when the track has no URL.
func (t Track) Key() string {
	if t.URL != "" {
		return t.URL
	}
	sum := sha1.Sum([]byte(t.Stream.URI + "\x00" + t.Title))
	return "sha1:" + hex.EncodeToString(sum[:])
}

// Seekable reports whether the track has a known duration.
func (t Track) Seekable() bool {
	return t.Duration > 0
}

// DurationSeconds returns the duration truncated to whole seconds.
func (t Track) DurationSeconds() int {
	return int(t.Duration / time.Second)
}

// Favorite is a user-saved track. URL is the dedup key.
type Favorite struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Duration int    `json:"duration"` // seconds
}

// Track converts the favorite to a track without a stream reference.
func (f Favorite) Track() Track {
	return Track{
		URL:      f.URL,
		Title:    f.Title,
		Duration: time.Duration(f.Duration) * time.Second,
	}
}

// FavoriteFromTrack builds a favorite record from a resolved track.
func FavoriteFromTrack(t Track) Favorite {
	return Favorite{
		Title:    t.Title,
		URL:      t.URL,
		Duration: t.DurationSeconds(),
	}
}
