package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/llehouerou/senfoni/internal/media"
)

// Runner executes a command and returns its stdout. Stderr is folded into
// the returned error on failure.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands through os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s failed: %w: %s", filepath.Base(name), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// YTDLP resolves and downloads tracks with the yt-dlp binary.
type YTDLP struct {
	path       string
	ffmpegPath string
	run        Runner
	logger     *slog.Logger
}

// NewYTDLP creates a yt-dlp backed resolver. ffmpegPath may be empty.
func NewYTDLP(path, ffmpegPath string, logger *slog.Logger) *YTDLP {
	if path == "" {
		path = "yt-dlp"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &YTDLP{
		path:       path,
		ffmpegPath: ffmpegPath,
		run:        ExecRunner,
		logger:     logger.With("component", "ytdlp"),
	}
}

// WithRunner replaces the command runner (used by tests).
func (y *YTDLP) WithRunner(run Runner) *YTDLP {
	y.run = run
	return y
}

// videoInfo holds the fields read from yt-dlp's JSON output.
type videoInfo struct {
	Title       string            `json:"title"`
	WebpageURL  string            `json:"webpage_url"`
	URL         string            `json:"url"`
	Duration    float64           `json:"duration"`
	HTTPHeaders map[string]string `json:"http_headers"`
}

var notFoundMarkers = []string{
	"Video unavailable",
	"Unsupported URL",
	"is not a valid URL",
	"Private video",
	"No video formats found",
	"This video is not available",
}

// Resolve implements Resolver.
func (y *YTDLP) Resolve(ctx context.Context, query string) (media.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return media.Track{}, ErrNotFound
	}
	target := query
	if !IsLink(query) {
		target = "ytsearch1:" + query
	}

	args := []string{
		"--ignore-config",
		"--no-playlist",
		"--no-warnings",
		"--socket-timeout", "10",
		"-j",
		"-f", "bestaudio/best",
		"--extractor-args", "youtube:player_client=android,web",
		target,
	}
	y.logger.Debug("resolving", "query", query)
	out, err := y.run(ctx, y.path, args...)
	if err != nil {
		return media.Track{}, classify(ctx, err)
	}

	info, err := firstInfo(out)
	if err != nil {
		return media.Track{}, err
	}
	track := media.Track{
		URL:      info.WebpageURL,
		Title:    info.Title,
		Duration: time.Duration(info.Duration) * time.Second,
		Stream:   media.StreamRef{URI: info.URL, Headers: info.HTTPHeaders},
	}
	if track.URL == "" && IsLink(query) {
		track.URL = query
	}
	if track.Title == "" {
		track.Title = track.URL
	}
	return track, nil
}

// Download extracts the audio of url as mp3 into dest.
func (y *YTDLP) Download(ctx context.Context, url, dest string) error {
	base := strings.TrimSuffix(dest, filepath.Ext(dest))
	args := []string{
		"--ignore-config",
		"--no-playlist",
		"--no-warnings",
		"-f", "bestaudio/best",
		"--extractor-args", "youtube:player_client=android,web",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", base + ".%(ext)s",
	}
	if y.ffmpegPath != "" {
		args = append(args, "--ffmpeg-location", y.ffmpegPath)
	}
	args = append(args, url)

	if _, err := y.run(ctx, y.path, args...); err != nil {
		return classify(ctx, err)
	}
	if base+".mp3" != dest {
		if err := os.Rename(base+".mp3", dest); err != nil {
			return err
		}
	}
	if _, err := os.Stat(dest); err != nil {
		return fmt.Errorf("yt-dlp produced no file at %s: %w", dest, err)
	}
	return nil
}

func firstInfo(out []byte) (videoInfo, error) {
	for line := range strings.SplitSeq(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var info videoInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return videoInfo{}, fmt.Errorf("parse yt-dlp output: %w", err)
		}
		if info.URL == "" {
			return videoInfo{}, ErrNotFound
		}
		return info, nil
	}
	return videoInfo{}, ErrNotFound
}

func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	msg := err.Error()
	for _, m := range notFoundMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
