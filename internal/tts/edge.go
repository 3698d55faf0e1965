package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Command runs name with args. Tests replace it to avoid the binary.
type Command func(ctx context.Context, name string, args ...string) error

func execCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// EdgeTTS synthesizes speech with the edge-tts command line tool.
type EdgeTTS struct {
	path   string
	dir    string
	run    Command
	logger *slog.Logger
}

// NewEdgeTTS creates a synthesizer writing into dir (os.TempDir when empty).
func NewEdgeTTS(path, dir string, logger *slog.Logger) *EdgeTTS {
	if path == "" {
		path = "edge-tts"
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EdgeTTS{path: path, dir: dir, run: execCommand, logger: logger.With("component", "tts")}
}

// WithCommand replaces the command runner.
func (e *EdgeTTS) WithCommand(run Command) *EdgeTTS {
	e.run = run
	return e
}

// Synthesize implements Synthesizer.
func (e *EdgeTTS) Synthesize(ctx context.Context, text, voice string) (string, error) {
	out := filepath.Join(e.dir, "tts_"+uuid.NewString()+".mp3")
	args := []string{"--voice", voice, "--text", text, "--write-media", out}

	e.logger.Debug("synthesizing", "voice", voice, "chars", len([]rune(text)))
	if err := e.run(ctx, e.path, args...); err != nil {
		_ = os.Remove(out)
		return "", &SynthesisError{Voice: voice, Err: err}
	}
	info, err := os.Stat(out)
	if err != nil {
		return "", &SynthesisError{Voice: voice, Err: err}
	}
	if info.Size() == 0 {
		_ = os.Remove(out)
		return "", &SynthesisError{Voice: voice, Err: errors.New("empty audio output")}
	}
	return out, nil
}

// Verify EdgeTTS implements Synthesizer at compile time.
var _ Synthesizer = (*EdgeTTS)(nil)
