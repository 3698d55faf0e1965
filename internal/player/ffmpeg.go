package player

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

const (
	defaultSampleRate = 48000
	defaultBuffer     = 100 * time.Millisecond
	stderrTail        = 2048
)

// FFmpegConfig configures the FFmpeg sink.
type FFmpegConfig struct {
	Path       string        // ffmpeg binary, "ffmpeg" when empty
	SampleRate int           // output rate, 48000 when zero
	Buffer     time.Duration // speaker buffer, 100ms when zero
}

// FFmpegSink decodes sources with an ffmpeg process and plays the PCM
// output through the beep speaker.
type FFmpegSink struct {
	path       string
	sampleRate beep.SampleRate
	buffer     time.Duration
	logger     *slog.Logger

	mu   sync.Mutex
	dest *Destination
}

// NewFFmpegSink creates an unconnected sink.
func NewFFmpegSink(cfg FFmpegConfig, logger *slog.Logger) *FFmpegSink {
	if cfg.Path == "" {
		cfg.Path = "ffmpeg"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegSink{
		path:       cfg.Path,
		sampleRate: beep.SampleRate(cfg.SampleRate),
		buffer:     cfg.Buffer,
		logger:     logger.With("component", "sink"),
	}
}

// Join opens the speaker for dest. Joining again only switches the
// recorded destination.
func (s *FFmpegSink) Join(dest Destination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dest == nil {
		if err := speaker.Init(s.sampleRate, s.sampleRate.N(s.buffer)); err != nil {
			return &SinkError{Op: "join", Err: err}
		}
	}
	s.dest = &dest
	s.logger.Info("joined destination", "id", dest.ID, "name", dest.Name)
	return nil
}

// Connected reports whether a destination was joined.
func (s *FFmpegSink) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dest != nil
}

// Play starts src at offset. The context only bounds process startup.
func (s *FFmpegSink) Play(ctx context.Context, src Source, offset time.Duration, volume float64) (Handle, error) {
	if !s.Connected() {
		return nil, &SinkError{Op: "play", Err: ErrNotConnected}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(s.path, buildArgs(src, offset, int(s.sampleRate))...) //nolint:gosec // configured binary
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SinkError{Op: "play", Err: err}
	}
	tail := &tailBuffer{}
	cmd.Stderr = tail
	if err := cmd.Start(); err != nil {
		return nil, &SinkError{Op: "play", Err: fmt.Errorf("start ffmpeg: %w", err)}
	}

	h := &ffmpegHandle{
		cmd:    cmd,
		pcm:    newPCMStreamer(stdout),
		stderr: tail,
		logger: s.logger,
		state:  Playing,
		done:   make(chan struct{}),
	}
	h.ctrl = &beep.Ctrl{Streamer: h.pcm, Paused: false}
	h.volume = &effects.Volume{Streamer: h.ctrl, Base: 2, Volume: 0, Silent: false}
	h.applyVolume(volume)

	s.logger.Debug("stream started", "uri", src.URI, "offset", offset, "pid", cmd.Process.Pid)
	speaker.Play(beep.Seq(h.volume, beep.Callback(func() {
		go h.reap()
	})))
	return h, nil
}

// buildArgs returns the ffmpeg arguments decoding src from offset into
// s16le stereo PCM on stdout.
func buildArgs(src Source, offset time.Duration, sampleRate int) []string {
	var args []string
	if isNetwork(src.URI) {
		args = append(args,
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_delay_max", "5",
		)
		if len(src.Headers) > 0 {
			args = append(args, "-headers", formatHeaders(src.Headers))
		}
	}
	if offset > 0 {
		args = append(args, "-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64))
	}
	args = append(args,
		"-i", src.URI,
		"-vn",
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	)
	return args
}

func isNetwork(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

func formatHeaders(headers map[string]string) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	return b.String()
}

type ffmpegHandle struct {
	cmd    *exec.Cmd
	pcm    *pcmStreamer
	ctrl   *beep.Ctrl
	volume *effects.Volume
	stderr *tailBuffer
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	stopping bool
	reason   StopReason
	result   Completion

	done     chan struct{}
	reapOnce sync.Once
}

func (h *ffmpegHandle) Stop(reason StopReason) {
	h.mu.Lock()
	if h.state == Stopped || h.stopping {
		h.mu.Unlock()
		return
	}
	h.stopping = true
	h.reason = reason
	h.mu.Unlock()

	// Kill first so the read-ahead goroutine sees the pipe close.
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	speaker.Lock()
	h.pcm.close()
	h.ctrl.Paused = false
	speaker.Unlock()

	go h.reap()
}

func (h *ffmpegHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.state.CanPause() || h.stopping {
		return
	}
	speaker.Lock()
	h.ctrl.Paused = true
	speaker.Unlock()
	h.state = Paused
}

func (h *ffmpegHandle) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.state.CanResume() || h.stopping {
		return
	}
	speaker.Lock()
	h.ctrl.Paused = false
	speaker.Unlock()
	h.state = Playing
}

func (h *ffmpegHandle) SetVolume(level float64) {
	h.applyVolume(level)
}

func (h *ffmpegHandle) applyVolume(level float64) {
	level = ClampVolume(level)
	speaker.Lock()
	h.volume.Volume = levelToVolume(level)
	h.volume.Silent = level <= 0
	speaker.Unlock()
}

func (h *ffmpegHandle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *ffmpegHandle) Done() <-chan struct{} {
	return h.done
}

func (h *ffmpegHandle) Result() Completion {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// reap waits for the process and publishes the completion once.
func (h *ffmpegHandle) reap() {
	h.reapOnce.Do(func() {
		waitErr := h.cmd.Wait()

		h.mu.Lock()
		res := Completion{Reason: Finished}
		if h.stopping {
			res.Reason = h.reason
		} else if err := h.streamErr(waitErr); err != nil {
			res.Err = &SinkError{Op: "stream", Err: err}
		}
		h.state = Stopped
		h.result = res
		h.mu.Unlock()

		if res.Err != nil {
			h.logger.Warn("stream ended with error", "err", res.Err)
		}
		close(h.done)
	})
}

func (h *ffmpegHandle) streamErr(waitErr error) error {
	if err := h.pcm.Err(); err != nil {
		return err
	}
	if waitErr != nil {
		if msg := h.stderr.String(); msg != "" {
			return fmt.Errorf("%w: %s", waitErr, msg)
		}
		return waitErr
	}
	return nil
}

// tailBuffer keeps the last bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > stderrTail {
		t.buf = t.buf[len(t.buf)-stderrTail:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}

// Verify FFmpegSink implements Sink at compile time.
var _ Sink = (*FFmpegSink)(nil)
