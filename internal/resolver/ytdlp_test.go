package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	name string
	args []string
}

func fakeRunner(out string, err error, calls *[]recordedCall) Runner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return []byte(out), err
	}
}

const sampleInfo = `{"title":"Song","webpage_url":"https://www.youtube.com/watch?v=abc","url":"https://cdn/audio","duration":212.4,"http_headers":{"User-Agent":"ua"}}`

func TestIsLink(t *testing.T) {
	assert.True(t, IsLink("https://youtu.be/x"))
	assert.True(t, IsLink("  HTTP://example.com"))
	assert.False(t, IsLink("some song name"))
}

func TestYTDLP_Resolve_FreeTextUsesSearch(t *testing.T) {
	var calls []recordedCall
	y := NewYTDLP("yt-dlp", "", nil).WithRunner(fakeRunner(sampleInfo, nil, &calls))

	track, err := y.Resolve(context.Background(), "some song")

	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "ytsearch1:some song", calls[0].args[len(calls[0].args)-1])
	assert.Equal(t, "Song", track.Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", track.URL)
	assert.Equal(t, 212*time.Second, track.Duration)
	assert.Equal(t, "https://cdn/audio", track.Stream.URI)
	assert.Equal(t, "ua", track.Stream.Headers["User-Agent"])
}

func TestYTDLP_Resolve_LinkPassedThrough(t *testing.T) {
	var calls []recordedCall
	y := NewYTDLP("", "", nil).WithRunner(fakeRunner(sampleInfo, nil, &calls))

	_, err := y.Resolve(context.Background(), "https://youtu.be/abc")

	require.NoError(t, err)
	assert.Equal(t, "yt-dlp", calls[0].name)
	assert.Equal(t, "https://youtu.be/abc", calls[0].args[len(calls[0].args)-1])
	assert.True(t, slices.Contains(calls[0].args, "--no-playlist"))
}

func TestYTDLP_Resolve_EmptyOutputIsNotFound(t *testing.T) {
	var calls []recordedCall
	y := NewYTDLP("", "", nil).WithRunner(fakeRunner("\n", nil, &calls))

	_, err := y.Resolve(context.Background(), "nothing matches")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestYTDLP_Resolve_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", errors.New("yt-dlp failed: ERROR: Video unavailable"), ErrNotFound},
		{"network", errors.New("yt-dlp failed: HTTP Error 503"), ErrTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []recordedCall
			y := NewYTDLP("", "", nil).WithRunner(fakeRunner("", tt.err, &calls))

			_, err := y.Resolve(context.Background(), "https://x")

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestYTDLP_Resolve_CancelledContext(t *testing.T) {
	var calls []recordedCall
	y := NewYTDLP("", "", nil).WithRunner(fakeRunner("", errors.New("killed"), &calls))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := y.Resolve(ctx, "x")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestYTDLP_Download_WritesMP3(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "Song.mp3")
	var calls []recordedCall
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, recordedCall{name: name, args: args})
		i := slices.Index(args, "-o")
		out := strings.Replace(args[i+1], "%(ext)s", "mp3", 1)
		return nil, os.WriteFile(out, []byte("mp3"), 0o644)
	}
	y := NewYTDLP("", "/usr/bin/ffmpeg", nil).WithRunner(run)

	require.NoError(t, y.Download(context.Background(), "https://x", dest))

	assert.FileExists(t, dest)
	args := calls[0].args
	assert.True(t, slices.Contains(args, "-x"))
	assert.True(t, slices.Contains(args, "192K"))
	assert.True(t, slices.Contains(args, "/usr/bin/ffmpeg"))
}
