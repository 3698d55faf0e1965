//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpPlaybackStart,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpPlaybackSkip,
			err:      errors.New("nothing is playing"),
			expected: "Failed to skip: nothing is playing",
		},
		{
			name:     "cache operation",
			op:       OpCacheClean,
			err:      errors.New("permission denied"),
			expected: "Failed to clean cache: permission denied",
		},
		{
			name:     "queue operation",
			op:       OpQueueAdd,
			err:      errors.New("network error"),
			expected: "Failed to add to queue: network error",
		},
		{
			name:     "favorite operation",
			op:       OpFavoriteAdd,
			err:      errors.New("database is locked"),
			expected: "Failed to add favorite: database is locked",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no audio device"),
			expected: "Failed to start playback: no audio device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpPlaybackStart,
			context:  "song",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpPlaybackStart,
			context:  "lofi beats",
			err:      errors.New("no results"),
			expected: "Failed to start playback 'lofi beats': no results",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpPlaybackStart,
			context:  "",
			err:      errors.New("no results"),
			expected: "Failed to start playback: no results",
		},
		{
			name:     "favorite rename with context",
			op:       OpFavoriteRename,
			context:  "#3",
			err:      errors.New("index out of range"),
			expected: "Failed to rename favorite '#3': index out of range",
		},
		{
			name:     "import with path context",
			op:       OpFavoriteImport,
			context:  "/home/user/favorites.json",
			err:      errors.New("file not found"),
			expected: "Failed to import favorites '/home/user/favorites.json': file not found",
		},
		{
			name:     "speak with voice context",
			op:       OpSpeak,
			context:  "tr-TR-EmelNeural",
			err:      errors.New("service unavailable"),
			expected: "Failed to speak 'tr-TR-EmelNeural': service unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	// Verify that Op constants are non-empty and produce valid messages
	ops := []Op{
		OpPlaybackStart, OpPlaybackPause, OpPlaybackResume, OpPlaybackStop,
		OpPlaybackSkip, OpPlaybackSeek,
		OpQueueAdd,
		OpFavoriteAdd, OpFavoriteRemove, OpFavoriteRename, OpFavoriteImport, OpFavoriteReconcile,
		OpCacheClean, OpCacheUsage,
		OpSpeak,
		OpPrefsSave,
		OpInitialize,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			result := Format(op, testErr)
			if result == "" {
				t.Error("Format should return non-empty string for non-nil error")
			}

			// Verify the format includes the operation
			expected := "Failed to " + string(op) + ": test error"
			if result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
