// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackPause  Op = "pause"
	OpPlaybackResume Op = "resume"
	OpPlaybackStop   Op = "stop playback"
	OpPlaybackSkip   Op = "skip"
	OpPlaybackSeek   Op = "seek"

	// Queue operations
	OpQueueAdd Op = "add to queue"

	// Favorites
	OpFavoriteAdd       Op = "add favorite"
	OpFavoriteRemove    Op = "remove favorite"
	OpFavoriteRename    Op = "rename favorite"
	OpFavoriteImport    Op = "import favorites"
	OpFavoriteReconcile Op = "download missing favorites"

	// Cache operations
	OpCacheClean Op = "clean cache"
	OpCacheUsage Op = "read cache usage"

	// Announcements
	OpSpeak Op = "speak"

	// Settings
	OpPrefsSave Op = "save preferences"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
