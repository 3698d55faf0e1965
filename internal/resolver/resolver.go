// Package resolver turns search queries and links into playable tracks.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/llehouerou/senfoni/internal/media"
)

var (
	// ErrNotFound means the query matched nothing playable.
	ErrNotFound = errors.New("no playable result")
	// ErrTransient means the lookup failed for a reason worth retrying.
	ErrTransient = errors.New("resolution temporarily unavailable")
)

// Resolver resolves a query (direct link or free text) to a track.
// Free text resolves to the first search result.
type Resolver interface {
	Resolve(ctx context.Context, query string) (media.Track, error)
}

// IsLink reports whether query is a direct http(s) link.
func IsLink(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return strings.HasPrefix(q, "http://") || strings.HasPrefix(q, "https://")
}
