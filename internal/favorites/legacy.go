package favorites

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/llehouerou/senfoni/internal/media"
)

// ImportJSON merges a favorites.json file ([{"title","url","duration"}]) into
// the registry. Entries without a URL or already present are skipped.
// Returns the number of favorites added.
func (r *Registry) ImportJSON(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var entries []media.Favorite
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	r.mu.Lock()
	next := append([]media.Favorite(nil), r.favs...)
	seen := make(map[string]struct{}, len(next))
	for _, f := range next {
		seen[f.URL] = struct{}{}
	}
	var added []media.Favorite
	for _, e := range entries {
		if e.URL == "" {
			continue
		}
		if _, ok := seen[e.URL]; ok {
			continue
		}
		seen[e.URL] = struct{}{}
		next = append(next, e)
		added = append(added, e)
	}
	if len(added) == 0 {
		r.mu.Unlock()
		return 0, nil
	}
	if err := r.persist(next); err != nil {
		r.mu.Unlock()
		return 0, err
	}
	r.favs = next
	r.mu.Unlock()

	for _, f := range added {
		r.fetchAsync(f)
	}
	r.logger.Info("favorites imported", "path", path, "count", len(added))
	return len(added), nil
}
