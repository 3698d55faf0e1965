// Package favorites keeps the ordered, URL-deduplicated list of favorited
// tracks and keeps the audio cache in step with it.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/llehouerou/senfoni/internal/media"
	"github.com/llehouerou/senfoni/internal/state"
)

// ErrIndexOutOfRange is returned by Rename for an invalid position.
var ErrIndexOutOfRange = errors.New("favorite index out of range")

// Store persists the favorites list. Every save replaces the whole list.
type Store interface {
	LoadFavorites() ([]state.Favorite, error)
	SaveFavorites(favs []state.Favorite) error
}

// Cache is the subset of cache.Store the registry drives.
type Cache interface {
	Lookup(url, title string) (string, bool)
	Fetch(ctx context.Context, url, title string) (string, error)
	Evict(url, title string) error
	Rename(url, oldTitle, newTitle string) (string, error)
}

// Report summarizes a Reconcile pass.
type Report struct {
	Cached  int // already present
	Fetched int // downloaded during the pass
	Failed  int
}

// Registry is the favorites list. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	favs   []media.Favorite
	store  Store
	cache  Cache
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New loads the persisted favorites and returns a registry over them.
func New(store Store, cache Cache, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rows, err := store.LoadFavorites()
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	favs := make([]media.Favorite, 0, len(rows))
	for _, r := range rows {
		favs = append(favs, media.Favorite{Title: r.Title, URL: r.URL, Duration: r.Duration})
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		favs:   favs,
		store:  store,
		cache:  cache,
		logger: logger.With("component", "favorites"),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// List returns a copy of the favorites in insertion order.
func (r *Registry) List() []media.Favorite {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]media.Favorite(nil), r.favs...)
}

// Len returns the number of favorites.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.favs)
}

// Find returns the favorite with the given URL.
func (r *Registry) Find(url string) (media.Favorite, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.favs {
		if f.URL == url {
			return f, true
		}
	}
	return media.Favorite{}, false
}

// Contains reports whether url is a favorite.
func (r *Registry) Contains(url string) bool {
	_, ok := r.Find(url)
	return ok
}

// Add appends track as a favorite and starts caching it in the background.
// Returns false without error when the track has no URL or is already a
// favorite.
func (r *Registry) Add(track media.Track) (bool, error) {
	if track.URL == "" {
		return false, nil
	}
	fav := media.FavoriteFromTrack(track)

	r.mu.Lock()
	for _, f := range r.favs {
		if f.URL == fav.URL {
			r.mu.Unlock()
			return false, nil
		}
	}
	next := append(append([]media.Favorite(nil), r.favs...), fav)
	if err := r.persist(next); err != nil {
		r.mu.Unlock()
		return false, err
	}
	r.favs = next
	r.mu.Unlock()

	r.logger.Info("favorite added", "title", fav.Title, "url", fav.URL)
	r.fetchAsync(fav)
	return true, nil
}

// Remove deletes the favorite with url and evicts its cache entry.
func (r *Registry) Remove(url string) (bool, error) {
	r.mu.Lock()
	idx := r.indexLocked(url)
	if idx < 0 {
		r.mu.Unlock()
		return false, nil
	}
	removed := r.favs[idx]
	next := make([]media.Favorite, 0, len(r.favs)-1)
	next = append(next, r.favs[:idx]...)
	next = append(next, r.favs[idx+1:]...)
	if err := r.persist(next); err != nil {
		r.mu.Unlock()
		return false, err
	}
	r.favs = next
	r.mu.Unlock()

	if err := r.cache.Evict(removed.URL, removed.Title); err != nil {
		r.logger.Warn("cache eviction failed", "title", removed.Title, "err", err)
	}
	r.logger.Info("favorite removed", "title", removed.Title)
	return true, nil
}

// Rename changes the title of the favorite at index and moves its cache
// entry to the new name. A failed move is logged; the new title is kept.
func (r *Registry) Rename(index int, title string) error {
	r.mu.Lock()
	if index < 0 || index >= len(r.favs) {
		r.mu.Unlock()
		return ErrIndexOutOfRange
	}
	old := r.favs[index]
	if old.Title == title {
		r.mu.Unlock()
		return nil
	}
	next := append([]media.Favorite(nil), r.favs...)
	next[index].Title = title
	if err := r.persist(next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.favs = next
	r.mu.Unlock()

	if _, err := r.cache.Rename(old.URL, old.Title, title); err != nil {
		r.logger.Warn("cache rename failed", "from", old.Title, "to", title, "err", err)
	}
	return nil
}

// Reconcile downloads every favorite that has no cache entry.
func (r *Registry) Reconcile(ctx context.Context) (Report, error) {
	var report Report
	for _, f := range r.List() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, ok := r.cache.Lookup(f.URL, f.Title); ok {
			report.Cached++
			continue
		}
		if _, err := r.cache.Fetch(ctx, f.URL, f.Title); err != nil {
			r.logger.Warn("favorite cache fetch failed", "title", f.Title, "err", err)
			report.Failed++
			continue
		}
		report.Fetched++
	}
	if report.Fetched > 0 || report.Failed > 0 {
		r.logger.Info("favorites cache reconciled",
			"cached", report.Cached, "fetched", report.Fetched, "failed", report.Failed)
	}
	return report, nil
}

// Wait blocks until background fetches started by Add have finished.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// Close cancels background fetches and waits for them to return.
func (r *Registry) Close() error {
	r.cancel()
	r.wg.Wait()
	return nil
}

func (r *Registry) fetchAsync(fav media.Favorite) {
	r.wg.Go(func() {
		if _, err := r.cache.Fetch(r.ctx, fav.URL, fav.Title); err != nil {
			r.logger.Warn("favorite cache fetch failed", "title", fav.Title, "err", err)
			return
		}
		r.settle(fav)
	})
}

// settle brings a finished download in line with the current list. The
// favorite may have been removed or renamed while it was downloading.
func (r *Registry) settle(fetched media.Favorite) {
	cur, ok := r.Find(fetched.URL)
	switch {
	case !ok:
		if err := r.cache.Evict(fetched.URL, fetched.Title); err != nil {
			r.logger.Warn("cache eviction failed", "title", fetched.Title, "err", err)
			return
		}
		r.logger.Debug("dropped download of removed favorite", "title", fetched.Title)
	case cur.Title != fetched.Title:
		if _, err := r.cache.Rename(fetched.URL, fetched.Title, cur.Title); err != nil {
			r.logger.Warn("cache rename failed", "from", fetched.Title, "to", cur.Title, "err", err)
			return
		}
		r.logger.Debug("moved download of renamed favorite", "from", fetched.Title, "to", cur.Title)
	}
}

func (r *Registry) indexLocked(url string) int {
	for i, f := range r.favs {
		if f.URL == url {
			return i
		}
	}
	return -1
}

func (r *Registry) persist(favs []media.Favorite) error {
	rows := make([]state.Favorite, len(favs))
	for i, f := range favs {
		rows[i] = state.Favorite{Title: f.Title, URL: f.URL, Duration: f.Duration}
	}
	if err := r.store.SaveFavorites(rows); err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	return nil
}
