// Package cache manages the on-disk audio files of favorited tracks.
//
// Entries are named by Filename(url, title). A downloaded file first lands in
// the .partial subdirectory and is renamed into place once complete, so any
// file present at the top level is a finished entry.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/llehouerou/senfoni/internal/media"
)

const partialDir = ".partial"

// Downloader fetches the audio for url into the file at dest.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Store is the favorites audio cache rooted at one directory.
type Store struct {
	dir        string
	downloader Downloader
	logger     *slog.Logger
	group      singleflight.Group
}

// Usage summarizes the cache directory contents.
type Usage struct {
	Files int
	Bytes int64
}

// New creates a store rooted at dir. The directory is created on first use.
func New(dir string, downloader Downloader, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:        dir,
		downloader: downloader,
		logger:     logger.With("component", "cache"),
	}
}

// Dir returns the cache root.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the entry path for (url, title), creating the cache
// directory if it does not exist yet.
func (s *Store) Path(url, title string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &IOError{Op: "mkdir", Path: s.dir, Err: err}
	}
	return filepath.Join(s.dir, Filename(url, title)), nil
}

// Lookup returns the entry path and whether the file exists.
func (s *Store) Lookup(url, title string) (string, bool) {
	path, err := s.Path(url, title)
	if err != nil {
		s.logger.Warn("cache lookup failed", "url", url, "err", err)
		return filepath.Join(s.dir, Filename(url, title)), false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return path, false
	}
	return path, true
}

// Fetch returns the entry path, downloading it first if absent.
// Concurrent fetches of the same entry share one download. Cancelling ctx
// abandons the wait but not the shared download.
func (s *Store) Fetch(ctx context.Context, url, title string) (string, error) {
	if path, ok := s.Lookup(url, title); ok {
		return path, nil
	}

	name := Filename(url, title)
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(name, func() (any, error) {
		return s.download(detached, url, title)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Store) download(ctx context.Context, url, title string) (string, error) {
	// Another fetch may have completed between Lookup and DoChan.
	if path, ok := s.Lookup(url, title); ok {
		return path, nil
	}

	final, err := s.Path(url, title)
	if err != nil {
		return "", err
	}
	staging := filepath.Join(s.dir, partialDir)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", &IOError{Op: "mkdir", Path: staging, Err: err}
	}
	tmp := filepath.Join(staging, filepath.Base(final))

	s.logger.Info("downloading to cache", "url", url, "title", title)
	if err := s.downloader.Download(ctx, url, tmp); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", &IOError{Op: "rename", Path: final, Err: err}
	}
	s.logger.Info("cached", "title", title, "path", final)
	return final, nil
}

// Evict deletes the entry for (url, title). A missing file is not an error.
func (s *Store) Evict(url, title string) error {
	path := filepath.Join(s.dir, Filename(url, title))
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// Rename moves the entry for (url, oldTitle) to the name derived from
// (url, newTitle). Returns the new path. A missing source is not an error.
func (s *Store) Rename(url, oldTitle, newTitle string) (string, error) {
	oldPath := filepath.Join(s.dir, Filename(url, oldTitle))
	newPath := filepath.Join(s.dir, Filename(url, newTitle))
	if oldPath == newPath {
		return newPath, nil
	}
	if _, err := os.Stat(oldPath); errors.Is(err, fs.ErrNotExist) {
		return newPath, nil
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", &IOError{Op: "rename", Path: oldPath, Err: err}
	}
	return newPath, nil
}

// CleanOrphans deletes every regular file in the cache directory that is not
// derived from one of favs. Subdirectories are left alone. Returns the number
// of files removed; per-file failures are joined into the error.
func (s *Store) CleanOrphans(favs []media.Favorite) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, &IOError{Op: "list", Path: s.dir, Err: err}
	}

	valid := make(map[string]struct{}, len(favs))
	for _, f := range favs {
		valid[Filename(f.URL, f.Title)] = struct{}{}
	}

	var (
		removed int
		errs    []error
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := valid[e.Name()]; ok {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil {
			errs = append(errs, &IOError{Op: "remove", Path: path, Err: err})
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("removed orphaned cache files", "count", removed)
	}
	return removed, errors.Join(errs...)
}

// Usage counts the finished entries and their total size.
func (s *Store) Usage() (Usage, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Usage{}, nil
	}
	if err != nil {
		return Usage{}, &IOError{Op: "list", Path: s.dir, Err: err}
	}
	var u Usage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		u.Files++
		u.Bytes += info.Size()
	}
	return u, nil
}
