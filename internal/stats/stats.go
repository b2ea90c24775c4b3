// Package stats provides the default SystemStats implementation backed by
// native syscalls and a filesystem walk.
package stats

import (
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/karrick/godirwalk"
	gocache "github.com/patrickmn/go-cache"
)

type Stats struct {
	// disk holds recent OS level disk statistics per folder. Those figures
	// are informational only, so serving short lived stale values avoids
	// hammering statfs on busy report paths.
	disk *gocache.Cache
}

func New(ttl time.Duration) *Stats {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Stats{disk: gocache.New(ttl, ttl*2)}
}

// RecursiveSize returns the total size in bytes of all regular files below
// the given folder. Symlinks are not followed so a link pointing outside the
// folder can never inflate the result.
func (s *Stats) RecursiveSize(folder string) (int64, error) {
	var size int64
	err := godirwalk.Walk(folder, &godirwalk.Options{
		Unsorted: true,
		Callback: func(p string, e *godirwalk.Dirent) error {
			if e.IsSymlink() || !e.IsRegular() {
				return nil
			}
			st, err := os.Lstat(p)
			if err != nil {
				return err
			}
			size += st.Size()
			return nil
		},
	})
	return size, errors.Wrap(err, "stats: failed to walk folder")
}
