package diskio

import (
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/google/uuid"
)

// fileNamespace maps logical file names onto a sharded directory tree inside
// the managed folder. Every created file lives below five directories whose
// names are the hyphen separated segments of a freshly generated UUID, which
// keeps any single directory from accumulating an unbounded number of
// entries.
type fileNamespace struct {
	folder   string
	sentinel string
}

func newFileNamespace(folder, sentinel string) *fileNamespace {
	return &fileNamespace{folder: folder, sentinel: sentinel}
}

// Create generates a fresh shard path for name, creates the intermediate
// directories and the file itself, and returns the path of the new file
// relative to the managed folder along with an open handle to it. If the
// generated leaf already contains a file with this name the attempt is
// discarded and a new identifier is generated; the failed attempt's
// directories are only removed if they are empty.
func (ns *fileNamespace) Create(name string) (string, *os.File, error) {
	if strings.TrimSpace(name) == "" || strings.ContainsRune(name, os.PathSeparator) {
		return "", nil, NewNameError(name)
	}

	for {
		segments := strings.Split(uuid.New().String(), "-")
		dir := filepath.Join(append([]string{ns.folder}, segments...)...)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", nil, errors.Wrap(err, "diskio: failed to create shard directories")
		}

		p := filepath.Join(dir, name)
		f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			rel, rerr := filepath.Rel(ns.folder, p)
			if rerr != nil {
				_ = f.Close()
				return "", nil, errors.WithStackIf(rerr)
			}
			return rel, f, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", nil, errors.Wrap(err, "diskio: failed to create managed file")
		}

		// Identifier collision. Drop whatever empty directories this attempt
		// left behind and retry with a new UUID rather than reusing the leaf.
		ns.prune(dir)
	}
}

// Get resolves a caller supplied slash separated path against the managed
// folder, stripping empty segments. The reservation sentinel can never be
// resolved through this function.
func (ns *fileNamespace) Get(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", NewNameError(name)
	}

	segments := make([]string, 0, 8)
	for _, s := range strings.Split(name, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	resolved := filepath.Join(append([]string{ns.folder}, segments...)...)
	if !strings.HasPrefix(resolved+string(os.PathSeparator), ns.folder+string(os.PathSeparator)) {
		return "", NewBadPathResolution(name, resolved)
	}
	if resolved == ns.sentinel {
		return "", NewReservedNameError(name, resolved)
	}
	return resolved, nil
}

// Delete closes the given handle, removes the named file, and then walks
// upward through the shard directories removing every one that is left
// empty, stopping at the first directory that still has entries or at the
// managed folder root.
func (ns *fileNamespace) Delete(f *os.File, name string) error {
	resolved, err := ns.Get(name)
	if err != nil {
		return err
	}

	// The OS must release the handle before the file can be unlinked.
	if f != nil {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			return errors.Wrap(err, "diskio: failed to close handle before delete")
		}
	}

	if err := os.Remove(resolved); err != nil {
		return errors.WithStackIf(err)
	}
	ns.prune(filepath.Dir(resolved))
	return nil
}

// prune removes dir and its parents while they are empty, never touching the
// managed folder root itself. The first directory that refuses removal ends
// the walk.
func (ns *fileNamespace) prune(dir string) {
	for dir != ns.folder && strings.HasPrefix(dir, ns.folder) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
