package diskio

import (
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/apex/log"
)

// SentinelName is the reserved file name whose length absorbs the unused
// portion of the configured capacity. It lives at the root of the managed
// folder and is never exposed through Get.
const SentinelName = "diskio.dat"

// spaceReservation owns the sentinel file for a managed folder. It maintains
// the invariant that the sentinel length plus the real file usage of the
// folder equals the configured capacity, which makes the operating system's
// own free-space accounting reflect the reservation. Resizing a single file
// is O(1) metadata work no matter how much data lives in the folder.
type spaceReservation struct {
	folder   string
	capacity int64
	stats    SystemStats
}

func newSpaceReservation(folder string, capacity int64, stats SystemStats) *spaceReservation {
	return &spaceReservation{folder: folder, capacity: capacity, stats: stats}
}

// SentinelPath returns the absolute path of the sentinel file.
func (r *spaceReservation) SentinelPath() string {
	return filepath.Join(r.folder, SentinelName)
}

// sentinelSize returns the current byte length of the sentinel file. If the
// file does not exist yet it is created with a length of zero.
func (r *spaceReservation) sentinelSize() (int64, error) {
	st, err := os.Stat(r.SentinelPath())
	if err == nil {
		return st.Size(), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return 0, errors.WithStackIf(err)
	}
	f, err := os.OpenFile(r.SentinelPath(), os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return 0, errors.Wrap(err, "diskio: failed to create sentinel file")
	}
	_ = f.Close()
	return 0, nil
}

func (r *spaceReservation) resize(n int64) error {
	return errors.Wrap(os.Truncate(r.SentinelPath(), n), "diskio: failed to resize sentinel file")
}

// Stabilize recomputes the sentinel length so that the total usage of the
// managed folder equals the configured capacity again. Must be called after
// any operation that changes the real file footprint of the folder. If the
// real usage already exceeds the capacity the computed length would be
// negative; that is a fatal invariant violation and is never clamped.
func (r *spaceReservation) Stabilize() error {
	size, err := r.sentinelSize()
	if err != nil {
		return err
	}
	usage, err := r.stats.RecursiveSize(r.folder)
	if err != nil {
		return errors.WithStackIf(err)
	}
	difference := r.capacity - usage + size
	if difference < 0 {
		log.WithField("folder", r.folder).
			WithField("usage", usage-size).
			WithField("capacity", r.capacity).
			Error("refusing to resize reservation sentinel to a negative length")
		return newError(ErrCodeReservation, nil)
	}
	return r.resize(difference)
}

// Remaining returns the number of bytes that may still be handed out to
// writes, which is exactly the current length of the sentinel file.
func (r *spaceReservation) Remaining() (int64, error) {
	return r.sentinelSize()
}

// Allocate charges size bytes against the remaining budget by shrinking the
// sentinel. Every accepted call is charged its full size even when the write
// it admits overwrites bytes that were charged before; the budget may
// under-report the space that is really available but it can never be
// exceeded. Callers that change this must also revisit how the reservation
// report is computed.
func (r *spaceReservation) Allocate(size int64) error {
	remaining, err := r.sentinelSize()
	if err != nil {
		return err
	}
	if size > remaining {
		return newError(ErrCodeInsufficientSpace, nil)
	}
	return r.resize(remaining - size)
}
