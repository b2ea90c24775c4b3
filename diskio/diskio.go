// Package diskio manages a bounded disk-space budget for a single folder. A
// fixed capacity is reserved up front through a sentinel file whose length
// always absorbs the unused portion of the budget, every write is admitted
// against the remaining budget before it happens, and all file I/O runs in
// filesystem block sized chunks.
package diskio

import (
	"context"
	"os"
	"sync"

	"emperror.dev/errors"
	"github.com/apex/log"

	"github.com/ballastd/ballast/system"
)

// SystemStats supplies the filesystem level figures the reservation engine
// needs. Implementations may obtain them however they like; the engine only
// cares about the numbers.
type SystemStats interface {
	// BlockSize returns the optimal transfer block size in bytes for the
	// filesystem holding the given folder.
	BlockSize(folder string) (int64, error)

	// RecursiveSize returns the total size in bytes of all regular files
	// below the given folder, including the reservation sentinel.
	RecursiveSize(folder string) (int64, error)

	// DiskStats returns raw OS level statistics for the filesystem holding
	// the given folder.
	DiskStats(folder string) (DiskStats, error)
}

// DiskStats mirrors the operating system's view of the filesystem holding
// the managed folder. All sizes are in kilobytes, as reported by the OS.
type DiskStats struct {
	Filesystem  string `json:"filesystem"`
	SizeKB      int64  `json:"size"`
	UsedKB      int64  `json:"used"`
	AvailableKB int64  `json:"available"`
	CapacityPct int    `json:"capacity"`
	MountPoint  string `json:"mount"`
}

// DiskIO is the public surface of the reservation engine. One instance owns
// exactly one managed folder; pointing multiple instances at the same folder
// is unsupported since they would not coordinate sentinel updates.
type DiskIO struct {
	// mu serializes the stabilize/allocate/mutate sequence so that the
	// sentinel length is never computed from a stale read while a concurrent
	// mutation lands.
	mu sync.Mutex

	folder   string
	capacity int64
	stats    SystemStats

	reservation *spaceReservation
	namespace   *fileNamespace

	// blockSize is written once by the initialization goroutine before the
	// ready channel is closed and is immutable afterwards.
	blockSize int64

	ready      chan struct{}
	stabilized *system.AtomicBool
	initErr    error
}

// New validates the folder and capacity synchronously and returns a DiskIO
// instance whose first stabilization and block size discovery run in the
// background. Use WaitUntilReady to await them.
func New(folder string, capacity int64, stats SystemStats) (*DiskIO, error) {
	st, err := os.Stat(folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewConfigurationError("managed folder does not exist: " + folder)
		}
		return nil, errors.WithStackIf(err)
	}
	if !st.IsDir() {
		return nil, NewConfigurationError("managed folder is not a directory: " + folder)
	}
	if capacity <= 0 {
		return nil, NewConfigurationError("capacity must be a positive number of bytes")
	}

	d := &DiskIO{
		folder:     folder,
		capacity:   capacity,
		stats:      stats,
		ready:      make(chan struct{}),
		stabilized: system.NewAtomicBool(false),
	}
	d.reservation = newSpaceReservation(folder, capacity, stats)
	d.namespace = newFileNamespace(folder, d.reservation.SentinelPath())

	go d.initialize()
	return d, nil
}

// initialize runs the first stabilization and records the block geometry,
// then signals readiness. Any failure here is surfaced through
// WaitUntilReady and every subsequent operation.
func (d *DiskIO) initialize() {
	defer close(d.ready)

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.reservation.Stabilize(); err != nil {
		d.initErr = err
		return
	}
	bs, err := d.stats.BlockSize(d.folder)
	if err != nil {
		d.initErr = errors.WithStackIf(err)
		return
	}
	if bs <= 0 {
		d.initErr = newError(ErrCodeUnknownError, errors.New("filesystem reported a non-positive block size"))
		return
	}
	d.blockSize = bs
	d.stabilized.Set(true)

	log.WithField("folder", d.folder).
		WithField("capacity", d.capacity).
		WithField("block_size", bs).
		Debug("disk reservation stabilized")
}

// WaitUntilReady blocks until the background initialization has completed or
// the context is canceled. The error from a failed initialization is
// returned on every call.
func (d *DiskIO) WaitUntilReady(ctx context.Context) error {
	select {
	case <-d.ready:
		return d.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// awaitReady blocks until initialization has finished and returns its error,
// if any. Operations call this so that using the instance before readiness
// is safe rather than undefined.
func (d *DiskIO) awaitReady() error {
	<-d.ready
	return d.initErr
}

// Ready reports whether initialization has completed successfully, without
// blocking.
func (d *DiskIO) Ready() bool {
	return d.stabilized.Get()
}

// Path returns the managed folder for this instance.
func (d *DiskIO) Path() string {
	return d.folder
}

// Capacity returns the configured byte budget for the managed folder.
func (d *DiskIO) Capacity() int64 {
	return d.capacity
}

// BlockSize returns the discovered optimal block size. It blocks until the
// instance is ready; zero is returned if initialization failed.
func (d *DiskIO) BlockSize() int64 {
	<-d.ready
	return d.blockSize
}

// Create makes a new managed file for the given logical name and returns its
// folder relative path along with an open handle. The reservation is
// re-stabilized afterwards since the new directory chain changed the real
// footprint of the folder.
func (d *DiskIO) Create(name string) (string, *os.File, error) {
	if err := d.awaitReady(); err != nil {
		return "", nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rel, f, err := d.namespace.Create(name)
	if err != nil {
		return "", nil, err
	}
	if err := d.reservation.Stabilize(); err != nil {
		// Roll the creation back so a failed call leaves nothing behind.
		_ = d.namespace.Delete(f, rel)
		return "", nil, err
	}
	return rel, f, nil
}

// Get resolves a previously returned relative path to the absolute location
// of the managed file. The reservation sentinel cannot be resolved.
func (d *DiskIO) Get(name string) (string, error) {
	if err := d.awaitReady(); err != nil {
		return "", err
	}
	return d.namespace.Get(name)
}

// Read returns the bytes in the range [start, end) of the given handle,
// read in block sized chunks.
func (d *DiskIO) Read(f *os.File, start, end int64) ([]byte, error) {
	if err := d.awaitReady(); err != nil {
		return nil, err
	}
	return newChunkedIO(d.blockSize).Read(f, start, end)
}

// Write charges len(data) bytes against the remaining budget and, if
// admitted, writes the data to the handle at the given position in block
// sized chunks. A write that exceeds the remaining budget fails without
// mutating anything.
func (d *DiskIO) Write(f *os.File, data []byte, position int64) error {
	if err := d.awaitReady(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.reservation.Allocate(int64(len(data))); err != nil {
		return err
	}
	return newChunkedIO(d.blockSize).Write(f, data, position)
}

// Delete closes the handle, removes the managed file and its emptied shard
// directories, and re-stabilizes the reservation so the freed bytes flow
// back into the sentinel.
func (d *DiskIO) Delete(f *os.File, name string) error {
	if err := d.awaitReady(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.namespace.Delete(f, name); err != nil {
		return err
	}
	return d.reservation.Stabilize()
}

// Remaining returns the number of bytes still available to writes.
func (d *DiskIO) Remaining() (int64, error) {
	if err := d.awaitReady(); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reservation.Remaining()
}

// Stabilize re-asserts the reservation invariant on demand. Normal callers
// never need this, Create and Delete already do it; it exists for callers
// that mutate the folder outside of this instance's operations.
func (d *DiskIO) Stabilize() error {
	if err := d.awaitReady(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reservation.Stabilize()
}
