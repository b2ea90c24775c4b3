package diskio

import (
	"math"
)

// ReservationReport describes the state of the reservation itself, derived
// from the sentinel length on every call rather than cached. All sizes are
// in bytes.
//
// One block of the configured capacity is set aside to absorb folder
// metadata overhead, so Size is always the capacity minus a single block and
// Used plus Available always equals Size exactly.
type ReservationReport struct {
	Size        int64 `json:"size"`
	Used        int64 `json:"used"`
	Available   int64 `json:"available"`
	CapacityPct int   `json:"capacity"`
}

// DiskReport returns the operating system's raw view of the filesystem
// holding the managed folder. These figures describe the whole disk, not the
// reservation, and are informational only.
func (d *DiskIO) DiskReport() (DiskStats, error) {
	if err := d.awaitReady(); err != nil {
		return DiskStats{}, err
	}
	return d.stats.DiskStats(d.folder)
}

// ReservationReport computes the current reservation figures. CapacityPct is
// the percentage of the reservation that is still available.
func (d *DiskIO) ReservationReport() (ReservationReport, error) {
	if err := d.awaitReady(); err != nil {
		return ReservationReport{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	sentinel, err := d.reservation.Remaining()
	if err != nil {
		return ReservationReport{}, err
	}

	size := d.capacity - d.blockSize
	available := sentinel - d.blockSize
	if available < 0 {
		available = 0
	}
	if available > size {
		available = size
	}
	used := size - available

	pct := 0
	if size > 0 {
		pct = int(math.Round(100 - (float64(used)/float64(size))*100))
	}

	return ReservationReport{
		Size:        size,
		Used:        used,
		Available:   available,
		CapacityPct: pct,
	}, nil
}
