//go:build unix

package stats

import (
	"math"

	"emperror.dev/errors"
	"golang.org/x/sys/unix"

	"github.com/ballastd/ballast/diskio"
)

var _ diskio.SystemStats = (*Stats)(nil)

// BlockSize returns the optimal transfer block size reported by statfs for
// the filesystem holding the given folder.
func (s *Stats) BlockSize(folder string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(folder, &st); err != nil {
		return 0, errors.Wrap(err, "stats: statfs failed")
	}
	return int64(st.Bsize), nil
}

// DiskStats returns the raw statistics of the filesystem holding the given
// folder, in kilobytes, the same way df reports them.
func (s *Stats) DiskStats(folder string) (diskio.DiskStats, error) {
	if v, ok := s.disk.Get(folder); ok {
		return v.(diskio.DiskStats), nil
	}

	var st unix.Statfs_t
	if err := unix.Statfs(folder, &st); err != nil {
		return diskio.DiskStats{}, errors.Wrap(err, "stats: statfs failed")
	}

	bs := int64(st.Bsize)
	size := int64(st.Blocks) * bs / 1024
	available := int64(st.Bavail) * bs / 1024
	used := size - int64(st.Bfree)*bs/1024

	pct := 0
	if used+available > 0 {
		pct = int(math.Round(float64(used) / float64(used+available) * 100))
	}

	device, mount := mountInfo(folder)
	ds := diskio.DiskStats{
		Filesystem:  device,
		SizeKB:      size,
		UsedKB:      used,
		AvailableKB: available,
		CapacityPct: pct,
		MountPoint:  mount,
	}
	s.disk.SetDefault(folder, ds)
	return ds, nil
}
