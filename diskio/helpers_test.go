package diskio

import (
	"io/fs"
	"os"
	"path/filepath"
)

// testStats implements SystemStats against the real filesystem but with a
// fixed block size so the arithmetic in tests does not depend on the host.
type testStats struct {
	block int64
}

func (s *testStats) BlockSize(string) (int64, error) {
	return s.block, nil
}

func (s *testStats) RecursiveSize(folder string) (int64, error) {
	var size int64
	err := filepath.WalkDir(folder, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		st, err := d.Info()
		if err != nil {
			return err
		}
		size += st.Size()
		return nil
	})
	return size, err
}

func (s *testStats) DiskStats(string) (DiskStats, error) {
	return DiskStats{Filesystem: "tmpfs", SizeKB: 1024, UsedKB: 512, AvailableKB: 512, CapacityPct: 50, MountPoint: "/tmp"}, nil
}

func newTestFolder() string {
	tmp, err := os.MkdirTemp(os.TempDir(), "ballast")
	if err != nil {
		panic(err)
	}
	return tmp
}

// newTestRig builds a ready DiskIO over a fresh temp folder using the worked
// numbers from the documentation: one MiB capacity, 4 KiB blocks.
func newTestRig() (*DiskIO, string) {
	tmp := newTestFolder()
	d, err := New(tmp, 1048576, &testStats{block: 4096})
	if err != nil {
		panic(err)
	}
	return d, tmp
}
