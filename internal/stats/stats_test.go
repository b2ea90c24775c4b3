//go:build unix

package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecursiveSize(t *testing.T) {
	tmp := t.TempDir()
	s := New(time.Second)

	size, err := s.RecursiveSize(tmp)
	require.NoError(t, err)
	assert.Zero(t, size)

	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "root.bin"), make([]byte, 100), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "a", "nested.bin"), make([]byte, 200), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "a", "b", "deep.bin"), make([]byte, 300), 0o644))

	size, err = s.RecursiveSize(tmp)
	require.NoError(t, err)
	assert.Equal(t, int64(600), size)
}

func TestRecursiveSize_IgnoresSymlinks(t *testing.T) {
	tmp := t.TempDir()
	outside := t.TempDir()
	s := New(time.Second)

	require.NoError(t, os.WriteFile(filepath.Join(outside, "big.bin"), make([]byte, 1000), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(outside, "big.bin"), filepath.Join(tmp, "link")))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "real.bin"), make([]byte, 50), 0o644))

	size, err := s.RecursiveSize(tmp)
	require.NoError(t, err)
	assert.Equal(t, int64(50), size)
}

func TestBlockSize(t *testing.T) {
	s := New(time.Second)

	bs, err := s.BlockSize(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, bs, int64(0))
}

func TestDiskStats(t *testing.T) {
	s := New(time.Minute)
	tmp := t.TempDir()

	ds, err := s.DiskStats(tmp)
	require.NoError(t, err)
	assert.Greater(t, ds.SizeKB, int64(0))
	assert.GreaterOrEqual(t, ds.CapacityPct, 0)
	assert.LessOrEqual(t, ds.CapacityPct, 100)

	// A second lookup within the TTL is served from cache.
	again, err := s.DiskStats(tmp)
	require.NoError(t, err)
	assert.Equal(t, ds, again)
}
