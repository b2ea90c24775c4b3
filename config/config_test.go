package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAtPath_Defaults(t *testing.T) {
	c, err := NewAtPath("/tmp/config.yml")
	require.NoError(t, err)

	assert.False(t, c.Debug)
	assert.Equal(t, "/var/log/ballast", c.System.LogDirectory)
	assert.Equal(t, 5, c.System.DiskStatsTTL)
	assert.Equal(t, "/tmp/config.yml", c.Path())
}

func TestFromFile(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "config.yml")

	content := `
debug: true
reservation:
  folder: /srv/ballast-data
  capacity: 1048576
system:
  disk_stats_ttl: 30
`
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	require.NoError(t, FromFile(p))

	c := Get()
	assert.True(t, c.Debug)
	assert.Equal(t, "/srv/ballast-data", c.Reservation.Folder)
	assert.Equal(t, int64(1048576), c.Reservation.Capacity)
	assert.Equal(t, 30, c.System.DiskStatsTTL)
	// Values absent from the file keep their defaults.
	assert.Equal(t, "/var/log/ballast", c.System.LogDirectory)
}

func TestFromFile_ExpandsEnvironment(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "config.yml")

	t.Setenv("BALLAST_TEST_FOLDER", "/srv/from-env")
	content := "reservation:\n  folder: ${BALLAST_TEST_FOLDER}\n  capacity: 1\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	require.NoError(t, FromFile(p))

	assert.Equal(t, "/srv/from-env", Get().Reservation.Folder)
}

func TestWriteToDisk(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "nested", "config.yml")

	c, err := NewAtPath(p)
	require.NoError(t, err)
	c.Reservation.Folder = "/srv/ballast-data"
	c.Reservation.Capacity = 4096

	require.NoError(t, WriteToDisk(c))
	require.NoError(t, FromFile(p))

	assert.Equal(t, "/srv/ballast-data", Get().Reservation.Folder)
	assert.Equal(t, int64(4096), Get().Reservation.Capacity)
}
