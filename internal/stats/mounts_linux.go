//go:build linux

package stats

import (
	"os"
	"path/filepath"
	"strings"
)

// mountInfo resolves the device and mount point holding the given folder by
// scanning the process mount table for the longest matching mount point. An
// unreadable table degrades to empty strings, the numeric statistics do not
// depend on it.
func mountInfo(folder string) (string, string) {
	b, err := os.ReadFile("/proc/self/mounts")
	if err != nil {
		return "", ""
	}

	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", ""
	}

	var device, mount string
	for _, line := range strings.Split(string(b), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// Mount points with spaces are octal escaped in the mount table.
		mp := strings.ReplaceAll(fields[1], `\040`, " ")
		if mp != "/" && !strings.HasPrefix(abs+"/", mp+"/") {
			continue
		}
		if len(mp) >= len(mount) {
			device, mount = fields[0], mp
		}
	}
	return device, mount
}
