//go:build unix && !linux

package stats

// mountInfo is only resolvable through the mount table on Linux; other
// unixes report the numeric statistics without device or mount point names.
func mountInfo(folder string) (string, string) {
	return "", ""
}
