// Package fsutil holds small path helpers shared by the config loader and the
// engine installer.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ExpandHome replaces a leading "~" (alone, or followed by a separator) with
// the user's home directory. Other paths are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// IsExecutable reports whether path is a regular file the engine could be
// run from. On POSIX an execute bit must be set.
func IsExecutable(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return fi.Mode().Perm()&0o111 != 0
}

// FirstMatch returns the first path accepted by ok.
func FirstMatch(paths []string, ok func(string) bool) (string, bool) {
	for _, p := range paths {
		if p != "" && ok(p) {
			return p, true
		}
	}
	return "", false
}
