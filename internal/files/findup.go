package files

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindUp looks for a regular file called name in dir and its ancestors, and returns the first match.
// It returns "" if no ancestor contains it. Unreadable directories are skipped.
func FindUp(name, dir string) (string, error) {
	curDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", dir, err)
	}
	for {
		candidate := filepath.Join(curDir, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		newDir := filepath.Dir(curDir)
		if newDir == curDir {
			return "", nil
		}
		curDir = newDir
	}
}

// FindUpIn is FindUp restricted to a list of subdirectory names searched in every ancestor,
// such as "node_modules/.bin" or "bin".
func FindUpIn(name, dir string, subdirs ...string) (string, error) {
	if len(subdirs) == 0 {
		return FindUp(name, dir)
	}
	curDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", dir, err)
	}
	for {
		for _, sub := range subdirs {
			candidate := filepath.Join(curDir, sub, name)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, nil
			}
		}
		newDir := filepath.Dir(curDir)
		if newDir == curDir {
			return "", nil
		}
		curDir = newDir
	}
}
