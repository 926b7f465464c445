package importer

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

func secondsToDuration(s int64) time.Duration {
	return time.Duration(s) * time.Second
}

func millisToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// firstExistingDir returns the first of candidates (joined onto root) that
// exists as a directory, or "" if none do.
func firstExistingDir(root string, candidates ...string) string {
	for _, c := range candidates {
		p := filepath.Join(root, c)
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			return p
		}
	}
	return ""
}

// splitLoaderVersion splits FTB/CurseForge-style "forge-47.2.0" loader
// strings into a type and version on the last hyphen.
func splitLoaderVersion(s string) (loaderType, version string) {
	idx := strings.LastIndex(s, "-")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}
