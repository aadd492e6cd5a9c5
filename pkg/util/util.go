package util

import (
	"os"
	"path/filepath"
	"strings"
)

// Exists checks if a file or directory exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// BaseNoExt returns the base name of a path with its extension stripped.
// An empty path yields an empty string.
func BaseNoExt(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
