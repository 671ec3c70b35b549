package diagfmt

import (
	"os"
	"path/filepath"
	"strings"
)

func formatPath(path string, mode PathMode, baseDir string) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
		return path
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeRelative:
		if rel, ok := relTo(path, baseDir); ok {
			return rel
		}
		return path
	default:
		if rel, ok := relTo(path, baseDir); ok && !strings.HasPrefix(rel, "..") {
			return rel
		}
		return path
	}
}

func relTo(path, baseDir string) (string, bool) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", false
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
