// Package security guards the paths a scan run writes to.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// canonicalize returns the absolute form of path with symlinks resolved for
// the longest prefix that exists. Paths that do not exist yet (an output
// file, an in-memory filesystem) are resolved through their nearest
// existing parent, so /tmp/link/new.txt with link -> /etc maps to
// /etc/new.txt.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	for check := abs; ; {
		parent := filepath.Dir(check)
		if parent == check {
			return abs, nil
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, err := filepath.Rel(parent, abs)
			if err != nil {
				return "", err
			}
			return filepath.Join(resolved, rel), nil
		}
		check = parent
	}
}

// ValidatePathWithinDirectory returns an error if filePath, after cleaning
// and symlink resolution, is not safeDir itself or inside it.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	canonicalPath, err := canonicalize(filePath)
	if err != nil {
		return err
	}
	canonicalSafeDir, err := canonicalize(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory: %w", err)
	}

	relPath, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// ValidatePathWithinAllowedDirs checks if a file path is within any of the allowed directories.
// Returns nil if the path is valid, or an error describing why it was rejected.
func ValidatePathWithinAllowedDirs(filePath string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return fmt.Errorf("no allowed directories specified")
	}

	for _, dir := range allowedDirs {
		if err := ValidatePathWithinDirectory(filePath, dir); err == nil {
			return nil
		}
	}
	return fmt.Errorf("path %s must be within one of the allowed directories: %v", filePath, allowedDirs)
}
