// SPDX-License-Identifier: MIT

// Package fsutil resolves catalog filenames inside the videos directory.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEscapesRoot is returned when a path resolves outside of its root.
var ErrEscapesRoot = errors.New("path escapes root")

// ConfineRelPath joins root and relTarget and ensures the result is physically
// underneath the resolved root. Symlinks are followed, so a link pointing out
// of the root is rejected. The target must be relative and may not exist yet.
func ConfineRelPath(root, relTarget string) (string, error) {
	if relTarget == "" {
		return "", fmt.Errorf("empty target path")
	}
	// Backslashes are path separators on Windows and ambiguous elsewhere.
	if strings.Contains(relTarget, "\\") {
		return "", fmt.Errorf("path contains backslash: %s", relTarget)
	}
	if strings.IndexByte(relTarget, 0) >= 0 {
		return "", fmt.Errorf("path contains NUL byte")
	}

	cleanRel := filepath.Clean(relTarget)
	if filepath.IsAbs(cleanRel) {
		return "", fmt.Errorf("target path must be relative: %s", relTarget)
	}
	// Segment based so "a..b.mp4" stays legal.
	if cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrEscapesRoot, relTarget)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", err
		}
		realRoot = absRoot
	}

	return resolveAndCheck(realRoot, filepath.Join(realRoot, cleanRel))
}

// resolveAndCheck resolves fullPath symlinks and ensures it is within realRoot.
func resolveAndCheck(realRoot, fullPath string) (string, error) {
	realPath, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		// Missing file: resolve the parent instead.
		dir := filepath.Dir(fullPath)
		rp, dirErr := filepath.EvalSymlinks(dir)
		switch {
		case dirErr == nil:
			realPath = filepath.Join(rp, filepath.Base(fullPath))
		case os.IsNotExist(dirErr):
			realPath = fullPath
		default:
			return "", fmt.Errorf("failed to resolve parent path: %w", dirErr)
		}
	}

	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil {
		return "", fmt.Errorf("rel computation failed: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w via symlinks: %s", ErrEscapesRoot, realPath)
	}
	return realPath, nil
}

// RegularFileSize stats path and returns its size when it is a regular file.
func RegularFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", path)
	}
	return info.Size(), nil
}
