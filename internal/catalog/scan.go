// SPDX-License-Identifier: MIT

package catalog

import (
	"fmt"
	"os"
	"sort"

	"github.com/ManuGH/vidserve/internal/fsutil"
)

type scannedFile struct {
	Name string
	Size int64
}

// scanDir lists regular video files directly inside dir, creating dir when
// it does not exist. Results are sorted by name.
func scanDir(dir string) ([]scannedFile, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create videos dir: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read videos dir: %w", err)
	}

	files := make([]scannedFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsVideoFile(e.Name()) {
			continue
		}
		// Symlinks count as present only while they stay inside dir.
		path, err := fsutil.ConfineRelPath(dir, e.Name())
		if err != nil {
			continue
		}
		size, err := fsutil.RegularFileSize(path)
		if err != nil {
			continue
		}
		files = append(files, scannedFile{Name: e.Name(), Size: size})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
