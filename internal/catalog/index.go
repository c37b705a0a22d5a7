// SPDX-License-Identifier: MIT

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/google/renameio/v2"
)

// readIndex decodes the index file. A missing or empty file yields an empty
// list and no error.
func readIndex(path string) ([]VideoMeta, error) {
	if path == "" {
		return nil, nil
	}
	// #nosec G304 -- index path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []VideoMeta
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return entries, nil
}

// writeIndex replaces the index file atomically and durably: renameio writes
// a temp file in the same directory, fsyncs it and renames it into place.
func writeIndex(ctx context.Context, path string, entries []VideoMeta) error {
	if path == "" {
		return fmt.Errorf("index path not configured")
	}
	logger := xglog.FromContext(ctx)

	if entries == nil {
		entries = []VideoMeta{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o640))
	if err != nil {
		return fmt.Errorf("create pending index file: %w", err)
	}
	defer func() {
		// No-op once committed.
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending index file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write index data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace index file: %w", err)
	}
	return nil
}
