// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/vidserve/internal/fsutil"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/metrics"
	"github.com/ManuGH/vidserve/internal/telemetry"
	"github.com/rs/zerolog"
)

// Trigger names what caused a catalog load; it labels metrics and logs.
type Trigger string

// Load triggers.
const (
	TriggerStartup Trigger = "startup"
	TriggerAPI     Trigger = "api"
	TriggerSignal  Trigger = "signal"
	TriggerWatch   Trigger = "watch"
)

// Options configures a Store.
type Options struct {
	// IndexPath is the JSON index file.
	IndexPath string
	// VideosDir is the flat directory holding local video files.
	VideosDir string
	// Logger defaults to the "catalog" component logger.
	Logger *zerolog.Logger
}

// Registration is a request to add an entry to the catalog.
type Registration struct {
	ID              string
	Title           string
	OriginURL       string
	ThumbnailURL    string
	DurationSeconds float64
}

// RegisterResult reports the outcome of a successful Register call.
type RegisterResult struct {
	AlreadyRegistered bool
	Count             int
	Entry             VideoMeta
}

// LocalFile is a catalog entry resolved to a file on disk.
type LocalFile struct {
	Path string
	Size int64
}

// Store is the single source of truth for what videos exist and where.
//
// Load and Register are serialized by writeMu. Readers never block: they
// load an immutable snapshot that writers replace wholesale.
type Store struct {
	indexPath string
	videosDir string
	logger    zerolog.Logger

	writeMu sync.Mutex
	current atomic.Pointer[snapshot]
	status  atomic.Pointer[LoadStatus]
}

// LoadStatus describes the most recent Load attempt.
type LoadStatus struct {
	// LastSuccess is the time of the last successful load; zero if none.
	LastSuccess time.Time
	// LastError is the error of the latest attempt, empty when it succeeded.
	LastError string
}

type snapshot struct {
	entries []VideoMeta
	byID    map[string]int
}

func newSnapshot(entries []VideoMeta) *snapshot {
	s := &snapshot{
		entries: entries,
		byID:    make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		s.byID[e.ID] = i
	}
	return s
}

// New creates an empty store. Call Load to populate it.
func New(opts Options) *Store {
	logger := xglog.WithComponent("catalog")
	if opts.Logger != nil {
		logger = opts.Logger.With().Str(xglog.FieldComponent, "catalog").Logger()
	}
	s := &Store{
		indexPath: opts.IndexPath,
		videosDir: opts.VideosDir,
		logger:    logger,
	}
	s.current.Store(newSnapshot(nil))
	s.status.Store(&LoadStatus{})
	return s
}

// LastLoad reports the outcome of the most recent Load.
func (s *Store) LastLoad() LoadStatus {
	return *s.status.Load()
}

func (s *Store) recordLoad(err error) {
	prev := s.status.Load()
	next := LoadStatus{LastSuccess: prev.LastSuccess}
	if err != nil {
		next.LastError = err.Error()
	} else {
		next.LastSuccess = time.Now()
	}
	s.status.Store(&next)
}

// VideosDir returns the directory scanned for local files.
func (s *Store) VideosDir() string { return s.videosDir }

// IndexPath returns the index file location.
func (s *Store) IndexPath() string { return s.indexPath }

// Load reads the index file, scans the videos directory and replaces the
// in-memory catalog with the union of both. A missing or corrupt index is
// not an error. Scanning never writes the index file.
func (s *Store) Load(ctx context.Context, trigger Trigger) (int, error) {
	ctx, span := telemetry.Tracer("vidserve/catalog").Start(ctx, "catalog.Load")
	defer span.End()
	logger := xglog.WithContext(ctx, s.logger)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	indexed, err := readIndex(s.indexPath)
	if err != nil {
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "catalog.index_unreadable").
			Str(xglog.FieldIndexPath, s.indexPath).
			Msg("index file unreadable, starting from an empty list")
		indexed = nil
	}
	indexed = dedupeByID(indexed, logger)

	files, err := scanDir(s.videosDir)
	if err != nil {
		metrics.IncCatalogReload(string(trigger), false)
		span.SetAttributes(telemetry.ErrorAttributes("scan")...)
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "catalog.scan_failed").
			Str(xglog.FieldVideosDir, s.videosDir).
			Msg("videos directory scan failed, keeping previous catalog")
		err = fmt.Errorf("scan videos dir: %w", err)
		s.recordLoad(err)
		return s.Len(), err
	}

	merged, synthesized := merge(indexed, files, logger)
	s.current.Store(newSnapshot(merged))
	s.recordLoad(nil)

	metrics.IncCatalogReload(string(trigger), true)
	span.SetAttributes(telemetry.CatalogAttributes(string(trigger), len(merged))...)
	metrics.SetCatalogSize(len(merged))
	metrics.SetCatalogSynthesized(synthesized)

	logger.Info().
		Str(xglog.FieldEvent, "catalog.loaded").
		Str("trigger", string(trigger)).
		Int("indexed", len(indexed)).
		Int("scanned", len(files)).
		Int("synthesized", synthesized).
		Int("videos", len(merged)).
		Msg("catalog loaded")

	return len(merged), nil
}

// merge returns indexed entries followed by entries synthesized from files
// not referenced by any indexed filename. Indexed entries that have a file on
// disk get their size refreshed.
func merge(indexed []VideoMeta, files []scannedFile, logger zerolog.Logger) ([]VideoMeta, int) {
	sizes := make(map[string]int64, len(files))
	for _, f := range files {
		sizes[f.Name] = f.Size
	}

	out := make([]VideoMeta, 0, len(indexed)+len(files))
	ids := make(map[string]struct{}, len(indexed)+len(files))
	known := make(map[string]struct{}, len(indexed))
	for _, e := range indexed {
		if size, ok := sizes[e.Filename]; ok {
			e.SizeBytes = size
		}
		out = append(out, e)
		ids[e.ID] = struct{}{}
		known[e.Filename] = struct{}{}
	}

	synthesized := 0
	for _, f := range files {
		if _, ok := known[f.Name]; ok {
			continue
		}
		id := idFromFilename(f.Name)
		if _, clash := ids[id]; clash {
			logger.Warn().
				Str(xglog.FieldEvent, "catalog.scan_id_conflict").
				Str(xglog.FieldVideoID, id).
				Str(xglog.FieldPath, f.Name).
				Msg("scanned file derives an id that is already taken, skipping")
			continue
		}
		out = append(out, VideoMeta{
			ID:        id,
			Title:     titleFromID(id),
			Filename:  f.Name,
			SizeBytes: f.Size,
		})
		ids[id] = struct{}{}
		synthesized++
	}
	return out, synthesized
}

func dedupeByID(entries []VideoMeta, logger zerolog.Logger) []VideoMeta {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			logger.Warn().Str(xglog.FieldEvent, "catalog.index_entry_invalid").Msg("index entry without id dropped")
			continue
		}
		if _, dup := seen[e.ID]; dup {
			logger.Warn().
				Str(xglog.FieldEvent, "catalog.index_duplicate").
				Str(xglog.FieldVideoID, e.ID).
				Msg("duplicate id in index file, keeping first occurrence")
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Register adds a new entry and persists the whole catalog. A duplicate id is
// a successful no-op. The index file is written before the in-memory catalog
// is swapped, so on ErrPersist nothing changes.
func (s *Store) Register(ctx context.Context, reg Registration) (RegisterResult, error) {
	logger := xglog.WithContext(ctx, s.logger)

	reg.ID = strings.TrimSpace(reg.ID)
	reg.Title = strings.TrimSpace(reg.Title)
	if err := validateRegistration(reg); err != nil {
		metrics.IncRegistration("invalid")
		return RegisterResult{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current.Load()
	if i, ok := cur.byID[reg.ID]; ok {
		metrics.IncRegistration("duplicate")
		logger.Info().
			Str(xglog.FieldEvent, "catalog.register_duplicate").
			Str(xglog.FieldVideoID, reg.ID).
			Msg("video already registered")
		return RegisterResult{AlreadyRegistered: true, Count: len(cur.entries), Entry: cur.entries[i]}, nil
	}

	filename := SafeFilename(reg.Title)
	if unique := uniqueFilename(filename, cur.entries); unique != filename {
		logger.Warn().
			Str(xglog.FieldEvent, "catalog.register_filename_conflict").
			Str(xglog.FieldVideoID, reg.ID).
			Str("wanted", filename).
			Str("filename", unique).
			Msg("title maps to a filename owned by another video, using a suffixed name")
		filename = unique
	}

	entry := VideoMeta{
		ID:              reg.ID,
		Title:           reg.Title,
		Filename:        filename,
		OriginURL:       strings.TrimSpace(reg.OriginURL),
		ThumbnailURL:    strings.TrimSpace(reg.ThumbnailURL),
		DurationSeconds: reg.DurationSeconds,
	}

	next := make([]VideoMeta, len(cur.entries), len(cur.entries)+1)
	copy(next, cur.entries)
	next = append(next, entry)

	if err := writeIndex(ctx, s.indexPath, next); err != nil {
		metrics.IncRegistration("persist_failed")
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "catalog.persist_failed").
			Str(xglog.FieldVideoID, reg.ID).
			Str(xglog.FieldIndexPath, s.indexPath).
			Msg("failed to persist catalog, registration discarded")
		return RegisterResult{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.current.Store(newSnapshot(next))
	metrics.IncRegistration("created")
	metrics.SetCatalogSize(len(next))

	logger.Info().
		Str(xglog.FieldEvent, "catalog.registered").
		Str(xglog.FieldVideoID, entry.ID).
		Str("filename", entry.Filename).
		Bool("has_origin", entry.OriginURL != "").
		Int("videos", len(next)).
		Msg("video registered")

	return RegisterResult{Count: len(next), Entry: entry}, nil
}

// uniqueFilename returns name, or name with a numeric suffix before the
// extension when an existing entry already owns it. Comparison ignores case
// so the result is also unique on case-insensitive filesystems.
func uniqueFilename(name string, entries []VideoMeta) string {
	taken := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		taken[strings.ToLower(e.Filename)] = struct{}{}
	}
	if _, ok := taken[strings.ToLower(name)]; !ok {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if _, ok := taken[strings.ToLower(candidate)]; !ok {
			return candidate
		}
	}
}

func validateRegistration(reg Registration) error {
	switch {
	case reg.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidRegistration)
	case reg.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidRegistration)
	case strings.ContainsAny(reg.ID, "/\\") || strings.IndexByte(reg.ID, 0) >= 0:
		return fmt.Errorf("%w: id must not contain path separators", ErrInvalidRegistration)
	case reg.DurationSeconds < 0 || math.IsNaN(reg.DurationSeconds) || math.IsInf(reg.DurationSeconds, 0):
		return fmt.Errorf("%w: duration must be a non-negative number", ErrInvalidRegistration)
	}
	return nil
}

// Lookup returns the entry with the given id.
func (s *Store) Lookup(id string) (VideoMeta, bool) {
	cur := s.current.Load()
	i, ok := cur.byID[id]
	if !ok {
		return VideoMeta{}, false
	}
	return cur.entries[i], true
}

// List returns a copy of all entries in catalog order.
func (s *Store) List() []VideoMeta {
	cur := s.current.Load()
	out := make([]VideoMeta, len(cur.entries))
	copy(out, cur.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.current.Load().entries)
}

// ResolveLocal reports whether meta has a regular file in the videos
// directory right now. It is evaluated on every call so files that appear
// after the last load are picked up without a reload.
func (s *Store) ResolveLocal(meta VideoMeta) (LocalFile, bool) {
	if meta.Filename == "" {
		return LocalFile{}, false
	}
	path, err := fsutil.ConfineRelPath(s.videosDir, meta.Filename)
	if err != nil {
		return LocalFile{}, false
	}
	size, err := fsutil.RegularFileSize(path)
	if err != nil {
		return LocalFile{}, false
	}
	return LocalFile{Path: path, Size: size}, true
}
