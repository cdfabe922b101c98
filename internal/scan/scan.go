// Package scan walks configured roots and reconciles the catalog with the
// filesystem (§4.4), grounded on the teacher's
// internal/sync/reconciliation_scanner.go filepath.Walk + stats idiom.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"lumina/internal/catalog"
	"lumina/internal/format"
	"lumina/internal/logging"
)

// Derivative file naming, relative to DataConfig.DataDir: "<uuid>-thumb.jpg" and
// "<uuid>-full.jpg", matching what the Thumbnail task (§4.5) writes on store.
const (
	thumbSuffix = "-thumb.jpg"
	fullSuffix  = "-full.jpg"
)

// TaskEnqueuer is implemented by the Task Engine (C5); scan depends on this
// narrow interface rather than importing the task package outright, since the
// task package in turn depends on the catalog and format packages scan already
// uses — keeping the dependency edge one-directional.
type TaskEnqueuer interface {
	EnqueueOutdated(ctx context.Context, m *catalog.Media) error
}

// Stats mirrors the teacher's SyncStats shape (FilesScanned/Added/Updated/Removed).
type Stats struct {
	FilesScanned int
	FilesAdded   int
	FilesUpdated int
	FilesRemoved int
	Outcomes     map[string]int
}

// Scanner drives one full scan pass over a set of configured roots.
type Scanner struct {
	cat      *catalog.Catalog
	roots    []string
	excludes []string
	dataDir  string
	tasks    TaskEnqueuer
}

func NewScanner(cat *catalog.Catalog, roots, excludes []string, dataDir string, tasks TaskEnqueuer) *Scanner {
	return &Scanner{cat: cat, roots: roots, excludes: excludes, dataDir: dataDir, tasks: tasks}
}

// outcome tags each walked entry for logging/metrics, matching the named
// dispositions in spec §4.4 step 1-5.
type outcome string

const (
	outcomeExcluded          outcome = "excluded"
	outcomeUnsupportedFormat outcome = "unsupported_format"
	outcomeAlreadyExists1    outcome = "already_exists_cheap"
	outcomeAlreadyExists2    outcome = "already_exists_metadata"
	outcomeAdded             outcome = "added"
	outcomeUpdated           outcome = "updated"
)

// Run performs a full scan: walk, per-entry reconciliation, post-scan
// outdatedness sweep, task enqueue, verify pass, and DirectoryTree rebuild.
func (s *Scanner) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{Outcomes: map[string]int{}}

	importID, err := s.cat.NextImportID(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: allocate import id: %w", err)
	}

	for _, root := range s.roots {
		if err := s.walkRoot(ctx, root, importID, stats); err != nil {
			return stats, fmt.Errorf("scan: walk %s: %w", root, err)
		}
	}

	if err := s.sweepOutdatedMetadata(ctx); err != nil {
		return stats, fmt.Errorf("scan: metadata outdatedness sweep: %w", err)
	}
	if err := s.enqueueAllOutdated(ctx); err != nil {
		return stats, fmt.Errorf("scan: enqueue outdated: %w", err)
	}
	removed, err := s.verify(ctx)
	if err != nil {
		return stats, fmt.Errorf("scan: verify pass: %w", err)
	}
	stats.FilesRemoved = removed

	if err := s.rebuildDirectoryTree(ctx); err != nil {
		return stats, fmt.Errorf("scan: rebuild directory tree: %w", err)
	}

	logging.L().Infow("scan complete",
		"scanned", stats.FilesScanned, "added", stats.FilesAdded,
		"updated", stats.FilesUpdated, "removed", stats.FilesRemoved,
		"import_id", importID)

	return stats, nil
}

func (s *Scanner) walkRoot(ctx context.Context, root string, importID int64, stats *Stats) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logging.L().Warnw("scan: walk error", "path", path, "error", err)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if s.isExcluded(path) && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if s.isExcluded(path) {
			stats.Outcomes[string(outcomeExcluded)]++
			return nil
		}

		oc, err := s.reconcileOne(ctx, path, info, importID)
		if err != nil {
			logging.L().Warnw("scan: reconcile failed", "path", path, "error", err)
			return nil
		}
		stats.FilesScanned++
		stats.Outcomes[string(oc)]++
		switch oc {
		case outcomeAdded:
			stats.FilesAdded++
		case outcomeUpdated:
			stats.FilesUpdated++
		}
		return nil
	})
}

func (s *Scanner) isExcluded(path string) bool {
	for _, ex := range s.excludes {
		if ex == "" {
			continue
		}
		if strings.HasPrefix(path, ex) {
			return true
		}
	}
	return false
}

// reconcileOne implements spec §4.4 steps 2-6 for a single walked file.
func (s *Scanner) reconcileOne(ctx context.Context, path string, info os.FileInfo, importID int64) (outcome, error) {
	tag := format.Detect(filepath.Ext(path))
	if tag == format.UnknownFormat {
		return outcomeUnsupportedFormat, nil
	}

	// Step 3: cheap upsert probe on (path, fs-created-time, size).
	existing, err := s.cat.MediaFromPath(ctx, path)
	fsCreated := fsCreationTime(info)
	if err == nil {
		if existing.FSCreatedAt.Equal(fsCreated) && existing.Size == info.Size() {
			return outcomeAlreadyExists1, nil
		}
	} else if err != catalog.ErrNotFound {
		return "", err
	}

	af := format.AnyFormat{Tag: tag, Path: path}
	md, err := af.GetMetadata(ctx)
	if err != nil {
		return "", fmt.Errorf("extract metadata: %w", err)
	}

	// Step 4: second probe on (authored-time, size); if it still matches, leave
	// the row untouched. Otherwise the old row (if any) is replaced.
	var authoredAt time.Time
	if md.AuthoredAt != nil {
		authoredAt = time.UnixMilli(*md.AuthoredAt).UTC()
	} else {
		authoredAt = fsCreated
	}
	if err == nil && existing != nil && existing.AuthoredAt.Equal(authoredAt) && existing.Size == info.Size() {
		return outcomeAlreadyExists2, nil
	}

	contentHash, err := hashFile(path)
	if err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}

	m := &catalog.Media{
		Path:             path,
		Size:             info.Size(),
		FSCreatedAt:      fsCreated,
		ContentHash:      contentHash,
		Name:             filepath.Base(path),
		Width:            md.Width,
		Height:           md.Height,
		DurationMS:       md.DurationMS,
		Class:            classFor(tag),
		Format:           string(tag),
		AuthoredAt:       authoredAt,
		Longitude:        md.Longitude,
		Latitude:         md.Latitude,
		IsScreenshot:     md.IsScreenshot,
		MetadataVersion:  af.MetadataVersion(),
		ThumbnailVersion: 0,
		ImportID:         importID,
	}

	// Step 5-6: stale-row delete and new-row insert are one atomic unit per §5's
	// ordering guarantee (a transaction per scanned path, aborting on mid-sequence
	// failure) so a crash never leaves a path both old-rowed and new-rowed.
	err = s.cat.WithTx(ctx, func(tx *catalog.Catalog) error {
		if existing != nil {
			if err := tx.DeleteMedia(ctx, existing.ID); err != nil {
				return fmt.Errorf("delete stale row: %w", err)
			}
		}
		if err := tx.CreateMedia(ctx, m); err != nil {
			return fmt.Errorf("insert media row: %w", err)
		}
		if af.Thumbnailable() {
			if err := tx.Enqueue(ctx, m.ID, "thumbnail"); err != nil {
				return fmt.Errorf("enqueue thumbnail: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if existing != nil {
		return outcomeUpdated, nil
	}
	return outcomeAdded, nil
}

func classFor(tag format.FormatType) catalog.MediaClass {
	switch tag {
	case format.JPEG, format.PNG, format.HEIF, format.RAW:
		return catalog.ClassPhoto
	case format.MP4:
		return catalog.ClassVideo
	case format.MP3, format.WAV:
		return catalog.ClassAudio
	case format.PDF:
		return catalog.ClassPDF
	default:
		return catalog.ClassOther
	}
}

// fsCreationTime falls back to ModTime: Go's os.FileInfo has no portable creation
// time accessor, so the filesystem-creation proxy used throughout this package is
// mtime, consistent with the teacher's reconciliation scanner which compares
// info.ModTime() rather than platform-specific birth time.
func fsCreationTime(info os.FileInfo) time.Time {
	return info.ModTime().UTC()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 256*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// sweepOutdatedMetadata enqueues a background metadata refresh for every Media
// row whose stored metadata_version trails its format module's current
// METADATA_VERSION (§4.4, post-scan step 1).
func (s *Scanner) sweepOutdatedMetadata(ctx context.Context) error {
	rows, err := s.cat.AllMedia(ctx)
	if err != nil {
		return err
	}
	for _, m := range rows {
		af := format.AnyFormat{Tag: format.FormatType(m.Format), Path: m.Path}
		if m.MetadataVersion < af.MetadataVersion() {
			if err := s.cat.Enqueue(ctx, m.ID, "metadata_refresh"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scanner) enqueueAllOutdated(ctx context.Context) error {
	if s.tasks == nil {
		return nil
	}
	rows, err := s.cat.AllMedia(ctx)
	if err != nil {
		return err
	}
	for i := range rows {
		if err := s.tasks.EnqueueOutdated(ctx, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// verify removes rows whose path now falls outside every scan root or whose file
// has disappeared, deleting their on-disk derivatives (§4.4, post-scan step 3).
func (s *Scanner) verify(ctx context.Context) (int, error) {
	rows, err := s.cat.AllMedia(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, m := range rows {
		if s.underAnyRoot(m.Path) {
			if _, err := os.Stat(m.Path); err == nil {
				continue
			}
		}
		if err := s.cat.DeleteMedia(ctx, m.ID); err != nil {
			return removed, err
		}
		s.removeDerivatives(m.UUID.String())
		removed++
	}
	return removed, nil
}

func (s *Scanner) underAnyRoot(path string) bool {
	for _, root := range s.roots {
		if strings.HasPrefix(path, root) {
			return true
		}
	}
	return false
}

// removeDerivatives deletes the thumbnail/full derivative files for a media uuid.
// Both removals are best-effort: a missing derivative is not an error, since the
// Thumbnail task may never have run for this row.
func (s *Scanner) removeDerivatives(uuidStr string) {
	if s.dataDir == "" {
		return
	}
	_ = os.Remove(filepath.Join(s.dataDir, uuidStr+thumbSuffix))
	_ = os.Remove(filepath.Join(s.dataDir, uuidStr+fullSuffix))
}

// rebuildDirectoryTree recomputes the DirectoryTree wholesale from every current
// Media path and persists it to Kv, never patched incrementally (§4.4, §4.8).
func (s *Scanner) rebuildDirectoryTree(ctx context.Context) error {
	rows, err := s.cat.AllMedia(ctx)
	if err != nil {
		return err
	}
	paths := make([]string, len(rows))
	for i, m := range rows {
		paths[i] = m.Path
	}
	tree := catalog.BuildDirectoryTree(paths)
	return s.cat.SaveDirectoryTree(ctx, tree)
}
