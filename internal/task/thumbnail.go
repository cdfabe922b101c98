package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"lumina/internal/catalog"
	"lumina/internal/format"
)

func init() {
	register(&ThumbnailTask{})
}

// thumbSuffix/fullSuffix mirror internal/scan's derivative naming convention,
// kept in sync with it since both read and write the same files.
const (
	thumbSuffix = "-thumb.jpg"
	fullSuffix  = "-full.jpg"
)

// ThumbnailTask generates and stores a bounded thumbnail and a full-resolution
// derivative for every thumbnailable format (§4.5).
type ThumbnailTask struct {
	cat       *catalog.Catalog
	dataDir   string
	thumbSize int
}

// Configure wires the runtime dependencies the bundled task needs beyond what
// its zero value provides; called once at process start after registration.
func (t *ThumbnailTask) Configure(cat *catalog.Catalog, dataDir string, thumbSize int) {
	t.cat = cat
	t.dataDir = dataDir
	t.thumbSize = thumbSize
}

func (t *ThumbnailTask) Name() string { return "thumbnail" }

func (t *ThumbnailTask) Compatible(m *catalog.Media) bool {
	return format.AnyFormat{Tag: format.FormatType(m.Format)}.Thumbnailable()
}

// Outdated is true when no thumbnail has ever been stored or the stored
// thumbnail_version trails the format module's current THUMBNAIL_VERSION
// (§4.5). The format a thumbnail was generated from is not recorded, so a
// change of the media's format alone does not make it outdated.
func (t *ThumbnailTask) Outdated(m *catalog.Media) bool {
	af := format.AnyFormat{Tag: format.FormatType(m.Format)}
	if !af.Thumbnailable() {
		return false
	}
	return !m.HasThumbnail || m.ThumbnailVersion < af.ThumbnailVersion()
}

type ThumbnailData struct {
	Thumbnail []byte
	Full      []byte
}

// DerivativePath returns the on-disk path of a media's thumbnail or full
// derivative under dataDir, using the same naming convention RunAndStore
// writes to. Exported for the Custom Task RPC's get_thumb function, which
// needs to hand a script a path without duplicating the suffix constants.
func DerivativePath(dataDir string, m *catalog.Media, full bool) string {
	if full {
		return filepath.Join(dataDir, m.UUID.String()+fullSuffix)
	}
	return filepath.Join(dataDir, m.UUID.String()+thumbSuffix)
}

func (t *ThumbnailTask) Run(ctx context.Context, m *catalog.Media) (Data, error) {
	af := format.AnyFormat{Tag: format.FormatType(m.Format), Path: m.Path}

	thumbW, thumbH := format.ResizeDimensions(m.Width, m.Height, t.thumbSize, t.thumbSize, format.ResizeFit)
	thumb, err := af.GenerateThumbnail(ctx, thumbW, thumbH)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: generate thumb: %w", err)
	}
	full, err := af.GenerateFull(ctx)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: generate full: %w", err)
	}
	return ThumbnailData{Thumbnail: thumb, Full: full}, nil
}

// RunAndStore writes both derivatives to <data_dir>/<uuid>-thumb.jpg and
// <uuid>-full.jpg, then updates has_thumbnail/thumbnail_version on the Media
// row (§4.5).
func (t *ThumbnailTask) RunAndStore(ctx context.Context, m *catalog.Media) error {
	data, err := t.Run(ctx, m)
	if err != nil {
		return err
	}
	td := data.(ThumbnailData)

	thumbPath := filepath.Join(t.dataDir, m.UUID.String()+thumbSuffix)
	fullPath := filepath.Join(t.dataDir, m.UUID.String()+fullSuffix)
	if err := os.WriteFile(thumbPath, td.Thumbnail, 0o644); err != nil {
		return fmt.Errorf("thumbnail: write thumb: %w", err)
	}
	if err := os.WriteFile(fullPath, td.Full, 0o644); err != nil {
		return fmt.Errorf("thumbnail: write full: %w", err)
	}

	af := format.AnyFormat{Tag: format.FormatType(m.Format)}
	m.HasThumbnail = true
	m.ThumbnailVersion = af.ThumbnailVersion()
	return t.cat.UpdateMediaByID(ctx, m)
}

func (t *ThumbnailTask) RemoveData(ctx context.Context, m *catalog.Media) error {
	_ = os.Remove(filepath.Join(t.dataDir, m.UUID.String()+thumbSuffix))
	_ = os.Remove(filepath.Join(t.dataDir, m.UUID.String()+fullSuffix))
	m.HasThumbnail = false
	m.ThumbnailVersion = 0
	return t.cat.UpdateMediaByID(ctx, m)
}
