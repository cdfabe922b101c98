package format

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

// govips is initialized lazily and once: the HEIF module is the only consumer of
// it in the registry (bimg/libvips already covers JPEG/PNG/RAW previews), grounded
// on the djryanj-media-viewer InitVips/ShutdownVips pair.
var (
	vipsOnce      sync.Once
	vipsStartedOK bool
)

func ensureVips() bool {
	vipsOnce.Do(func() {
		vips.Startup(&vips.Config{
			ConcurrencyLevel: 1,
			MaxCacheMem:      50 * 1024 * 1024,
			MaxCacheSize:     100,
		})
		vipsStartedOK = true
	})
	return vipsStartedOK
}

func init() {
	register(HEIF, heifModule{})
}

const heifMetadataVersion = 1
const heifThumbnailVersion = 1

type heifModule struct{}

func (heifModule) Extensions() []string { return []string{".heif", ".heic"} }
func (heifModule) MetadataVersion() int { return heifMetadataVersion }
func (heifModule) ThumbnailVersion() int { return heifThumbnailVersion }

func (heifModule) GetMetadata(ctx context.Context, path string) (MediaMetadata, error) {
	if !ensureVips() {
		return MediaMetadata{}, fmt.Errorf("format: libvips unavailable for heif")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return MediaMetadata{}, fmt.Errorf("format: load heif %s: %w", path, err)
	}
	defer ref.Close()

	md := MediaMetadata{Width: ref.Width(), Height: ref.Height()}

	raw, err := os.ReadFile(path)
	if err == nil {
		if exifBlob, ok := extractHeifExifBox(raw); ok {
			if tags, terr := parseHeifExifBlob(exifBlob); terr == nil {
				if authored, ok := tagString(tags, "DateTimeOriginal"); ok {
					if t, perr := parseDateTime(authored); perr == nil {
						ms := t.UnixMilli()
						md.AuthoredAt = &ms
					}
				}
				if lat, ok := gpsCoordinate(tags, "GPSLatitude"); ok {
					md.Latitude = lat
				}
				if lon, ok := gpsCoordinate(tags, "GPSLongitude"); ok {
					md.Longitude = lon
				}
				md.IsScreenshot = isScreenshotFromUserComment(tags)
			}
		}
	}

	return md, nil
}

func (heifModule) GenerateThumbnail(ctx context.Context, path string, w, h int) ([]byte, error) {
	if !ensureVips() {
		return nil, fmt.Errorf("format: libvips unavailable for heif")
	}
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("format: load heif %s: %w", path, err)
	}
	defer ref.Close()

	outW, outH := ResizeDimensions(ref.Width(), ref.Height(), w, h, ResizeFit)
	if err := ref.Thumbnail(outW, outH, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("format: thumbnail heif %s: %w", path, err)
	}
	buf, _, err := ref.ExportJpeg(&vips.JpegExportParams{Quality: 85})
	if err != nil {
		return nil, fmt.Errorf("format: export heif thumbnail %s: %w", path, err)
	}
	return buf, nil
}

func (heifModule) GenerateFull(ctx context.Context, path string) ([]byte, error) {
	if !ensureVips() {
		return nil, fmt.Errorf("format: libvips unavailable for heif")
	}
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("format: load heif %s: %w", path, err)
	}
	defer ref.Close()
	buf, _, err := ref.ExportJpeg(&vips.JpegExportParams{Quality: 95})
	if err != nil {
		return nil, fmt.Errorf("format: export heif full %s: %w", path, err)
	}
	return buf, nil
}

// heifExifBoxMarker is the 4-byte item-type tag ("Exif") ISO-BMFF uses for the
// box that carries an embedded TIFF/EXIF payload inside an HEIF container.
var heifExifBoxMarker = []byte("Exif")

// extractHeifExifBox does a linear scan for the Exif item box rather than a full
// ISO-BMFF box tree walk (the registry has no other consumer that needs general
// box parsing), then applies the 4+4 byte header skip from §4.1.
func extractHeifExifBox(raw []byte) ([]byte, bool) {
	idx := bytes.Index(raw, heifExifBoxMarker)
	if idx < 0 || idx+len(heifExifBoxMarker) >= len(raw) {
		return nil, false
	}
	payload := heifExifPayload(raw[idx+len(heifExifBoxMarker):])
	if payload == nil {
		return nil, false
	}
	return payload, true
}

// parseHeifExifBlob shells the already-extracted TIFF/EXIF bytes back through
// exiftool (which accepts a raw TIFF stream on stdin) rather than hand-rolling a
// TIFF IFD walker.
func parseHeifExifBlob(blob []byte) (map[string]interface{}, error) {
	return runExiftoolStdin(blob)
}
