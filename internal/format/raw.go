package format

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/h2non/bimg"
)

func init() {
	register(RAW, rawModule{})
}

const rawMetadataVersion = 1
const rawThumbnailVersion = 1

// rawExtensions mirrors the teacher's RAWMagicBytes/extension table in
// internal/utils/raw/raw_detector.go, covering the common vendor RAW suffixes.
var rawExtensions = []string{
	".cr2", ".cr3", ".nef", ".arw", ".dng", ".orf",
	".rw2", ".pef", ".raf", ".mrw", ".srw", ".rwl", ".x3f",
}

// rawModule converts RAW originals to a full-size JPEG preview via dcraw, then
// reuses the still-image resize/thumbnail path. Grounded on the teacher's
// Processor.processWithDcraw fallback (internal/utils/raw/raw_processor.go); the
// heavier cgo libraw binding (libraw_processor.go) is deliberately not adopted —
// see DESIGN.md.
type rawModule struct{}

func (rawModule) Extensions() []string  { return rawExtensions }
func (rawModule) MetadataVersion() int  { return rawMetadataVersion }
func (rawModule) ThumbnailVersion() int { return rawThumbnailVersion }

func (rawModule) GetMetadata(ctx context.Context, path string) (MediaMetadata, error) {
	preview, err := dcrawPreview(ctx, path)
	if err != nil {
		// Dimensions are unrecoverable without a renderable preview, but EXIF can
		// still be read straight off the original RAW container.
		md := MediaMetadata{}
		if tags, terr := runExiftool(ctx, path); terr == nil {
			applyStillTags(&md, tags)
		}
		return md, nil
	}

	size, err := bimg.NewImage(preview).Size()
	if err != nil {
		return MediaMetadata{}, fmt.Errorf("format: probe raw preview %s: %w", path, err)
	}
	md := MediaMetadata{Width: size.Width, Height: size.Height}

	if tags, terr := runExiftool(ctx, path); terr == nil {
		applyStillTags(&md, tags)
	}
	return md, nil
}

func applyStillTags(md *MediaMetadata, tags map[string]interface{}) {
	if authored, ok := tagString(tags, "DateTimeOriginal"); ok {
		if t, err := parseDateTime(authored); err == nil {
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

func (rawModule) GenerateThumbnail(ctx context.Context, path string, w, h int) ([]byte, error) {
	preview, err := dcrawPreview(ctx, path)
	if err != nil {
		return nil, err
	}
	img := bimg.NewImage(preview)
	size, err := img.Size()
	if err != nil {
		return nil, fmt.Errorf("format: probe raw preview %s: %w", path, err)
	}
	outW, outH := ResizeDimensions(size.Width, size.Height, w, h, ResizeFit)
	return img.Process(bimg.Options{Width: outW, Height: outH, Type: bimg.JPEG, Quality: 85})
}

func (rawModule) GenerateFull(ctx context.Context, path string) ([]byte, error) {
	preview, err := dcrawPreview(ctx, path)
	if err != nil {
		return nil, err
	}
	return bimg.NewImage(preview).Process(bimg.Options{Type: bimg.JPEG, Quality: 95})
}

// dcrawPreview runs dcraw -c -q 3 -w against the RAW file and converts the
// resulting PPM to JPEG via libvips, exactly the pipeline in
// Processor.processWithDcraw.
func dcrawPreview(ctx context.Context, path string) ([]byte, error) {
	if _, err := exec.LookPath("dcraw"); err != nil {
		return nil, fmt.Errorf("format: dcraw not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, "dcraw", "-c", "-q", "3", "-w", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("format: dcraw failed: %w (%s)", err, stderr.String())
	}
	ppm := stdout.Bytes()
	if len(ppm) == 0 {
		return nil, fmt.Errorf("format: dcraw produced no output for %s", path)
	}

	jpeg, err := bimg.NewImage(ppm).Process(bimg.Options{Type: bimg.JPEG, Quality: 95})
	if err != nil {
		return nil, fmt.Errorf("format: ppm to jpeg %s: %w", path, err)
	}
	return jpeg, nil
}
