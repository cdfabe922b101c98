package format

import (
	"context"
	"fmt"
	"os"

	"github.com/h2non/bimg"
)

func init() {
	register(JPEG, jpegModule{})
	register(PNG, pngModule{})
}

const stillMetadataVersion = 1
const stillThumbnailVersion = 1

// jpegModule and pngModule share an implementation: both are handled end-to-end by
// libvips (via bimg), which the teacher already depends on for derivative
// generation (internal/utils/imaging/process.go).
type jpegModule struct{}
type pngModule struct{}

func (jpegModule) Extensions() []string { return []string{".jpg", ".jpeg"} }
func (pngModule) Extensions() []string  { return []string{".png"} }

func (jpegModule) MetadataVersion() int { return stillMetadataVersion }
func (pngModule) MetadataVersion() int  { return stillMetadataVersion }

func (jpegModule) ThumbnailVersion() int { return stillThumbnailVersion }
func (pngModule) ThumbnailVersion() int  { return stillThumbnailVersion }

func (jpegModule) GetMetadata(ctx context.Context, path string) (MediaMetadata, error) {
	return stillMetadata(ctx, path)
}

func (pngModule) GetMetadata(ctx context.Context, path string) (MediaMetadata, error) {
	return stillMetadata(ctx, path)
}

func (jpegModule) GenerateThumbnail(ctx context.Context, path string, w, h int) ([]byte, error) {
	return bimgThumbnail(path, w, h)
}

func (pngModule) GenerateThumbnail(ctx context.Context, path string, w, h int) ([]byte, error) {
	return bimgThumbnail(path, w, h)
}

func (jpegModule) GenerateFull(ctx context.Context, path string) ([]byte, error) {
	return bimgFull(path)
}

func (pngModule) GenerateFull(ctx context.Context, path string) ([]byte, error) {
	return bimgFull(path)
}

// stillMetadata reads pixel dimensions via libvips and authorship/GPS/screenshot
// data via exiftool, grounded on the teacher's split between internal/utils/imaging
// (pixel geometry) and internal/utils/exif (tag extraction).
func stillMetadata(ctx context.Context, path string) (MediaMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MediaMetadata{}, fmt.Errorf("format: read %s: %w", path, err)
	}
	size, err := bimg.NewImage(data).Size()
	if err != nil {
		return MediaMetadata{}, fmt.Errorf("format: probe size %s: %w", path, err)
	}

	md := MediaMetadata{Width: size.Width, Height: size.Height}

	tags, err := runExiftool(ctx, path)
	if err != nil {
		// Pixel geometry is still usable even when exiftool is unavailable or the
		// file carries no EXIF segment at all.
		return md, nil
	}

	if authored, ok := tagString(tags, "DateTimeOriginal"); ok {
		if t, err2 := parseDateTime(authored); err2 == nil {
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

	return md, nil
}

func bimgThumbnail(path string, w, h int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("format: read %s: %w", path, err)
	}
	img := bimg.NewImage(data)
	size, err := img.Size()
	if err != nil {
		return nil, fmt.Errorf("format: probe size %s: %w", path, err)
	}
	outW, outH := ResizeDimensions(size.Width, size.Height, w, h, ResizeFit)
	return img.Process(bimg.Options{
		Width:   outW,
		Height:  outH,
		Type:    bimg.JPEG,
		Quality: 85,
	})
}

func bimgFull(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("format: read %s: %w", path, err)
	}
	return bimg.NewImage(data).Process(bimg.Options{
		Type:    bimg.JPEG,
		Quality: 95,
	})
}
