// Package format is the compile-time-closed format registry (C1): one module per
// supported file format, each implementing a two-tier capability contract (base
// metadata extraction, optional thumbnailing, optional audio transcoding).
package format

import (
	"context"
	"fmt"
)

// FormatType is the runtime tag that maps 1-1 to a format module.
type FormatType string

const (
	JPEG    FormatType = "jpeg"
	PNG     FormatType = "png"
	HEIF    FormatType = "heif"
	RAW     FormatType = "raw"
	MP4     FormatType = "mp4"
	MP3     FormatType = "mp3"
	WAV     FormatType = "wav"
	PDF     FormatType = "pdf"
	UnknownFormat FormatType = ""
)

// MediaMetadata is the base-capability extraction result, common to every format.
type MediaMetadata struct {
	Width        int
	Height       int
	DurationMS   *int64
	AuthoredAt   *int64 // unix millis; nil falls back to filesystem-creation time
	Longitude    *float64
	Latitude     *float64
	IsScreenshot bool
}

// BaseModule is implemented by every format module (§4.1).
type BaseModule interface {
	Extensions() []string
	MetadataVersion() int
	GetMetadata(ctx context.Context, path string) (MediaMetadata, error)
}

// ThumbnailModule is implemented by photo/video/raw/pdf formats.
type ThumbnailModule interface {
	BaseModule
	ThumbnailVersion() int
	GenerateThumbnail(ctx context.Context, path string, w, h int) ([]byte, error)
	GenerateFull(ctx context.Context, path string) ([]byte, error)
}

// AudioModule is implemented by audio+video formats.
type AudioModule interface {
	BaseModule
	ConvertToMP3(ctx context.Context, src, dst string) error
	ConvertToWAV(ctx context.Context, src, dst string) error
}

// registry is the compile-time-closed set of format modules, keyed by tag. Each
// module's file registers it from its own init(); nothing outside this package
// registers a module.
var registry = map[FormatType]BaseModule{}

// extByFormat maps each declared extension (lowercase, with leading dot) to its tag.
var extByFormat = map[string]FormatType{}

func register(tag FormatType, mod BaseModule) {
	registry[tag] = mod
	for _, ext := range mod.Extensions() {
		extByFormat[ext] = tag
	}
}

// Detect returns the FormatType for a file extension, or UnknownFormat if no module
// declares it (§4.4 step 2: UnsupportedFormat).
func Detect(ext string) FormatType {
	if t, ok := extByFormat[ext]; ok {
		return t
	}
	return UnknownFormat
}

// AnyFormat answers capability queries and forwards typed calls to the module
// registered for its tag (§4.1).
type AnyFormat struct {
	Tag  FormatType
	Path string
}

func (f AnyFormat) module() (BaseModule, error) {
	mod, ok := registry[f.Tag]
	if !ok {
		return nil, fmt.Errorf("format: no module registered for tag %q", f.Tag)
	}
	return mod, nil
}

func (f AnyFormat) Thumbnailable() bool {
	mod, err := f.module()
	if err != nil {
		return false
	}
	_, ok := mod.(ThumbnailModule)
	return ok
}

func (f AnyFormat) Audioable() bool {
	mod, err := f.module()
	if err != nil {
		return false
	}
	_, ok := mod.(AudioModule)
	return ok
}

func (f AnyFormat) MetadataVersion() int {
	mod, err := f.module()
	if err != nil {
		return 0
	}
	return mod.MetadataVersion()
}

func (f AnyFormat) ThumbnailVersion() int {
	mod, err := f.module()
	if err != nil {
		return 0
	}
	if tm, ok := mod.(ThumbnailModule); ok {
		return tm.ThumbnailVersion()
	}
	return 0
}

func (f AnyFormat) GetMetadata(ctx context.Context) (MediaMetadata, error) {
	mod, err := f.module()
	if err != nil {
		return MediaMetadata{}, err
	}
	return mod.GetMetadata(ctx, f.Path)
}

func (f AnyFormat) GenerateThumbnail(ctx context.Context, w, h int) ([]byte, error) {
	mod, err := f.module()
	if err != nil {
		return nil, err
	}
	tm, ok := mod.(ThumbnailModule)
	if !ok {
		return nil, fmt.Errorf("format: %q is not thumbnailable", f.Tag)
	}
	return tm.GenerateThumbnail(ctx, f.Path, w, h)
}

func (f AnyFormat) GenerateFull(ctx context.Context) ([]byte, error) {
	mod, err := f.module()
	if err != nil {
		return nil, err
	}
	tm, ok := mod.(ThumbnailModule)
	if !ok {
		return nil, fmt.Errorf("format: %q is not thumbnailable", f.Tag)
	}
	return tm.GenerateFull(ctx, f.Path)
}

func (f AnyFormat) ConvertToMP3(ctx context.Context, dst string) error {
	mod, err := f.module()
	if err != nil {
		return err
	}
	am, ok := mod.(AudioModule)
	if !ok {
		return fmt.Errorf("format: %q is not audioable", f.Tag)
	}
	return am.ConvertToMP3(ctx, f.Path, dst)
}

func (f AnyFormat) ConvertToWAV(ctx context.Context, dst string) error {
	mod, err := f.module()
	if err != nil {
		return err
	}
	am, ok := mod.(AudioModule)
	if !ok {
		return fmt.Errorf("format: %q is not audioable", f.Tag)
	}
	return am.ConvertToWAV(ctx, f.Path, dst)
}

// thumbnailableTags lists every tag that is expected to implement ThumbnailModule;
// assertRegistryComplete (run through AssertComplete in registry.go) is the
// completeness check described in §4.1 — it panics rather than failing silently
// at first use if a module was declared but never registered.
var thumbnailableTags = []FormatType{JPEG, PNG, HEIF, RAW, MP4, PDF}

func assertRegistryComplete() {
	for _, tag := range thumbnailableTags {
		mod, ok := registry[tag]
		if !ok {
			panic(fmt.Sprintf("format: declared thumbnailable tag %q has no registered module", tag))
		}
		if _, ok := mod.(ThumbnailModule); !ok {
			panic(fmt.Sprintf("format: module for tag %q does not implement ThumbnailModule", tag))
		}
	}
}
