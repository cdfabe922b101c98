package format

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

func init() {
	register(MP4, videoModule{})
}

const videoMetadataVersion = 1
const videoThumbnailVersion = 1

// videoModule probes and transcodes with ffprobe/ffmpeg, grounded on
// internal/processors/video_helpers.go's getVideoInfo/transcodeVideoToMP4/
// generateVideoThumbnail pipeline.
type videoModule struct{}

func (videoModule) Extensions() []string  { return []string{".mp4", ".mov", ".m4v", ".mkv", ".avi", ".webm"} }
func (videoModule) MetadataVersion() int  { return videoMetadataVersion }
func (videoModule) ThumbnailVersion() int { return videoThumbnailVersion }

type ffprobeOutput struct {
	Streams []struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
		Tags      struct {
			Location      string `json:"location"`
			CreationTime  string `json:"creation_time"`
		} `json:"tags"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Tags     struct {
			Location     string `json:"location"`
			CreationTime string `json:"creation_time"`
		} `json:"tags"`
	} `json:"format"`
}

func probeVideo(ctx context.Context, path string) (*ffprobeOutput, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("format: ffprobe failed for %s: %w", path, err)
	}
	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("format: parse ffprobe json %s: %w", path, err)
	}
	return &probe, nil
}

func (videoModule) GetMetadata(ctx context.Context, path string) (MediaMetadata, error) {
	probe, err := probeVideo(ctx, path)
	if err != nil {
		return MediaMetadata{}, err
	}

	md := MediaMetadata{}
	location := probe.Format.Tags.Location
	creationTime := probe.Format.Tags.CreationTime

	for _, s := range probe.Streams {
		if s.CodecType != "video" {
			continue
		}
		md.Width = s.Width
		md.Height = s.Height
		if s.Tags.Location != "" {
			location = s.Tags.Location
		}
		if s.Tags.CreationTime != "" {
			creationTime = s.Tags.CreationTime
		}
		break
	}

	if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		ms := int64(d * 1000)
		md.DurationMS = &ms
	}
	if creationTime != "" {
		if t, err := parseDateTime(creationTime); err == nil {
			ms := t.UnixMilli()
			md.AuthoredAt = &ms
		}
	}
	if location != "" {
		if lat, lon, ok := parseISO6709(location); ok {
			md.Latitude = &lat
			md.Longitude = &lon
			md.IsScreenshot = false
		}
	}

	return md, nil
}

func (videoModule) GenerateThumbnail(ctx context.Context, path string, w, h int) ([]byte, error) {
	return extractVideoFrame(ctx, path, w, h)
}

func (videoModule) GenerateFull(ctx context.Context, path string) ([]byte, error) {
	return extractVideoFrame(ctx, path, 0, 0)
}

// extractVideoFrame grabs one frame at 1s in and scales it; the seek point is
// fixed and is not adjusted to the clip's duration. Mirrors
// generateVideoThumbnail's ffmpeg invocation. w==0 && h==0 requests the native
// frame size (full derivative).
func extractVideoFrame(ctx context.Context, path string, w, h int) ([]byte, error) {
	tmp, err := os.CreateTemp("", "videoframe-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("format: create temp frame file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := []string{"-ss", "00:00:01", "-i", path, "-vframes", "1", "-q:v", "2"}
	if w > 0 && h > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", w, h))
	}
	args = append(args, "-y", tmpPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("format: ffmpeg frame extract %s: %w (%s)", path, err, stderr.String())
	}

	return os.ReadFile(tmpPath)
}

func (videoModule) ConvertToMP3(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-i", src, "-vn", "-c:a", "libmp3lame", "-b:a", "192k", "-y", dst)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("format: extract audio to mp3 %s: %w", src, err)
	}
	return nil
}

func (videoModule) ConvertToWAV(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-i", src, "-vn", "-c:a", "pcm_s16le", "-y", dst)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("format: extract audio to wav %s: %w", src, err)
	}
	return nil
}
