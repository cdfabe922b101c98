package format

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

func init() {
	register(MP3, mp3Module{})
	register(WAV, wavModule{})
}

const audioMetadataVersion = 1

// audioModule implements the shared probe/convert logic; mp3Module and wavModule
// differ only in the extension each owns, so Detect() maps each suffix to its own
// tag instead of both colliding on the last-registered module. Grounded on
// internal/processors/audio_helpers.go's getAudioInfo/transcodeAudioToMP3.
type audioModule struct{}
type mp3Module struct{ audioModule }
type wavModule struct{ audioModule }

func (mp3Module) Extensions() []string { return []string{".mp3"} }
func (wavModule) Extensions() []string { return []string{".wav"} }

func (audioModule) MetadataVersion() int { return audioMetadataVersion }

type ffprobeAudioOutput struct {
	Streams []struct {
		Duration string `json:"duration"`
		Tags     struct {
			CreationTime string `json:"creation_time"`
		} `json:"tags"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (audioModule) GetMetadata(ctx context.Context, path string) (MediaMetadata, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-select_streams", "a:0",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return MediaMetadata{}, fmt.Errorf("format: ffprobe failed for %s: %w", path, err)
	}

	var probe ffprobeAudioOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return MediaMetadata{}, fmt.Errorf("format: parse ffprobe json %s: %w", path, err)
	}

	md := MediaMetadata{}
	durationStr := probe.Format.Duration
	var creationTime string
	if len(probe.Streams) > 0 {
		if probe.Streams[0].Duration != "" {
			durationStr = probe.Streams[0].Duration
		}
		creationTime = probe.Streams[0].Tags.CreationTime
	}
	if d, err := strconv.ParseFloat(durationStr, 64); err == nil {
		ms := int64(d * 1000)
		md.DurationMS = &ms
	}
	if creationTime != "" {
		if t, err := parseDateTime(creationTime); err == nil {
			unix := t.UnixMilli()
			md.AuthoredAt = &unix
		}
	}
	return md, nil
}

func (audioModule) ConvertToMP3(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-i", src, "-c:a", "libmp3lame", "-b:a", "192k", "-y", dst)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("format: convert to mp3 %s: %w", src, err)
	}
	return nil
}

func (audioModule) ConvertToWAV(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-i", src, "-c:a", "pcm_s16le", "-y", dst)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("format: convert to wav %s: %w", src, err)
	}
	return nil
}
