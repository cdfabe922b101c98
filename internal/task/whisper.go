package task

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"lumina/internal/catalog"
	"lumina/internal/config"
	"lumina/internal/format"
)

func init() {
	register(&WhisperTask{})
}

// WhisperTask transcribes the audio track of any audioable format by converting it
// to mp3 and invoking an external transcription process (§4.5), grounded on
// format.AudioModule.ConvertToMP3 and the teacher's transcodeAudioToMP3 exec.Command
// idiom in internal/processors/audio_helpers.go.
type WhisperTask struct {
	cat *catalog.Catalog
	cfg config.WhisperConfig
}

func (t *WhisperTask) Configure(cat *catalog.Catalog, cfg config.WhisperConfig) {
	t.cat = cat
	t.cfg = cfg
}

func (t *WhisperTask) Name() string { return "whisper" }

func (t *WhisperTask) Compatible(m *catalog.Media) bool {
	return format.AnyFormat{Tag: format.FormatType(m.Format)}.Audioable()
}

const whisperVersion = 1

func (t *WhisperTask) Outdated(m *catalog.Media) bool {
	if !t.Compatible(m) {
		return false
	}
	extra, err := t.cat.ExtraForMedia(context.Background(), m.ID)
	if err != nil {
		return true
	}
	return !extra.HasWhisper() || extra.WhisperVersion < whisperVersion
}

// WhisperResult is the parsed output of the external transcription process: line 1
// is the detected language, line 2 a confidence float, and every following line is
// a "start|end|text" segment.
type WhisperResult struct {
	Language   string
	Confidence float64
	Transcript string
}

func (t *WhisperTask) Run(ctx context.Context, m *catalog.Media) (Data, error) {
	tmpDir, err := os.MkdirTemp("", "whisper-*")
	if err != nil {
		return nil, fmt.Errorf("whisper: mktemp: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	mp3Path := filepath.Join(tmpDir, "input.mp3")
	af := format.AnyFormat{Tag: format.FormatType(m.Format), Path: m.Path}
	if err := af.ConvertToMP3(ctx, mp3Path); err != nil {
		return nil, fmt.Errorf("whisper: convert to mp3: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.cfg.Binary,
		t.cfg.Model, t.cfg.Device, t.cfg.ComputeType, t.cfg.ModelDownloadRoot, mp3Path)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("whisper: transcription process: %w", err)
	}

	return parseWhisperOutput(out)
}

func parseWhisperOutput(out []byte) (WhisperResult, error) {
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		return WhisperResult{}, fmt.Errorf("whisper: missing language line")
	}
	language := strings.TrimSpace(scanner.Text())

	if !scanner.Scan() {
		return WhisperResult{}, fmt.Errorf("whisper: missing confidence line")
	}
	confidence, err := strconv.ParseFloat(strings.TrimSpace(scanner.Text()), 64)
	if err != nil {
		return WhisperResult{}, fmt.Errorf("whisper: parse confidence: %w", err)
	}

	var segments []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		segments = append(segments, line)
	}
	if err := scanner.Err(); err != nil {
		return WhisperResult{}, fmt.Errorf("whisper: scan segments: %w", err)
	}

	return WhisperResult{
		Language:   language,
		Confidence: confidence,
		Transcript: strings.Join(segments, "\n"),
	}, nil
}

func (t *WhisperTask) RunAndStore(ctx context.Context, m *catalog.Media) error {
	data, err := t.Run(ctx, m)
	if err != nil {
		return err
	}
	return t.store(ctx, m, data.(WhisperResult))
}

func (t *WhisperTask) store(ctx context.Context, m *catalog.Media, res WhisperResult) error {
	extra, err := t.cat.ExtraForMedia(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("whisper: load media_extra: %w", err)
	}
	extra.WhisperVersion = whisperVersion
	extra.WhisperLanguage = res.Language
	extra.WhisperConfidence = res.Confidence
	extra.WhisperTranscript = res.Transcript
	return t.cat.UpsertExtra(ctx, extra)
}

// RunRemote posts the source audio file to a remote runner (§4.6) instead of
// shelling out to the local transcription process; the runner is expected to
// run the same Run and reply with its JSON-marshaled WhisperResult.
func (t *WhisperTask) RunRemote(ctx context.Context, m *catalog.Media, rc *RemoteClient) (Data, error) {
	respBody, err := rc.Invoke(ctx, t.Name(), m.UUID.String(), m.Path)
	if err != nil {
		return nil, fmt.Errorf("whisper: remote invoke: %w", err)
	}
	var res WhisperResult
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, fmt.Errorf("whisper: parse remote result: %w", err)
	}
	return res, nil
}

func (t *WhisperTask) RunRemoteAndStore(ctx context.Context, m *catalog.Media, rc *RemoteClient) error {
	data, err := t.RunRemote(ctx, m, rc)
	if err != nil {
		return err
	}
	return t.store(ctx, m, data.(WhisperResult))
}

func (t *WhisperTask) RemoveData(ctx context.Context, m *catalog.Media) error {
	extra, err := t.cat.ExtraForMedia(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("whisper: load media_extra: %w", err)
	}
	extra.WhisperVersion = -1
	extra.WhisperLanguage = ""
	extra.WhisperConfidence = 0
	extra.WhisperTranscript = ""
	return t.cat.UpsertExtra(ctx, extra)
}
