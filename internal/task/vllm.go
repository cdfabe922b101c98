package task

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lumina/internal/catalog"
	"lumina/internal/config"
	"lumina/internal/format"
)

func init() {
	register(&VLLMTask{})
}

const vllmCaptionVersion = 1

// VLLMTask generates a prompted caption for a photo's full-size derivative
// (§4.5): input tuple (prompt, image_path, max_tokens, runs), output is a
// sequence of `runs` strings which this task joins into one caption. Grounded on
// the teacher's LumenService.VLMCaptionWithPrompt in
// internal/service/lumen_service.go.
type VLLMTask struct {
	cat     *catalog.Catalog
	dataDir string
	lumen   LumenClient
	cfg     config.VLLMConfig
}

func (t *VLLMTask) Configure(cat *catalog.Catalog, dataDir string, lumen LumenClient, cfg config.VLLMConfig) {
	t.cat = cat
	t.dataDir = dataDir
	t.lumen = lumen
	t.cfg = cfg
}

func (t *VLLMTask) Name() string { return "vllm_caption" }

func (t *VLLMTask) Compatible(m *catalog.Media) bool {
	if m.Class != catalog.ClassPhoto {
		return false
	}
	return format.AnyFormat{Tag: format.FormatType(m.Format)}.Thumbnailable()
}

func (t *VLLMTask) Outdated(m *catalog.Media) bool {
	if !t.Compatible(m) || !m.HasThumbnail {
		return false
	}
	extra, err := t.cat.ExtraForMedia(context.Background(), m.ID)
	if err != nil {
		return false
	}
	return !extra.HasCaption() || extra.CaptionVersion < vllmCaptionVersion
}

func (t *VLLMTask) Run(ctx context.Context, m *catalog.Media) (Data, error) {
	fullPath := filepath.Join(t.dataDir, m.UUID.String()+fullSuffix)
	img, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("vllm_caption: full derivative missing: %w", err)
	}

	runs := t.cfg.Runs
	if runs < 1 {
		runs = 1
	}
	captions := make([]string, 0, runs)
	for i := 0; i < runs; i++ {
		text, err := t.lumen.VLMCaptionWithPrompt(ctx, img, t.cfg.Prompt, t.cfg.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("vllm_caption: infer: %w", err)
		}
		captions = append(captions, text)
	}
	return captions, nil
}

func (t *VLLMTask) RunAndStore(ctx context.Context, m *catalog.Media) error {
	data, err := t.Run(ctx, m)
	if err != nil {
		return err
	}
	return t.store(ctx, m, data.([]string))
}

// RunRemote posts the full-size derivative to a remote runner (§4.6) rather
// than calling the captioning sidecar directly.
func (t *VLLMTask) RunRemote(ctx context.Context, m *catalog.Media, rc *RemoteClient) (Data, error) {
	fullPath := filepath.Join(t.dataDir, m.UUID.String()+fullSuffix)
	respBody, err := rc.Invoke(ctx, t.Name(), m.UUID.String(), fullPath)
	if err != nil {
		return nil, fmt.Errorf("vllm_caption: remote invoke: %w", err)
	}
	var captions []string
	if err := json.Unmarshal(respBody, &captions); err != nil {
		return nil, fmt.Errorf("vllm_caption: parse remote result: %w", err)
	}
	return captions, nil
}

func (t *VLLMTask) RunRemoteAndStore(ctx context.Context, m *catalog.Media, rc *RemoteClient) error {
	data, err := t.RunRemote(ctx, m, rc)
	if err != nil {
		return err
	}
	return t.store(ctx, m, data.([]string))
}

func (t *VLLMTask) store(ctx context.Context, m *catalog.Media, captions []string) error {
	extra, err := t.cat.ExtraForMedia(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("vllm_caption: load media_extra: %w", err)
	}
	extra.CaptionVersion = vllmCaptionVersion
	extra.CaptionText = strings.Join(captions, "\n")
	return t.cat.UpsertExtra(ctx, extra)
}

func (t *VLLMTask) RemoveData(ctx context.Context, m *catalog.Media) error {
	extra, err := t.cat.ExtraForMedia(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("vllm_caption: load media_extra: %w", err)
	}
	extra.CaptionVersion = -1
	extra.CaptionText = ""
	return t.cat.UpsertExtra(ctx, extra)
}
