package task

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"lumina/internal/catalog"
	"lumina/internal/format"
)

func init() {
	register(&VisionOCRTask{})
}

const visionOCRVersion = 1

// VisionOCRTask extracts text from the full-size derivative of a photo through
// the platform inference sidecar (§4.5), grounded on the teacher's
// LumenService.OCR in internal/service/lumen_service.go.
type VisionOCRTask struct {
	cat     *catalog.Catalog
	dataDir string
	lumen   LumenClient
}

func (t *VisionOCRTask) Configure(cat *catalog.Catalog, dataDir string, lumen LumenClient) {
	t.cat = cat
	t.dataDir = dataDir
	t.lumen = lumen
}

func (t *VisionOCRTask) Name() string { return "vision_ocr" }

func (t *VisionOCRTask) Compatible(m *catalog.Media) bool {
	if m.Class != catalog.ClassPhoto {
		return false
	}
	return format.AnyFormat{Tag: format.FormatType(m.Format)}.Thumbnailable()
}

// Outdated also requires the full-size derivative to already exist, so a scan
// never enqueues this ahead of the thumbnail task that produces it (§4.5).
func (t *VisionOCRTask) Outdated(m *catalog.Media) bool {
	if !t.Compatible(m) || !m.HasThumbnail {
		return false
	}
	extra, err := t.cat.ExtraForMedia(context.Background(), m.ID)
	if err != nil {
		return false
	}
	return !extra.HasVisionOCR() || extra.VisionOCRVersion < visionOCRVersion
}

// OCRLine is one recognized text span; VisionOCRResult serializes a slice of these.
type OCRLine struct {
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
}

func (t *VisionOCRTask) Run(ctx context.Context, m *catalog.Media) (Data, error) {
	fullPath := filepath.Join(t.dataDir, m.UUID.String()+fullSuffix)
	img, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("vision_ocr: full derivative missing: %w", err)
	}

	result, err := t.lumen.OCR(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("vision_ocr: infer: %w", err)
	}

	lines := make([]OCRLine, 0, len(result.Items))
	for _, item := range result.Items {
		lines = append(lines, OCRLine{Text: item.Text, Confidence: item.Confidence})
	}
	return lines, nil
}

func (t *VisionOCRTask) RunAndStore(ctx context.Context, m *catalog.Media) error {
	data, err := t.Run(ctx, m)
	if err != nil {
		return err
	}
	return t.store(ctx, m, data.([]OCRLine))
}

// RunRemote posts the full-size derivative to a remote runner (§4.6) rather
// than calling the inference sidecar directly.
func (t *VisionOCRTask) RunRemote(ctx context.Context, m *catalog.Media, rc *RemoteClient) (Data, error) {
	fullPath := filepath.Join(t.dataDir, m.UUID.String()+fullSuffix)
	respBody, err := rc.Invoke(ctx, t.Name(), m.UUID.String(), fullPath)
	if err != nil {
		return nil, fmt.Errorf("vision_ocr: remote invoke: %w", err)
	}
	var lines []OCRLine
	if err := json.Unmarshal(respBody, &lines); err != nil {
		return nil, fmt.Errorf("vision_ocr: parse remote result: %w", err)
	}
	return lines, nil
}

func (t *VisionOCRTask) RunRemoteAndStore(ctx context.Context, m *catalog.Media, rc *RemoteClient) error {
	data, err := t.RunRemote(ctx, m, rc)
	if err != nil {
		return err
	}
	return t.store(ctx, m, data.([]OCRLine))
}

func (t *VisionOCRTask) store(ctx context.Context, m *catalog.Media, lines []OCRLine) error {
	serialized, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("vision_ocr: marshal result: %w", err)
	}

	extra, err := t.cat.ExtraForMedia(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("vision_ocr: load media_extra: %w", err)
	}
	extra.VisionOCRVersion = visionOCRVersion
	extra.VisionOCRResult = string(serialized)
	return t.cat.UpsertExtra(ctx, extra)
}

func (t *VisionOCRTask) RemoveData(ctx context.Context, m *catalog.Media) error {
	extra, err := t.cat.ExtraForMedia(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("vision_ocr: load media_extra: %w", err)
	}
	extra.VisionOCRVersion = -1
	extra.VisionOCRResult = ""
	return t.cat.UpsertExtra(ctx, extra)
}
