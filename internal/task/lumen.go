package task

import (
	"context"
	"time"

	"github.com/edwinzhancn/lumen-sdk/pkg/client"
	"github.com/edwinzhancn/lumen-sdk/pkg/config"
	"github.com/edwinzhancn/lumen-sdk/pkg/types"
	"go.uber.org/zap"
)

// LumenClient narrows the lumen-sdk client down to the two inference calls the
// VisionOCR and VLLM tasks need, so both can be exercised against a fake in tests.
// Grounded on the teacher's LumenService.OCR/VLMCaptionWithPrompt in
// internal/service/lumen_service.go.
type LumenClient interface {
	OCR(ctx context.Context, imageData []byte) (*types.OCRV1, error)
	VLMCaptionWithPrompt(ctx context.Context, imageData []byte, prompt string, maxTokens int) (string, error)
}

type sdkLumenClient struct {
	c *client.LumenClient
}

// NewLumenClient dials the platform inference sidecar once per process.
func NewLumenClient(cfg *config.Config, logger *zap.Logger) (LumenClient, error) {
	c, err := client.NewLumenClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &sdkLumenClient{c: c}, nil
}

func (s *sdkLumenClient) OCR(ctx context.Context, imageData []byte) (*types.OCRV1, error) {
	ocrReq, err := types.NewOCRRequest(imageData)
	if err != nil {
		return nil, err
	}
	req := types.NewInferRequest("ocr").ForOCR(ocrReq, "ocr").Build()

	resp, err := s.c.InferWithRetry(ctx, req,
		client.WithMaxWaitTime(10*time.Second),
		client.WithMaxRetries(3))
	if err != nil {
		return nil, err
	}
	return types.ParseInferResponse(resp).AsOCRResponse()
}

func (s *sdkLumenClient) VLMCaptionWithPrompt(ctx context.Context, imageData []byte, prompt string, maxTokens int) (string, error) {
	captionReq, err := types.NewImageTextGenerationRequest(imageData,
		types.WithPrompt(prompt),
		types.WithMaxTokens(maxTokens),
		types.WithTemperature(0.7))
	if err != nil {
		return "", err
	}
	req := types.NewInferRequest("vlm_generate").ForImageTextGeneration(captionReq, "vlm_generate").Build()

	resp, err := s.c.InferWithRetry(ctx, req,
		client.WithMaxWaitTime(10*time.Second),
		client.WithMaxRetries(3))
	if err != nil {
		return "", err
	}
	captionResp, err := types.ParseInferResponse(resp).AsTextGenerationResponse()
	if err != nil {
		return "", err
	}
	return captionResp.Text, nil
}
