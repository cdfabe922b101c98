package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lumina/internal/config"
)

// ShouldRemote reports whether task name should be dispatched to a remote runner
// instead of running locally: the task must implement RemoteCapable and the
// operator must have named it in the remote config's task table (§4.6).
func ShouldRemote(name string, cfg config.RemoteConfig) (config.RemoteTaskConfig, bool) {
	t, ok := Get(name)
	if !ok {
		return config.RemoteTaskConfig{}, false
	}
	if _, ok := t.(RemoteCapable); !ok {
		return config.RemoteTaskConfig{}, false
	}
	rc, ok := cfg.Tasks[name]
	return rc, ok
}

// remoteJob mirrors the wire shape of a remote runner's catalog.Job response
// (§4.6): it is deserialized, never constructed, by the client below.
type remoteJob struct {
	UUID                string     `json:"uuid"`
	Status              string     `json:"status"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
	SuccessData         string     `json:"success_data,omitempty"`
	FailureData         string     `json:"failure_data,omitempty"`
}

// RemoteClient is the caller-side half of §4.6's HTTP contract: POST the source
// file to /task/{task_name}, then, if the runner answered 201 (asynchronous),
// poll /job/{uuid} with an adaptive interval until a terminal status.
type RemoteClient struct {
	baseURL string
	http    *http.Client
}

func NewRemoteClient(cfg config.RemoteTaskConfig) *RemoteClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Invoke posts mediaPath's contents to the remote runner for taskName and
// returns the task's raw result payload once it is available.
func (r *RemoteClient) Invoke(ctx context.Context, taskName, mediaUUID, mediaPath string) ([]byte, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := w.WriteField("media_uuid", mediaUUID); err != nil {
		return nil, fmt.Errorf("remote: write media_uuid field: %w", err)
	}
	f, err := os.Open(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("remote: open source file: %w", err)
	}
	defer f.Close()
	part, err := w.CreateFormFile("file", filepath.Base(mediaPath))
	if err != nil {
		return nil, fmt.Errorf("remote: create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("remote: copy source into request: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("remote: close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/task/%s", r.baseURL, taskName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: post task: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return respBody, nil
	case http.StatusCreated:
		var j remoteJob
		if err := json.Unmarshal(respBody, &j); err != nil {
			return nil, fmt.Errorf("remote: parse job response: %w", err)
		}
		return r.pollJob(ctx, j.UUID)
	case http.StatusConflict:
		return nil, fmt.Errorf("remote: runner busy: %s", respBody)
	default:
		return nil, fmt.Errorf("remote: unexpected status %d: %s", resp.StatusCode, respBody)
	}
}

func (r *RemoteClient) pollJob(ctx context.Context, jobUUID string) ([]byte, error) {
	url := fmt.Sprintf("%s/job/%s", r.baseURL, jobUUID)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("remote: build poll request: %w", err)
		}
		resp, err := r.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("remote: poll job: %w", err)
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("remote: read poll response: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("remote: job %s not found", jobUUID)
		}

		var j remoteJob
		if err := json.Unmarshal(respBody, &j); err != nil {
			return nil, fmt.Errorf("remote: parse job poll: %w", err)
		}

		switch j.Status {
		case "success":
			return []byte(j.SuccessData), nil
		case "failed":
			return nil, fmt.Errorf("remote: job failed: %s", j.FailureData)
		case "cancelled":
			return nil, fmt.Errorf("remote: job cancelled: %s", j.FailureData)
		}

		wait := 10 * time.Second
		if j.EstimatedCompletion != nil {
			if d := time.Until(*j.EstimatedCompletion); d > 0 {
				wait = d
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
